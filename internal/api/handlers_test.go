package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerlens/pokerlens/internal/analysis"
	"github.com/pokerlens/pokerlens/internal/hands"
	"github.com/pokerlens/pokerlens/internal/importer"
	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/monitoring"
	"github.com/pokerlens/pokerlens/internal/session"
	"github.com/pokerlens/pokerlens/internal/stats"
	"github.com/pokerlens/pokerlens/internal/types"
	"github.com/pokerlens/pokerlens/internal/ws"
)

// Prometheus collectors register globally, so the test binary shares one set.
var testMetrics = monitoring.New()

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

type stubCoach struct {
	coaching *types.Coaching
	err      error
}

func (s *stubCoach) Analyze(context.Context, *types.Report) (*types.Coaching, error) {
	return s.coaching, s.err
}

type fixture struct {
	router   *gin.Engine
	store    *hands.Store
	handsDir string
	coach    *stubCoach
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.NewNop()

	store := hands.NewStore()
	engine := stats.NewEngine(store)
	handsDir := t.TempDir()

	imp := importer.New(store, engine, nopPublisher{}, nil, log, 2)
	coach := &stubCoach{coaching: &types.Coaching{Summary: "play tighter", Confidence: 0.7}}
	svc := analysis.NewService(coach, engine, nopPublisher{}, nil, log)

	sessions, err := session.NewManager(t.TempDir(), log)
	require.NoError(t, err)

	hub := ws.NewHub(log, nil)
	t.Cleanup(hub.Close)

	h := NewHandlers(store, engine, imp, svc, sessions, hub, testMetrics, log, handsDir)
	router := gin.New()
	h.Register(router)

	return &fixture{router: router, store: store, handsDir: handsDir, coach: coach}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func seedHands(store *hands.Store, n int) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		pos := types.ValidPositions[i%len(types.ValidPositions)]
		store.Add(&types.Hand{
			ID:          "hand_" + string(rune('a'+i)),
			PlayedAt:    base.Add(time.Duration(i) * time.Minute),
			Stake:       types.Stake{SmallBlind: 0.5, BigBlind: 1},
			Position:    pos,
			VPIP:        i%2 == 0,
			NetWinnings: float64(i - n/2),
		})
	}
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pokerlens")

	rec = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status      string `json:"status"`
		HandsStored int    `json:"hands_stored"`
	}
	decode(t, rec, &health)
	assert.Equal(t, "healthy", health.Status)
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)
	seedHands(f.store, 12)

	rec := f.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report types.Report
	decode(t, rec, &report)
	assert.Equal(t, 12, report.HandsPlayed)
	assert.Len(t, report.ProfitCurve, 12)
}

func TestGetStatsFiltered(t *testing.T) {
	f := newFixture(t)
	seedHands(f.store, 12)

	rec := f.do(t, http.MethodGet, "/api/stats?positions=BTN", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report types.Report
	decode(t, rec, &report)
	assert.Equal(t, 2, report.HandsPlayed)
}

func TestGetStatsBadFilter(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"positions=DEALER", "big_blind=abc", "from=yesterday"} {
		rec := f.do(t, http.MethodGet, "/api/stats?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestPositionStats(t *testing.T) {
	f := newFixture(t)
	seedHands(f.store, 12)

	rec := f.do(t, http.MethodGet, "/api/stats/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Positions   []types.PositionReport `json:"positions"`
		Correlation float64                `json:"correlation"`
	}
	decode(t, rec, &resp)
	assert.Len(t, resp.Positions, 6)
}

func TestListHandsPaged(t *testing.T) {
	f := newFixture(t)
	seedHands(f.store, 25)

	rec := f.do(t, http.MethodGet, "/api/hands?offset=20&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Hands []types.Hand `json:"hands"`
		Total int          `json:"total"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 25, resp.Total)
	assert.Len(t, resp.Hands, 5)
}

func TestStartImport(t *testing.T) {
	f := newFixture(t)

	path := filepath.Join(f.handsDir, "new.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	rec := f.do(t, http.MethodPost, "/api/import", gin.H{"path": "new.jsonl"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		TaskID string `json:"task_id"`
	}
	decode(t, rec, &resp)
	assert.Contains(t, resp.TaskID, "task_")
}

func TestStartImportRejectsTraversal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/import", gin.H{"path": "../../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAnalysis(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var coaching types.Coaching
	decode(t, rec, &coaching)
	assert.Equal(t, "play tighter", coaching.Summary)
}

func TestRunAnalysisUnavailable(t *testing.T) {
	f := newFixture(t)
	f.coach.coaching = nil
	f.coach.err = analysis.ErrUnavailable

	rec := f.do(t, http.MethodPost, "/api/analysis", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunAnalysisUpstreamError(t *testing.T) {
	f := newFixture(t)
	f.coach.coaching = nil
	f.coach.err = errors.New("boom")

	rec := f.do(t, http.MethodPost, "/api/analysis", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", gin.H{
		"name":    "NL25 grind",
		"filters": gin.H{"big_blind": 0.25},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Session
	decode(t, rec, &created)
	require.Contains(t, created.ID, "sess_")

	rec = f.do(t, http.MethodGet, "/api/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NL25 grind")

	rec = f.do(t, http.MethodPut, "/api/sessions/"+created.ID, gin.H{
		"name": "NL25 grind (reviewed)",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", gin.H{"description": "nameless"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/sessions/sess_missing", gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/sessions/sess_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
