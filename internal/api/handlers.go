package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

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

// Handlers serves the REST API consumed by the dashboard.
type Handlers struct {
	store    *hands.Store
	engine   *stats.Engine
	importer *importer.Importer
	coaching *analysis.Service
	sessions *session.Manager
	hub      *ws.Hub
	metrics  *monitoring.Metrics
	log      *logging.Logger

	handsDir string
}

// NewHandlers creates the API handler set.
func NewHandlers(
	store *hands.Store,
	engine *stats.Engine,
	imp *importer.Importer,
	coaching *analysis.Service,
	sessions *session.Manager,
	hub *ws.Hub,
	metrics *monitoring.Metrics,
	log *logging.Logger,
	handsDir string,
) *Handlers {
	return &Handlers{
		store:    store,
		engine:   engine,
		importer: imp,
		coaching: coaching,
		sessions: sessions,
		hub:      hub,
		metrics:  metrics,
		log:      log.Named("api"),
		handsDir: handsDir,
	}
}

// Register attaches all routes to the router.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.GET("/stats", h.getStats)
		api.GET("/stats/positions", h.getPositionStats)
		api.GET("/hands", h.listHands)
		api.POST("/import", h.startImport)
		api.POST("/analysis", h.runAnalysis)

		api.GET("/sessions", h.listSessions)
		api.POST("/sessions", h.createSession)
		api.GET("/sessions/:id", h.getSession)
		api.PUT("/sessions/:id", h.updateSession)
		api.DELETE("/sessions/:id", h.deleteSession)
	}
}

func (h *Handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "pokerlens",
		"version": "1.0.0",
		"endpoints": gin.H{
			"http":      "/api",
			"websocket": "/ws",
			"metrics":   "/metrics",
		},
	})
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"hands_stored": h.store.Count(),
		"ws_clients":   h.hub.ClientCount(),
		"metrics":      h.metrics.GetSnapshot(),
	})
}

func (h *Handlers) getStats(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := h.engine.Compute(f)
	h.metrics.RecordStatsRecompute()
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) getPositionStats(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"positions":   h.engine.Positions(f),
		"correlation": h.engine.AggressionWinCorrelation(f),
	})
}

func (h *Handlers) listHands(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	page, total := h.store.Page(f, offset, limit)
	c.JSON(http.StatusOK, gin.H{
		"hands":  page,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

type importRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handlers) startImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	path := req.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.handsDir, path)
	}
	if !h.insideHandsDir(path) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is outside the hand history directory"})
		return
	}

	taskID, err := h.importer.Enqueue(path)
	if err != nil {
		if errors.Is(err, importer.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "import queue is full"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("import requested", zap.String("task_id", taskID), zap.String("path", path))
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

// insideHandsDir guards the import endpoint against path traversal.
func (h *Handlers) insideHandsDir(path string) bool {
	root, err := filepath.Abs(h.handsDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (h *Handlers) runAnalysis(c *gin.Context) {
	var f types.Filter
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	coaching, err := h.coaching.Run(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, analysis.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "coaching service unavailable"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, coaching)
}

type sessionRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Filters     types.Filter      `json:"filters"`
	ChartPrefs  map[string]string `json:"chart_prefs"`
}

func (h *Handlers) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

func (h *Handlers) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	s, err := h.sessions.Create(req.Name, req.Description, req.Filters, req.ChartPrefs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handlers) getSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handlers) updateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	s, err := h.sessions.Update(c.Param("id"), req.Name, req.Description, req.Filters, req.ChartPrefs)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handlers) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// parseFilter builds a hand filter from query parameters.
func parseFilter(c *gin.Context) (types.Filter, error) {
	var f types.Filter

	if bb := c.Query("big_blind"); bb != "" {
		v, err := strconv.ParseFloat(bb, 64)
		if err != nil || v < 0 {
			return f, errors.New("big_blind must be a non-negative number")
		}
		f.BigBlind = v
	}

	if positions := c.Query("positions"); positions != "" {
		for _, raw := range strings.Split(positions, ",") {
			p := types.Position(strings.ToUpper(strings.TrimSpace(raw)))
			if !p.IsValid() {
				return f, errors.New("unknown position: " + raw)
			}
			f.Positions = append(f.Positions, p)
		}
	}

	if from := c.Query("from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return f, errors.New("from must be RFC3339")
		}
		f.From = ts
	}
	if to := c.Query("to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return f, errors.New("to must be RFC3339")
		}
		f.To = ts
	}

	return f, nil
}
