package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/id"
	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/types"
)

// ErrNotFound is returned when no session exists for the given ID.
var ErrNotFound = errors.New("session not found")

// Manager persists dashboard sessions as YAML files, one per session.
type Manager struct {
	dir string
	log *logging.Logger

	mu    sync.RWMutex
	cache map[string]*types.Session
}

// NewManager creates a manager rooted at dir, loading any existing sessions.
func NewManager(dir string, log *logging.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	m := &Manager{
		dir:   dir,
		log:   log.Named("sessions"),
		cache: make(map[string]*types.Session),
	}
	if err := m.loadAll(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) loadAll() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read session dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var s types.Session
		if err := yaml.Unmarshal(data, &s); err != nil {
			m.log.Warn("skipping unreadable session file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		if s.ID == "" {
			continue
		}
		m.cache[s.ID] = &s
	}

	m.log.Debug("sessions loaded", zap.Int("count", len(m.cache)))
	return nil
}

// Create persists a new session and returns it with ID and timestamps set.
func (m *Manager) Create(name, description string, filters types.Filter, prefs map[string]string) (*types.Session, error) {
	now := time.Now().UTC()
	s := &types.Session{
		ID:          id.NewSessionID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Filters:     filters,
		ChartPrefs:  prefs,
	}

	if err := m.write(s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(sessionID string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.cache[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

// List returns all sessions, most recently updated first.
func (m *Manager) List() []*types.Session {
	m.mu.RLock()
	out := make([]*types.Session, 0, len(m.cache))
	for _, s := range m.cache {
		copied := *s
		out = append(out, &copied)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Update rewrites an existing session's mutable fields. Mutation, persistence
// and the cache store happen under one critical section so concurrent updates
// of the same session cannot leave the file and cache on different
// generations.
func (m *Manager) Update(sessionID, name, description string, filters types.Filter, prefs map[string]string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.cache[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	updated := *existing
	if name != "" {
		updated.Name = name
	}
	updated.Description = description
	updated.Filters = filters
	updated.ChartPrefs = prefs
	updated.UpdatedAt = time.Now().UTC()

	if err := m.write(&updated); err != nil {
		return nil, err
	}

	m.cache[sessionID] = &updated
	copied := updated
	return &copied, nil
}

// Delete removes a session from disk and cache.
func (m *Manager) Delete(sessionID string) error {
	m.mu.Lock()
	_, ok := m.cache[sessionID]
	if ok {
		delete(m.cache, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	if err := os.Remove(m.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// write persists via a temp file rename so a crash never leaves a torn YAML.
func (m *Manager) write(s *types.Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := m.path(s.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

func (m *Manager) path(sessionID string) string {
	return filepath.Join(m.dir, sessionID+".yaml")
}
