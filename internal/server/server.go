package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/analysis"
	"github.com/pokerlens/pokerlens/internal/api"
	"github.com/pokerlens/pokerlens/internal/api/middleware"
	"github.com/pokerlens/pokerlens/internal/config"
	"github.com/pokerlens/pokerlens/internal/hands"
	"github.com/pokerlens/pokerlens/internal/importer"
	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/monitoring"
	"github.com/pokerlens/pokerlens/internal/session"
	"github.com/pokerlens/pokerlens/internal/stats"
	"github.com/pokerlens/pokerlens/internal/watcher"
	"github.com/pokerlens/pokerlens/internal/ws"
)

// Server wires the hand store, statistics engine, import pipeline, watcher,
// coaching client and WebSocket hub behind one HTTP listener.
type Server struct {
	cfg *config.Config
	log *logging.Logger

	router   *gin.Engine
	http     *http.Server
	hub      *ws.Hub
	importer *importer.Importer
	watcher  *watcher.Watcher

	cancel context.CancelFunc
}

// New builds a server from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	metrics := monitoring.New()
	hub := ws.NewHub(log, metrics)

	store := hands.NewStore()
	engine := stats.NewEngine(store)
	imp := importer.New(store, engine, hub, metrics, log, cfg.Hands.QueueSize)

	coach := analysis.NewClient(cfg.Coach)
	coaching := analysis.NewService(coach, engine, hub, metrics, log)

	sessions, err := session.NewManager(cfg.Sessions.Dir, log)
	if err != nil {
		return nil, err
	}

	var fileWatcher *watcher.Watcher
	if cfg.Hands.WatchEnabled {
		fileWatcher, err = watcher.New(cfg.Hands.Dir, cfg.Hands.Pattern, imp, hub, log)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(store, engine, imp, coaching, sessions, hub, metrics, log, cfg.Hands.Dir)
	handlers.Register(router)

	wsHandler := ws.NewHandler(hub, log)
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		cfg:      cfg,
		log:      log,
		router:   router,
		hub:      hub,
		importer: imp,
		watcher:  fileWatcher,
	}, nil
}

// Run starts the background pipeline and serves HTTP until Close.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := os.MkdirAll(s.cfg.Hands.Dir, 0o755); err != nil {
		return err
	}

	s.importer.Start(ctx)
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			return err
		}
	}

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts everything down in dependency order.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.importer.Close()
	s.hub.Close()

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(ctx)
	}
	return nil
}
