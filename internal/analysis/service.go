package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/monitoring"
	"github.com/pokerlens/pokerlens/internal/stats"
	"github.com/pokerlens/pokerlens/internal/types"
)

// Publisher pushes typed messages to connected dashboard clients.
type Publisher interface {
	Publish(msgType string, data interface{})
}

// Analyzer produces coaching commentary for a statistics report.
type Analyzer interface {
	Analyze(ctx context.Context, report *types.Report) (*types.Coaching, error)
}

// Service runs coaching analysis over the current statistics and broadcasts
// the commentary to the dashboard.
type Service struct {
	coach   Analyzer
	engine  *stats.Engine
	pub     Publisher
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewService creates an analysis service.
func NewService(coach Analyzer, engine *stats.Engine, pub Publisher, metrics *monitoring.Metrics, log *logging.Logger) *Service {
	return &Service{
		coach:   coach,
		engine:  engine,
		pub:     pub,
		metrics: metrics,
		log:     log.Named("analysis"),
	}
}

// Run computes a report for the filter, asks the coach for commentary and
// publishes the result as an analysis_update.
func (s *Service) Run(ctx context.Context, f types.Filter) (*types.Coaching, error) {
	report := s.engine.Compute(f)

	coaching, err := s.coach.Analyze(ctx, report)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordAnalysisCall("error")
		}
		s.log.Warn("coaching analysis failed", zap.Error(err))
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAnalysisCall("ok")
	}

	s.pub.Publish(types.MsgAnalysisUpdate, coaching)
	s.log.Info("analysis published",
		zap.Int("hands", report.HandsPlayed),
		zap.Int("leaks", len(coaching.Leaks)),
		zap.Float64("confidence", coaching.Confidence))
	return coaching, nil
}
