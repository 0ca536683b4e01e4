package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/hands"
	"github.com/pokerlens/pokerlens/internal/id"
	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/monitoring"
	"github.com/pokerlens/pokerlens/internal/stats"
	"github.com/pokerlens/pokerlens/internal/types"
)

var (
	// ErrQueueFull is returned by Enqueue when the import queue is saturated.
	ErrQueueFull = errors.New("import queue is full")
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("importer is closed")
)

// Publisher pushes typed messages to connected dashboard clients.
type Publisher interface {
	Publish(msgType string, data interface{})
}

// Import pipeline stages reported through progress messages.
const (
	StageParsing   = "parsing"
	StageStoring   = "storing"
	StageComputing = "computing"
	StageDone      = "done"
	StageFailed    = "failed"
)

type job struct {
	taskID string
	path   string
}

// Importer runs hand-history file imports on a single background worker and
// streams progress and refreshed statistics to the dashboard.
type Importer struct {
	store   *hands.Store
	engine  *stats.Engine
	pub     Publisher
	metrics *monitoring.Metrics
	log     *logging.Logger

	queue chan job
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates an importer with a bounded job queue.
func New(store *hands.Store, engine *stats.Engine, pub Publisher, metrics *monitoring.Metrics, log *logging.Logger, queueSize int) *Importer {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Importer{
		store:   store,
		engine:  engine,
		pub:     pub,
		metrics: metrics,
		log:     log.Named("importer"),
		queue:   make(chan job, queueSize),
	}
}

// Start launches the worker. It returns immediately; the worker runs until
// the context is cancelled or Close is called.
func (i *Importer) Start(ctx context.Context) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-i.queue:
				if !ok {
					return
				}
				if err := i.run(ctx, j); err != nil {
					i.log.Warn("import failed",
						zap.String("task_id", j.taskID),
						zap.String("path", j.path),
						zap.Error(err))
				}
			}
		}
	}()
}

// Enqueue schedules a file for import and returns the task identifier.
// Watcher debounce callbacks can land here during shutdown, so the queue is
// guarded rather than closed out from under senders.
func (i *Importer) Enqueue(path string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", ErrClosed
	}

	taskID := id.NewTaskID()
	select {
	case i.queue <- job{taskID: taskID, path: path}:
		i.log.Debug("import queued",
			zap.String("task_id", taskID), zap.String("path", path))
		return taskID, nil
	default:
		return "", ErrQueueFull
	}
}

// Close stops accepting jobs and waits for the worker to drain.
func (i *Importer) Close() {
	i.mu.Lock()
	if !i.closed {
		i.closed = true
		close(i.queue)
	}
	i.mu.Unlock()
	i.wg.Wait()
}

// ImportFile runs the full pipeline synchronously. The watcher and the HTTP
// import endpoint go through Enqueue instead; this exists for startup scans.
func (i *Importer) ImportFile(ctx context.Context, path string) (string, error) {
	taskID := id.NewTaskID()
	return taskID, i.run(ctx, job{taskID: taskID, path: path})
}

func (i *Importer) run(ctx context.Context, j job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	file := filepath.Base(j.path)

	i.progress(j.taskID, file, 10, StageParsing)
	result, err := hands.ParseFile(j.path)
	if err != nil {
		if i.metrics != nil {
			i.metrics.RecordImportError()
		}
		i.progress(j.taskID, file, 100, StageFailed)
		return fmt.Errorf("failed to parse %s: %w", j.path, err)
	}

	i.progress(j.taskID, file, 50, StageStoring)
	added := i.store.AddBatch(result.Hands)

	i.progress(j.taskID, file, 80, StageComputing)
	report := i.engine.Compute(types.Filter{})

	if i.metrics != nil {
		i.metrics.RecordImport(added, result.Skipped, time.Since(start))
		i.metrics.RecordStatsRecompute()
	}

	i.progress(j.taskID, file, 100, StageDone)
	i.pub.Publish(types.MsgStatisticsUpdate, report)

	i.log.Info("import complete",
		zap.String("task_id", j.taskID),
		zap.String("file", file),
		zap.Int("parsed", len(result.Hands)),
		zap.Int("added", added),
		zap.Int("skipped", result.Skipped),
		zap.Duration("took", time.Since(start)))

	return nil
}

func (i *Importer) progress(taskID, file string, pct int, stage string) {
	i.pub.Publish(types.MsgProgress, types.ProgressUpdate{
		TaskID:   taskID,
		File:     file,
		Progress: pct,
		Stage:    stage,
	})
}
