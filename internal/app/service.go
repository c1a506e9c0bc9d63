// Package service holds the card state and implements the dependencies of
// the HTTP API.
//
// Every user action is folded into the local state immediately and queued
// for append. The log is replayed periodically and on demand; a replay
// replaces the local state.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/stampcard/internal/adapters/mq/queue"
	appendworker "github.com/okian/stampcard/internal/adapters/mq/worker"
	"github.com/okian/stampcard/internal/domain/cheer"
	"github.com/okian/stampcard/internal/domain/logrow"
	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/projection"
	"github.com/okian/stampcard/internal/domain/replay"
	"github.com/okian/stampcard/internal/domain/types"
	"github.com/okian/stampcard/pkg/logger"
	"github.com/okian/stampcard/pkg/metrics"
)

// Defaults.
const (
	DefaultSyncInterval   = 5 * time.Second
	DefaultQueueSize      = 256
	DefaultRequestTimeout = 10 * time.Second
	stopTimeout           = 5 * time.Second
)

// LogClient reads and appends the remote log.
type LogClient interface {
	Fetch(ctx context.Context) (logrow.Batch, error)
	Append(ctx context.Context, e model.Event) error
}

// Service implements the API dependencies for the stamp card.
type Service struct {
	mu sync.RWMutex

	stateMu sync.RWMutex
	state   model.SystemState

	// Components
	log    LogClient
	cheer  cheer.Suggester
	queue  atomic.Pointer[eventqueue.InMemoryQueue]
	worker *appendworker.InMemoryWorker

	// Configuration
	syncInterval    time.Duration
	queueSize       int
	requestTimeout  time.Duration
	historyPageSize int
	now             func() time.Time

	// Sync bookkeeping
	syncing  atomic.Int32
	syncs    atomic.Int64
	lastSync atomic.Pointer[types.SyncResult]

	// Lifecycle
	started      bool
	stopCh       chan struct{}
	loopDone     chan struct{}
	workerCancel context.CancelFunc

	logger logger.Logger
}

// New constructs a Service with default configuration. The state starts at
// the profile defaults until the first sync.
func New(opts ...Option) *Service {
	s := &Service{
		state:           model.NewSystemState(),
		cheer:           cheer.Fallback{},
		syncInterval:    DefaultSyncInterval,
		queueSize:       DefaultQueueSize,
		requestTimeout:  DefaultRequestTimeout,
		historyPageSize: projection.DefaultPageSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start launches the append worker, runs a first sync and starts the
// periodic sync. A failed first sync is logged and the service keeps the
// default state.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.log == nil {
		s.mu.Unlock()
		return ErrNoLogClient
	}

	s.logger.Info(ctx, "starting stamp card service...")

	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.queue.Store(q)
	s.worker = appendworker.NewInMemoryWorker(q, s.log,
		appendworker.WithLogger(s.logger.Named("append-worker")),
		appendworker.WithAppendTimeout(s.requestTimeout),
	)
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.workerCancel = cancel
	go s.worker.Run(workerCtx)

	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})
	go s.syncLoop(context.WithoutCancel(ctx), s.stopCh, s.loopDone)

	s.started = true
	s.mu.Unlock()

	if _, err := s.Sync(ctx); err != nil {
		s.logger.Warn(ctx, "initial sync failed, starting from defaults", logger.Error(err))
	}

	s.logger.Info(ctx, "stamp card service started",
		logger.Duration("syncInterval", s.syncInterval),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

func (s *Service) syncLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if s.syncInterval <= 0 {
		<-stop
		return
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.logger.Debug(ctx, "periodic sync failed", logger.Error(err))
			}
		}
	}
}

// Stop ends the periodic sync, flushes queued appends and stops the worker.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping stamp card service...")

	close(s.stopCh)
	<-s.loopDone

	_ = s.queue.Load().Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "append worker did not drain", logger.Error(err))
	}
	cancel()
	s.workerCancel()

	s.started = false
	s.logger.Info(ctx, "stamp card service stopped")
}

// Sync replays the whole log and replaces the local state with the result.
// On failure the local state is kept. Concurrent syncs are not ordered; the
// last one to finish wins.
func (s *Service) Sync(ctx context.Context) (types.SyncResult, error) {
	if s.log == nil {
		return types.SyncResult{}, ErrNoLogClient
	}
	metrics.UpdateSyncInFlight(int(s.syncing.Add(1)))
	defer func() { metrics.UpdateSyncInFlight(int(s.syncing.Add(-1))) }()

	start := s.now()
	batch, err := s.log.Fetch(ctx)
	elapsed := time.Since(start)
	metrics.RecordSyncLatency(float64(elapsed.Milliseconds()))

	res := types.SyncResult{At: start, Duration: elapsed}
	if err != nil {
		res.Error = err.Error()
		s.lastSync.Store(&res)
		_ = metrics.RecordSync(metrics.OutcomeFailure)
		metrics.RecordErrorByComponent("service", "sync")
		s.logger.Warn(ctx, "sync failed, keeping local state", logger.Error(err))
		return res, fmt.Errorf("%w: %w", ErrSync, err)
	}

	out := replay.Run(batch.Events)
	res.Applied = out.Applied
	res.Skipped = out.Skipped + batch.Skipped

	s.stateMu.Lock()
	s.state = out.State
	s.stateMu.Unlock()

	s.syncs.Add(1)
	s.lastSync.Store(&res)
	metrics.RecordReplay(res.Applied, res.Skipped)
	_ = metrics.RecordSync(metrics.OutcomeSuccess)
	publishProfiles(out.State)
	s.logger.Debug(ctx, "log replayed",
		logger.Int("applied", res.Applied),
		logger.Int("skipped", res.Skipped),
		logger.Duration("took", elapsed),
	)
	return res, nil
}

func publishProfiles(st model.SystemState) {
	for _, p := range model.Profiles {
		ps := st.Profile(p)
		metrics.UpdateProfile(string(p), ps.ActiveCount, ps.CompletedSets)
	}
}

// State returns a copy of both profiles.
func (s *Service) State(_ context.Context) model.SystemState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Clone()
}

// Profile returns one profile with its grid.
func (s *Service) Profile(_ context.Context, p model.Profile) (types.ProfileView, error) {
	if !p.Valid() {
		return types.ProfileView{}, fmt.Errorf("%w: %q", model.ErrUnknownProfile, p)
	}
	s.stateMu.RLock()
	ps := s.state.Profile(p).Clone()
	s.stateMu.RUnlock()
	return types.NewProfileView(p, ps), nil
}

// History returns a page of a profile's history.
func (s *Service) History(_ context.Context, p model.Profile, page int) (projection.HistoryPage, error) {
	if !p.Valid() {
		return projection.HistoryPage{}, fmt.Errorf("%w: %q", model.ErrUnknownProfile, p)
	}
	s.stateMu.RLock()
	ps := s.state.Profile(p).Clone()
	s.stateMu.RUnlock()
	return projection.BuildHistoryPage(ps, page, s.historyPageSize), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"syncing":        s.syncing.Load() > 0,
		"syncs":          s.syncs.Load(),
		"syncIntervalMs": s.syncInterval.Milliseconds(),
		"queueSize":      s.queueSize,
	}
	if last := s.lastSync.Load(); last != nil {
		stats["lastSync"] = *last
	}
	if q := s.queue.Load(); s.started && q != nil {
		stats["queueLength"] = q.Len(ctx)
	}
	s.mu.RUnlock()

	st := s.State(ctx)
	for _, p := range model.Profiles {
		ps := st.Profile(p)
		stats["profile"+string(p)] = map[string]int{
			"count":         ps.ActiveCount,
			"completedSets": ps.CompletedSets,
			"validStamps":   ps.ValidStamps(),
			"history":       len(ps.History),
		}
	}
	return stats
}
