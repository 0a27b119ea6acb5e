package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/pkg/jobs"
)

const autosaveJobType = "roster.save"

// AutosaveService flushes the roster in the background after mutations.
// Bursts of changes collapse into a single pending save.
type AutosaveService struct {
	roster  *RosterService
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAutosaveService subscribes to roster changes and prepares the worker queue.
func NewAutosaveService(roster *RosterService, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *AutosaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s := &AutosaveService{roster: roster, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("roster-autosave", s.handle, cfg)
	roster.Subscribe(s.onChange)
	return s
}

// Start launches the workers.
func (s *AutosaveService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit. Pending saves are dropped; callers
// flush explicitly on shutdown.
func (s *AutosaveService) Stop() {
	s.queue.Stop()
}

func (s *AutosaveService) onChange(kind ChangeKind) {
	if kind == ChangeLoad {
		return
	}
	if _, err := s.queue.EnqueueCoalesced(jobs.Job{Type: autosaveJobType, Payload: kind}); err != nil {
		s.logger.Debug("autosave not scheduled", zap.String("change", string(kind)), zap.Error(err))
	}
}

func (s *AutosaveService) handle(ctx context.Context, job jobs.Job) error {
	err := s.roster.Save(ctx)
	s.metrics.RecordAutosave(err)
	return err
}
