package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/services"
)

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron      *cron.Cron
	eventSvc  services.EventServiceProvider
	retention time.Duration
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. Events older than retention are
// pruned on every run of the prune job.
func NewScheduler(eventSvc services.EventServiceProvider, retention time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		eventSvc:  eventSvc,
		retention: retention,
		now:       time.Now,
	}
}

// Start registers the prune job under a standard cron expression or descriptor
// (e.g. "@daily") and starts the scheduler.
func (s *Scheduler) Start(pruneSchedule string) error {
	if _, err := s.cron.AddFunc(pruneSchedule, s.pruneEvents); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", pruneSchedule, err)
	}
	log.Info().Str("schedule", pruneSchedule).Dur("retention", s.retention).Msg("Starting background scheduler...")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopping background scheduler.")
}

// pruneEvents removes events past the retention window.
func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	before := s.now().Add(-s.retention)
	n, err := s.eventSvc.PruneEvents(ctx, before)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to prune events")
		return
	}
	if n == 0 {
		return
	}

	msg := fmt.Sprintf("Pruned %d events older than %s.", n, s.retention)
	log.Info().Int64("pruned", n).Msg("Scheduler: Pruned events")
	if err := s.eventSvc.CreateEvent(ctx, models.EventEventsPruned, models.LevelInfo, msg, nil); err != nil {
		log.Warn().Err(err).Msg("Scheduler: Failed to record prune event")
	}
}
