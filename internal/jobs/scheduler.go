package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"vpnserver/internal/config"
	"vpnserver/internal/tasks"
)

// Scheduler enqueues periodic housekeeping tasks for the worker.
type Scheduler struct {
	cron     *cron.Cron
	queue    *redis.Client
	stream   string
	schedule string
	now      func() time.Time
	log      zerolog.Logger
}

func NewScheduler(queue *redis.Client, queueCfg config.QueueConfig, cfg config.HousekeepingConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		queue:    queue,
		stream:   queueCfg.Stream,
		schedule: cfg.Schedule,
		now:      time.Now,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueCleanup); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron and returns a context that is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueCleanup() {
	if err := s.enqueueTask(map[string]any{
		"type":       tasks.TypeCleanup,
		"enqueuedAt": s.now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: payload,
	}).Result()
	return err
}
