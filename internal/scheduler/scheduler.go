// Package scheduler runs the recurring background jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/services"
	"github.com/robfig/cron/v3"
)

const HourlySpec = "0 * * * *"

type Scheduler struct {
	cron *cron.Cron
}

// New registers the hourly check-in reminder. Times are read in loc.
func New(ctx context.Context, loc *time.Location, reminders services.ReminderService) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{})))

	_, err := c.AddFunc(HourlySpec, func() {
		if _, err := reminders.Remind(ctx); err != nil {
			log.Errorf("Checkin reminder job failed: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("Cron jobs started")
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn("Cron shutdown timed out")
	}
}

// cronLogger adapts the package logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []any) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
