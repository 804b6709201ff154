package reminder

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/sadopc/studytrackr/internal/logger"
)

// Scheduler runs the reminder jobs on cron schedules in local time.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// NewScheduler registers the daily study reminder and the deadline reminder
// under the given standard five-field cron specs.
func NewScheduler(svc *Service, studySpec, deadlineSpec string, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	jobs := []struct {
		name string
		spec string
		run  func() (int, error)
	}{
		{"study reminders", studySpec, svc.SendDailyStudyReminders},
		{"deadline reminders", deadlineSpec, svc.SendDeadlineReminders},
	}
	for _, j := range jobs {
		_, err := c.AddFunc(j.spec, func() {
			if _, err := j.run(); err != nil {
				log.Error("reminder job failed", "job", j.name, "error", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("reminder scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("reminder scheduler stopped")
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}
