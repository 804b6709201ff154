package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/studytrackr/internal/config"
	"github.com/sadopc/studytrackr/internal/dashboard"
	"github.com/sadopc/studytrackr/internal/logger"
	"github.com/sadopc/studytrackr/internal/momentum"
	"github.com/sadopc/studytrackr/internal/reminder"
	"github.com/sadopc/studytrackr/internal/store"
	"github.com/sadopc/studytrackr/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user, err := s.EnsureUser(cfg.Profile)
	if err != nil {
		return fmt.Errorf("profile %q: %w", cfg.Profile, err)
	}
	log = log.With("user", user.ID)
	log.Info("starting", "db", cfg.DBPath, "profile", user.Name)

	engine := momentum.New(s, momentum.WithLogger(log))
	rem := reminder.New(s, reminder.WithLogger(log))

	if cfg.RemindersEnabled {
		sched, err := reminder.NewScheduler(rem, cfg.StudyReminderSpec, cfg.DeadlineReminderSpec, log)
		if err != nil {
			return fmt.Errorf("reminders: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Info("reminders enabled", "jobs", sched.Jobs(),
			"study", cfg.StudyReminderSpec, "deadline", cfg.DeadlineReminderSpec)
	}

	app := tui.NewApp(tui.Services{
		Store:     s,
		User:      user,
		Dashboard: dashboard.New(s, engine, dashboard.WithLogger(log)),
		Reminders: rem,
		ExportDir: cfg.ExportDir,
		Log:       log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	log.Info("exiting")
	return nil
}
