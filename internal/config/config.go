package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sadopc/studytrackr/internal/store"
)

const (
	DefaultStudyReminderSpec    = "0 9 * * *"
	DefaultDeadlineReminderSpec = "0 18 * * *"
)

// Config holds process-level settings. Per-user preferences live in the
// settings table instead.
type Config struct {
	DBPath    string
	Profile   string
	LogMode   string
	LogFile   string
	ExportDir string

	RemindersEnabled     bool
	StudyReminderSpec    string
	DeadlineReminderSpec string
}

// Load reads an optional .env file from the working directory and then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("default db path: %w", err)
	}
	home, _ := os.UserHomeDir()

	cfg := &Config{
		DBPath:               GetEnv("STUDYTRACKR_DB", dbPath),
		Profile:              GetEnv("STUDYTRACKR_PROFILE", defaultProfile()),
		LogMode:              GetEnv("STUDYTRACKR_LOG_MODE", "prod"),
		LogFile:              GetEnv("STUDYTRACKR_LOG_FILE", filepath.Join(filepath.Dir(dbPath), "studytrackr.log")),
		ExportDir:            GetEnv("STUDYTRACKR_EXPORT_DIR", home),
		RemindersEnabled:     parseSwitch(GetEnv("STUDYTRACKR_REMINDERS", "on")),
		StudyReminderSpec:    GetEnv("STUDYTRACKR_STUDY_REMINDER_CRON", DefaultStudyReminderSpec),
		DeadlineReminderSpec: GetEnv("STUDYTRACKR_DEADLINE_REMINDER_CRON", DefaultDeadlineReminderSpec),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, after the TUI has
// taken over the terminal.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: database path is empty")
	}
	if strings.TrimSpace(c.Profile) == "" {
		return errors.New("config: profile name is empty")
	}
	if _, err := cron.ParseStandard(c.StudyReminderSpec); err != nil {
		return fmt.Errorf("config: study reminder schedule %q: %w", c.StudyReminderSpec, err)
	}
	if _, err := cron.ParseStandard(c.DeadlineReminderSpec); err != nil {
		return fmt.Errorf("config: deadline reminder schedule %q: %w", c.DeadlineReminderSpec, err)
	}
	return nil
}

func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseSwitch(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "off", "false", "0", "no", "disabled":
		return false
	}
	return true
}

func defaultProfile() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "student"
}
