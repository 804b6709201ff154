package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/studytrackr/internal/dashboard"
	"github.com/sadopc/studytrackr/internal/store"
)

type sessionsExport struct {
	ExportedAt   string        `json:"exported_at"`
	Count        int           `json:"count"`
	TotalMinutes int           `json:"total_minutes"`
	Sessions     []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	SubjectID int64  `json:"subject_id"`
	Date      string `json:"date"`
	Minutes   int    `json:"minutes"`
	Duration  string `json:"duration"`
	Quality   int    `json:"quality"`
	Notes     string `json:"notes,omitempty"`
}

type dashboardExport struct {
	ExportedAt string               `json:"exported_at"`
	Dashboard  *dashboard.Dashboard `json:"dashboard"`
}

func SessionsJSON(sessions []store.StudySession, subjects map[int64]*store.Subject, path string) error {
	out := sessionsExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, ss := range sessions {
		out.TotalMinutes += ss.Duration
		out.Sessions = append(out.Sessions, jsonSession{
			ID:        ss.ID,
			Subject:   subjectName(subjects, ss.SubjectID),
			SubjectID: ss.SubjectID,
			Date:      ss.Date.UTC().Format(time.RFC3339),
			Minutes:   ss.Duration,
			Duration:  formatMinutes(ss.Duration),
			Quality:   ss.Quality,
			Notes:     ss.Notes,
		})
	}
	return writeJSON(out, path)
}

// DashboardJSON writes a dashboard snapshot as indented JSON.
func DashboardJSON(d *dashboard.Dashboard, path string) error {
	if d == nil {
		return fmt.Errorf("export dashboard: nil dashboard")
	}
	return writeJSON(dashboardExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Dashboard:  d,
	}, path)
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FileName builds dir/studytrackr-<kind>-<date>.<ext>.
func FileName(dir, kind, ext string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("studytrackr-%s-%s.%s", kind, now.Format("2006-01-02"), ext))
}
