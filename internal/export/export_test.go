package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/studytrackr/internal/dashboard"
	"github.com/sadopc/studytrackr/internal/momentum"
	"github.com/sadopc/studytrackr/internal/store"
)

var refDate = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

func sampleData() ([]store.StudySession, map[int64]*store.Subject) {
	sessions := []store.StudySession{
		{
			ID:        1,
			SubjectID: 1,
			Duration:  90,
			Date:      refDate,
			Quality:   4,
			Notes:     "chapter 3 exercises",
		},
		{
			ID:        2,
			SubjectID: 2,
			Duration:  25,
			Date:      refDate.Add(-24 * time.Hour),
			Quality:   3,
		},
		{
			ID:        3,
			SubjectID: 1,
			Duration:  5,
			Date:      refDate.Add(-48 * time.Hour),
			Quality:   1,
		},
	}

	subjects := map[int64]*store.Subject{
		1: {ID: 1, Name: "Mathematics", Color: "#FF0000"},
		2: {ID: 2, Name: "History", Color: "#00FF00"},
	}

	return sessions, subjects
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestSessionsCSV(t *testing.T) {
	sessions, subjects := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := SessionsCSV(sessions, subjects, path); err != nil {
		t.Fatalf("SessionsCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	want := []string{"1", "Mathematics", "2026-03-15T09:30:00Z", "90", "01:30", "4", "chapter 3 exercises"}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}
	if records[2][1] != "History" || records[2][6] != "" {
		t.Fatalf("unexpected second row: %q", records[2])
	}
}

func TestSessionsCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := SessionsCSV(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestSessionsCSVUnknownSubject(t *testing.T) {
	sessions := []store.StudySession{{ID: 1, SubjectID: 999, Date: refDate, Duration: 60, Quality: 3}}
	path := filepath.Join(t.TempDir(), "unknown.csv")

	if err := SessionsCSV(sessions, map[int64]*store.Subject{}, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing subject, got %q", records[1][1])
	}
}

func TestSessionsCSVBadPath(t *testing.T) {
	if err := SessionsCSV(nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestSessionsCSVSpecialCharacters(t *testing.T) {
	sessions := []store.StudySession{
		{ID: 1, SubjectID: 1, Date: refDate, Duration: 60, Quality: 3, Notes: `notes with "quotes" and, commas`},
	}
	subjects := map[int64]*store.Subject{1: {ID: 1, Name: `Physics "Honors"`}}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := SessionsCSV(sessions, subjects, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != `Physics "Honors"` {
		t.Fatalf("subject name mangled: %q", records[1][1])
	}
	if records[1][6] != `notes with "quotes" and, commas` {
		t.Fatalf("notes mangled: %q", records[1][6])
	}
}

// ============================================================
// JSON
// ============================================================

func TestSessionsJSON(t *testing.T) {
	sessions, subjects := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := SessionsJSON(sessions, subjects, path); err != nil {
		t.Fatalf("SessionsJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result sessionsExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 || len(result.Sessions) != 3 {
		t.Fatalf("count = %d, sessions = %d, want 3", result.Count, len(result.Sessions))
	}
	if result.TotalMinutes != 120 {
		t.Fatalf("total minutes = %d, want 120", result.TotalMinutes)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	s := result.Sessions[0]
	if s.ID != 1 || s.Subject != "Mathematics" || s.SubjectID != 1 {
		t.Fatalf("unexpected first session: %+v", s)
	}
	if s.Minutes != 90 || s.Duration != "01:30" || s.Quality != 4 {
		t.Fatalf("unexpected duration/quality: %+v", s)
	}
	for _, s := range result.Sessions {
		if _, err := time.Parse(time.RFC3339, s.Date); err != nil {
			t.Fatalf("date is not valid RFC3339: %q", s.Date)
		}
	}
}

func TestSessionsJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := SessionsJSON(nil, nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result sessionsExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Sessions != nil {
		t.Fatal("sessions should be null for empty export")
	}
}

func TestSessionsJSONBadPath(t *testing.T) {
	if err := SessionsJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestSessionsJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	SessionsJSON(nil, nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestDashboardJSON(t *testing.T) {
	d := &dashboard.Dashboard{
		UserID:   "u1",
		Momentum: momentum.Neutral(),
		Streak:   4,
		WeeklyTrend: []dashboard.DayMinutes{
			{Date: "2026-03-15", Minutes: 45},
		},
	}
	path := filepath.Join(t.TempDir(), "dash.json")
	if err := DashboardJSON(d, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result struct {
		ExportedAt string              `json:"exported_at"`
		Dashboard  dashboard.Dashboard `json:"dashboard"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Dashboard.Streak != 4 || result.Dashboard.Momentum.Trend != momentum.Stable {
		t.Fatalf("unexpected dashboard: %+v", result.Dashboard)
	}
	if len(result.Dashboard.WeeklyTrend) != 1 || result.Dashboard.WeeklyTrend[0].Minutes != 45 {
		t.Fatalf("weekly trend lost: %+v", result.Dashboard.WeeklyTrend)
	}
}

func TestDashboardJSONNil(t *testing.T) {
	if err := DashboardJSON(nil, filepath.Join(t.TempDir(), "x.json")); err == nil {
		t.Fatal("expected error for nil dashboard")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{1, "00:01"},
		{60, "01:00"},
		{90, "01:30"},
		{1440, "24:00"},
		{1501, "25:01"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.minutes); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName("/tmp/out", "sessions", "csv", refDate)
	if got != filepath.Join("/tmp/out", "studytrackr-sessions-2026-03-15.csv") {
		t.Fatalf("got %q", got)
	}
}
