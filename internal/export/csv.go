package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/studytrackr/internal/store"
)

var csvHeader = []string{"ID", "Subject", "Date", "Minutes", "Duration", "Quality", "Notes"}

// SessionsCSV writes study sessions to path, one row per session. Subjects
// missing from the lookup are written as "Unknown".
func SessionsCSV(sessions []store.StudySession, subjects map[int64]*store.Subject, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, ss := range sessions {
		row := []string{
			strconv.FormatInt(ss.ID, 10),
			subjectName(subjects, ss.SubjectID),
			ss.Date.UTC().Format(time.RFC3339),
			strconv.Itoa(ss.Duration),
			formatMinutes(ss.Duration),
			strconv.Itoa(ss.Quality),
			ss.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func subjectName(subjects map[int64]*store.Subject, id int64) string {
	if sub, ok := subjects[id]; ok {
		return sub.Name
	}
	return "Unknown"
}

// formatMinutes renders minutes as HH:MM.
func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
