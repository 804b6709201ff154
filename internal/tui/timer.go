package tui

import (
	"time"

	"github.com/sadopc/studytrackr/internal/store"
)

// timerState tracks the current state of the timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel manages the timing logic separate from display. Nothing is
// written to the store until the timer stops.
type timerModel struct {
	store  *store.Store
	userID string

	state     timerState
	startTime time.Time
	elapsed   time.Duration
	pausedAt  time.Time
	pauseGap  time.Duration

	subjectID   int64
	subjectName string

	// Idle detection
	lastActivity time.Time
	idleTimeout  time.Duration
	idleStop     bool
	isIdle       bool
}

func newTimerModel(s *store.Store, userID string) timerModel {
	t := timerModel{
		store:        s,
		userID:       userID,
		state:        timerStopped,
		lastActivity: time.Now(),
	}
	t.loadSettings()
	return t
}

func (t *timerModel) loadSettings() {
	t.idleTimeout = time.Duration(t.store.GetSettingInt("idle_timeout", 300)) * time.Second
	action, _ := t.store.GetSetting("idle_action")
	t.idleStop = action == "stop"
}

func (t *timerModel) start(subjectID int64, subjectName string) {
	t.loadSettings()
	t.state = timerRunning
	t.startTime = time.Now()
	t.elapsed = 0
	t.pauseGap = 0
	t.subjectID = subjectID
	t.subjectName = subjectName
	t.lastActivity = time.Now()
	t.isIdle = false
}

// stop ends the run and logs it as a study session. Runs shorter than a
// minute are dropped and yield a nil session.
func (t *timerModel) stop() (*store.StudySession, error) {
	if t.state == timerStopped {
		return nil, nil
	}
	elapsed := t.currentElapsed()
	t.state = timerStopped
	t.elapsed = 0
	t.isIdle = false

	minutes := int(elapsed.Minutes())
	if minutes < 1 {
		return nil, nil
	}
	return t.store.CreateSession(store.NewSession{
		UserID:    t.userID,
		SubjectID: t.subjectID,
		Duration:  minutes,
		Date:      t.startTime.UTC(),
	})
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = time.Now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += time.Since(t.pausedAt)
	t.state = timerRunning
	t.isIdle = false
	t.lastActivity = time.Now()
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

// tick refreshes the elapsed time. It reports true when the idle action is
// "stop" and the timer just went idle; the caller should then stop it.
func (t *timerModel) tick() bool {
	if t.state != timerRunning {
		return false
	}
	t.elapsed = time.Since(t.startTime) - t.pauseGap

	if t.idleTimeout > 0 && time.Since(t.lastActivity) > t.idleTimeout && !t.isIdle {
		t.isIdle = true
		// Idle time does not count as study time.
		t.state = timerPaused
		t.pausedAt = t.lastActivity
		return t.idleStop
	}
	return false
}

func (t *timerModel) recordActivity() {
	t.lastActivity = time.Now()
	if t.isIdle && t.state == timerPaused {
		t.resume()
		t.isIdle = false
	}
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerStopped:
		return 0
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	}
	return time.Since(t.startTime) - t.pauseGap
}
