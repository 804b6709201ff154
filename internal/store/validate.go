package store

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// notfuture rejects times on a later UTC day than today.
	v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !isFutureDay(t, time.Now())
	})
	return v
}

// isFutureDay reports whether t falls on a UTC day after now's.
func isFutureDay(t, now time.Time) bool {
	tomorrow := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	return !t.UTC().Before(tomorrow)
}

func validateInput(what string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w: %v", what, ErrInvalidInput, err)
	}
	return nil
}

type NewSubject struct {
	Name        string  `validate:"required,min=1,max=100"`
	Color       string  `validate:"omitempty,hexcolor"`
	TargetHours float64 `validate:"gte=0"`
}

type NewSession struct {
	UserID    string    `validate:"required,uuid"`
	SubjectID int64     `validate:"required,gt=0"`
	Duration  int       `validate:"required,gte=1"` // minutes
	Notes     string    `validate:"max=500"`
	Date      time.Time `validate:"required,notfuture"`
	Quality   int       `validate:"omitempty,min=1,max=5"`
}

type NewGoal struct {
	UserID      string    `validate:"required,uuid"`
	Title       string    `validate:"required,max=200"`
	Description string    `validate:"max=1000"`
	Type        string    `validate:"required,oneof=short-term long-term"`
	TargetValue float64   `validate:"gt=0"`
	Unit        string    `validate:"max=30"`
	Deadline    time.Time `validate:"required"`
}

type NewAssignment struct {
	UserID      string    `validate:"required,uuid"`
	SubjectID   int64     `validate:"required,gt=0"`
	Title       string    `validate:"required,max=200"`
	Description string    `validate:"max=1000"`
	Deadline    time.Time `validate:"required"`
	MaxScore    float64   `validate:"gt=0"`
}

type NewNotification struct {
	UserID  string `validate:"required,uuid"`
	Type    string `validate:"required,oneof=study_reminder deadline_reminder goal_reminder achievement"`
	Title   string `validate:"required"`
	Message string `validate:"required"`
	Link    string
}
