// Package scoring turns check-in answers and wearable averages into the
// three 0-100 wellness scores. Everything here is pure.
package scoring

import (
	"errors"
	"fmt"
	"time"
)

// Category is one of the three questionnaire groups.
type Category string

const (
	Stress     Category = "stress"
	Anxiety    Category = "anxiety"
	Depression Category = "depression"
)

// Categories in display order.
var Categories = []Category{Stress, Anxiety, Depression}

// Likert answer bounds: 0 = not at all, 3 = nearly every day.
const (
	MinAnswer = 0
	MaxAnswer = 3
)

// MaxYesPerCheckin is the assumed ceiling of non-zero answers per category
// per check-in when scaling to 0-100.
const MaxYesPerCheckin = 5

var ErrInvalidAnswer = errors.New("invalid check-in answer")

// Answers holds one check-in's responses per category.
type Answers struct {
	Stress     []int `json:"stress"`
	Anxiety    []int `json:"anxiety"`
	Depression []int `json:"depression"`
}

// For returns the answers for a category.
func (a Answers) For(c Category) []int {
	switch c {
	case Stress:
		return a.Stress
	case Anxiety:
		return a.Anxiety
	case Depression:
		return a.Depression
	default:
		return nil
	}
}

// CheckinScores are raw per-category sums (0..3 x question count).
type CheckinScores struct {
	Stress     int `json:"stress"`
	Anxiety    int `json:"anxiety"`
	Depression int `json:"depression"`
}

// ValidateAnswers rejects empty categories and answers outside 0..3.
func ValidateAnswers(a Answers) error {
	for _, c := range Categories {
		vals := a.For(c)
		if len(vals) == 0 {
			return fmt.Errorf("%w: no %s answers", ErrInvalidAnswer, c)
		}
		for i, v := range vals {
			if v < MinAnswer || v > MaxAnswer {
				return fmt.Errorf("%w: %s[%d] = %d", ErrInvalidAnswer, c, i, v)
			}
		}
	}
	return nil
}

// ScoreCheckin sums each category's answers.
func ScoreCheckin(a Answers) CheckinScores {
	return CheckinScores{
		Stress:     sum(a.Stress),
		Anxiety:    sum(a.Anxiety),
		Depression: sum(a.Depression),
	}
}

// Factors are month-level 0-100 self-report factors.
type Factors struct {
	Stress     float64 `json:"stress"`
	Anxiety    float64 `json:"anxiety"`
	Depression float64 `json:"depression"`
}

// MonthlyFactor is the average count of non-zero answers per check-in,
// scaled against MaxYesPerCheckin and capped at 100. No check-ins gives 0.
func MonthlyFactor(c Category, checkins []Answers) float64 {
	n := len(checkins)
	if n == 0 {
		n = 1
	}
	yes := 0
	for _, a := range checkins {
		for _, v := range a.For(c) {
			if v != 0 {
				yes++
			}
		}
	}
	avg := float64(yes) / float64(n)
	return clamp(avg/MaxYesPerCheckin*100, 0, 100)
}

// MonthlyFactors computes MonthlyFactor for all three categories.
func MonthlyFactors(checkins []Answers) Factors {
	return Factors{
		Stress:     MonthlyFactor(Stress, checkins),
		Anxiety:    MonthlyFactor(Anxiety, checkins),
		Depression: MonthlyFactor(Depression, checkins),
	}
}

// MonthRange returns the first and last instant of t's calendar month in UTC.
func MonthRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func sum(vals []int) int {
	total := 0
	for _, v := range vals {
		total += v
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
