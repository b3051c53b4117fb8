package scoring

import "fmt"

const (
	PHQ9Items = 9
	// Item 9 asks about thoughts of self-harm.
	PHQ9SelfHarmItem = 8

	PHQ9Negative = 10
	PHQ9Neutral  = 5

	ReasonPHQ9SelfHarm = "PHQ-9 self-harm item endorsed."
)

type PHQ9Result struct {
	Score     int    `json:"score"`
	Status    string `json:"status"`
	NeedsHelp bool   `json:"needs_help"`
}

// ScorePHQ9 sums the nine answers and flags any endorsement of item 9.
func ScorePHQ9(answers []int) (PHQ9Result, error) {
	if len(answers) != PHQ9Items {
		return PHQ9Result{}, fmt.Errorf("%w: phq-9 needs %d answers, got %d", ErrInvalidAnswer, PHQ9Items, len(answers))
	}
	for i, v := range answers {
		if v < MinAnswer || v > MaxAnswer {
			return PHQ9Result{}, fmt.Errorf("%w: phq-9 item %d = %d", ErrInvalidAnswer, i+1, v)
		}
	}

	score := sum(answers)
	status := "positive"
	switch {
	case score >= PHQ9Negative:
		status = "negative"
	case score >= PHQ9Neutral:
		status = "neutral"
	}

	return PHQ9Result{
		Score:     score,
		Status:    status,
		NeedsHelp: answers[PHQ9SelfHarmItem] > 0,
	}, nil
}
