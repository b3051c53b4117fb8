package scoring

// Status is the reviewer-facing summary of a profile.
type Status string

const (
	StatusUrgent         Status = "Urgent"
	StatusNeedsAttention Status = "Needs Attention"
	StatusNeutral        Status = "Neutral"
	StatusPositive       Status = "Positive"
)

// Status thresholds on the 0-100 scale.
const (
	AttentionThreshold = 66
	PositiveThreshold  = 33
)

// StatusFor classifies a profile. Any score at or above AttentionThreshold
// needs attention; all below PositiveThreshold is positive.
func StatusFor(needsHelp bool, s Scores) Status {
	if needsHelp {
		return StatusUrgent
	}
	if s.Stress >= AttentionThreshold || s.Anxiety >= AttentionThreshold || s.Depression >= AttentionThreshold {
		return StatusNeedsAttention
	}
	if s.Stress < PositiveThreshold && s.Anxiety < PositiveThreshold && s.Depression < PositiveThreshold {
		return StatusPositive
	}
	return StatusNeutral
}

// Rank orders statuses for the dashboard, most pressing first.
func (s Status) Rank() int {
	switch s {
	case StatusUrgent:
		return 0
	case StatusNeedsAttention:
		return 1
	case StatusNeutral:
		return 2
	case StatusPositive:
		return 3
	default:
		return 4
	}
}

// Band labels a single 0-100 score.
type Band string

const (
	BandSevere   Band = "Severe"
	BandModerate Band = "Moderate"
	BandMild     Band = "Mild"
	BandMinimal  Band = "Minimal"
)

const (
	SevereThreshold   = 70
	ModerateThreshold = 50
	MildThreshold     = 30
)

func BandFor(score int) Band {
	switch {
	case score >= SevereThreshold:
		return BandSevere
	case score >= ModerateThreshold:
		return BandModerate
	case score >= MildThreshold:
		return BandMild
	default:
		return BandMinimal
	}
}

// SentimentLabel describes a journal sentiment reading, e.g. "Negative (Strong)".
func SentimentLabel(score, magnitude float64) string {
	label := "Neutral"
	switch {
	case score < -0.25:
		label = "Negative"
	case score > 0.25:
		label = "Positive"
	}
	switch {
	case magnitude > 3:
		return label + " (Strong)"
	case magnitude > 1:
		return label + " (Clear)"
	}
	return label
}
