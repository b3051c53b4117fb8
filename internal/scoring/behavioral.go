package scoring

import "math"

const (
	HealthySleepHours = 7.5
	HealthyStepCount  = 8000.0
	// Sleep deviation beyond this many hours either way scores 0.
	MaxSleepDeviation = 3.0

	// NeutralBehavioralScore stands in when no wearable data exists.
	NeutralBehavioralScore = 50
)

// Behavioral scores are 0-100 with 100 being healthy.
type Behavioral struct {
	ActivityScore int `json:"activity_score"`
	SleepScore    int `json:"sleep_score"`
}

// NeutralBehavioral is used when the wearable feed has nothing for a student.
func NeutralBehavioral() Behavioral {
	return Behavioral{ActivityScore: NeutralBehavioralScore, SleepScore: NeutralBehavioralScore}
}

// BehavioralScores grades weekly averages against the step and sleep targets.
func BehavioralScores(avgSleepHours, avgStepCount float64) Behavioral {
	steps := math.Max(avgStepCount, 0)
	sleep := math.Max(avgSleepHours, 0)

	activity := math.Min(100, steps/HealthyStepCount*100)

	deviation := math.Min(math.Abs(sleep-HealthySleepHours), MaxSleepDeviation)
	penalty := deviation / MaxSleepDeviation * 100

	return Behavioral{
		ActivityScore: int(math.Round(activity)),
		SleepScore:    int(math.Round(100 - penalty)),
	}
}
