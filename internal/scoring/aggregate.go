package scoring

import "math"

// Weights for one final score. Each row sums to 1.0 so that inputs in
// [0,100] keep the output in [0,100].
type Weights struct {
	Chat     float64
	Sleep    float64
	Activity float64
}

// Sum of the three coefficients.
func (w Weights) Sum() float64 {
	return w.Chat + w.Sleep + w.Activity
}

var (
	AnxietyWeights    = Weights{Chat: 0.6, Sleep: 0.4, Activity: 0}
	DepressionWeights = Weights{Chat: 0.6, Sleep: 0.1, Activity: 0.3}
	StressWeights     = Weights{Chat: 0.6, Sleep: 0.2, Activity: 0.2}
)

// Scores are the persisted 0-100 wellness scores, lower is better.
type Scores struct {
	Anxiety    int `json:"anxiety_score"`
	Depression int `json:"depression_score"`
	Stress     int `json:"stress_score"`
}

// Aggregate combines monthly self-report factors with behavioral scores.
// Behavioral scores are inverted into badness factors first.
func Aggregate(f Factors, b Behavioral) Scores {
	sleepFactor := 100 - clamp(float64(b.SleepScore), 0, 100)
	activityFactor := 100 - clamp(float64(b.ActivityScore), 0, 100)

	return Scores{
		Anxiety:    weigh(AnxietyWeights, f.Anxiety, sleepFactor, activityFactor),
		Depression: weigh(DepressionWeights, f.Depression, sleepFactor, activityFactor),
		Stress:     weigh(StressWeights, f.Stress, sleepFactor, activityFactor),
	}
}

func weigh(w Weights, chat, sleep, activity float64) int {
	v := w.Chat*clamp(chat, 0, 100) + w.Sleep*sleep + w.Activity*activity
	return int(math.Round(clamp(v, 0, 100)))
}
