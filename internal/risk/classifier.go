// Package risk decides whether a journal entry needs immediate human review.
package risk

import (
	"strings"

	"github.com/MikeSquared-Agency/wellcheck/internal/language"
)

// Reasons recorded on the student profile, in attribution order.
const (
	ReasonKeyword      = "High-risk keyword detected."
	ReasonTopicPrefix  = "AI Threat Detected: "
	ReasonLowSentiment = "Low sentiment score detected."
)

// Config holds the tuning surface of the classifier. Thresholds are on the
// service's native scales: sentiment score in [-1,1], confidence in [0,1].
type Config struct {
	Keywords           []string
	Categories         []string
	TopicConfidence    float64 // topic must exceed this
	SentimentThreshold float64 // score at or below this is urgent
	OverrideScore      float64
	OverrideMagnitude  float64
}

// DefaultConfig is the canonical keyword and category set.
func DefaultConfig() Config {
	return Config{
		Keywords: []string{
			// self-harm and suicidal ideation
			"suicide", "suicidal", "kill myself", "end my life", "end it all",
			"want to die", "wanna die", "better off dead", "no reason to live",
			"don't want to live", "dont want to live", "not worth living",
			"hurt myself", "cut myself", "cutting myself", "self-harm", "self harm",
			"overdose",
			// violence and explicit threats
			"kill someone", "kill them", "kill him", "kill her", "hurt someone",
			"bring a gun", "shoot up", "shoot everyone", "stab someone", "bomb the school",
		},
		Categories:         []string{"self-harm", "suicide", "violence", "violent", "weapons"},
		TopicConfidence:    0.6,
		SentimentThreshold: -0.7,
		OverrideScore:      -1.0,
		OverrideMagnitude:  5.0,
	}
}

// Signals records every check's outcome, whether or not it won attribution.
type Signals struct {
	Keyword        bool   `json:"keyword"`
	MatchedKeyword string `json:"matched_keyword,omitempty"`
	Topic          bool   `json:"topic"`
	TopicCategory  string `json:"topic_category,omitempty"`
	LowSentiment   bool   `json:"low_sentiment"`
}

// Verdict is the classifier output. AdjustedScore/AdjustedMagnitude are the
// values to persist on the journal entry.
type Verdict struct {
	IsUrgent          bool    `json:"is_urgent"`
	Reason            string  `json:"reason,omitempty"`
	AdjustedScore     float64 `json:"adjusted_score"`
	AdjustedMagnitude float64 `json:"adjusted_magnitude"`
	Signals           Signals `json:"signals"`
}

type Classifier struct {
	cfg      Config
	keywords []string
	cats     []string
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		cfg:      cfg,
		keywords: lowerAll(cfg.Keywords),
		cats:     lowerAll(cfg.Categories),
	}
}

// Classify runs all three checks against text. Attribution order is
// keyword, then topic, then low sentiment.
func (c *Classifier) Classify(text string, res language.Result) Verdict {
	var sig Signals

	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if kw != "" && strings.Contains(lower, kw) {
			sig.Keyword = true
			sig.MatchedKeyword = kw
			break
		}
	}

	for _, topic := range res.Topics {
		if topic.Confidence <= c.cfg.TopicConfidence {
			continue
		}
		name := strings.ToLower(topic.Name)
		for _, cat := range c.cats {
			if cat != "" && strings.Contains(name, cat) {
				sig.Topic = true
				sig.TopicCategory = topic.Name
				break
			}
		}
		if sig.Topic {
			break
		}
	}

	sig.LowSentiment = res.Score <= c.cfg.SentimentThreshold

	v := Verdict{
		AdjustedScore:     res.Score,
		AdjustedMagnitude: res.Magnitude,
		Signals:           sig,
	}

	switch {
	case sig.Keyword:
		v.IsUrgent, v.Reason = true, ReasonKeyword
	case sig.Topic:
		v.IsUrgent, v.Reason = true, ReasonTopicPrefix+sig.TopicCategory
	case sig.LowSentiment:
		v.IsUrgent, v.Reason = true, ReasonLowSentiment
	}

	if v.IsUrgent && res.Score > c.cfg.SentimentThreshold {
		v.AdjustedScore = c.cfg.OverrideScore
		v.AdjustedMagnitude = c.cfg.OverrideMagnitude
	}

	return v
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
