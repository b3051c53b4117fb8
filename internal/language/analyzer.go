package language

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sentiment is a document-level sentiment reading.
// Score is in [-1,1]; Magnitude is unbounded above and never negative.
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// Topic is a content category with the service's confidence in [0,1].
type Topic struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Result is the combined output of one analysis pass.
type Result struct {
	Sentiment
	Topics []Topic `json:"topics"`
}

// Service is the pair of remote calls an Analyzer depends on.
type Service interface {
	AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error)
	ClassifyText(ctx context.Context, text string) ([]Topic, error)
}

// Analyzer runs sentiment and topic classification side by side and folds
// failures into neutral defaults. It never returns an error.
type Analyzer struct {
	svc     Service
	timeout time.Duration
	logger  *slog.Logger
}

func NewAnalyzer(svc Service, timeout time.Duration, logger *slog.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Analyzer{svc: svc, timeout: timeout, logger: logger}
}

// Analyze returns sentiment and topics for text. A failed sentiment call
// yields {0,0}; a failed classification yields no topics.
func (a *Analyzer) Analyze(ctx context.Context, text string) Result {
	var res Result
	if strings.TrimSpace(text) == "" {
		return res
	}

	var g errgroup.Group

	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		s, err := a.svc.AnalyzeSentiment(callCtx, text)
		if err != nil {
			a.logger.Warn("sentiment analysis failed, using neutral", "error", err)
			return nil
		}
		res.Sentiment = normalize(s)
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		topics, err := a.svc.ClassifyText(callCtx, text)
		if err != nil {
			// Expected for short entries.
			a.logger.Debug("topic classification unavailable", "error", err, "text_len", len(text))
			return nil
		}
		for i := range topics {
			topics[i].Confidence = clamp(topics[i].Confidence, 0, 1)
		}
		res.Topics = topics
		return nil
	})

	_ = g.Wait()
	return res
}

func normalize(s Sentiment) Sentiment {
	return Sentiment{
		Score:     clamp(s.Score, -1, 1),
		Magnitude: math.Max(s.Magnitude, 0),
	}
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
