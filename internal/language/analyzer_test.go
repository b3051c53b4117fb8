package language

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	sentiment    Sentiment
	sentimentErr error
	topics       []Topic
	topicsErr    error
	block        bool
	calls        atomic.Int32
}

func (f *fakeService) AnalyzeSentiment(ctx context.Context, _ string) (Sentiment, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return Sentiment{}, ctx.Err()
	}
	return f.sentiment, f.sentimentErr
}

func (f *fakeService) ClassifyText(ctx context.Context, _ string) ([]Topic, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.topics, f.topicsErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeService
		wantScore  float64
		wantMag    float64
		wantTopics int
	}{
		{
			name:       "both calls succeed",
			svc:        &fakeService{sentiment: Sentiment{Score: -0.4, Magnitude: 2.1}, topics: []Topic{{Name: "/Health", Confidence: 0.7}}},
			wantScore:  -0.4,
			wantMag:    2.1,
			wantTopics: 1,
		},
		{
			name:       "sentiment fails, topics still returned",
			svc:        &fakeService{sentimentErr: errors.New("503"), topics: []Topic{{Name: "/Health", Confidence: 0.7}}},
			wantScore:  0,
			wantMag:    0,
			wantTopics: 1,
		},
		{
			name:       "topics fail, sentiment still returned",
			svc:        &fakeService{sentiment: Sentiment{Score: 0.3, Magnitude: 0.5}, topicsErr: errors.New("too few tokens")},
			wantScore:  0.3,
			wantMag:    0.5,
			wantTopics: 0,
		},
		{
			name:       "both fail yields neutral",
			svc:        &fakeService{sentimentErr: errors.New("down"), topicsErr: errors.New("down")},
			wantScore:  0,
			wantMag:    0,
			wantTopics: 0,
		},
		{
			name:       "out of range values are clamped",
			svc:        &fakeService{sentiment: Sentiment{Score: -1.7, Magnitude: -2}, topics: []Topic{{Name: "/X", Confidence: 1.3}}},
			wantScore:  -1,
			wantMag:    0,
			wantTopics: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.svc, time.Second, discardLogger())
			got := a.Analyze(context.Background(), "I have been feeling low all week")

			if got.Score != tt.wantScore || got.Magnitude != tt.wantMag {
				t.Errorf("sentiment = {%v %v}, want {%v %v}", got.Score, got.Magnitude, tt.wantScore, tt.wantMag)
			}
			if len(got.Topics) != tt.wantTopics {
				t.Errorf("topics = %d, want %d", len(got.Topics), tt.wantTopics)
			}
			for _, topic := range got.Topics {
				if topic.Confidence < 0 || topic.Confidence > 1 {
					t.Errorf("topic confidence %v out of range", topic.Confidence)
				}
			}
		})
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	svc := &fakeService{block: true}
	a := NewAnalyzer(svc, 20*time.Millisecond, discardLogger())

	start := time.Now()
	got := a.Analyze(context.Background(), "a journal entry that hangs the service")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("analyze blocked for %s", elapsed)
	}
	if got.Score != 0 || got.Magnitude != 0 || len(got.Topics) != 0 {
		t.Errorf("expected neutral result on timeout, got %+v", got)
	}
}

func TestAnalyze_EmptyTextSkipsCalls(t *testing.T) {
	svc := &fakeService{sentiment: Sentiment{Score: 0.9, Magnitude: 3}}
	a := NewAnalyzer(svc, time.Second, discardLogger())

	got := a.Analyze(context.Background(), "   ")
	if got.Score != 0 || got.Magnitude != 0 {
		t.Errorf("expected neutral for blank text, got %+v", got)
	}
	if n := svc.calls.Load(); n != 0 {
		t.Errorf("expected no service calls, got %d", n)
	}
}
