// Package wearable pulls a trailing week of daily step and sleep aggregates
// from a fitness REST API and reduces them to weekly averages.
package wearable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/fitness/v1"

	stepDataType  = "com.google.step_count.delta"
	sleepDataType = "com.google.sleep.segment"

	Window = 7 * 24 * time.Hour
	day    = 24 * time.Hour
)

// Sleep stages counted as asleep: light, deep, REM.
var sleepStages = map[int64]bool{1: true, 2: true, 4: true}

// ErrNoData means the feed returned no daily buckets for either metric.
var ErrNoData = errors.New("no wearable data")

// Sample is a student's weekly behavioral average.
type Sample struct {
	AvgSleepHours float64   `json:"avg_sleep_hours"`
	AvgStepCount  float64   `json:"avg_step_count"`
	Days          int       `json:"days"`
	FetchedAt     time.Time `json:"fetched_at"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type aggregateRequest struct {
	AggregateBy     []aggregateBy `json:"aggregateBy"`
	BucketByTime    bucketByTime  `json:"bucketByTime"`
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateResponse struct {
	Bucket []bucket `json:"bucket"`
}

type bucket struct {
	StartTimeMillis int64 `json:"startTimeMillis,string"`
	Dataset         []struct {
		Point []point `json:"point"`
	} `json:"dataset"`
}

type point struct {
	StartTimeNanos int64 `json:"startTimeNanos,string"`
	EndTimeNanos   int64 `json:"endTimeNanos,string"`
	Value          []struct {
		IntVal int64   `json:"intVal"`
		FpVal  float64 `json:"fpVal"`
	} `json:"value"`
}

// FetchWeek aggregates the seven days ending at now using the caller's
// OAuth access token.
func (c *Client) FetchWeek(ctx context.Context, accessToken string, now time.Time) (Sample, error) {
	end := now.UTC()
	start := end.Add(-Window)

	steps, err := c.aggregate(ctx, accessToken, stepDataType, start, end)
	if err != nil {
		return Sample{}, fmt.Errorf("fetch steps: %w", err)
	}
	sleep, err := c.aggregate(ctx, accessToken, sleepDataType, start, end)
	if err != nil {
		return Sample{}, fmt.Errorf("fetch sleep: %w", err)
	}

	sample, err := summarize(steps, sleep)
	if err != nil {
		return Sample{}, err
	}
	sample.FetchedAt = end
	return sample, nil
}

func (c *Client) aggregate(ctx context.Context, accessToken, dataType string, start, end time.Time) ([]bucket, error) {
	body, err := json.Marshal(aggregateRequest{
		AggregateBy:     []aggregateBy{{DataTypeName: dataType}},
		BucketByTime:    bucketByTime{DurationMillis: day.Milliseconds()},
		StartTimeMillis: start.UnixMilli(),
		EndTimeMillis:   end.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/me/dataset:aggregate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", dataType, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregate %s returned %d: %s", dataType, resp.StatusCode, string(respBody))
	}

	var out aggregateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parse aggregate response: %w", err)
	}
	return out.Bucket, nil
}

// summarize averages daily buckets. Days with no points count as zero,
// matching what the device reports for an unworn day.
func summarize(steps, sleep []bucket) (Sample, error) {
	if len(steps) == 0 && len(sleep) == 0 {
		return Sample{}, ErrNoData
	}

	var s Sample
	if len(steps) > 0 {
		var total int64
		for _, b := range steps {
			total += firstIntVal(b)
		}
		s.AvgStepCount = float64(total) / float64(len(steps))
	}
	if len(sleep) > 0 {
		var total float64
		for _, b := range sleep {
			total += sleepHours(b)
		}
		s.AvgSleepHours = total / float64(len(sleep))
	}
	s.Days = max(len(steps), len(sleep))
	return s, nil
}

func firstIntVal(b bucket) int64 {
	if len(b.Dataset) == 0 || len(b.Dataset[0].Point) == 0 || len(b.Dataset[0].Point[0].Value) == 0 {
		return 0
	}
	return b.Dataset[0].Point[0].Value[0].IntVal
}

func sleepHours(b bucket) float64 {
	if len(b.Dataset) == 0 {
		return 0
	}
	var nanos int64
	for _, p := range b.Dataset[0].Point {
		if len(p.Value) == 0 || !sleepStages[p.Value[0].IntVal] {
			continue
		}
		nanos += p.EndTimeNanos - p.StartTimeNanos
	}
	return time.Duration(nanos).Hours()
}
