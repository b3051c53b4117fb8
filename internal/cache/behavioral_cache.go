package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/wellcheck/internal/wearable"
)

// BehavioralCache keeps the latest weekly wearable sample per student so
// check-in driven recomputes can reuse it without hitting the fitness API.
type BehavioralCache interface {
	GetSample(ctx context.Context, studentID string) (*wearable.Sample, error)
	SetSample(ctx context.Context, studentID string, sample wearable.Sample) error
	DeleteSample(ctx context.Context, studentID string) error
}

type behavioralCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBehavioralCache creates a cache whose entries expire with the
// trailing wearable window.
func NewBehavioralCache(client *redis.Client) BehavioralCache {
	return &behavioralCache{
		client: client,
		ttl:    wearable.Window,
	}
}

func sampleKey(studentID string) string {
	return fmt.Sprintf("student:%s:behavioral", studentID)
}

// GetSample returns nil, nil when nothing is cached.
func (c *behavioralCache) GetSample(ctx context.Context, studentID string) (*wearable.Sample, error) {
	data, err := c.client.Get(ctx, sampleKey(studentID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get behavioral sample: %w", err)
	}
	var s wearable.Sample
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode behavioral sample: %w", err)
	}
	return &s, nil
}

func (c *behavioralCache) SetSample(ctx context.Context, studentID string, sample wearable.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode behavioral sample: %w", err)
	}
	return c.client.Set(ctx, sampleKey(studentID), data, c.ttl).Err()
}

func (c *behavioralCache) DeleteSample(ctx context.Context, studentID string) error {
	return c.client.Del(ctx, sampleKey(studentID)).Err()
}
