package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/wellcheck/internal/wearable"
)

func TestSampleKey(t *testing.T) {
	if got := sampleKey("stu-42"); got != "student:stu-42:behavioral" {
		t.Errorf("sampleKey = %q", got)
	}
}

func TestNewBehavioralCache_TTLMatchesWindow(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	c := NewBehavioralCache(client).(*behavioralCache)
	if c.ttl != wearable.Window {
		t.Errorf("ttl = %s, want %s", c.ttl, wearable.Window)
	}
}

func TestGetSample_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewBehavioralCache(client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := c.GetSample(ctx, "stu-1")
	if err == nil {
		t.Fatal("expected an error from an unreachable redis")
	}
	if s != nil {
		t.Errorf("expected nil sample on error, got %+v", s)
	}
}
