package cache

import (
	"context"
	"testing"
	"time"
)

func TestGenerateKey(t *testing.T) {
	c := NewRedisDetectionCache("localhost:0", "shelf-vision")
	defer c.Close()

	if got := c.GenerateKey("detect", "abc"); got != "shelf-vision:detect:abc" {
		t.Fatalf("got %q", got)
	}
}

func TestUnreachableRedisReportsError(t *testing.T) {
	c := NewRedisDetectionCache("127.0.0.1:1", "shelf-vision")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := c.Ping(ctx); err == nil {
		t.Fatalf("expected ping error against closed port")
	}
	if _, _, err := c.Get(ctx, "missing"); err == nil {
		t.Fatalf("expected get error against closed port")
	}
}
