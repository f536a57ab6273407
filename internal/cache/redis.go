// Package cache stores detector responses keyed by the image that produced them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shelf-vision/internal/model"

	"github.com/redis/go-redis/v9"
)

type DetectionCache interface {
	Get(ctx context.Context, key string) ([]model.Detection, bool, error)
	Set(ctx context.Context, key string, detections []model.Detection, ttl time.Duration) error
	GenerateKey(operation, key string) string
	Ping(ctx context.Context) error
	Close() error
}

type redisDetectionCache struct {
	client      *redis.Client
	serviceName string
}

func NewRedisDetectionCache(addr, serviceName string) DetectionCache {
	return &redisDetectionCache{
		client:      redis.NewClient(&redis.Options{Addr: addr}),
		serviceName: serviceName,
	}
}

func (r *redisDetectionCache) Set(ctx context.Context, key string, detections []model.Detection, ttl time.Duration) error {
	payload, err := json.Marshal(detections)
	if err != nil {
		return fmt.Errorf("encode detections: %w", err)
	}
	return r.client.Set(ctx, key, payload, ttl).Err()
}

func (r *redisDetectionCache) Get(ctx context.Context, key string) ([]model.Detection, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var detections []model.Detection
	if err := json.Unmarshal(raw, &detections); err != nil {
		return nil, false, fmt.Errorf("decode cached detections: %w", err)
	}
	return detections, true, nil
}

func (r *redisDetectionCache) GenerateKey(operation, key string) string {
	return GenerateKey(r.serviceName, operation, key)
}

func (r *redisDetectionCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisDetectionCache) Close() error {
	return r.client.Close()
}

// GenerateKey namespaces key as "<service>:<operation>:<key>".
func GenerateKey(serviceName, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", serviceName, operation, key)
}
