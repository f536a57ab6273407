package service

import (
	"context"
	"time"

	"shelf-vision/internal/logger"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// HealthCheck is one named dependency check.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthStatus struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"data"`
}

type HealthService struct {
	checks  []HealthCheck
	timeout time.Duration
}

var HealthServiceTracer = otel.Tracer("HealthService")

func NewHealthService(checks ...HealthCheck) *HealthService {
	return &HealthService{checks: checks, timeout: 2 * time.Second}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()
	logger.Info(ctx, "Service")

	status := HealthStatus{Status: StatusUp, Dependencies: make(map[string]string, len(s.checks))}
	for _, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.Ping(checkCtx)
		cancel()
		if err != nil {
			status.Dependencies[c.Name] = StatusDown
			status.Status = StatusDown
			continue
		}
		status.Dependencies[c.Name] = StatusUp
	}
	return status
}
