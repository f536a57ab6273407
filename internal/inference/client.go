// Package inference talks to the object detection service over HTTP.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"shelf-vision/internal/client"
	"shelf-vision/internal/logger"
	"shelf-vision/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var InferenceClientTracer = otel.Tracer("InferenceClient")

var ErrMalformedResponse = errors.New("malformed detection response")

const defaultHealthTimeout = 2 * time.Second

type Client struct {
	http          *client.HTTPClient
	healthTimeout time.Duration
}

type predictResponse struct {
	Detections []predictDetection `json:"detections"`
}

type predictDetection struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	hc := client.NewHTTPClient(baseURL, timeout)
	hc.SetDefaultHeader("Accept", "application/json")
	return &Client{http: hc, healthTimeout: min(timeout, defaultHealthTimeout)}
}

// Detect posts the image to /predict and returns the boxes with X1<=X2 and Y1<=Y2.
func (c *Client) Detect(ctx context.Context, image []byte, filename string) ([]model.Detection, error) {
	ctx, span := InferenceClientTracer.Start(ctx, "InferenceClient.Detect")
	defer span.End()
	logger.Info(ctx, "Client", slog.Int("image_bytes", len(image)))

	if filename == "" {
		filename = "upload"
	}
	body, contentType, err := client.MultipartFile("file", filename, image)
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}

	var resp predictResponse
	if err := c.http.Post(ctx, "/predict", body, &resp, map[string]string{"Content-Type": contentType}); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	out := make([]model.Detection, 0, len(resp.Detections))
	for i, d := range resp.Detections {
		if len(d.Box) != 4 {
			return nil, fmt.Errorf("%w: detection %d has %d box coordinates", ErrMalformedResponse, i, len(d.Box))
		}
		out = append(out, model.Detection{
			Label:      d.Label,
			Confidence: d.Confidence,
			Box:        normalizeBox(d.Box),
		})
	}
	span.SetAttributes(attribute.Int("detections", len(out)))
	return out, nil
}

// Ping checks GET /health. It gives up sooner than Detect does.
func (c *Client) Ping(ctx context.Context) error {
	return c.http.Do(client.RequestOptions{
		Method:  http.MethodGet,
		URL:     "/health",
		Timeout: c.healthTimeout,
		Context: ctx,
	}, nil)
}

func normalizeBox(v []float64) model.Box {
	x1, y1 := int(math.Round(v[0])), int(math.Round(v[1]))
	x2, y2 := int(math.Round(v[2])), int(math.Round(v[3]))
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return model.Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}
