package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelf-vision/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient wraps net/http with tracing, request logging and JSON decoding.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	// Timeout bounds this request below the client-wide timeout.
	Timeout time.Duration
	Context context.Context
}

// Response keeps the decoded body together with status, headers and raw bytes.
type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

// StatusError is returned when the server answers with a 4xx or 5xx status and
// the caller asked for a decoded result instead of a Response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

// SetDefaultHeader adds a header sent with every request unless overridden per request.
func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Do performs the request and decodes the response into result. result may be
// a *Response[any], a *[]byte, a *string or any JSON target.
func (c *HTTPClient) Do(opts RequestOptions, result any) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	fullURL, err := c.buildURL(opts.URL)
	if err != nil {
		logger.Error(ctx, "Failed to build URL", slog.Any("error", err))
		return fmt.Errorf("build url: %w", err)
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyBytes, err := c.encodeBody(opts.Body)
		if err != nil {
			logger.Error(ctx, "Failed to encode body", slog.Any("error", err))
			return fmt.Errorf("encode body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	ctx, span := HttpClientTracer.Start(ctx, "HttpClient.Do")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", opts.Method),
		attribute.String("http.url", fullURL),
	)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, bodyReader)
	if err != nil {
		logger.Error(ctx, "Failed to create request", slog.Any("error", err))
		return fmt.Errorf("create request: %w", err)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	c.setHeaders(req, opts.Headers)
	req.Header.Set("X-Trace-ID", span.SpanContext().TraceID().String())
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	logger.Info(ctx, "HttpClient request", logger.LogHTTPRequest(ctx, req, "outgoing")...)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "Failed to execute request", slog.String("error", err.Error()))
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error(ctx, "Failed to read response body", slog.String("error", err.Error()))
		return fmt.Errorf("read response body: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.Info(ctx, "HttpClient response",
		logger.LogHTTPResponse(ctx, req, resp.Header, resp.StatusCode, bytes.NewReader(rawBody), time.Since(start).Milliseconds(), "outgoing")...)

	if respPtr, ok := result.(*Response[any]); ok {
		var data any
		if len(rawBody) > 0 && isJSON(resp.Header.Get("Content-Type")) {
			if err := json.Unmarshal(rawBody, &data); err != nil {
				data = string(rawBody)
			}
		}
		respPtr.Data = data
		respPtr.StatusCode = resp.StatusCode
		respPtr.Headers = resp.Header
		respPtr.RawBody = rawBody
		return nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
		return &StatusError{StatusCode: resp.StatusCode, Body: rawBody}
	}
	if result == nil || len(rawBody) == 0 {
		return nil
	}
	if err := assignRawBody(result, rawBody); err == nil {
		return nil
	}
	if err := json.Unmarshal(rawBody, result); err != nil {
		logger.Error(ctx, "Failed to parse response", slog.Any("error", err))
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *HTTPClient) DoWithResponse(opts RequestOptions) (*Response[any], error) {
	result := &Response[any]{}
	err := c.Do(opts, result)
	return result, err
}

func (c *HTTPClient) Get(ctx context.Context, url string, result any) error {
	return c.Do(RequestOptions{Method: http.MethodGet, URL: url, Context: ctx}, result)
}

func (c *HTTPClient) Post(ctx context.Context, url string, body any, result any, headers map[string]string) error {
	return c.Do(RequestOptions{Method: http.MethodPost, URL: url, Body: body, Headers: headers, Context: ctx}, result)
}

// MultipartFile builds a multipart/form-data body holding a single file part.
func MultipartFile(field, filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *HTTPClient) buildURL(endpoint string) (string, error) {
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		fullURL = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *HTTPClient) encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return json.Marshal(body)
	}
}

// setHeaders applies defaults first so per-request headers win.
func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
}

func assignRawBody(data any, rawBody []byte) error {
	switch v := data.(type) {
	case *string:
		*v = string(rawBody)
		return nil
	case *[]byte:
		*v = rawBody
		return nil
	default:
		return fmt.Errorf("cannot assign raw body to %T", data)
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response[T]) GetHeader(key string) string {
	return r.Headers.Get(key)
}
