// Command http-client uploads a shelf photo to the server and writes the
// annotated image back to disk.
//
//	http-client <input-image> [output-image]
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shelf-vision/internal/client"
	"shelf-vision/internal/config"
	"shelf-vision/internal/logger"
	"shelf-vision/internal/version"

	"github.com/google/uuid"
)

func outputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_annotated" + ext
}

func main() {
	ctx := logger.WithRequestID(context.Background(), uuid.NewString())
	logger.Instance()
	cfg := config.Instance()
	logger.SetRemote(cfg.RemoteLogHttpURI, cfg.AppName)

	logger.Info(ctx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	if cfg.ExternalHTTP == "" {
		logger.Error(ctx, "EXTERNAL_HTTP environment variable is not set")
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		logger.Error(ctx, "usage: http-client <input-image> [output-image]")
		os.Exit(2)
	}
	input := os.Args[1]
	output := outputPath(input)
	if len(os.Args) > 2 {
		output = os.Args[2]
	}

	data, err := os.ReadFile(input)
	if err != nil {
		logger.Error(ctx, "Failed to read image", slog.String("path", input), slog.String("error", err.Error()))
		os.Exit(1)
	}
	body, contentType, err := client.MultipartFile("image", filepath.Base(input), data)
	if err != nil {
		logger.Error(ctx, "Failed to build upload", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpClient := client.NewHTTPClient(cfg.ExternalHTTP, time.Duration(cfg.InferenceTimeoutMs)*time.Millisecond+30*time.Second)
	resp, err := httpClient.DoWithResponse(client.RequestOptions{
		Method:  "POST",
		URL:     "/upload",
		Body:    body,
		Headers: map[string]string{"Content-Type": contentType},
		Context: ctx,
	})
	if err != nil {
		logger.Error(ctx, "Upload failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !resp.IsSuccess() {
		logger.Error(ctx, "Server rejected upload",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(resp.RawBody)),
		)
		os.Exit(1)
	}

	if err := os.WriteFile(output, resp.RawBody, 0o644); err != nil {
		logger.Error(ctx, "Failed to write output", slog.String("path", output), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info(ctx, "Annotated image saved",
		slog.String("path", output),
		slog.String("content_type", resp.GetHeader("Content-Type")),
		slog.String("detections", resp.GetHeader("X-Detections")),
		slog.Int("size_bytes", len(resp.RawBody)),
	)
}
