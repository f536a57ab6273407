package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"shelf-vision/internal/logger"
	"shelf-vision/internal/service"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const uploadField = "image"

type UploadHandler struct {
	service  *service.DetectionService
	maxBytes int64
}

var HttpUploadHandlerTracer = otel.Tracer("HttpUploadHandler")

func NewUploadHandler(service *service.DetectionService, maxBytes int64) *UploadHandler {
	return &UploadHandler{service: service, maxBytes: maxBytes}
}

// Upload reads the multipart "image" field and answers with the annotated image.
// X-Detections carries the number of boxes found.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpUploadHandlerTracer.Start(r.Context(), "HttpUploadHandler.Upload")
	defer span.End()
	logger.Info(ctx, "HttpUploadHandler")

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	file, hdr, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "invalid_image", "upload exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_image", "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}
	span.SetAttributes(attribute.String("upload.filename", hdr.Filename), attribute.Int("upload.size", len(data)))

	result, err := h.service.Process(ctx, data, hdr.Filename)
	if err != nil {
		writeServiceError(w, r.WithContext(ctx), err)
		return
	}
	logger.Info(ctx, "Upload processed",
		slog.Int("detections", len(result.Detections)),
		slog.Int("annotations", len(result.Annotations)))

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Image)))
	w.Header().Set("X-Detections", strconv.Itoa(len(result.Detections)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Image)
}
