package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"shelf-vision/internal/cache"
	"shelf-vision/internal/imaging"
	"shelf-vision/internal/logger"
	"shelf-vision/internal/matcher"
	"shelf-vision/internal/model"
	"shelf-vision/internal/overlay"
	"shelf-vision/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type Detector interface {
	Detect(ctx context.Context, image []byte, filename string) ([]model.Detection, error)
}

type Annotator interface {
	Annotate(ctx context.Context, img image.Image, anns []model.Annotation) (image.Image, error)
}

type DetectionOptions struct {
	MinConfidence     float64
	MaxDimension      int
	MaxPixels         int64
	AnnotateUnmatched bool
	CacheTTL          time.Duration
}

type UploadResult struct {
	Image       []byte
	ContentType string
	Detections  []model.Detection
	Annotations []model.Annotation
}

type DetectionService struct {
	repo      repository.ProductRepository
	detector  Detector
	annotator Annotator
	matcher   matcher.Matcher
	cache     cache.DetectionCache
	opts      DetectionOptions
}

var DetectionServiceTracer = otel.Tracer("DetectionService")

// NewDetectionService wires the collaborators. dc may be nil to disable caching.
func NewDetectionService(repo repository.ProductRepository, detector Detector, annotator Annotator, m matcher.Matcher, dc cache.DetectionCache, opts DetectionOptions) *DetectionService {
	if m == nil {
		m = matcher.Exact{}
	}
	return &DetectionService{
		repo:      repo,
		detector:  detector,
		annotator: annotator,
		matcher:   m,
		cache:     dc,
		opts:      opts,
	}
}

func (s *DetectionService) Process(ctx context.Context, data []byte, filename string) (*UploadResult, error) {
	ctx, span := DetectionServiceTracer.Start(ctx, "DetectionService.Process")
	defer span.End()
	logger.Info(ctx, "Service", slog.String("filename", filename), slog.Int("size_bytes", len(data)))

	img, format, err := imaging.Decode(data, s.opts.MaxPixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	span.SetAttributes(attribute.String("image.format", format))

	detections, err := s.detect(ctx, img, filename)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	anns := s.buildAnnotations(detections, products)
	span.SetAttributes(attribute.Int("detections", len(detections)), attribute.Int("annotations", len(anns)))

	if len(anns) == 0 {
		return &UploadResult{
			Image:       data,
			ContentType: imaging.ContentType(format),
			Detections:  detections,
			Annotations: anns,
		}, nil
	}

	annotated, err := s.annotator.Annotate(ctx, img, anns)
	if err != nil {
		return nil, fmt.Errorf("%w: annotate: %v", ErrDetectionFailed, err)
	}
	var buf bytes.Buffer
	contentType, err := imaging.Encode(&buf, annotated, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}

	return &UploadResult{
		Image:       buf.Bytes(),
		ContentType: contentType,
		Detections:  detections,
		Annotations: anns,
	}, nil
}

// detect runs the detector on a downscaled copy of img and maps the boxes
// back to img's resolution.
func (s *DetectionService) detect(ctx context.Context, img image.Image, filename string) ([]model.Detection, error) {
	input, scale := imaging.Fit(img, s.opts.MaxDimension)
	var buf bytes.Buffer
	if _, err := imaging.Encode(&buf, input, "jpeg"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	payload := buf.Bytes()

	raw, err := s.cachedDetect(ctx, payload, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}

	b := img.Bounds()
	out := make([]model.Detection, 0, len(raw))
	for _, d := range raw {
		if d.Confidence < s.opts.MinConfidence {
			continue
		}
		d.Box = scaleBox(d.Box, scale, b.Dx(), b.Dy())
		if d.Box.Area() == 0 {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *DetectionService) cachedDetect(ctx context.Context, payload []byte, filename string) ([]model.Detection, error) {
	if s.cache == nil {
		return s.detector.Detect(ctx, payload, filename)
	}

	sum := sha256.Sum256(payload)
	key := s.cache.GenerateKey("detect", hex.EncodeToString(sum[:]))
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		logger.Warn(ctx, "Detection cache read failed", slog.String("error", err.Error()))
	} else if ok {
		logger.Info(ctx, "Detection cache hit", slog.String("key", key))
		return cached, nil
	}

	detections, err := s.detector.Detect(ctx, payload, filename)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, detections, s.opts.CacheTTL); err != nil {
		logger.Warn(ctx, "Detection cache write failed", slog.String("error", err.Error()))
	}
	return detections, nil
}

func (s *DetectionService) buildAnnotations(detections []model.Detection, products []model.Product) []model.Annotation {
	anns := make([]model.Annotation, 0, len(detections))
	for _, d := range detections {
		ann := model.Annotation{Box: d.Box, Group: overlay.GroupKey(d.Label)}
		if p, ok := s.matcher.Match(d.Label, products); ok {
			ann.Text = overlay.ProductText(p)
			ann.Matched = true
		} else if s.opts.AnnotateUnmatched {
			ann.Text = overlay.PlaceholderText(d.Label)
		} else {
			continue
		}
		anns = append(anns, ann)
	}
	return anns
}

// scaleBox divides b by scale and clamps it to a w x h image.
func scaleBox(b model.Box, scale float64, w, h int) model.Box {
	if scale <= 0 {
		scale = 1
	}
	conv := func(v, limit int) int {
		n := int(math.Round(float64(v) / scale))
		return min(max(n, 0), limit)
	}
	return model.Box{
		X1: conv(b.X1, w),
		Y1: conv(b.Y1, h),
		X2: conv(b.X2, w),
		Y2: conv(b.Y2, h),
	}
}
