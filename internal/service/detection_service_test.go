package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"shelf-vision/internal/imaging"
	"shelf-vision/internal/matcher"
	"shelf-vision/internal/model"
	"shelf-vision/internal/repository"
)

type fakeDetector struct {
	detections []model.Detection
	err        error
	calls      int
	lastInput  image.Config
}

func (f *fakeDetector) Detect(_ context.Context, data []byte, _ string) ([]model.Detection, error) {
	f.calls++
	f.lastInput, _, _ = image.DecodeConfig(bytes.NewReader(data))
	return f.detections, f.err
}

type fakeAnnotator struct {
	calls int
	anns  []model.Annotation
	err   error
}

func (f *fakeAnnotator) Annotate(_ context.Context, img image.Image, anns []model.Annotation) (image.Image, error) {
	f.calls++
	f.anns = anns
	if f.err != nil {
		return nil, f.err
	}
	out := image.NewRGBA(img.Bounds())
	out.Set(0, 0, color.RGBA{R: 255, A: 255})
	return out, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]model.Detection
}

func (m *memoryCache) Get(_ context.Context, key string) ([]model.Detection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, d []model.Detection, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]model.Detection{}
	}
	m.data[key] = d
	return nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}
func (m *memoryCache) Ping(context.Context) error { return nil }
func (m *memoryCache) Close() error               { return nil }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func seededRepo(t *testing.T) repository.ProductRepository {
	t.Helper()
	repo := repository.NewMemoryProductRepository()
	if _, err := repo.Insert(context.Background(), model.Product{ID: "001", Name: "bottle", Price: 1.5, InStock: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo
}

func defaultOptions() DetectionOptions {
	return DetectionOptions{MaxDimension: 1024, AnnotateUnmatched: true}
}

func TestProcessMatchedAndPlaceholder(t *testing.T) {
	det := &fakeDetector{detections: []model.Detection{
		{Label: "Bottle", Confidence: 0.9, Box: model.Box{X1: 10, Y1: 10, X2: 40, Y2: 60}},
		{Label: "cup", Confidence: 0.8, Box: model.Box{X1: 50, Y1: 10, X2: 90, Y2: 60}},
	}}
	ann := &fakeAnnotator{}
	svc := NewDetectionService(seededRepo(t), det, ann, matcher.Exact{}, nil, defaultOptions())

	res, err := svc.Process(context.Background(), testPNG(t, 100, 80), "shelf.png")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if det.calls != 1 || ann.calls != 1 {
		t.Fatalf("detector %d annotator %d calls", det.calls, ann.calls)
	}
	if len(ann.anns) != 2 {
		t.Fatalf("got %d annotations", len(ann.anns))
	}
	if ann.anns[0].Text != "bottle: $1.50, In Stock: Yes" || !ann.anns[0].Matched || ann.anns[0].Group != "bottle" {
		t.Fatalf("matched annotation %+v", ann.anns[0])
	}
	if ann.anns[1].Text != "cup: price n/a" || ann.anns[1].Matched {
		t.Fatalf("placeholder annotation %+v", ann.anns[1])
	}
	if res.ContentType != "image/png" {
		t.Fatalf("content type %s", res.ContentType)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(res.Image)); err != nil || format != "png" {
		t.Fatalf("output not png: %s %v", format, err)
	}
}

func TestProcessSkipsUnmatchedWhenDisabled(t *testing.T) {
	det := &fakeDetector{detections: []model.Detection{
		{Label: "cup", Confidence: 0.8, Box: model.Box{X1: 5, Y1: 5, X2: 20, Y2: 20}},
	}}
	ann := &fakeAnnotator{}
	opts := defaultOptions()
	opts.AnnotateUnmatched = false
	svc := NewDetectionService(seededRepo(t), det, ann, nil, nil, opts)

	upload := testPNG(t, 40, 40)
	res, err := svc.Process(context.Background(), upload, "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if ann.calls != 0 {
		t.Fatalf("annotator should not run without annotations")
	}
	if !bytes.Equal(res.Image, upload) {
		t.Fatalf("zero annotations must return the upload unmodified")
	}
}

func TestProcessNoDetectionsReturnsOriginal(t *testing.T) {
	svc := NewDetectionService(seededRepo(t), &fakeDetector{}, &fakeAnnotator{}, nil, nil, defaultOptions())
	upload := testPNG(t, 30, 30)
	res, err := svc.Process(context.Background(), upload, "a.png")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !bytes.Equal(res.Image, upload) {
		t.Fatalf("expected original bytes")
	}
}

func TestProcessInvalidImage(t *testing.T) {
	det := &fakeDetector{}
	svc := NewDetectionService(seededRepo(t), det, &fakeAnnotator{}, nil, nil, defaultOptions())
	_, err := svc.Process(context.Background(), []byte("not an image"), "x.txt")
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if det.calls != 0 {
		t.Fatalf("detector must not run on invalid input")
	}
}

func TestProcessRejectsImageOverPixelLimit(t *testing.T) {
	det := &fakeDetector{}
	opts := defaultOptions()
	opts.MaxPixels = 1000
	svc := NewDetectionService(seededRepo(t), det, &fakeAnnotator{}, nil, nil, opts)

	_, err := svc.Process(context.Background(), testPNG(t, 100, 80), "big.png")
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if !errors.Is(err, imaging.ErrTooLarge) {
		t.Fatalf("expected the size error to be wrapped, got %v", err)
	}
	if det.calls != 0 {
		t.Fatalf("detector must not run on oversized input")
	}
}

func TestProcessDetectorFailure(t *testing.T) {
	svc := NewDetectionService(seededRepo(t), &fakeDetector{err: errors.New("timeout")}, &fakeAnnotator{}, nil, nil, defaultOptions())
	_, err := svc.Process(context.Background(), testPNG(t, 10, 10), "")
	if !errors.Is(err, ErrDetectionFailed) {
		t.Fatalf("expected ErrDetectionFailed, got %v", err)
	}
}

func TestProcessAnnotatorFailure(t *testing.T) {
	det := &fakeDetector{detections: []model.Detection{
		{Label: "bottle", Confidence: 0.9, Box: model.Box{X1: 1, Y1: 1, X2: 5, Y2: 5}},
	}}
	svc := NewDetectionService(seededRepo(t), det, &fakeAnnotator{err: errors.New("boom")}, nil, nil, defaultOptions())
	_, err := svc.Process(context.Background(), testPNG(t, 10, 10), "")
	if !errors.Is(err, ErrDetectionFailed) {
		t.Fatalf("expected ErrDetectionFailed, got %v", err)
	}
}

func TestProcessDownscalesAndMapsBoxesBack(t *testing.T) {
	det := &fakeDetector{detections: []model.Detection{
		{Label: "bottle", Confidence: 0.9, Box: model.Box{X1: 10, Y1: 10, X2: 40, Y2: 40}},
		{Label: "bottle", Confidence: 0.1, Box: model.Box{X1: 0, Y1: 0, X2: 5, Y2: 5}},
		{Label: "bottle", Confidence: 0.9, Box: model.Box{X1: 90, Y1: 10, X2: 300, Y2: 40}},
	}}
	ann := &fakeAnnotator{}
	opts := defaultOptions()
	opts.MaxDimension = 100
	opts.MinConfidence = 0.5
	svc := NewDetectionService(seededRepo(t), det, ann, nil, nil, opts)

	if _, err := svc.Process(context.Background(), testPNG(t, 200, 100), ""); err != nil {
		t.Fatalf("process: %v", err)
	}
	if det.lastInput.Width != 100 || det.lastInput.Height != 50 {
		t.Fatalf("detector saw %dx%d", det.lastInput.Width, det.lastInput.Height)
	}
	if len(ann.anns) != 2 {
		t.Fatalf("low confidence detection should be filtered, got %d", len(ann.anns))
	}
	if ann.anns[0].Box != (model.Box{X1: 20, Y1: 20, X2: 80, Y2: 80}) {
		t.Fatalf("box not scaled back: %+v", ann.anns[0].Box)
	}
	if ann.anns[1].Box != (model.Box{X1: 180, Y1: 20, X2: 200, Y2: 80}) {
		t.Fatalf("box not clamped: %+v", ann.anns[1].Box)
	}
}

func TestProcessUsesCache(t *testing.T) {
	det := &fakeDetector{detections: []model.Detection{
		{Label: "bottle", Confidence: 0.9, Box: model.Box{X1: 1, Y1: 1, X2: 8, Y2: 8}},
	}}
	svc := NewDetectionService(seededRepo(t), det, &fakeAnnotator{}, nil, &memoryCache{}, defaultOptions())

	upload := testPNG(t, 10, 10)
	for i := 0; i < 3; i++ {
		if _, err := svc.Process(context.Background(), upload, ""); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if det.calls != 1 {
		t.Fatalf("detector called %d times", det.calls)
	}
}
