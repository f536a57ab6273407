package overlay

import (
	"context"
	"image"
	"image/color"
	"testing"

	"shelf-vision/internal/model"
)

func blank(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestProductText(t *testing.T) {
	got := ProductText(model.Product{Name: "Soda", Price: 1.5, InStock: true})
	if got != "Soda: $1.50, In Stock: Yes" {
		t.Fatalf("got %q", got)
	}
	got = ProductText(model.Product{Name: "Chips", Price: 2.25})
	if got != "Chips: $2.25, In Stock: No" {
		t.Fatalf("got %q", got)
	}
}

func TestPlaceholderText(t *testing.T) {
	if got := PlaceholderText(" bottle "); got != "bottle: price n/a" {
		t.Fatalf("got %q", got)
	}
}

func TestCalloutOriginAbove(t *testing.T) {
	p := CalloutOrigin(model.Box{X1: 10, Y1: 100, X2: 60, Y2: 150}, 40, 20, 5, 400, 400)
	if p != image.Pt(10, 75) {
		t.Fatalf("got %v", p)
	}
}

func TestCalloutOriginBelowWhenNoRoomAbove(t *testing.T) {
	p := CalloutOrigin(model.Box{X1: 10, Y1: 2, X2: 60, Y2: 50}, 40, 20, 5, 400, 400)
	if p != image.Pt(10, 55) {
		t.Fatalf("got %v", p)
	}
}

func TestCalloutOriginClamped(t *testing.T) {
	p := CalloutOrigin(model.Box{X1: 390, Y1: 0, X2: 400, Y2: 98}, 40, 20, 5, 400, 100)
	if p.X+40 > 400 || p.Y+20 > 100 || p.X < 0 || p.Y < 0 {
		t.Fatalf("callout escapes image: %v", p)
	}

	p = CalloutOrigin(model.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, 500, 500, 5, 100, 100)
	if p.X < 0 || p.Y < 0 {
		t.Fatalf("negative origin: %v", p)
	}
}

func TestAnnotateDrawsBoxAndLeavesSourceUntouched(t *testing.T) {
	src := blank(200, 200)
	anns := []model.Annotation{{
		Box:   model.Box{X1: 50, Y1: 80, X2: 150, Y2: 180},
		Group: "bottle",
		Text:  "bottle: price n/a",
	}}

	out, err := NewAnnotator().Annotate(context.Background(), src, anns)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	want := ColorFor("bottle")
	if got := color.RGBAModel.Convert(out.At(50, 130)).(color.RGBA); got != want {
		t.Fatalf("left edge colour %v, want %v", got, want)
	}
	if got := color.RGBAModel.Convert(out.At(100, 130)).(color.RGBA); got == want {
		t.Fatalf("box interior should not be filled")
	}
	if src.At(50, 130) != (color.RGBA{}) {
		t.Fatalf("source image modified")
	}
}

func TestAnnotateOneCalloutPerGroupOnLargestBox(t *testing.T) {
	small := model.Annotation{Box: model.Box{X1: 10, Y1: 150, X2: 30, Y2: 170}, Group: "cup", Text: "cup"}
	large := model.Annotation{Box: model.Box{X1: 100, Y1: 150, X2: 190, Y2: 190}, Group: "cup", Text: "cup"}

	picked := largestPerGroup([]model.Annotation{small, large})
	if len(picked) != 1 || picked[0].Box != large.Box {
		t.Fatalf("picked %+v", picked)
	}

	out, err := NewAnnotator().Annotate(context.Background(), blank(200, 200), []model.Annotation{small, large})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	// white callout background sits just above the large box
	if got := color.RGBAModel.Convert(out.At(101, 140)).(color.RGBA); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("expected callout background above large box, got %v", got)
	}
	if got := color.RGBAModel.Convert(out.At(11, 140)).(color.RGBA); got != (color.RGBA{}) {
		t.Fatalf("small box should not get a callout, got %v", got)
	}
}

func TestAnnotateNilImage(t *testing.T) {
	if _, err := NewAnnotator().Annotate(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
