// Package overlay draws detection boxes and product callouts on top of an image.
package overlay

import (
	"context"
	"errors"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"shelf-vision/internal/imaging"
	"shelf-vision/internal/logger"
	"shelf-vision/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var ErrNilImage = errors.New("overlay: nil image")

var AnnotatorTracer = otel.Tracer("Annotator")

var palette = []color.RGBA{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 240, B: 240, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
	{R: 128, G: 128, B: 0, A: 255},
	{R: 0, G: 128, B: 128, A: 255},
	{R: 170, G: 110, B: 40, A: 255},
}

type Annotator struct {
	Thickness int
	FontScale int
	Padding   int
	Gap       int
	Face      font.Face
}

func NewAnnotator() *Annotator {
	return &Annotator{
		Thickness: 3,
		FontScale: 2,
		Padding:   2,
		Gap:       5,
		Face:      basicfont.Face7x13,
	}
}

// ColorFor returns the stable colour used for a group.
func ColorFor(group string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(group))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Annotate draws every box and one callout per group on the group's largest box.
// The source image is never modified.
func (a *Annotator) Annotate(ctx context.Context, img image.Image, anns []model.Annotation) (image.Image, error) {
	ctx, span := AnnotatorTracer.Start(ctx, "Annotator.Annotate")
	defer span.End()
	span.SetAttributes(attribute.Int("annotations", len(anns)))

	if img == nil {
		return nil, ErrNilImage
	}
	canvas := imaging.ToRGBA(img)
	for _, ann := range anns {
		a.drawRect(canvas, ann.Box, ColorFor(ann.Group))
	}

	for _, ann := range largestPerGroup(anns) {
		a.drawCallout(canvas, ann)
	}
	logger.Info(ctx, "Annotator", slog.Int("annotations", len(anns)))
	return canvas, nil
}

// largestPerGroup keeps, in first-seen group order, the annotation with the largest box.
func largestPerGroup(anns []model.Annotation) []model.Annotation {
	index := map[string]int{}
	var out []model.Annotation
	for _, ann := range anns {
		i, ok := index[ann.Group]
		if !ok {
			index[ann.Group] = len(out)
			out = append(out, ann)
			continue
		}
		if ann.Box.Area() > out[i].Box.Area() {
			out[i] = ann
		}
	}
	return out
}

func (a *Annotator) drawRect(dst *image.RGBA, b model.Box, c color.RGBA) {
	r := image.Rect(b.X1, b.Y1, b.X2, b.Y2).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	t := a.Thickness
	if t < 1 {
		t = 1
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// TextSize is the pixel size of text once scaled.
func (a *Annotator) TextSize(text string) (int, int) {
	m := a.Face.Metrics()
	w := font.MeasureString(a.Face, text).Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	return w * a.scale(), h * a.scale()
}

func (a *Annotator) scale() int {
	if a.FontScale < 1 {
		return 1
	}
	return a.FontScale
}

// CalloutOrigin picks the top-left corner of a tw x th callout for box b inside
// a W x H image: above the box when it fits, below it otherwise, and always
// clamped to the image.
func CalloutOrigin(b model.Box, tw, th, gap, W, H int) image.Point {
	x := b.X1
	y := b.Y1 - th - gap
	if x+tw > W {
		x = W - tw - gap
	}
	if y < 0 {
		y = b.Y2 + gap
		if y+th > H {
			y = H - th - gap
		}
	}
	return image.Pt(max(x, 0), max(y, 0))
}

func (a *Annotator) drawCallout(dst *image.RGBA, ann model.Annotation) {
	if ann.Text == "" {
		return
	}
	tw, th := a.TextSize(ann.Text)
	if tw == 0 || th == 0 {
		return
	}
	W, H := dst.Bounds().Dx(), dst.Bounds().Dy()
	p := a.Padding
	origin := CalloutOrigin(ann.Box, tw+2*p, th+2*p, a.Gap, W, H)

	bg := image.Rect(origin.X, origin.Y, origin.X+tw+2*p, origin.Y+th+2*p).Intersect(dst.Bounds())
	draw.Draw(dst, bg, image.White, image.Point{}, draw.Src)

	text := a.renderText(ann.Text, ColorFor(ann.Group))
	target := image.Rect(origin.X+p, origin.Y+p, origin.X+p+tw, origin.Y+p+th)
	xdraw.NearestNeighbor.Scale(dst, target, text, text.Bounds(), xdraw.Over, nil)
}

// renderText draws text at native size on a transparent canvas.
func (a *Annotator) renderText(text string, c color.RGBA) *image.RGBA {
	m := a.Face.Metrics()
	w := font.MeasureString(a.Face, text).Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: a.Face,
		Dot:  fixed.Point26_6{X: 0, Y: m.Ascent},
	}
	d.DrawString(text)
	return img
}
