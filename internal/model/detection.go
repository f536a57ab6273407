package model

// Box is an axis-aligned rectangle in image pixels, (X1,Y1) top-left and (X2,Y2) bottom-right.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b Box) Width() int  { return b.X2 - b.X1 }
func (b Box) Height() int { return b.Y2 - b.Y1 }

func (b Box) Area() int {
	if b.Width() <= 0 || b.Height() <= 0 {
		return 0
	}
	return b.Width() * b.Height()
}

type Detection struct {
	Box        Box     `json:"box"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Annotation is one detection prepared for drawing. Annotations sharing a Group
// share a colour and a single callout.
type Annotation struct {
	Box     Box    `json:"box"`
	Group   string `json:"group"`
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}
