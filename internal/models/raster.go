package models

// MaxValue is the upper bound of intensity, gradient and cost fields.
// Values follow the 8-bit range of the images they are derived from.
const MaxValue = 255.0

// Point is an integer pixel coordinate. It is used both for pixels and
// for cell centers, whose identity is their index in the generated sequence.
type Point struct {
	X, Y int
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// DistSq returns the squared Euclidean distance between p and q
func (p Point) DistSq(q Point) int64 {
	dx := int64(p.X - q.X)
	dy := int64(p.Y - q.Y)
	return dx*dx + dy*dy
}

// Field is a 2D scalar raster stored in row-major order.
// Gradient fields, regularized cost surfaces and intensity images are all Fields.
type Field struct {
	// Width and Height are the raster dimensions in pixels
	Width  int
	Height int

	// Pix holds Width*Height values, row by row
	Pix []float64
}

// NewField allocates a zeroed field
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// Index returns the offset of (x, y) in Pix
func (f *Field) Index(x, y int) int {
	return y*f.Width + x
}

// At returns the value at (x, y)
func (f *Field) At(x, y int) float64 {
	return f.Pix[y*f.Width+x]
}

// Set stores v at (x, y)
func (f *Field) Set(x, y int, v float64) {
	f.Pix[y*f.Width+x] = v
}

// InBounds reports whether (x, y) lies inside the raster
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// Clone returns a deep copy of the field
func (f *Field) Clone() *Field {
	c := NewField(f.Width, f.Height)
	copy(c.Pix, f.Pix)
	return c
}

// LabelImage is a per-pixel integer label raster in row-major order.
// Label 0 means "unlabeled".
type LabelImage struct {
	Width  int
	Height int
	Pix    []int32
}

// NewLabelImage allocates an unlabeled image
func NewLabelImage(width, height int) *LabelImage {
	return &LabelImage{
		Width:  width,
		Height: height,
		Pix:    make([]int32, width*height),
	}
}

// Index returns the offset of (x, y) in Pix
func (l *LabelImage) Index(x, y int) int {
	return y*l.Width + x
}

// At returns the label at (x, y)
func (l *LabelImage) At(x, y int) int32 {
	return l.Pix[y*l.Width+x]
}

// Set stores a label at (x, y)
func (l *LabelImage) Set(x, y int, v int32) {
	l.Pix[y*l.Width+x] = v
}

// InBounds reports whether (x, y) lies inside the raster
func (l *LabelImage) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.Width && y < l.Height
}

// Clone returns a deep copy of the label image
func (l *LabelImage) Clone() *LabelImage {
	c := NewLabelImage(l.Width, l.Height)
	copy(c.Pix, l.Pix)
	return c
}

// Equal reports whether both images have the same size and labels
func (l *LabelImage) Equal(o *LabelImage) bool {
	if l.Width != o.Width || l.Height != o.Height {
		return false
	}
	for i := range l.Pix {
		if l.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
