package canvas

// Point is a position on a page.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) moved(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Font specifies a font face. Family is one of the PDF core families
// (Helvetica, Times, Courier); Style is "", "B", "I" or "BI".
type Font struct {
	Family string
	Style  string
	Size   float64 // points
}

// Align is a horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Command is a drawing primitive placed on a page.
type Command interface {
	// Bounds returns the area covered by the command.
	Bounds() Rect
	// Translate returns a copy of the command moved by (dx, dy).
	Translate(dx, dy float64) Command
}

// FilledRect paints a rectangle with a solid color.
type FilledRect struct {
	Rect
	Color Color
}

func (c FilledRect) Bounds() Rect { return c.Rect }

func (c FilledRect) Translate(dx, dy float64) Command {
	c.Rect = c.Rect.moved(dx, dy)
	return c
}

// TextBox draws pre-wrapped lines of text. Rect.H is the total height of the
// lines; each line occupies LineHeight.
type TextBox struct {
	Rect
	Lines      []string
	Font       Font
	Color      Color
	LineHeight float64
	Align      Align
}

func (c TextBox) Bounds() Rect { return c.Rect }

func (c TextBox) Translate(dx, dy float64) Command {
	c.Rect = c.Rect.moved(dx, dy)
	return c
}

// ImageBox draws an encoded raster image stretched to Rect. Name identifies
// the image so identical images are embedded once.
type ImageBox struct {
	Rect
	Name   string
	Data   []byte
	Format string // "png", "jpg" or "gif"
}

func (c ImageBox) Bounds() Rect { return c.Rect }

func (c ImageBox) Translate(dx, dy float64) Command {
	c.Rect = c.Rect.moved(dx, dy)
	return c
}

// RotatedText draws a single line of text centered in Rect and rotated by
// Angle degrees counter-clockwise around the center of Rect.
type RotatedText struct {
	Rect
	Text  string
	Font  Font
	Color Color
	Angle float64
}

func (c RotatedText) Bounds() Rect { return c.Rect }

func (c RotatedText) Translate(dx, dy float64) Command {
	c.Rect = c.Rect.moved(dx, dy)
	return c
}

// Rule draws a straight line.
type Rule struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          Color
}

func (c Rule) Bounds() Rect {
	x, y := min(c.X1, c.X2), min(c.Y1, c.Y2)
	return Rect{X: x, Y: y, W: max(c.X1, c.X2) - x, H: max(c.Y1, c.Y2) - y}
}

func (c Rule) Translate(dx, dy float64) Command {
	c.X1, c.X2 = c.X1+dx, c.X2+dx
	c.Y1, c.Y2 = c.Y1+dy, c.Y2+dy
	return c
}

// TranslateAll moves every command by (dx, dy).
func TranslateAll(cmds []Command, dx, dy float64) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		out[i] = c.Translate(dx, dy)
	}
	return out
}
