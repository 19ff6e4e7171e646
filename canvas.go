package xmastree

import (
	"image"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/xmastree/image1bit"
)

// Canvas is a Renderer backed by a 1-bit frame buffer that is pushed to a
// display.Drawer on Present.
//
// Shapes are drawn in XOR mode: drawing over a lit pixel clears it.
type Canvas struct {
	dst display.Drawer
	img *image1bit.VerticalLSB
	err error
}

// NewCanvas returns a Canvas sized to dst's bounds.
// The bounds height must be a multiple of 8.
func NewCanvas(dst display.Drawer) *Canvas {
	return &Canvas{
		dst: dst,
		img: image1bit.NewVerticalLSB(dst.Bounds()),
	}
}

// Init blanks the display.
func (c *Canvas) Init() {
	c.Clear()
	c.Present()
}

// Clear turns every pixel off.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// DrawFrame toggles the one pixel outline of the w x h rectangle at (x, y).
func (c *Canvas) DrawFrame(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	for i := x; i < x+w; i++ {
		c.img.Toggle(i, y)
		if h > 1 {
			c.img.Toggle(i, y+h-1)
		}
	}
	for j := y + 1; j < y+h-1; j++ {
		c.img.Toggle(x, j)
		if w > 1 {
			c.img.Toggle(x+w-1, j)
		}
	}
}

// DrawBox toggles every pixel of the w x h rectangle at (x, y).
func (c *Canvas) DrawBox(x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h).Intersect(c.img.Rect)
	for j := r.Min.Y; j < r.Max.Y; j++ {
		for i := r.Min.X; i < r.Max.X; i++ {
			c.img.Toggle(i, j)
		}
	}
}

// Present sends the frame to the display. The first failure is kept and
// reported by Err; later frames are still attempted.
func (c *Canvas) Present() {
	if err := c.dst.Draw(c.img.Rect, c.img, image.Point{}); err != nil && c.err == nil {
		c.err = err
	}
}

// Err returns the first error returned by the display, if any.
func (c *Canvas) Err() error {
	return c.err
}

// Image returns the frame buffer.
func (c *Canvas) Image() *image1bit.VerticalLSB {
	return c.img
}
