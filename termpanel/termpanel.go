// Package termpanel emulates a monochrome OLED panel in a terminal.
//
// Each terminal cell shows two pixel rows using half block characters, so a
// 128x64 panel needs a 128x32 terminal. Dev implements display.Drawer and can
// stand in for a hardware panel during development.
package termpanel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/gdamore/tcell/v2"
	"periph.io/x/devices/v3/xmastree/image1bit"
)

var errHalted = errors.New("termpanel: halted")

// Glyphs indexed by (top lit) | (bottom lit)<<1.
var glyphs = [4]rune{' ', '▀', '▄', '█'}

// Dev is a panel drawn on a tcell screen.
type Dev struct {
	s     tcell.Screen
	rect  image.Rectangle
	img   *image1bit.VerticalLSB
	style tcell.Style

	halted bool
}

// New returns a panel of size r drawn on s. s must already be initialized.
// The height of r must be a multiple of 8.
func New(s tcell.Screen, r image.Rectangle) (*Dev, error) {
	if r.Dx() <= 0 || r.Dy() <= 0 || r.Dy()%8 != 0 {
		return nil, errors.New("termpanel: height must be a positive multiple of 8")
	}
	d := &Dev{
		s:     s,
		rect:  r,
		img:   image1bit.NewVerticalLSB(r),
		style: tcell.StyleDefault.Foreground(tcell.ColorAqua).Background(tcell.ColorBlack),
	}
	d.s.Clear()
	d.flush(d.rect)
	return d, nil
}

// NewScreen creates and initializes a terminal screen and returns a panel of
// size r on it. Halt restores the terminal.
func NewScreen(r image.Rectangle) (*Dev, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("termpanel: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("termpanel: %w", err)
	}
	s.HideCursor()
	d, err := New(s, r)
	if err != nil {
		s.Fini()
		return nil, err
	}
	return d, nil
}

// ColorModel returns the color model of the panel.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the panel bounds.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw draws src onto the panel and shows the cells that changed.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.img, dst, src, sp, draw.Src)
	d.flush(dst)
	return nil
}

// flush copies the pixel rows covering r to the screen.
func (d *Dev) flush(r image.Rectangle) {
	// Start on the upper row of the cell containing r.Min.Y.
	top := d.rect.Min.Y + (r.Min.Y-d.rect.Min.Y)&^1
	for y := top; y < r.Max.Y; y += 2 {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := 0
			if d.img.BitAt(x, y) {
				i |= 1
			}
			if d.img.BitAt(x, y+1) {
				i |= 2
			}
			d.s.SetContent(x-d.rect.Min.X, (y-d.rect.Min.Y)/2, glyphs[i], nil, d.style)
		}
	}
	d.s.Show()
}

// PollEvent waits for the next terminal event, see tcell.Screen.PollEvent.
func (d *Dev) PollEvent() tcell.Event {
	return d.s.PollEvent()
}

// Halt restores the terminal. The panel rejects further draws.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	d.s.Fini()
	return nil
}

// String returns a string representation of the panel.
func (d *Dev) String() string {
	return fmt.Sprintf("termpanel.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
