// Package sh1106 controls a SH1106 monochrome OLED display via I2C or SPI.
//
// The SH1106 has a 132x64 RAM organised in 8 pages of 8 rows. The common
// 1.3" modules expose a 128x64 window centred in that RAM.
//
// See the examples for how to use this package.
package sh1106

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/xmastree/image1bit"
)

// DefaultAddr is the I2C address used by most SH1106 modules (SA0 low).
const DefaultAddr = 0x3C

const (
	ramColumns = 132

	// I2C control bytes: Co=0, D/C# selects command or data stream.
	ctrlCommand = 0x00
	ctrlData    = 0x40
)

var errHalted = errors.New("sh1106: halted")

// Opts is the configuration for the SH1106 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 128, must be ≤132)
	H int // Height (default: 64, must be a multiple of 8 and ≤64)

	Rotated bool // 180° rotation

	// Optional hardware reset pin
	RST gpio.PinIO // Reset pin (optional, nil if not used)
}

// Dev is the device handle for the SH1106 display.
type Dev struct {
	// Communication
	c   conn.Conn   // I2C device or SPI connection
	dc  gpio.PinOut // Data/Command pin, nil on I2C
	rst gpio.PinIO  // Reset pin (optional)

	// Display geometry
	rect         image.Rectangle
	columnOffset int // For centering in the 132-column RAM

	// Pixel buffers
	buffer []byte                // Last frame sent, page layout
	next   *image1bit.VerticalLSB // For lazy double buffering

	// State
	halted bool
}

// NewI2C creates a new SH1106 device connected via I2C at addr.
//
// opts can be nil to use defaults (128x64 display).
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 128, H: 64}
	}
	if err := validate(opts); err != nil {
		return nil, err
	}
	return newDev(&i2c.Dev{Bus: b, Addr: addr}, nil, opts)
}

// NewSPI creates a new SH1106 device connected via 4-wire SPI.
//
// The SPI port is configured for 4MHz, Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (128x64 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 128, H: 64}
	}
	if dc == nil {
		return nil, errors.New("sh1106: dc pin is required for SPI")
	}
	if err := validate(opts); err != nil {
		return nil, err
	}

	// SH1106 serial interface tops out at 4MHz (250ns SCLK cycle)
	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("sh1106: %w", err)
	}
	return newDev(c, dc, opts)
}

func validate(opts *Opts) error {
	if opts.W <= 0 || opts.W > ramColumns {
		return errors.New("sh1106: width must be between 1 and 132")
	}
	if opts.H <= 0 || opts.H%8 != 0 || opts.H > 64 {
		return errors.New("sh1106: height must be a multiple of 8 between 8 and 64")
	}
	return nil
}

func newDev(c conn.Conn, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	d := &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		rect:         image.Rect(0, 0, opts.W, opts.H),
		columnOffset: (ramColumns - opts.W) / 2,
		buffer:       make([]byte, opts.W*opts.H/8),
	}

	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the display.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("sh1106: failed to pull RST low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("sh1106: failed to pull RST high: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Segment remap and COM scan direction
	seg, com := byte(0xA1), byte(0xC8)
	if opts.Rotated {
		seg, com = 0xA0, 0xC0
	}

	cmds := []byte{
		0xAE,       // Display OFF
		0xD5, 0x80, // Clock divider and oscillator frequency
		0xA8, byte(opts.H - 1), // Multiplex ratio
		0xD3, 0x00, // Display offset
		0x40,       // Start line 0
		0xAD, 0x8B, // DC-DC on
		seg, com,
		0xDA, 0x12, // COM pins hardware configuration
		0x81, 0xCF, // Contrast
		0xD9, 0xF1, // Pre-charge period
		0xDB, 0x40, // VCOMH deselect level
		0xA4, // Output follows RAM
		0xA6, // Normal display mode
	}
	if err := d.sendCommands(cmds); err != nil {
		return err
	}

	if err := d.clearRAM(); err != nil {
		return err
	}

	// Turn display ON
	return d.sendCommand(0xAF)
}

// clearRAM clears all visible pixels in the display RAM.
func (d *Dev) clearRAM() error {
	zeros := make([]byte, d.rect.Dx())
	for page := 0; page < d.pages(); page++ {
		if err := d.writeSpan(page, 0, zeros); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) pages() int {
	return d.rect.Dy() / 8
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	return d.sendCommands([]byte{cmd})
}

// sendCommands sends a slice of command bytes.
func (d *Dev) sendCommands(cmds []byte) error {
	if d.dc == nil {
		return d.c.Tx(append([]byte{ctrlCommand}, cmds...), nil)
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx(cmds, nil)
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if d.dc == nil {
		return d.c.Tx(append([]byte{ctrlData}, data...), nil)
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(data, nil)
}

// writeSpan writes pixel bytes to one page starting at column x.
func (d *Dev) writeSpan(page, x int, pixels []byte) error {
	col := x + d.columnOffset

	commands := []byte{
		0xB0 | byte(page),     // Page address
		0x00 | byte(col&0x0F), // Lower column address
		0x10 | byte(col>>4),   // Higher column address
	}
	if err := d.sendCommands(commands); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write writes raw pixel data to the display in VerticalLSB format.
// The data must be exactly d.rect.Dx() * d.rect.Dy() / 8 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	if len(pixels) != len(d.buffer) {
		return 0, errors.New("sh1106: invalid buffer size")
	}
	if err := d.writeFullFrame(pixels); err != nil {
		return 0, err
	}
	copy(d.buffer, pixels)
	return len(pixels), nil
}

// Draw draws an image onto the display, sending only the changed columns of
// each page.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}

	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: source already in controller layout at full size
	if srcImg, ok := src.(*image1bit.VerticalLSB); ok {
		if dst == d.rect && sp == (image.Point{}) && srcImg.Rect == d.rect {
			return d.drawDiff(srcImg)
		}
	}

	if d.next == nil {
		d.next = image1bit.NewVerticalLSB(d.rect)
	}
	copy(d.next.Pix, d.buffer)

	draw.Draw(d.next, dst, src, sp, draw.Src)
	return d.drawDiff(d.next)
}

// drawDiff sends the changed span of every page of next and records it.
func (d *Dev) drawDiff(next *image1bit.VerticalLSB) error {
	width := d.rect.Dx()
	for page := 0; page < d.pages(); page++ {
		last := d.buffer[page*width : (page+1)*width]
		row := next.Page(page)
		minCol, maxCol := calculateDiff(last, row)
		if minCol > maxCol {
			continue
		}
		if err := d.writeSpan(page, minCol, row[minCol:maxCol+1]); err != nil {
			return err
		}
		copy(last[minCol:maxCol+1], row[minCol:maxCol+1])
	}
	return nil
}

// calculateDiff returns the first and last differing column of a page.
// minCol > maxCol means the pages are equal.
func calculateDiff(last, next []byte) (minCol, maxCol int) {
	minCol = len(next)
	maxCol = -1
	for x := range next {
		if last[x] != next[x] {
			if x < minCol {
				minCol = x
			}
			maxCol = x
		}
	}
	return
}

// writeFullFrame writes the entire frame buffer to the display.
func (d *Dev) writeFullFrame(pixels []byte) error {
	width := d.rect.Dx()
	for page := 0; page < d.pages(); page++ {
		if err := d.writeSpan(page, 0, pixels[page*width:(page+1)*width]); err != nil {
			return err
		}
	}
	return nil
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(contrast byte) error {
	if d.halted {
		return errHalted
	}
	return d.sendCommands([]byte{0x81, contrast})
}

// Invert inverts the display colors (lit becomes dark and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	mode := byte(0xA6) // Normal display
	if invert {
		mode = 0xA7 // Inverted display
	}
	return d.sendCommand(mode)
}

// Halt powers off the display.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	return d.sendCommand(0xAE) // Display OFF
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("sh1106.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
