// Package image1bit provides a 1-bit monochrome image format for page-addressed OLED
// controllers such as the SH1106 and SSD1306.
//
// These controllers split the panel into pages of 8 pixel rows. Each byte holds one column
// of a page: bit 0 is the top row of the page, bit 7 the bottom row.
//
// Memory layout example for an 8x8 image with a diagonal line:
//
//	Row 0: X.......   Pix[0] = 0x01
//	Row 1: .X......   Pix[1] = 0x02
//	Row 2: ..X.....   Pix[2] = 0x04
//	...
//	Row 7: .......X   Pix[7] = 0x80
//
// This package provides:
//
// - Bit: A color type that is either On or Off
// - BitModel: A color model converting standard Go colors to Bit
// - VerticalLSB: An image.Image implementation matching the controller RAM layout
//
// Example usage:
//
//	// Create a 128x64 image
//	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
//
//	// Light a pixel
//	img.SetBit(10, 20, image1bit.On)
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.Off), image.Point{}, draw.Src)
package image1bit
