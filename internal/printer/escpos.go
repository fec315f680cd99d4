// Package printer sends captured receipts to ESC/POS thermal printers
package printer

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// ESC/POS commands
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
)

// DefaultDots is the printable width of 80mm paper at 203 dpi
const DefaultDots = 576

// rasterBand bounds each GS v 0 block so printers with small buffers keep up
const rasterBand = 256

// ESCPOSEncoder generates ESC/POS commands from images
type ESCPOSEncoder struct {
	buffer *bytes.Buffer
}

// NewESCPOSEncoder creates a new ESC/POS encoder
func NewESCPOSEncoder() *ESCPOSEncoder {
	return &ESCPOSEncoder{
		buffer: new(bytes.Buffer),
	}
}

// Initialize resets the printer
func (e *ESCPOSEncoder) Initialize() {
	e.buffer.Write([]byte{ESC, '@'})
}

// PrintImage emits img as GS v 0 raster blocks
func (e *ESCPOSEncoder) PrintImage(img image.Image) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	bytesPerLine := (width + 7) / 8

	bitmap := imageToBitmap(img)

	for y := 0; y < height; y += rasterBand {
		rows := min(rasterBand, height-y)

		// GS v 0 m xL xH yL yH d1...dk
		e.buffer.Write([]byte{
			GS, 'v', '0', 0,
			byte(bytesPerLine & 0xFF), byte((bytesPerLine >> 8) & 0xFF),
			byte(rows & 0xFF), byte((rows >> 8) & 0xFF),
		})
		e.buffer.Write(bitmap[y*bytesPerLine : (y+rows)*bytesPerLine])
	}
}

// Feed sends line feeds
func (e *ESCPOSEncoder) Feed(lines int) {
	for i := 0; i < lines; i++ {
		e.buffer.WriteByte(0x0A)
	}
}

// Cut sends a full paper cut
func (e *ESCPOSEncoder) Cut() {
	e.buffer.Write([]byte{GS, 'V', 0})
}

// Bytes returns the generated commands
func (e *ESCPOSEncoder) Bytes() []byte {
	return e.buffer.Bytes()
}

// imageToBitmap converts an image to a 1-bit bitmap, MSB first
func imageToBitmap(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerLine := (width + 7) / 8
	bitmap := make([]byte, bytesPerLine*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			// Threshold at 50%
			if (r+g+b)/3 < 0x8000 {
				bitmap[y*bytesPerLine+x/8] |= 1 << (7 - x%8)
			}
		}
	}

	return bitmap
}

// Encode scales img to the paper width and wraps it in init, feed and cut
func Encode(img image.Image, dots int) []byte {
	if dots <= 0 {
		dots = DefaultDots
	}
	if img.Bounds().Dx() != dots {
		img = imaging.Resize(img, dots, 0, imaging.Lanczos)
	}

	encoder := NewESCPOSEncoder()
	encoder.Initialize()
	encoder.PrintImage(img)
	encoder.Feed(3)
	encoder.Cut()
	return encoder.Bytes()
}
