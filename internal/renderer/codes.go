package renderer

import (
	"fmt"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/thereceipt/quickreceipt/internal/view"
)

// renderBarcode draws the decorative footer barcode
func (r *Renderer) renderBarcode(b *view.Block) error {
	code, err := code128.Encode(b.Source)
	if err != nil {
		return fmt.Errorf("failed to encode barcode: %w", err)
	}

	width := int(r.px(b.W))
	height := int(r.px(b.H))
	// Scale fails when the box is narrower than the symbol itself
	if natural := code.Bounds().Dx(); width < natural {
		width = natural
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return fmt.Errorf("failed to scale barcode: %w", err)
	}

	// Faded bars in the slip's dark tone
	r.ctx.SetRGBA(55.0/255, 65.0/255, 81.0/255, 0.2)
	x0 := r.px(b.X)
	y0 := r.px(b.Y)
	bounds := scaled.Bounds()
	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		cr, _, _, _ := scaled.At(x, bounds.Min.Y).RGBA()
		if cr < 0x8000 {
			r.ctx.DrawRectangle(x0+float64(x-bounds.Min.X), y0, 1, float64(bounds.Dy()))
		}
	}
	r.ctx.Fill()

	return nil
}
