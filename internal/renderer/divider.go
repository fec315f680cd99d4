package renderer

import (
	"github.com/thereceipt/quickreceipt/internal/view"
)

func (r *Renderer) renderDivider(b *view.Block) error {
	y := r.px(b.Y + b.H/2)
	x1 := r.px(b.X)
	x2 := r.px(b.X + b.W)

	r.ctx.SetHexColor("#d1d5db")
	r.ctx.SetLineWidth(r.px(b.H))

	dashLength := r.px(6)
	gapLength := r.px(4)
	x := x1
	for x < x2 {
		endX := x + dashLength
		if endX > x2 {
			endX = x2
		}
		r.ctx.DrawLine(x, y, endX, y)
		r.ctx.Stroke()
		x += dashLength + gapLength
	}

	return nil
}
