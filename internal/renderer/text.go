package renderer

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/thereceipt/quickreceipt/internal/view"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
)

func (r *Renderer) renderText(b *view.Block) error {
	return r.drawLine(b.Text, b.X, b.W, b.Y, b.Style)
}

func (r *Renderer) renderRow(b *view.Block) error {
	for _, cell := range b.Cells {
		lh := cell.Style.LineHeight()
		for i, line := range cell.Lines {
			if err := r.drawLine(line, cell.X, cell.W, b.Y+float64(i)*lh, cell.Style); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawLine draws one line inside the box [x, x+w] whose top is y
func (r *Renderer) drawLine(text string, x, w, y float64, st view.Style) error {
	if text == "" {
		return nil
	}

	face, err := r.faces.face(r.px(st.Size), st.Bold, st.Italic)
	if err != nil {
		return err
	}
	r.ctx.SetFontFace(face)
	r.ctx.SetHexColor(st.Tone.Hex())

	// Calculate anchor based on alignment
	var ax, px float64
	switch st.Align {
	case view.AlignCenter:
		ax, px = 0.5, x+w/2
	case view.AlignRight:
		ax, px = 1, x+w
	default:
		ax, px = 0, x
	}

	r.ctx.DrawStringAnchored(text, r.px(px), r.px(y+st.LineHeight()/2), ax, 0.35)
	return nil
}

type faceKey struct {
	size         float64
	bold, italic bool
}

// faceCache keeps one parsed Go Mono face per size and weight
type faceCache struct {
	mu    sync.Mutex
	fonts map[[2]bool]*truetype.Font
	faces map[faceKey]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{
		fonts: make(map[[2]bool]*truetype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

func (c *faceCache) face(size float64, bold, italic bool) (font.Face, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := faceKey{size: size, bold: bold, italic: italic}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}

	variant := [2]bool{bold, italic}
	ttf, ok := c.fonts[variant]
	if !ok {
		var err error
		ttf, err = truetype.Parse(fontData(bold, italic))
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		c.fonts[variant] = ttf
	}

	f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	c.faces[key] = f
	return f, nil
}

func fontData(bold, italic bool) []byte {
	switch {
	case bold && italic:
		return gomonobolditalic.TTF
	case bold:
		return gomonobold.TTF
	case italic:
		return gomonoitalic.TTF
	default:
		return gomono.TTF
	}
}
