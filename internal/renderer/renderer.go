// Package renderer rasterizes laid-out receipts
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/thereceipt/quickreceipt/internal/view"
	"go.uber.org/zap"
)

// Capture defaults
const (
	DefaultScale         = 2.0
	DefaultViewportWidth = 1200.0
)

// ErrInvalidDocument is returned for absent or zero-sized documents
var ErrInvalidDocument = errors.New("document cannot be rasterized")

// Options controls a capture
type Options struct {
	// Scale is the oversampling factor applied to logical px
	Scale float64
	// Background fills the canvas before painting, regardless of the slip's own colors
	Background color.Color
	// ViewportWidth is the logical width the slip is laid out in
	ViewportWidth float64
}

// DefaultOptions returns 2× oversampling on white in a 1200 px viewport
func DefaultOptions() Options {
	return Options{Scale: DefaultScale, Background: color.White, ViewportWidth: DefaultViewportWidth}
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	return o
}

// Rasterizer turns a document into a bitmap
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *view.Document, opts Options) (image.Image, error)
}

// Native paints documents with gg
type Native struct {
	faces  *faceCache
	logger *zap.Logger
}

// NewNative creates a native rasterizer
func NewNative(logger *zap.Logger) *Native {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Native{faces: newFaceCache(), logger: logger}
}

// Rasterize renders a complete receipt
func (n *Native) Rasterize(ctx context.Context, doc *view.Document, opts Options) (image.Image, error) {
	opts = opts.withDefaults()
	if err := checkDocument(doc, opts); err != nil {
		return nil, err
	}

	r := newRenderer(doc, opts, n.faces, n.logger)
	for i := range doc.Blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.renderBlock(&doc.Blocks[i]); err != nil {
			return nil, fmt.Errorf("failed to render %s block: %w", doc.Blocks[i].Kind, err)
		}
	}

	return r.ctx.Image(), nil
}

func checkDocument(doc *view.Document, opts Options) error {
	if doc == nil {
		return fmt.Errorf("%w: no document", ErrInvalidDocument)
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return fmt.Errorf("%w: zero size %.0fx%.0f", ErrInvalidDocument, doc.Width, doc.Height)
	}
	if doc.Width > opts.ViewportWidth {
		return fmt.Errorf("%w: %.0f px slip does not fit a %.0f px viewport", ErrInvalidDocument, doc.Width, opts.ViewportWidth)
	}
	return nil
}

// PixelSize returns the bitmap size a document rasterizes to
func PixelSize(doc *view.Document, scale float64) (int, int) {
	return int(math.Ceil(doc.Width * scale)), int(math.Ceil(doc.Height * scale))
}

// Renderer paints one document on one canvas
type Renderer struct {
	width  int // canvas width in pixels
	height int // canvas height in pixels
	scale  float64
	ctx    *gg.Context
	faces  *faceCache
	logger *zap.Logger
}

func newRenderer(doc *view.Document, opts Options, faces *faceCache, logger *zap.Logger) *Renderer {
	width, height := PixelSize(doc, opts.Scale)

	ctx := gg.NewContext(width, height)
	ctx.SetColor(opts.Background)
	ctx.Clear()

	r := &Renderer{
		width:  width,
		height: height,
		scale:  opts.Scale,
		ctx:    ctx,
		faces:  faces,
		logger: logger,
	}

	// Slip top edge
	ctx.SetHexColor("#374151")
	ctx.DrawRectangle(0, 0, float64(width), r.px(view.BorderTop))
	ctx.Fill()

	return r
}

func (r *Renderer) px(v float64) float64 {
	return v * r.scale
}

func (r *Renderer) renderBlock(b *view.Block) error {
	switch b.Kind {
	case view.KindText:
		return r.renderText(b)
	case view.KindRow:
		return r.renderRow(b)
	case view.KindDivider:
		return r.renderDivider(b)
	case view.KindLogo:
		return r.renderLogo(b)
	case view.KindBarcode:
		return r.renderBarcode(b)
	default:
		return fmt.Errorf("unsupported block kind: %d", b.Kind)
	}
}
