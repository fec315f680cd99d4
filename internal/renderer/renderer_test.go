package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereceipt/quickreceipt/internal/view"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap/zaptest"
)

func testDocument() *view.Document {
	return view.Render(view.Props{
		Settings:    receiptformat.CompanySettings{Name: "Acme"},
		Transaction: receiptformat.TransactionDetails{CustomerName: "Jane", Date: "2024-01-15", PaymentMethod: receiptformat.PaymentCash, Currency: "USD"},
		Items:       []receiptformat.Item{{ID: "1", Description: "Widget", Quantity: 2, UnitPrice: 3}},
		Total:       6,
	})
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNative_SizeAndBackground(t *testing.T) {
	doc := testDocument()
	img, err := NewNative(zaptest.NewLogger(t)).Rasterize(context.Background(), doc, DefaultOptions())
	require.NoError(t, err)

	w, h := PixelSize(doc, DefaultScale)
	assert.Equal(t, 700, w)
	assert.Equal(t, w, img.Bounds().Dx())
	assert.Equal(t, h, img.Bounds().Dy())

	// Border strip at the top, white fill below it at the left edge
	r, g, b, _ := img.At(w/2, 2).RGBA()
	assert.Less(t, r>>8, uint32(0x80))
	assert.Less(t, g>>8, uint32(0x80))
	assert.Less(t, b>>8, uint32(0x90))

	r, g, b, a := img.At(1, h-1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestNative_ScaleDefaults(t *testing.T) {
	doc := testDocument()
	img, err := NewNative(nil).Rasterize(context.Background(), doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 700, img.Bounds().Dx())
}

func TestNative_RejectsBadDocuments(t *testing.T) {
	n := NewNative(nil)

	_, err := n.Rasterize(context.Background(), nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = n.Rasterize(context.Background(), &view.Document{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidDocument)

	doc := testDocument()
	_, err = n.Rasterize(context.Background(), doc, Options{Scale: 1, ViewportWidth: 200})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestNative_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNative(nil).Rasterize(ctx, testDocument(), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNative_Logo(t *testing.T) {
	logo := pngDataURL(t)
	doc := view.Render(view.Props{Settings: receiptformat.CompanySettings{LogoURL: &logo}})

	img, err := NewNative(nil).Rasterize(context.Background(), doc, DefaultOptions())
	require.NoError(t, err)

	var logoBlock view.Block
	for _, b := range doc.Blocks {
		if b.Kind == view.KindLogo {
			logoBlock = b
		}
	}
	require.Equal(t, view.KindLogo, logoBlock.Kind)

	// Grayscale: the red source comes out with equal channels and not white
	cx := int((logoBlock.X + logoBlock.W/2) * DefaultScale)
	cy := int((logoBlock.Y + logoBlock.H/2) * DefaultScale)
	r, g, b, _ := img.At(cx, cy).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
	assert.Less(t, r, uint32(0xffff))
}

func TestNative_BrokenLogoIsSkipped(t *testing.T) {
	logo := "data:image/png;base64,!!!"
	doc := view.Render(view.Props{Settings: receiptformat.CompanySettings{LogoURL: &logo}})

	_, err := NewNative(zaptest.NewLogger(t)).Rasterize(context.Background(), doc, DefaultOptions())
	assert.NoError(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	img, err := DecodeDataURL(pngDataURL(t))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	for _, ref := range []string{
		"https://example.com/logo.png",
		"data:image/png;base64",
		"data:image/png;base64,AAAA",
		"data:text/plain,hello",
	} {
		_, err := DecodeDataURL(ref)
		assert.ErrorIs(t, err, ErrBadLogo, ref)
	}
}
