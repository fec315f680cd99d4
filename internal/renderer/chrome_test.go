package renderer

import (
	"context"
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCDPColor(t *testing.T) {
	c := cdpColor(color.White)
	assert.Equal(t, int64(255), c.R)
	assert.Equal(t, int64(255), c.G)
	assert.Equal(t, int64(255), c.B)
	assert.InDelta(t, 1.0, c.A, 1e-9)

	c = cdpColor(color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff})
	assert.Equal(t, int64(0x37), c.R)
	assert.Equal(t, int64(0x41), c.G)
	assert.Equal(t, int64(0x51), c.B)
}

func TestChrome_RejectsInvalidDocument(t *testing.T) {
	c := NewChrome(ChromeConfig{}, zaptest.NewLogger(t))
	defer c.Close()

	_, err := c.Rasterize(context.Background(), nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

// QUICKRECEIPT_TEST_CHROME is "local" to launch a browser, or a devtools URL.
func TestChrome_Rasterize(t *testing.T) {
	target := os.Getenv("QUICKRECEIPT_TEST_CHROME")
	if target == "" {
		t.Skip("QUICKRECEIPT_TEST_CHROME not set")
	}
	cfg := ChromeConfig{Timeout: time.Minute}
	if target != "local" {
		cfg.RemoteURL = target
	}

	c := NewChrome(cfg, zaptest.NewLogger(t))
	defer c.Close()

	doc := testDocument()
	img, err := c.Rasterize(context.Background(), doc, DefaultOptions())
	require.NoError(t, err)

	w, h := PixelSize(doc, DefaultScale)
	assert.InDelta(t, w, img.Bounds().Dx(), 2)
	assert.InDelta(t, h, img.Bounds().Dy(), 2)
}
