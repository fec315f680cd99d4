package renderer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/thereceipt/quickreceipt/internal/view"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// ErrBadLogo is returned when a logo reference cannot be decoded
var ErrBadLogo = errors.New("invalid logo")

// renderLogo draws the company logo. A logo that fails to load is skipped
// so the rest of the slip still renders.
func (r *Renderer) renderLogo(b *view.Block) error {
	img, err := DecodeDataURL(b.Source)
	if err != nil {
		r.logger.Warn("Skipping logo", zap.Error(err))
		return nil
	}

	// Fit within the box, keeping aspect ratio
	img = imaging.Fit(img, int(r.px(b.W)), int(r.px(b.H)), imaging.Lanczos)
	img = imaging.Grayscale(img)

	bounds := img.Bounds()
	x := r.px(b.X) + (r.px(b.W)-float64(bounds.Dx()))/2
	y := r.px(b.Y) + (r.px(b.H)-float64(bounds.Dy()))/2
	r.ctx.DrawImage(img, int(x), int(y))

	return nil
}

// DecodeDataURL decodes an inline base64 image reference
func DecodeDataURL(ref string) (image.Image, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, fmt.Errorf("%w: only data URLs are supported", ErrBadLogo)
	}

	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrBadLogo)
	}

	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadLogo, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadLogo, err)
		}
		data = []byte(unescaped)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLogo, err)
	}
	return img, nil
}
