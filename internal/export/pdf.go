package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PageSize is the nominal output page in millimetres
type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

// DefaultPage is an 80mm thermal slip
func DefaultPage() PageSize {
	return PageSize{WidthMM: 80, HeightMM: 200}
}

const imageName = "receipt"

// EncodePDF embeds img as the only content of a single portrait page.
// The image fills the page width; the page grows past the nominal height
// when the image is taller, so nothing is cropped. It returns the PDF and
// the final page height.
func EncodePDF(img image.Image, page PageSize) ([]byte, float64, error) {
	if img == nil {
		return nil, 0, errors.New("no image")
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, 0, errors.New("empty image")
	}

	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return nil, 0, fmt.Errorf("failed to encode image: %w", err)
	}

	imageHeight := page.WidthMM * float64(bounds.Dy()) / float64(bounds.Dx())
	pageHeight := max(page.HeightMM, imageHeight)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: page.WidthMM, Ht: pageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("quickreceipt", true)
	pdf.SetTitle("Receipt", true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, opts, &raster)
	pdf.ImageOptions(imageName, 0, 0, page.WidthMM, imageHeight, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, 0, fmt.Errorf("failed to write pdf: %w", err)
	}

	return out.Bytes(), pageHeight, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName builds Receipt-<customer>-<date>.pdf with whitespace runs as hyphens
func FileName(customerName, date string) string {
	name := strings.TrimSpace(customerName)
	if name == "" {
		name = "Customer"
	}
	return fmt.Sprintf("Receipt-%s-%s.pdf", whitespace.ReplaceAllString(name, "-"), date)
}
