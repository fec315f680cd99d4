// Package view lays out the receipt slip.
//
// A Document is a pure function of Props: the same props produce the same blocks,
// except for the cosmetic receipt number. Layout is fixed-width (Width logical px)
// and grows in height with the content. Renderers in other packages paint a
// Document as a raster, as terminal text or as HTML.
package view

import (
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// Slip geometry in logical px
const (
	Width     = 350.0
	MinHeight = 500.0
	BorderTop = 8.0
	Padding   = 24.0
)

// Placeholders shown when an optional field is empty
const (
	PlaceholderCompany  = "Company Name"
	PlaceholderAddress  = "123 Business Rd, City, Country"
	PlaceholderPhone    = "+1 234 567 890"
	PlaceholderCustomer = "Walk-in Customer"
	PlaceholderFooter   = "We hope to see you again soon."
	PlaceholderNoItems  = "No items added"
	BarcodeCaption      = "1234 5678 9012"
)

// Props is everything the view is derived from
type Props struct {
	Settings    receiptformat.CompanySettings
	Transaction receiptformat.TransactionDetails
	Items       []receiptformat.Item
	Total       float64
}

// Align is horizontal alignment inside a block or cell
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Tone is the ink shade of text
type Tone int

const (
	ToneNormal Tone = iota
	ToneStrong
	ToneMuted
	ToneFaint
)

// Hex returns the CSS color of the tone
func (t Tone) Hex() string {
	switch t {
	case ToneStrong:
		return "#4b5563"
	case ToneMuted:
		return "#6b7280"
	case ToneFaint:
		return "#9ca3af"
	default:
		return "#1f2937"
	}
}

// Style is the typography of a run of text
type Style struct {
	Size   float64
	Bold   bool
	Italic bool
	Tone   Tone
	Align  Align
}

// LineHeight is the vertical advance of one line at this style
func (s Style) LineHeight() float64 {
	return lineHeight(s.Size)
}

// Kind identifies the block type
type Kind int

const (
	KindText Kind = iota
	KindRow
	KindDivider
	KindLogo
	KindBarcode
)

func (k Kind) String() string {
	return []string{"text", "row", "divider", "logo", "barcode"}[k]
}

// Cell is one column of a row block
type Cell struct {
	X, W  float64
	Lines []string
	Style Style
}

// Block is a positioned element of the slip
type Block struct {
	Kind       Kind
	X, Y, W, H float64

	// KindText: one wrapped line
	Text  string
	Style Style

	// KindRow
	Cells []Cell

	// KindLogo: data URL. KindBarcode: encoded value.
	Source string
}

// Document is one laid-out receipt
type Document struct {
	Width         float64
	Height        float64
	ReceiptNumber string
	Props         Props
	Blocks        []Block
}

// Texts returns the text of every text block and row cell in layout order
func (d *Document) Texts() []string {
	var out []string
	for _, b := range d.Blocks {
		switch b.Kind {
		case KindText:
			out = append(out, b.Text)
		case KindRow:
			for _, c := range b.Cells {
				out = append(out, c.Lines...)
			}
		}
	}
	return out
}
