package view

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/thereceipt/quickreceipt/internal/money"
)

// Go Mono advances every glyph by 0.6 em
const advance = 0.6

// Font sizes in logical px
const (
	sizeCaption = 10.0
	sizeSmall   = 12.0
	sizeBody    = 14.0
	sizeLarge   = 20.0
)

const (
	logoSize      = 64.0
	barcodeWidth  = 192.0
	barcodeHeight = 40.0
	qtyWidth      = 48.0
	priceWidth    = 80.0
	footerWidth   = 200.0
)

func lineHeight(size float64) float64 {
	return math.Round(size * 1.5)
}

// CharWidth is the advance of one glyph at size
func CharWidth(size float64) float64 {
	return size * advance
}

// Columns is how many glyphs of size fit in width
func Columns(width, size float64) int {
	return max(int(width/CharWidth(size)+1e-9), 1)
}

// Render lays out props as a receipt slip
func Render(p Props) *Document {
	l := &builder{
		doc: &Document{
			Width:         Width,
			ReceiptNumber: fmt.Sprintf("%06d", rand.IntN(100000)),
			Props:         p,
		},
		x: Padding,
		w: Width - 2*Padding,
		y: BorderTop + Padding,
	}

	s := p.Settings
	tx := p.Transaction

	code := tx.Currency
	if code == "" {
		code = "USD"
	}

	// Header
	if s.HasLogo() {
		l.block(Block{Kind: KindLogo, X: (Width - logoSize) / 2, W: logoSize, H: logoSize, Source: *s.LogoURL})
		l.y += logoSize + 8
	}
	l.text(strings.ToUpper(orDefault(s.Name, PlaceholderCompany)), Style{Size: sizeLarge, Bold: true, Align: AlignCenter})
	l.y += 4
	l.text(orDefault(s.Address, PlaceholderAddress), Style{Size: sizeSmall, Tone: ToneMuted, Align: AlignCenter})
	l.text(orDefault(s.Phone, PlaceholderPhone), Style{Size: sizeSmall, Tone: ToneMuted, Align: AlignCenter})
	l.y += 24
	l.divider()

	// Transaction
	label := Style{Size: sizeSmall, Tone: ToneMuted}
	value := Style{Size: sizeSmall, Align: AlignRight}
	bold := value
	bold.Bold = true
	l.pair("Date:", tx.Date, label, value)
	l.y += 4
	l.pair("Customer:", orDefault(tx.CustomerName, PlaceholderCustomer), label, bold)
	l.y += 4
	l.pair("Method:", string(tx.PaymentMethod), label, value)
	l.y += 4
	l.pair("Receipt #:", l.doc.ReceiptNumber, label, value)
	l.y += 24
	l.divider()

	// Items
	head := Style{Size: sizeSmall, Bold: true, Tone: ToneStrong}
	l.row(
		column{text: "ITEM", style: head},
		column{text: "QTY", width: qtyWidth, style: withAlign(head, AlignCenter)},
		column{text: "PRICE", width: priceWidth, style: withAlign(head, AlignRight)},
	)
	l.y += 8
	if len(p.Items) == 0 {
		l.y += 16
		l.text(PlaceholderNoItems, Style{Size: sizeBody, Italic: true, Tone: ToneFaint, Align: AlignCenter})
		l.y += 16
	}
	for i, it := range p.Items {
		if i > 0 {
			l.y += 8
		}
		line := float64(it.Quantity) * it.UnitPrice
		l.row(
			column{text: it.Description, style: Style{Size: sizeSmall}, padRight: 8},
			column{text: fmt.Sprintf("x%d", it.Quantity), width: qtyWidth, style: Style{Size: sizeSmall, Tone: ToneMuted, Align: AlignCenter}},
			column{text: money.Format(line, code), width: priceWidth, style: Style{Size: sizeSmall, Bold: true, Align: AlignRight}},
		)
	}
	l.y += 24
	l.divider()

	// Total
	total := Style{Size: sizeLarge, Bold: true}
	l.pair("TOTAL", money.Format(p.Total, code), total, withAlign(total, AlignRight))
	l.y += 32

	// Footer
	l.text("Thank You!", Style{Size: sizeBody, Bold: true, Align: AlignCenter})
	l.y += 8
	l.textIn(orDefault(s.FooterMessage, PlaceholderFooter), Style{Size: sizeSmall, Italic: true, Tone: ToneMuted, Align: AlignCenter},
		(Width-footerWidth)/2, footerWidth)

	// Barcode mockup
	l.y += 32
	l.block(Block{Kind: KindBarcode, X: (Width - barcodeWidth) / 2, W: barcodeWidth, H: barcodeHeight, Source: strings.ReplaceAll(BarcodeCaption, " ", "")})
	l.y += barcodeHeight + 4
	l.text(BarcodeCaption, Style{Size: sizeCaption, Tone: ToneFaint, Align: AlignCenter})
	l.y += 16

	l.y += Padding
	l.doc.Height = math.Max(MinHeight, math.Ceil(l.y))
	return l.doc
}

type builder struct {
	doc  *Document
	x, w float64
	y    float64
}

type column struct {
	text     string
	width    float64 // 0 takes the remaining width
	padRight float64
	style    Style
}

func (l *builder) block(b Block) {
	b.Y = l.y
	l.doc.Blocks = append(l.doc.Blocks, b)
}

func (l *builder) text(s string, st Style) {
	l.textIn(s, st, l.x, l.w)
}

func (l *builder) textIn(s string, st Style, x, w float64) {
	lh := st.LineHeight()
	for _, line := range Wrap(s, Columns(w, st.Size)) {
		l.block(Block{Kind: KindText, X: x, W: w, H: lh, Text: line, Style: st})
		l.y += lh
	}
}

func (l *builder) divider() {
	l.block(Block{Kind: KindDivider, X: l.x, W: l.w, H: 2})
	l.y += 2 + 24
}

// pair is a label on the left and a value pushed to the right
func (l *builder) pair(label, value string, ls, vs Style) {
	lw := float64(utf8.RuneCountInString(label))*CharWidth(ls.Size) + 1
	l.row(
		column{text: label, width: math.Min(lw, l.w/2), style: ls},
		column{text: value, style: vs},
	)
}

func (l *builder) row(cols ...column) {
	fixed := 0.0
	flex := 0
	for _, c := range cols {
		if c.width > 0 {
			fixed += c.width
		} else {
			flex++
		}
	}
	flexWidth := 0.0
	if flex > 0 {
		flexWidth = math.Max(l.w-fixed, 0) / float64(flex)
	}

	b := Block{Kind: KindRow, X: l.x, W: l.w}
	x := l.x
	for _, c := range cols {
		w := c.width
		if w == 0 {
			w = flexWidth
		}
		lines := Wrap(c.text, Columns(w-c.padRight, c.style.Size))
		b.Cells = append(b.Cells, Cell{X: x, W: w, Lines: lines, Style: c.style})
		b.H = math.Max(b.H, float64(len(lines))*c.style.LineHeight())
		x += w
	}
	l.block(b)
	l.y += b.H
}

func withAlign(s Style, a Align) Style {
	s.Align = a
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Wrap breaks s into lines of at most cols glyphs.
// Explicit newlines are kept; words longer than a line are split.
func Wrap(s string, cols int) []string {
	cols = max(cols, 1)
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for utf8.RuneCountInString(word) > cols {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(word)
				out = append(out, string(r[:cols]))
				word = string(r[cols:])
			}
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= cols:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
