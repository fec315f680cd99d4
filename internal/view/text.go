package view

import (
	"math"
	"strings"
	"unicode/utf8"
)

// TextColumns is the terminal width that matches the slip at body size
const TextColumns = 42

// Lines renders the document as monospace text, cols glyphs wide
func (d *Document) Lines(cols int) []string {
	cols = max(cols, 10)
	scale := float64(cols) / d.Width

	out := []string{strings.Repeat("▀", cols)}
	for _, b := range d.Blocks {
		x0 := int(math.Round(b.X * scale))
		w := max(int(math.Round(b.W*scale)), 1)

		switch b.Kind {
		case KindText:
			for _, line := range Wrap(b.Text, w) {
				out = append(out, place(cols, x0, align(line, w, b.Style.Align)))
			}
		case KindRow:
			out = append(out, rowLines(b, cols, scale)...)
		case KindDivider:
			out = append(out, place(cols, x0, strings.Repeat("- ", w/2+1)[:w]))
		case KindLogo:
			out = append(out, place(cols, x0, align("[logo]", w, AlignCenter)))
		case KindBarcode:
			out = append(out, place(cols, x0, strings.Repeat("▌", w)))
		}
	}
	return out
}

// String renders the document at TextColumns
func (d *Document) String() string {
	return strings.Join(d.Lines(TextColumns), "\n")
}

func rowLines(b Block, cols int, scale float64) []string {
	height := 0
	for _, c := range b.Cells {
		height = max(height, len(c.Lines))
	}

	lines := make([]string, height)
	for n := 0; n < height; n++ {
		buf := []rune(strings.Repeat(" ", cols))
		for _, c := range b.Cells {
			if n >= len(c.Lines) {
				continue
			}
			x0 := int(math.Round(c.X * scale))
			w := max(int(math.Round(c.W*scale)), 1)
			// long cells may push into the next column; they are drawn left to right
			segment := []rune(align(c.Lines[n], w, c.Style.Align))
			if c.Style.Align == AlignRight && len(segment) > w {
				x0 -= len(segment) - w
			}
			for i, r := range segment {
				if p := x0 + i; p >= 0 && p < cols {
					buf[p] = r
				}
			}
		}
		lines[n] = strings.TrimRight(string(buf), " ")
	}
	return lines
}

func align(s string, w int, a Align) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	switch a {
	case AlignCenter:
		left := (w - n) / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-n-left)
	case AlignRight:
		return strings.Repeat(" ", w-n) + s
	default:
		return s + strings.Repeat(" ", w-n)
	}
}

func place(cols, x0 int, s string) string {
	line := strings.Repeat(" ", max(x0, 0)) + s
	r := []rune(line)
	if len(r) > cols {
		r = r[:cols]
	}
	return strings.TrimRight(string(r), " ")
}
