package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorAccent = lipgloss.Color("#7C3AED") // brand purple
	colorInfo   = lipgloss.Color("#06B6D4")
	colorOK     = lipgloss.Color("#10B981")
	colorBusy   = lipgloss.Color("#F59E0B")
	colorFail   = lipgloss.Color("#EF4444")

	colorBar      = lipgloss.Color("#1E293B")
	colorSelected = lipgloss.Color("#334155")
	colorHeader   = lipgloss.Color("#18181B")
	colorIdle     = lipgloss.Color("#09090B")

	colorBright = lipgloss.Color("#F8FAFC")
	colorText   = lipgloss.Color("#CBD5E1")
	colorDim    = lipgloss.Color("#64748B")

	// thermal paper and printed ink, as on the PDF
	colorPaper = lipgloss.Color("#FFFFFF")
	colorInk   = lipgloss.Color("#1F2937")
)

var (
	styleBright = lipgloss.NewStyle().Foreground(colorBright)
	styleText   = lipgloss.NewStyle().Foreground(colorText)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleError  = lipgloss.NewStyle().Foreground(colorFail)

	styleBrand     = lipgloss.NewStyle().Bold(true).Foreground(colorBright).Padding(0, 1)
	styleTab       = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 2)
	styleTabActive = styleTab.Foreground(colorBright).Background(colorAccent).Bold(true)
	stylePane      = lipgloss.NewStyle().Padding(1, 2)

	stylePaper = lipgloss.NewStyle().Background(colorPaper).Foreground(colorInk).Padding(0, 1)
	styleModal = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	styleHeading      = lipgloss.NewStyle().Bold(true).Foreground(colorInfo).MarginBottom(1)
	styleColumnHeader = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
	styleLabel        = lipgloss.NewStyle().Foreground(colorDim)
	styleLabelFocused = styleLabel.Foreground(colorInfo).Bold(true)

	styleRow         = lipgloss.NewStyle().Foreground(colorText).PaddingLeft(2)
	styleRowSelected = styleRow.Foreground(colorBright).Background(colorSelected).Bold(true)

	styleHelpKey  = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
	styleHelpText = lipgloss.NewStyle().Foreground(colorDim)
	styleSpinner  = lipgloss.NewStyle().Foreground(colorAccent)
)

func helpEntry(key, desc string) string {
	return styleHelpKey.Render(key) + styleHelpText.Render(" "+desc)
}

// segment is one colored cell of the status bar
func segment(text string, bg lipgloss.Color, bold bool) string {
	return lipgloss.NewStyle().
		Foreground(colorBright).
		Background(bg).
		Bold(bold).
		Padding(0, 1).
		Render(text)
}

// Truncate shortens s to max runes, marking the cut with an ellipsis
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
