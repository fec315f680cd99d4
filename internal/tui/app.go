// Package tui is the terminal front end of the receipt builder
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/share"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"github.com/thereceipt/quickreceipt/internal/view"
	"go.uber.org/zap"
)

// Tab represents a navigation tab
type Tab int

const (
	TabForm Tab = iota
	TabItems
)

func (t Tab) String() string {
	return []string{"Form", "Items"}[t]
}

const tabCount = 2

// CellWidth is the pixel width assumed per terminal column when mapping
// the terminal to a viewport, so 96 columns reach the desktop breakpoint.
const CellWidth = 8

// previewWidth is the side pane width on wide terminals
const previewWidth = view.TextColumns + 4

// Messages
type changedMsg struct{}

type exportDoneMsg struct {
	artifact *export.Artifact
	handoff  *share.Handoff
	err      error
}

// App is the main Bubble Tea model
type App struct {
	shell  *shell.Shell
	logger *zap.Logger
	ctx    context.Context

	changes     chan struct{}
	unsubscribe func()

	// UI State
	activeTab Tab
	width     int
	height    int
	ready     bool
	quitting  bool
	snap      shell.Snapshot

	formCursor int
	itemCursor int
	itemColumn int
	editing    bool
	input      textinput.Model

	// Last share link, shown with its QR code until dismissed
	shared *share.Handoff
	qr     string
	err    error

	spinner spinner.Model
}

// NewApp creates the TUI over sh and subscribes to its changes
func NewApp(sh *shell.Shell, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleSpinner

	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 256

	a := &App{
		shell:   sh,
		logger:  logger.Named("tui"),
		ctx:     context.Background(),
		changes: make(chan struct{}, 1),
		input:   in,
		spinner: s,
		snap:    sh.Snapshot(),
	}
	a.unsubscribe = sh.Subscribe(func(shell.Snapshot) {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	return a
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		a.waitForChange(),
	)
}

// waitForChange turns shell change signals into messages. Subscribers run
// inside shell calls made from Update, so they only signal the channel.
func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-a.changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (a *App) refresh() {
	a.snap = a.shell.Snapshot()
	a.clampItemCursor()
}

// Wide reports whether the terminal is laid out as a desktop
func (a *App) Wide() bool {
	return a.snap.State == shell.DesktopInline
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.editing {
			return a, a.updateEditing(msg)
		}
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.shell.SetViewport(msg.Width * CellWidth)
		a.refresh()

	case changedMsg:
		a.refresh()
		cmds = append(cmds, a.waitForChange())

	case exportDoneMsg:
		a.err = msg.err
		if msg.handoff != nil {
			a.shared = msg.handoff
			qr, err := share.QRTerminal(msg.handoff.URL)
			if err != nil {
				a.logger.Warn("QR code unavailable", zap.Error(err))
			}
			a.qr = qr
		}
		if msg.artifact != nil {
			a.logger.Info("Saved receipt", zap.String("name", msg.artifact.Name), zap.String("location", msg.artifact.Location))
		}
		a.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		a.quitting = true
		return tea.Quit
	case "esc":
		switch {
		case a.shared != nil:
			a.shared, a.qr = nil, ""
		case a.snap.PreviewOpen:
			a.shell.ClosePreview()
		default:
			a.shell.DismissNotification()
			a.err = nil
		}
		a.refresh()
		return nil
	case "tab":
		a.activeTab = (a.activeTab + 1) % tabCount
		return nil
	case "shift+tab":
		a.activeTab = (a.activeTab + tabCount - 1) % tabCount
		return nil
	case "1":
		a.activeTab = TabForm
		return nil
	case "2":
		a.activeTab = TabItems
		return nil
	case "p":
		if a.Wide() {
			return nil
		}
		if a.snap.PreviewOpen {
			a.shell.ClosePreview()
		} else {
			a.shell.OpenPreview()
		}
		a.refresh()
		return nil
	case "d":
		return a.runExport(false)
	case "s":
		return a.runExport(true)
	}

	switch a.activeTab {
	case TabForm:
		return a.handleFormKey(msg)
	case TabItems:
		return a.handleItemsKey(msg)
	}
	return nil
}

func (a *App) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		a.formCursor = (a.formCursor + len(formFields) - 1) % len(formFields)
	case "down", "j":
		a.formCursor = (a.formCursor + 1) % len(formFields)
	case "enter", " ":
		f := formFields[a.formCursor]
		if f.cycle {
			a.apply(f.set(a.ctx, a.shell, ""))
			return nil
		}
		return a.startEditing(f.get(a.snap))
	}
	return nil
}

func (a *App) handleItemsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if a.itemCursor > 0 {
			a.itemCursor--
		}
	case "down", "j":
		if a.itemCursor < len(a.snap.Items)-1 {
			a.itemCursor++
		}
	case "left", "h":
		a.itemColumn = (a.itemColumn + len(itemColumns) - 1) % len(itemColumns)
	case "right", "l":
		a.itemColumn = (a.itemColumn + 1) % len(itemColumns)
	case "a":
		a.shell.AddItem()
		a.refresh()
		a.itemCursor = len(a.snap.Items) - 1
	case "x", "delete":
		if it, ok := a.selectedItem(); ok {
			a.apply(a.shell.RemoveItem(it.ID))
		}
	case "enter":
		if it, ok := a.selectedItem(); ok {
			return a.startEditing(itemValue(it, itemColumns[a.itemColumn].field))
		}
	}
	return nil
}

func (a *App) startEditing(value string) tea.Cmd {
	a.editing = true
	a.input.SetValue(value)
	a.input.CursorEnd()
	return a.input.Focus()
}

func (a *App) stopEditing() {
	a.editing = false
	a.input.Blur()
	a.input.Reset()
}

func (a *App) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.stopEditing()
		return nil
	case "enter":
		value := a.input.Value()
		a.stopEditing()
		a.commit(value)
		return nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return cmd
}

func (a *App) commit(value string) {
	switch a.activeTab {
	case TabForm:
		a.apply(formFields[a.formCursor].set(a.ctx, a.shell, value))
	case TabItems:
		if it, ok := a.selectedItem(); ok {
			a.apply(a.shell.SetItemField(it.ID, itemColumns[a.itemColumn].field, value))
		}
	}
}

func (a *App) apply(err error) {
	a.err = err
	if err != nil {
		a.logger.Debug("Edit rejected", zap.Error(err))
	}
	a.refresh()
}

// runExport starts a download or share off the UI loop
func (a *App) runExport(withShare bool) tea.Cmd {
	if a.shell.Exporting() {
		return nil
	}
	sh, ctx := a.shell, a.ctx
	return func() tea.Msg {
		if withShare {
			h, err := sh.Share(ctx)
			return exportDoneMsg{handoff: h, err: err}
		}
		art, err := sh.Download(ctx)
		return exportDoneMsg{artifact: art, err: err}
	}
}

// View renders the UI
func (a *App) View() string {
	if a.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !a.ready {
		return "\n  Loading...\n"
	}

	bodyHeight := max(a.height-2, 1)
	var body string
	switch {
	case a.shared != nil:
		body = a.renderShared()
	case a.snap.PreviewOpen && !a.Wide():
		body = lipgloss.Place(a.width, bodyHeight, lipgloss.Center, lipgloss.Top,
			styleModal.Render(a.renderPreview(bodyHeight-2)))
	default:
		body = a.renderBody(bodyHeight)
	}

	full := lipgloss.JoinVertical(lipgloss.Left, a.renderTabs(), body, a.renderStatusBar())
	lines := strings.Split(full, "\n")
	if len(lines) > a.height {
		lines = lines[:a.height]
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderTabs() string {
	parts := []string{styleBrand.Render("QuickReceipt")}
	for t := Tab(0); t < tabCount; t++ {
		label := string(rune('1'+t)) + " " + t.String()
		if t == a.activeTab {
			parts = append(parts, styleTabActive.Render(label))
		} else {
			parts = append(parts, styleTab.Render(label))
		}
	}
	return lipgloss.NewStyle().Background(colorHeader).Width(a.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func (a *App) renderBody(height int) string {
	contentWidth := a.width
	if a.Wide() {
		contentWidth = a.width - previewWidth - 1
	}

	var content string
	switch a.activeTab {
	case TabForm:
		content = a.renderForm(contentWidth - 4)
	case TabItems:
		content = a.renderItems(contentWidth - 4)
	}
	content += "\n" + a.renderHelp()
	if a.err != nil {
		content += "\n\n" + styleError.Render(a.err.Error())
	}
	pane := stylePane.Width(contentWidth).Height(height).MaxHeight(height).Render(content)

	if !a.Wide() {
		return pane
	}
	preview := lipgloss.NewStyle().Width(previewWidth).Height(height).MaxHeight(height).
		Render(a.renderPreview(height))
	return lipgloss.JoinHorizontal(lipgloss.Top, pane, " ", preview)
}

func (a *App) renderPreview(height int) string {
	doc, err := a.shell.Preview()
	if err != nil {
		return styleError.Render("Preview unavailable: " + err.Error())
	}
	lines := doc.Lines(view.TextColumns)
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return stylePaper.Render(strings.Join(lines, "\n"))
}

func (a *App) renderShared() string {
	lines := []string{
		styleHeading.Render("Share link"),
		styleBright.Render(a.shared.URL),
		"",
		styleText.Render(a.shared.Message),
		"",
	}
	if a.qr != "" {
		lines = append(lines, a.qr)
	}
	lines = append(lines, helpEntry("esc", "close"))
	return stylePane.Render(strings.Join(lines, "\n"))
}

func (a *App) renderHelp() string {
	keys := []string{helpEntry("tab", "switch")}
	switch a.activeTab {
	case TabForm:
		keys = append(keys, helpEntry("↑/↓", "field"), helpEntry("enter", "edit"))
	case TabItems:
		keys = append(keys, helpEntry("←/→", "column"), helpEntry("enter", "edit"),
			helpEntry("a", "add"), helpEntry("x", "remove"))
	}
	if !a.Wide() {
		keys = append(keys, helpEntry("p", "preview"))
	}
	keys = append(keys, helpEntry("d", "download"), helpEntry("s", "share"), helpEntry("q", "quit"))
	return "\n" + strings.Join(keys, "  ")
}

func (a *App) renderStatusBar() string {
	base := lipgloss.NewStyle().Background(colorBar).Foreground(colorText)
	pipe := base.Render(" | ")

	modeText, modeBg := "NAV", colorSelected
	if a.editing {
		modeText, modeBg = "EDIT", colorBusy
	}
	mode := segment(modeText, modeBg, true)
	source := segment("capture "+a.snap.CaptureSource, colorInfo, false)
	total := segment(a.snap.FormattedTotal, colorAccent, true)

	msgText, msgBg := "ready", colorIdle
	switch {
	case a.snap.Exporting:
		msgText, msgBg = a.spinner.View()+" generating PDF", colorBusy
	case a.snap.Notification != nil:
		msgText, msgBg = a.snap.Notification.Message, colorOK
		if a.err != nil {
			msgBg = colorFail
		}
	}

	left := mode + pipe + source + pipe + total + pipe
	remaining := max(a.width-lipgloss.Width(left), 10)
	if !a.snap.Exporting {
		msgText = Truncate(msgText, remaining-2)
	}
	return base.Width(a.width).Render(left + segment(msgText, msgBg, false))
}

// Run starts the TUI and blocks until it quits or ctx ends
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	defer a.Close()

	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close drops the shell subscription
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}
