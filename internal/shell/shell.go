// Package shell owns the receipt builder's state and wires its actions
// to the export, share and persistence components.
package shell

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/money"
	"github.com/thereceipt/quickreceipt/internal/notify"
	"github.com/thereceipt/quickreceipt/internal/printer"
	"github.com/thereceipt/quickreceipt/internal/receipt"
	"github.com/thereceipt/quickreceipt/internal/renderer"
	"github.com/thereceipt/quickreceipt/internal/settings"
	"github.com/thereceipt/quickreceipt/internal/share"
	"github.com/thereceipt/quickreceipt/internal/view"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap"
)

// DefaultCurrency is the currency of a new transaction
const DefaultCurrency = "USD"

// ErrInvalidInput is returned for edits the model cannot hold
var ErrInvalidInput = errors.New("invalid input")

// Editable item fields
const (
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unitPrice"
)

// Deps configures a Shell
type Deps struct {
	Store      settings.Store
	Export     export.Config
	Rasterizer renderer.Rasterizer
	Saver      export.Saver
	NotifyTTL  time.Duration
	// LinkTemplate is the share target with one %s for the message
	LinkTemplate string
	Opener       share.Opener
	Coercer      receipt.Coercer
	// ViewportWidth is the initial layout width
	ViewportWidth int
	Now           func() time.Time
	Logger        *zap.Logger
}

// Shell is the application state and its actions
type Shell struct {
	mu            sync.Mutex
	settings      receiptformat.CompanySettings
	transaction   receiptformat.TransactionDetails
	items         []receiptformat.Item
	viewportWidth int
	desktop       bool
	previewOpen   bool

	inline    *view.Instance
	modal     *view.Instance
	offscreen *view.Instance

	store    settings.Store
	pipeline *export.Pipeline
	notifier *notify.Notifier
	composer *share.Composer
	coercer  receipt.Coercer
	logger   *zap.Logger

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New loads settings once and mounts the view instances
func New(ctx context.Context, deps Deps) *Shell {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = settings.NewMemoryStore()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ViewportWidth == 0 {
		deps.ViewportWidth = Breakpoint
	}

	s := &Shell{
		settings: deps.Store.Load(ctx),
		transaction: receiptformat.TransactionDetails{
			Date:          deps.Now().UTC().Format("2006-01-02"),
			PaymentMethod: receiptformat.PaymentCash,
			Currency:      DefaultCurrency,
		},
		items:         receipt.DefaultItems(),
		viewportWidth: deps.ViewportWidth,
		desktop:       deps.ViewportWidth >= Breakpoint,
		store:         deps.Store,
		coercer:       deps.Coercer,
		logger:        deps.Logger,
		subs:          make(map[int]func(Snapshot)),
	}

	s.notifier = notify.New(deps.NotifyTTL)
	s.notifier.OnChange(func(notify.Notification, bool) { s.publish() })

	s.pipeline = export.New(deps.Export, export.Deps{
		Rasterizer: deps.Rasterizer,
		Saver:      deps.Saver,
		Notifier:   s.notifier,
		Logger:     deps.Logger,
		OnInFlight: func(bool) { s.publish() },
	})
	s.composer = share.NewComposer(deps.LinkTemplate, deps.Opener, s.notifier, deps.Logger)

	s.inline = view.NewInstance(InlineInstance, view.OnScreen, s.props)
	s.modal = view.NewInstance(ModalInstance, view.OnScreen, s.props)
	s.offscreen = view.NewInstance(OffscreenInstance, view.OffScreen, s.props)
	s.applyLayoutLocked()

	return s
}

// Close stops the notification timer
func (s *Shell) Close() {
	s.notifier.Close()
}

// props is what every instance renders from
func (s *Shell) props() view.Props {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propsLocked()
}

func (s *Shell) propsLocked() view.Props {
	items := make([]receiptformat.Item, len(s.items))
	copy(items, s.items)
	return view.Props{
		Settings:    cloneSettings(s.settings),
		Transaction: s.transaction,
		Items:       items,
		Total:       receipt.Total(items),
	}
}

// Notify shows a transient message
func (s *Shell) Notify(message string) {
	s.notifier.Set(message)
}

// DismissNotification hides the current message early
func (s *Shell) DismissNotification() {
	s.notifier.Dismiss()
}

// UpdateSettings replaces the company settings and persists them
func (s *Shell) UpdateSettings(ctx context.Context, cs receiptformat.CompanySettings) error {
	s.mu.Lock()
	s.settings = cloneSettings(cs)
	saved := cloneSettings(cs)
	s.mu.Unlock()

	s.publish()

	if err := s.store.Save(ctx, saved); err != nil {
		s.logger.Error("Failed to persist settings", zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SetLogo converts an uploaded image to a data URL and stores it
func (s *Shell) SetLogo(ctx context.Context, r io.Reader) error {
	url, err := settings.LogoDataURL(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cs := s.Settings()
	cs.LogoURL = &url
	return s.UpdateSettings(ctx, cs)
}

// ClearLogo removes the logo
func (s *Shell) ClearLogo(ctx context.Context) error {
	cs := s.Settings()
	cs.LogoURL = nil
	return s.UpdateSettings(ctx, cs)
}

// Settings returns a copy of the company settings
func (s *Shell) Settings() receiptformat.CompanySettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSettings(s.settings)
}

// UpdateTransaction replaces the transaction details
func (s *Shell) UpdateTransaction(t receiptformat.TransactionDetails) error {
	if t.PaymentMethod == "" {
		t.PaymentMethod = receiptformat.PaymentCash
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, t.PaymentMethod)
	}

	s.mu.Lock()
	s.transaction = t
	s.mu.Unlock()

	s.publish()
	return nil
}

// Transaction returns the transaction details
func (s *Shell) Transaction() receiptformat.TransactionDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transaction
}

// Items returns a copy of the line items
func (s *Shell) Items() []receiptformat.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]receiptformat.Item(nil), s.items...)
}

// AddItem appends a blank line item
func (s *Shell) AddItem() receiptformat.Item {
	s.mu.Lock()
	var item receiptformat.Item
	s.items, item = receipt.AddItem(s.items)
	s.mu.Unlock()

	s.publish()
	return item
}

// UpdateItem edits one item in place; the id cannot change
func (s *Shell) UpdateItem(id string, fn func(*receiptformat.Item)) error {
	s.mu.Lock()
	items, err := receipt.UpdateItem(s.items, id, fn)
	if err == nil {
		s.items = items
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// SetItemField applies raw form input to one field, coercing numbers
func (s *Shell) SetItemField(id, field, raw string) error {
	var apply func(*receiptformat.Item)
	switch field {
	case FieldDescription:
		apply = func(it *receiptformat.Item) { it.Description = raw }
	case FieldQuantity:
		qty := s.coercer.Quantity(raw)
		apply = func(it *receiptformat.Item) { it.Quantity = qty }
	case FieldUnitPrice:
		price := s.coercer.Price(raw)
		apply = func(it *receiptformat.Item) { it.UnitPrice = price }
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidInput, field)
	}
	return s.UpdateItem(id, apply)
}

// RemoveItem deletes an item by id
func (s *Shell) RemoveItem(id string) error {
	s.mu.Lock()
	items, err := receipt.RemoveItem(s.items, id)
	if err == nil {
		s.items = items
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// Import replaces the whole receipt with a draft and persists its settings
func (s *Shell) Import(ctx context.Context, d *receiptformat.Draft) error {
	if d == nil {
		return fmt.Errorf("%w: no draft", ErrInvalidInput)
	}
	draft := *d
	if draft.Transaction.PaymentMethod == "" {
		draft.Transaction.PaymentMethod = receiptformat.PaymentCash
	}
	if err := receiptformat.Validate(&draft); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	s.transaction = draft.Transaction
	s.items = append([]receiptformat.Item{}, draft.Items...)
	s.mu.Unlock()

	return s.UpdateSettings(ctx, draft.Settings)
}

// Draft returns the whole receipt as a draft document
func (s *Shell) Draft() *receiptformat.Draft {
	p := s.props()
	return &receiptformat.Draft{
		Version:     receiptformat.Version,
		Settings:    p.Settings,
		Transaction: p.Transaction,
		Items:       p.Items,
	}
}

// Preview captures the current source without going through the export guard
func (s *Shell) Preview() (*view.Document, error) {
	return s.CaptureSource().Capture()
}

// Download exports the current capture source to PDF
func (s *Shell) Download(ctx context.Context) (*export.Artifact, error) {
	return s.pipeline.Export(ctx, liveSource{s})
}

// Share exports first and hands the message off only if that succeeded
func (s *Shell) Share(ctx context.Context) (*share.Handoff, error) {
	artifact, err := s.Download(ctx)
	if err != nil {
		return nil, err
	}

	p := s.props()
	message := share.ComposeMessage(p.Settings.Name, p.Transaction.CustomerName, p.Total, p.Transaction.Currency)
	return s.composer.Share(ctx, message, artifact.Name)
}

// Raster captures the current source as a bitmap
func (s *Shell) Raster(ctx context.Context) (image.Image, error) {
	return s.pipeline.Raster(ctx, liveSource{s})
}

// Print rasterizes the receipt and sends it to conn
func (s *Shell) Print(ctx context.Context, conn printer.Connection, dots int) error {
	img, err := s.Raster(ctx)
	if err != nil {
		return err
	}
	if err := printer.Print(conn, img, dots); err != nil {
		s.notifier.Set("Error printing receipt")
		return err
	}
	s.notifier.Set("Receipt sent to printer")
	return nil
}

// Exporting reports whether an export is in flight
func (s *Shell) Exporting() bool {
	return s.pipeline.InFlight()
}

// Snapshot is the full observable state
type Snapshot struct {
	Settings       receiptformat.CompanySettings    `json:"settings"`
	Transaction    receiptformat.TransactionDetails `json:"transaction"`
	Items          []receiptformat.Item             `json:"items"`
	Total          float64                          `json:"total"`
	FormattedTotal string                           `json:"formattedTotal"`
	State          CaptureState                     `json:"captureState"`
	CaptureSource  string                           `json:"captureSource"`
	ViewportWidth  int                              `json:"viewportWidth"`
	PreviewOpen    bool                             `json:"previewOpen"`
	Exporting      bool                             `json:"exporting"`
	Notification   *notify.Notification             `json:"notification,omitempty"`
}

// Snapshot returns a consistent copy of the state
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	p := s.propsLocked()
	state := s.captureStateLocked()
	snap := Snapshot{
		Settings:      p.Settings,
		Transaction:   p.Transaction,
		Items:         p.Items,
		Total:         p.Total,
		State:         state,
		ViewportWidth: s.viewportWidth,
		PreviewOpen:   s.previewOpen,
	}
	s.mu.Unlock()

	currency := p.Transaction.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	snap.FormattedTotal = money.Format(p.Total, currency)
	snap.CaptureSource = s.SelectCaptureSource(state).Name()
	snap.Exporting = s.pipeline.InFlight()
	if note, ok := s.notifier.Current(); ok {
		snap.Notification = &note
	}
	return snap
}

// Subscribe calls fn with a snapshot after every change.
// The returned func removes the subscription.
func (s *Shell) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Shell) publish() {
	s.subsMu.Lock()
	if len(s.subs) == 0 {
		s.subsMu.Unlock()
		return
	}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range subs {
		fn(snap)
	}
}

func cloneSettings(cs receiptformat.CompanySettings) receiptformat.CompanySettings {
	if cs.LogoURL != nil {
		logo := *cs.LogoURL
		cs.LogoURL = &logo
	}
	return cs
}
