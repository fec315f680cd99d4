// Package export turns a mounted receipt view into a downloadable PDF
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/thereceipt/quickreceipt/internal/renderer"
	"github.com/thereceipt/quickreceipt/internal/view"
	"go.uber.org/zap"
)

// MsgFailed is the notification shown when an export fails
const MsgFailed = "Error generating PDF"

// DefaultSettleDelay is the pause before capture
const DefaultSettleDelay = 100 * time.Millisecond

// ErrInFlight is returned when an export is requested while another runs
var ErrInFlight = errors.New("export already in progress")

// Source is a capturable view instance
type Source interface {
	Capture() (*view.Document, error)
}

// Notifier shows a transient user-facing message
type Notifier interface {
	Set(message string)
}

// Artifact is one generated document
type Artifact struct {
	Name         string
	Data         []byte
	PageWidthMM  float64
	PageHeightMM float64
	// Location is where the saver put the file
	Location string
}

// Config tunes the pipeline
type Config struct {
	SettleDelay time.Duration
	Render      renderer.Options
	Page        PageSize
}

// DefaultConfig returns the standard thermal-slip settings
func DefaultConfig() Config {
	return Config{
		SettleDelay: DefaultSettleDelay,
		Render:      renderer.DefaultOptions(),
		Page:        DefaultPage(),
	}
}

// Deps are the pipeline's collaborators
type Deps struct {
	Rasterizer renderer.Rasterizer
	Saver      Saver
	Notifier   Notifier
	Logger     *zap.Logger
	// OnInFlight is called whenever the guard is set or cleared
	OnInFlight func(inFlight bool)
}

// Pipeline runs exports one at a time
type Pipeline struct {
	cfg        Config
	rasterizer renderer.Rasterizer
	saver      Saver
	notifier   Notifier
	logger     *zap.Logger
	onInFlight func(bool)

	inFlight atomic.Bool
}

// New creates a pipeline
func New(cfg Config, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Rasterizer == nil {
		deps.Rasterizer = renderer.NewNative(deps.Logger)
	}
	if deps.Saver == nil {
		deps.Saver = NewMemorySaver()
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.Page.WidthMM <= 0 || cfg.Page.HeightMM <= 0 {
		cfg.Page = DefaultPage()
	}

	return &Pipeline{
		cfg:        cfg,
		rasterizer: deps.Rasterizer,
		saver:      deps.Saver,
		notifier:   deps.Notifier,
		logger:     deps.Logger.With(zap.String("component", "export")),
		onInFlight: deps.OnInFlight,
	}
}

// InFlight reports whether an export is running
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Export captures src, encodes it as a one-page PDF and saves it.
// On failure the user has already been notified and the artifact is nil.
func (p *Pipeline) Export(ctx context.Context, src Source) (*Artifact, error) {
	var artifact *Artifact

	err := p.run(ctx, src, "export", func(ctx context.Context, doc *view.Document, img image.Image) error {
		data, height, err := EncodePDF(img, p.cfg.Page)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		name := FileName(doc.Props.Transaction.CustomerName, doc.Props.Transaction.Date)
		location, err := p.saver.Save(ctx, name, data)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}

		artifact = &Artifact{
			Name:         name,
			Data:         data,
			PageWidthMM:  p.cfg.Page.WidthMM,
			PageHeightMM: height,
			Location:     location,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("Receipt exported",
		zap.String("name", artifact.Name),
		zap.Int("bytes", len(artifact.Data)),
		zap.Float64("page_height_mm", artifact.PageHeightMM))

	return artifact, nil
}

// Raster captures src and returns the bitmap without encoding it.
// It shares the in-flight guard with Export.
func (p *Pipeline) Raster(ctx context.Context, src Source) (image.Image, error) {
	var out image.Image
	err := p.run(ctx, src, "raster", func(_ context.Context, _ *view.Document, img image.Image) error {
		out = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// run holds the guard for the whole capture and always clears it.
// Once started it is not cancellable.
func (p *Pipeline) run(ctx context.Context, src Source, op string, finish func(context.Context, *view.Document, image.Image) error) (err error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	p.signal(true)
	defer func() {
		p.inFlight.Store(false)
		p.signal(false)
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			p.logger.Error("Export failed", zap.String("op", op), zap.Error(err))
			if p.notifier != nil {
				p.notifier.Set(MsgFailed)
			}
		}
	}()

	ctx = context.WithoutCancel(ctx)

	if p.cfg.SettleDelay > 0 {
		time.Sleep(p.cfg.SettleDelay)
	}

	if src == nil {
		return fmt.Errorf("capture: %w", view.ErrDetached)
	}
	doc, err := src.Capture()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	img, err := p.rasterizer.Rasterize(ctx, doc, p.cfg.Render)
	if err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}

	return finish(ctx, doc, img)
}

func (p *Pipeline) signal(inFlight bool) {
	if p.onInFlight != nil {
		p.onInFlight(inFlight)
	}
}
