package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/thereceipt/quickreceipt/internal/view"
	"go.uber.org/zap"
)

// ChromeConfig configures the headless browser engine
type ChromeConfig struct {
	// RemoteURL attaches to a running browser's devtools endpoint; empty launches one
	RemoteURL string
	Timeout   time.Duration
}

// Chrome rasterizes the HTML rendition of a document in headless Chrome
type Chrome struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	logger   *zap.Logger
}

// NewChrome prepares a browser allocator. The browser starts on first use.
func NewChrome(cfg ChromeConfig, logger *zap.Logger) *Chrome {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var allocCtx context.Context
	var cancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, cancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.DisableGPU)
		allocCtx, cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	return &Chrome{allocCtx: allocCtx, cancel: cancel, timeout: cfg.Timeout, logger: logger}
}

// Close shuts the browser down
func (c *Chrome) Close() {
	c.cancel()
}

// Rasterize loads the document's HTML page and screenshots the slip container
func (c *Chrome) Rasterize(ctx context.Context, doc *view.Document, opts Options) (image.Image, error) {
	opts = opts.withDefaults()
	if err := checkDocument(doc, opts); err != nil {
		return nil, err
	}

	html, err := doc.HTMLPage(view.PageOptions{Title: "Receipt"})
	if err != nil {
		return nil, err
	}

	browserCtx, cancelBrowser := chromedp.NewContext(c.allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, c.timeout)
	defer cancelRun()

	// Tie the tab to the caller as well as the timeout
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	var buf []byte
	err = chromedp.Run(runCtx,
		emulation.SetDeviceMetricsOverride(int64(opts.ViewportWidth), int64(math.Ceil(doc.Height)), 1, false),
		emulation.SetDefaultBackgroundColorOverride().WithColor(cdpColor(opts.Background)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ScreenshotScale("#"+view.ContainerID, opts.Scale, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome capture failed: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	c.logger.Debug("Chrome capture complete",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return img, nil
}

func cdpColor(c color.Color) *cdp.RGBA {
	r, g, b, a := c.RGBA()
	return &cdp.RGBA{
		R: int64(r >> 8),
		G: int64(g >> 8),
		B: int64(b >> 8),
		A: float64(a) / 0xffff,
	}
}
