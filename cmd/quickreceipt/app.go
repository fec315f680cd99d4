package main

import (
	"context"
	"time"

	"github.com/thereceipt/quickreceipt/internal/config"
	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/printer"
	"github.com/thereceipt/quickreceipt/internal/receipt"
	"github.com/thereceipt/quickreceipt/internal/renderer"
	"github.com/thereceipt/quickreceipt/internal/settings"
	"github.com/thereceipt/quickreceipt/internal/share"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"go.uber.org/zap"
)

const chromeTimeout = 30 * time.Second

// app is a shell with the collaborators chosen by configuration
type app struct {
	shell   *shell.Shell
	closers []func()
}

type appOptions struct {
	// store overrides the configured settings backend
	store  settings.Store
	saver  export.Saver
	opener share.Opener
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, opts appOptions) *app {
	a := &app{}

	rasterizer := a.rasterizer(cfg, log)
	store := opts.store
	if store == nil {
		store = a.settingsStore(cfg, log)
	}
	saver := opts.saver
	if saver == nil {
		saver = export.NewDirSaver(cfg.Export.OutputDir)
	}

	render := renderer.DefaultOptions()
	render.Scale = cfg.Export.Scale
	render.ViewportWidth = cfg.Export.ViewportWidth

	a.shell = shell.New(ctx, shell.Deps{
		Store: store,
		Export: export.Config{
			SettleDelay: cfg.Export.SettleDelay,
			Render:      render,
			Page:        export.PageSize{WidthMM: cfg.Export.PageWidthMM, HeightMM: cfg.Export.PageHeightMM},
		},
		Rasterizer:    rasterizer,
		Saver:         saver,
		NotifyTTL:     cfg.Share.NotifyTTL,
		LinkTemplate:  cfg.Share.LinkTemplate,
		Opener:        opts.opener,
		Coercer:       receipt.Coercer{InvalidQuantity: cfg.Items.InvalidQuantity},
		ViewportWidth: int(cfg.Export.ViewportWidth),
		Logger:        log,
	})
	a.closers = append(a.closers, a.shell.Close)
	return a
}

func (a *app) rasterizer(cfg *config.Config, log *zap.Logger) renderer.Rasterizer {
	if cfg.Export.Engine != config.EngineChrome {
		return renderer.NewNative(log)
	}
	chrome := renderer.NewChrome(renderer.ChromeConfig{
		RemoteURL: cfg.Export.ChromeURL,
		Timeout:   chromeTimeout,
	}, log)
	a.closers = append(a.closers, chrome.Close)
	return chrome
}

func (a *app) settingsStore(cfg *config.Config, log *zap.Logger) settings.Store {
	if cfg.Settings.Backend != config.BackendRedis {
		return settings.NewFileStore(cfg.Settings.Path, cfg.Settings.Key, log)
	}
	store := settings.NewRedisStore(settings.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Key:      cfg.Settings.Key,
	}, log)
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close redis client", zap.Error(err))
		}
	})
	return store
}

// Close releases collaborators in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func printerTarget(cfg config.PrinterConfig) printer.Target {
	return printer.Target{Host: cfg.Host, Port: cfg.Port, Device: cfg.Device, Baud: cfg.Baud}
}
