package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/thereceipt/quickreceipt/internal/api"
	"github.com/thereceipt/quickreceipt/internal/share"
	"github.com/thereceipt/quickreceipt/internal/tui"
	"go.uber.org/zap"
)

func newServeCmd(root *rootOpts) *cobra.Command {
	var (
		addr    string
		withTUI bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load(cmd, withTUI)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}

			ctx := cmd.Context()
			a := newApp(ctx, cfg, log, appOptions{opener: share.NewLogOpener(log)})
			defer a.Close()

			gin.SetMode(gin.ReleaseMode)
			server := api.NewServer(a.shell, api.Options{
				Printer: printerTarget(cfg.Printer),
				Dots:    cfg.Printer.Dots,
			}, log)
			defer server.Close()

			if !withTUI {
				return server.Serve(ctx, cfg.HTTP.Addr)
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.Serve(ctx, cfg.HTTP.Addr)
				cancel()
			}()

			log.Info("Receipt builder starting", zap.String("addr", cfg.HTTP.Addr))
			if err := tui.NewApp(a.shell, log).Run(ctx); err != nil {
				return err
			}
			cancel()
			return <-serverErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&withTUI, "tui", false, "run the terminal UI alongside the server")
	return cmd
}

func newTUICmd(root *rootOpts) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit and export a receipt in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load(cmd, true)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var opener share.Opener = share.NewLogOpener(log)
			if open {
				opener = share.NewCommandOpener(log)
			}

			a := newApp(cmd.Context(), cfg, log, appOptions{opener: opener})
			defer a.Close()
			return tui.NewApp(a.shell, log).Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "open share links in the system browser")
	return cmd
}
