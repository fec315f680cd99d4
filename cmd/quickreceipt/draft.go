package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thereceipt/quickreceipt/internal/config"
	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/printer"
	"github.com/thereceipt/quickreceipt/internal/settings"
	"github.com/thereceipt/quickreceipt/internal/share"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap"
)

// openDraft builds an app around a draft file. The draft's company settings
// stay in memory so one-shot commands never overwrite the saved ones.
func openDraft(ctx context.Context, cfg *config.Config, log *zap.Logger, path string, opts appOptions) (*app, error) {
	draft, err := receiptformat.ParseFile(path)
	if err != nil {
		return nil, err
	}

	opts.store = settings.NewMemoryStore()
	a := newApp(ctx, cfg, log, opts)
	if err := a.shell.Import(ctx, draft); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load draft %s: %w", path, err)
	}
	return a, nil
}

func newExportCmd(root *rootOpts) *cobra.Command {
	var (
		out  string
		xlsx bool
	)

	cmd := &cobra.Command{
		Use:   "export <draft.receipt.json>",
		Short: "Export a receipt draft to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if out != "" {
				cfg.Export.OutputDir = out
			}

			ctx := cmd.Context()
			a, err := openDraft(ctx, cfg, log, args[0], appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			artifact, err := a.shell.Download(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), artifact.Location)

			if !xlsx {
				return nil
			}
			data, err := export.ItemsWorkbook(a.shell.Items(), a.shell.Transaction().Currency)
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Export.OutputDir, "items.xlsx")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides export.output_dir)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write the items as a spreadsheet")
	return cmd
}

func newShareCmd(root *rootOpts) *cobra.Command {
	var (
		out  string
		open bool
	)

	cmd := &cobra.Command{
		Use:   "share <draft.receipt.json>",
		Short: "Export a receipt draft and print its share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if out != "" {
				cfg.Export.OutputDir = out
			}

			var opener share.Opener = share.NewLogOpener(log)
			if open {
				opener = share.NewCommandOpener(log)
			}

			ctx := cmd.Context()
			a, err := openDraft(ctx, cfg, log, args[0], appOptions{opener: opener})
			if err != nil {
				return err
			}
			defer a.Close()

			handoff, err := a.shell.Share(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, handoff.URL)
			qr, err := share.QRTerminal(handoff.URL)
			if err != nil {
				log.Warn("QR code unavailable", zap.Error(err))
				return nil
			}
			fmt.Fprint(w, qr)
			fmt.Fprintln(w, share.MsgAttach, handoff.FileName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides export.output_dir)")
	cmd.Flags().BoolVar(&open, "open", false, "open the link in the system browser")
	return cmd
}

func newPrintCmd(root *rootOpts) *cobra.Command {
	var target config.PrinterConfig

	cmd := &cobra.Command{
		Use:   "print <draft.receipt.json>",
		Short: "Send a receipt draft to an ESC/POS printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Printer.Host = target.Host
			}
			if flags.Changed("port") {
				cfg.Printer.Port = target.Port
			}
			if flags.Changed("device") {
				cfg.Printer.Device = target.Device
			}
			if flags.Changed("baud") {
				cfg.Printer.Baud = target.Baud
			}
			if flags.Changed("dots") {
				cfg.Printer.Dots = target.Dots
			}

			ctx := cmd.Context()
			a, err := openDraft(ctx, cfg, log, args[0], appOptions{saver: export.NewMemorySaver()})
			if err != nil {
				return err
			}
			defer a.Close()

			conn, err := printer.Open(ctx, printerTarget(cfg.Printer))
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := a.shell.Print(ctx, conn, cfg.Printer.Dots); err != nil {
				return err
			}
			log.Info("Receipt printed", zap.String("draft", args[0]))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&target.Host, "host", "", "network printer host")
	flags.IntVar(&target.Port, "port", 9100, "network printer port")
	flags.StringVar(&target.Device, "device", "", "serial device, e.g. /dev/ttyUSB0")
	flags.IntVar(&target.Baud, "baud", 9600, "serial baud rate")
	flags.IntVar(&target.Dots, "dots", printer.DefaultDots, "printable width in dots")
	return cmd
}
