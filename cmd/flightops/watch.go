package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/config"
	"github.com/0xmhha/flightops/pkg/display"
	"github.com/0xmhha/flightops/pkg/watcher"
)

var errWatchNeedsFiles = errors.New("watch requires the jsonl store driver")

func (a *app) watchCmd() *cobra.Command {
	q := &queryFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render a report whenever record files change",
		Long: `Watch the JSONL data directory and rebuild the report of one period after
every batch of file changes. Cached reports are dropped on each change.

Examples:
  flightops watch --from 2024-06-01 --to 2024-06-30
  flightops watch --from 2024-06-01 --to 2024-06-30 --format simple`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.StoreJSONL {
				return fmt.Errorf("%w (configured: %s)", errWatchNeedsFiles, cfg.Store.Driver)
			}

			f, err := q.formatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			rt, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close() // nolint:errcheck

			w, err := watcher.New(watcher.Config{DebounceInterval: debounce}, rt.log)
			if err != nil {
				return err
			}
			defer w.Close() // nolint:errcheck

			return watchLoop(cmd.Context(), rt, w, q.request(""), f, cmd.OutOrStdout())
		},
	}

	q.registerRange(cmd)
	q.registerFilter(cmd)
	q.registerOutput(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before rebuilding")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// watchLoop renders once, then after every change until ctx is done.
func watchLoop(ctx context.Context, rt *runtime, w watcher.Watcher, req analytics.Request, f display.Formatter, out io.Writer) error {
	render := func() error {
		r, err := rt.reporter.Report(ctx, req)
		if err != nil {
			return err
		}
		return f.FormatReport(out, r)
	}

	if err := render(); err != nil {
		return err
	}

	if err := w.Start(ctx, []string{rt.cfg.Store.DataDir}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-w.Changes():
			if !ok {
				return nil
			}
			rt.log.Info("record files changed", "files", len(change.Paths), "ops", change.Ops.String())

			if change.Ops&(watcher.OpRemove|watcher.OpRename) != 0 && rt.files != nil {
				rt.files.Reset()
			}
			if rt.cache != nil {
				if err := rt.cache.Purge(); err != nil {
					rt.log.Warn("failed to purge report cache", "error", err)
				}
			}

			if err := render(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				rt.log.Error("failed to rebuild report", "error", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			if errors.Is(err, watcher.ErrCircuitBreakerOpen) {
				return err
			}
			rt.log.Warn("watcher error", "error", err)
		}
	}
}
