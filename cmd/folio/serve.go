package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-folio"
)

func serveCmd(global *globalOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over the published collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := global.newSite(func(cfg *folio.Config) {
				if trimmed := strings.TrimSpace(addr); trimmed != "" {
					cfg.HTTP.Addr = trimmed
				}
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// A broken tree at startup still serves: the API answers 503 until
			// a rebuild succeeds.
			if _, err := site.Build(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "initial build failed: %v\n", err)
			}

			group, ctx := errgroup.WithContext(ctx)
			if watch {
				watcher, err := site.Watcher()
				if err != nil {
					return err
				}
				group.Go(func() error { return watcher.Run(ctx) })
			}
			group.Go(func() error { return serve(ctx, site, cmd) })
			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the config file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild when content changes")
	return cmd
}

func serve(ctx context.Context, site *folio.Site, cmd *cobra.Command) error {
	httpCfg := site.Config().HTTP
	srv := &http.Server{
		Addr:         httpCfg.Addr,
		Handler:      site.Router(),
		ReadTimeout:  httpCfg.ReadTimeout.Std(),
		WriteTimeout: httpCfg.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", httpCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "server stopped")
	return nil
}

func watchCmd(global *globalOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build once, then rebuild artifacts whenever content changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := global.newSite(func(cfg *folio.Config) {
				cfg.Generator.Enabled = true
				if dir := strings.TrimSpace(opts.outputDir); dir != "" {
					cfg.Generator.OutputDir = dir
				}
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			msg := folio.BuildSiteCommand{
				IncludeDrafts: opts.includeDrafts,
				ResultCallback: func(env folio.ResultEnvelope) {
					printBuildSummary(out, site.Config().Generator.OutputDir, env)
				},
			}
			if err := site.BuildSite(ctx, msg); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "initial build failed: %v\n", err)
			}

			watcher, err := site.WatchBuild(msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "watching %s\n", site.Config().Content.Dir)
			return watcher.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory, overrides the config file")
	cmd.Flags().BoolVar(&opts.includeDrafts, "drafts", false, "Include documents marked as drafts")
	return cmd
}
