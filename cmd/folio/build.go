package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-folio"
)

type buildOptions struct {
	outputDir     string
	includeDrafts bool
	dryRun        bool
}

func buildCmd(global *globalOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the collection and write feeds, sitemap and manifests",
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

			var envelope folio.ResultEnvelope
			err = site.BuildSite(cmd.Context(), folio.BuildSiteCommand{
				IncludeDrafts:  opts.includeDrafts,
				DryRun:         opts.dryRun,
				ResultCallback: func(env folio.ResultEnvelope) { envelope = env },
			})
			if err != nil {
				return err
			}
			printBuildSummary(cmd.OutOrStdout(), site.Config().Generator.OutputDir, envelope)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory, overrides the config file")
	cmd.Flags().BoolVar(&opts.includeDrafts, "drafts", false, "Include documents marked as drafts")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Render artifacts without writing them")
	return cmd
}

func printBuildSummary(w io.Writer, outputDir string, envelope folio.ResultEnvelope) {
	if envelope.Snapshot != nil {
		stats := envelope.Snapshot.Stats()
		fmt.Fprintf(w, "built %d documents (%d posts, %d pages, %d tags)\n",
			stats.Documents, stats.Posts, stats.Pages, stats.Tags)
	}
	result := envelope.Result
	if result == nil {
		return
	}
	if result.DryRun {
		fmt.Fprintf(w, "dry run: %d artifacts rendered, nothing written\n", len(result.Artifacts))
		return
	}
	fmt.Fprintf(w, "wrote %d artifacts to %s (%d unchanged) in %s\n",
		result.Written, outputDir, result.Skipped, result.Duration.Round(time.Millisecond))
}
