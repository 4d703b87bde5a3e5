// Package main provides the folio binary: build, query and serve a content
// directory of Markdown documents.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-folio"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const appName = "folio"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand through persistent flags.
type globalOptions struct {
	configPath string
	contentDir string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Markdown content publishing pipeline",
		Long: `Folio turns a directory of Markdown documents with metadata blocks into
an ordered, tagged collection and publishes it as RSS/Atom feeds, a sitemap,
JSON manifests and a read-only HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML or TOML)")
	flags.StringVar(&opts.contentDir, "content-dir", "", "Content directory, overrides the config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		buildCmd(opts),
		listCmd(opts),
		tagsCmd(opts),
		showCmd(opts),
		serveCmd(opts),
		watchCmd(opts),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s (build: %s)\n", appName, version, buildTime)
		},
	}
}

// loadConfig reads the config file when given and applies flag overrides.
func (o *globalOptions) loadConfig() (folio.Config, error) {
	cfg := folio.DefaultConfig()
	if path := strings.TrimSpace(o.configPath); path != "" {
		loaded, err := folio.LoadConfig(path)
		if err != nil {
			return folio.Config{}, err
		}
		cfg = loaded
	}
	if dir := strings.TrimSpace(o.contentDir); dir != "" {
		cfg.Content.Dir = dir
	}
	if level := strings.TrimSpace(o.logLevel); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func (o *globalOptions) newSite(mutate ...func(*folio.Config)) (*folio.Site, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return folio.New(cfg)
}
