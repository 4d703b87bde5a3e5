package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var ErrContentDirRequired = errors.New("folio config: content directory is required")
var ErrContentPatternInvalid = errors.New("folio config: content pattern is invalid")
var ErrContentWorkersInvalid = errors.New("folio config: content workers must be zero or positive")
var ErrTimezoneInvalid = errors.New("folio config: timezone is invalid")
var ErrGeneratorOutputDirRequired = errors.New("folio config: generator output directory is required when generator is enabled")
var ErrGeneratorBaseURLInvalid = errors.New("folio config: generator base url must be absolute")
var ErrGeneratorMaxFeedItemsInvalid = errors.New("folio config: generator max feed items must be zero or positive")
var ErrHTTPAddrRequired = errors.New("folio config: http address is required")
var ErrWatchDebounceInvalid = errors.New("folio config: watch debounce must be zero or positive")
var ErrLoggingProviderRequired = errors.New("folio config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("folio config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("folio config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("folio config: logging format is invalid")

// Config aggregates every setting of a folio site. Fields use plain types so
// the struct decodes from YAML and TOML alike.
type Config struct {
	Content    ContentConfig   `yaml:"content" toml:"content" json:"content"`
	Markdown   MarkdownConfig  `yaml:"markdown" toml:"markdown" json:"markdown"`
	Permalinks PermalinkConfig `yaml:"permalinks" toml:"permalinks" json:"permalinks"`
	Generator  GeneratorConfig `yaml:"generator" toml:"generator" json:"generator"`
	HTTP       HTTPConfig      `yaml:"http" toml:"http" json:"http"`
	Watch      WatchConfig     `yaml:"watch" toml:"watch" json:"watch"`
	Logging    LoggingConfig   `yaml:"logging" toml:"logging" json:"logging"`
}

// ContentConfig captures discovery and ingestion of sources.
type ContentConfig struct {
	Dir           string   `yaml:"dir" toml:"dir" json:"dir"`
	Pattern       string   `yaml:"pattern" toml:"pattern" json:"pattern"`
	Exclude       []string `yaml:"exclude" toml:"exclude" json:"exclude,omitempty"`
	Workers       int      `yaml:"workers" toml:"workers" json:"workers"`
	ExcerptMarker string   `yaml:"excerpt_marker" toml:"excerpt_marker" json:"excerpt_marker"`
	// Timezone is an IANA name applied to dates without a zone and to the
	// date segments of post permalinks.
	Timezone      string `yaml:"timezone" toml:"timezone" json:"timezone"`
	IncludeDrafts bool   `yaml:"include_drafts" toml:"include_drafts" json:"include_drafts"`
	// SchemaPath optionally points at a JSON schema for document metadata.
	SchemaPath string `yaml:"schema_path" toml:"schema_path" json:"schema_path,omitempty"`
}

// MarkdownConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions" toml:"extensions" json:"extensions,omitempty"`
	Sanitize   bool     `yaml:"sanitize" toml:"sanitize" json:"sanitize"`
	HardWraps  bool     `yaml:"hard_wraps" toml:"hard_wraps" json:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode" toml:"safe_mode" json:"safe_mode"`
}

// PermalinkConfig captures URL layout.
type PermalinkConfig struct {
	BasePath string `yaml:"base_path" toml:"base_path" json:"base_path"`
}

// GeneratorConfig captures artifact generation.
type GeneratorConfig struct {
	Enabled          bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	OutputDir        string `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
	BaseURL          string `yaml:"base_url" toml:"base_url" json:"base_url"`
	Title            string `yaml:"title" toml:"title" json:"title"`
	Description      string `yaml:"description" toml:"description" json:"description"`
	Language         string `yaml:"language" toml:"language" json:"language"`
	GenerateFeeds    bool   `yaml:"generate_feeds" toml:"generate_feeds" json:"generate_feeds"`
	GenerateTagFeeds bool   `yaml:"generate_tag_feeds" toml:"generate_tag_feeds" json:"generate_tag_feeds"`
	GenerateSitemap  bool   `yaml:"generate_sitemap" toml:"generate_sitemap" json:"generate_sitemap"`
	GenerateRobots   bool   `yaml:"generate_robots" toml:"generate_robots" json:"generate_robots"`
	GenerateIndex    bool   `yaml:"generate_index" toml:"generate_index" json:"generate_index"`
	Incremental      bool   `yaml:"incremental" toml:"incremental" json:"incremental"`
	MaxFeedItems     int    `yaml:"max_feed_items" toml:"max_feed_items" json:"max_feed_items"`
	// Schedule is a cron expression for periodic rebuilds when the site
	// commands are registered with a cron runner.
	Schedule string `yaml:"schedule" toml:"schedule" json:"schedule,omitempty"`
}

// HTTPConfig captures the read API server.
type HTTPConfig struct {
	Addr            string   `yaml:"addr" toml:"addr" json:"addr"`
	BasePath        string   `yaml:"base_path" toml:"base_path" json:"base_path"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
	DefaultPageSize int      `yaml:"default_page_size" toml:"default_page_size" json:"default_page_size"`
	Metrics         bool     `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// WatchConfig captures watch mode.
type WatchConfig struct {
	Debounce    Duration `yaml:"debounce" toml:"debounce" json:"debounce"`
	ExcludeDirs []string `yaml:"exclude_dirs" toml:"exclude_dirs" json:"exclude_dirs,omitempty"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" toml:"provider" json:"provider"`
	Level     string   `yaml:"level" toml:"level" json:"level"`
	Format    string   `yaml:"format" toml:"format" json:"format"`
	AddSource bool     `yaml:"add_source" toml:"add_source" json:"add_source"`
	Focus     []string `yaml:"focus" toml:"focus" json:"focus,omitempty"`
}

// DefaultConfig returns the defaults used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Content: ContentConfig{
			Dir:           "content",
			Pattern:       "**/*.md",
			ExcerptMarker: "<!--more-->",
			Timezone:      "UTC",
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm"},
		},
		Generator: GeneratorConfig{
			Enabled:         true,
			OutputDir:       "public",
			Language:        "en",
			GenerateFeeds:   true,
			GenerateSitemap: true,
			GenerateIndex:   true,
			MaxFeedItems:    20,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
			DefaultPageSize: 10,
			Metrics:         true,
		},
		Watch: WatchConfig{
			Debounce: Duration(300 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if err := validation.Validate(cfg.Content.Pattern, validation.By(validGlob)); err != nil {
		return fmt.Errorf("%w: %v", ErrContentPatternInvalid, err)
	}
	if cfg.Content.Workers < 0 {
		return ErrContentWorkersInvalid
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if cfg.Generator.Enabled {
		if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
			return ErrGeneratorOutputDirRequired
		}
		if err := validation.Validate(cfg.Generator.BaseURL, validation.By(absoluteURL)); err != nil {
			return fmt.Errorf("%w: %v", ErrGeneratorBaseURLInvalid, err)
		}
	}
	if cfg.Generator.MaxFeedItems < 0 {
		return ErrGeneratorMaxFeedItemsInvalid
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if cfg.Watch.Debounce < 0 {
		return ErrWatchDebounceInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// Location resolves Content.Timezone, defaulting to UTC.
func (cfg Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(cfg.Content.Timezone)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTimezoneInvalid, name)
	}
	return loc, nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
