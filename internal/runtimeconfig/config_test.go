package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/goliatone/go-folio/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_AllowsDisabledGeneratorWithoutOutput(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.Enabled = false
	cfg.Generator.OutputDir = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"content dir", func(c *runtimeconfig.Config) { c.Content.Dir = " " }, runtimeconfig.ErrContentDirRequired},
		{"pattern", func(c *runtimeconfig.Config) { c.Content.Pattern = "posts/[" }, runtimeconfig.ErrContentPatternInvalid},
		{"workers", func(c *runtimeconfig.Config) { c.Content.Workers = -1 }, runtimeconfig.ErrContentWorkersInvalid},
		{"timezone", func(c *runtimeconfig.Config) { c.Content.Timezone = "Mars/Olympus" }, runtimeconfig.ErrTimezoneInvalid},
		{"output dir", func(c *runtimeconfig.Config) { c.Generator.OutputDir = " " }, runtimeconfig.ErrGeneratorOutputDirRequired},
		{"base url", func(c *runtimeconfig.Config) { c.Generator.BaseURL = "example.com/blog" }, runtimeconfig.ErrGeneratorBaseURLInvalid},
		{"feed items", func(c *runtimeconfig.Config) { c.Generator.MaxFeedItems = -5 }, runtimeconfig.ErrGeneratorMaxFeedItemsInvalid},
		{"http addr", func(c *runtimeconfig.Config) { c.HTTP.Addr = "" }, runtimeconfig.ErrHTTPAddrRequired},
		{"debounce", func(c *runtimeconfig.Config) { c.Watch.Debounce = -1 }, runtimeconfig.ErrWatchDebounceInvalid},
		{"provider missing", func(c *runtimeconfig.Config) { c.Logging.Provider = "" }, runtimeconfig.ErrLoggingProviderRequired},
		{"provider unknown", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigLocation(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC default, got %v (%v)", loc, err)
	}

	cfg.Content.Timezone = "Europe/Madrid"
	loc, err = cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Europe/Madrid" {
		t.Fatalf("unexpected location %s", loc)
	}
}

const yamlConfig = `
content:
  dir: site/content
  include_drafts: true
generator:
  base_url: https://blog.example.com
  generate_tag_feeds: true
  max_feed_items: 5
watch:
  debounce: 750ms
logging:
  provider: gologger
  level: debug
  format: json
`

const tomlConfig = `
[content]
dir = "site/content"
include_drafts = true

[generator]
base_url = "https://blog.example.com"
generate_tag_feeds = true
max_feed_items = 5

[watch]
debounce = "750ms"

[logging]
provider = "gologger"
level = "debug"
format = "json"
`

func TestLoad_YAMLAndTOMLAgree(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"folio.yaml": yamlConfig,
		"folio.toml": tomlConfig,
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			cfg, err := runtimeconfig.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Content.Dir != "site/content" || !cfg.Content.IncludeDrafts {
				t.Fatalf("content section not decoded: %+v", cfg.Content)
			}
			if cfg.Content.Pattern != "**/*.md" {
				t.Fatalf("defaults should survive partial files, got pattern %q", cfg.Content.Pattern)
			}
			if cfg.Generator.MaxFeedItems != 5 || !cfg.Generator.GenerateTagFeeds || !cfg.Generator.GenerateFeeds {
				t.Fatalf("generator section not merged: %+v", cfg.Generator)
			}
			if cfg.Watch.Debounce.Std() != 750*time.Millisecond {
				t.Fatalf("debounce not decoded, got %v", cfg.Watch.Debounce.Std())
			}
			if cfg.Logging.Provider != "gologger" || cfg.Logging.Format != "json" {
				t.Fatalf("logging section not decoded: %+v", cfg.Logging)
			}
		})
	}
}

func TestDecode_RejectsUnknownFieldsAndFormats(t *testing.T) {
	if _, err := runtimeconfig.Decode(".yaml", []byte("content:\n  directory: x\n")); err == nil {
		t.Fatal("expected unknown yaml field to be rejected")
	}
	if _, err := runtimeconfig.Decode(".toml", []byte("[content]\ndirectory = \"x\"\n")); err == nil {
		t.Fatal("expected unknown toml field to be rejected")
	}
	if _, err := runtimeconfig.Decode(".ini", nil); !errors.Is(err, runtimeconfig.ErrConfigFormatUnsupported) {
		t.Fatalf("expected ErrConfigFormatUnsupported, got %v", err)
	}
}

func TestDecode_EmptyYAMLUsesDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Decode(".yml", nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected defaults, got %+v", cfg.HTTP)
	}
}

func TestDecode_ValidatesResult(t *testing.T) {
	_, err := runtimeconfig.Decode(".yaml", []byte("logging:\n  provider: syslog\n"))
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}
