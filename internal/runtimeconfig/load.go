package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrConfigFormatUnsupported = errors.New("folio config: unsupported file format")

// Load reads path over DefaultConfig and validates the result. The format is
// chosen by extension: .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("folio config: read %s: %w", path, err)
	}
	cfg, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("folio config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data in the format named by ext on top of DefaultConfig.
func Decode(ext string, data []byte) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case "toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrConfigFormatUnsupported, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Duration is a time.Duration that decodes from strings such as "300ms".
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

func validGlob(value any) error {
	pattern, _ := value.(string)
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return validation.NewError("folio.config.pattern_invalid", "must be a valid glob pattern")
	}
	return nil
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := validation.Validate(raw, is.URL); err != nil {
		return err
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return validation.NewError("folio.config.url_not_absolute", "must include a scheme and host")
	}
	return nil
}
