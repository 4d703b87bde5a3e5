package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-folio/internal/domain"
)

// MetadataValidator checks the raw metadata map of a document, typically
// against a JSON schema supplied by the site author.
type MetadataValidator interface {
	Validate(meta map[string]any) error
}

// ParserConfig configures how metadata blocks are decoded.
type ParserConfig struct {
	// Location is used for dates that carry no zone. Defaults to UTC.
	Location *time.Location
	// Validator optionally validates the raw metadata map.
	Validator MetadataValidator
}

// Parser splits raw documents into typed metadata and a body.
type Parser struct {
	location  *time.Location
	validator MetadataValidator
}

// NewParser constructs a Parser. A zero config parses dates in UTC and skips
// schema validation.
func NewParser(cfg ParserConfig) *Parser {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{location: loc, validator: cfg.Validator}
}

var metadataFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("---yaml", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
	frontmatter.NewFormat("---toml", "---", toml.Unmarshal),
	frontmatter.NewFormat(";;;", ";;;", json.Unmarshal),
	frontmatter.NewFormat("---json", "---", json.Unmarshal),
}

const (
	keyTitle     = "title"
	keyID        = "id"
	keySlug      = "slug"
	keyPermalink = "permalink"
	keySummary   = "summary"
	keyLayout    = "layout"
	keyDate      = "date"
	keyUpdated   = "updated"
	keyTags      = "tags"
	keyDraft     = "draft"
)

var dateAliases = []string{keyDate, "publishedAt", "published_at", "published"}
var updatedAliases = []string{keyUpdated, "updatedAt", "updated_at", "lastmod"}

// Parse returns the metadata and body of source. It fails with
// domain.ErrMalformedDocument when the metadata block is absent,
// unterminated, undecodable, or carries a field of the wrong type.
func (p *Parser) Parse(path string, source []byte) (domain.Metadata, []byte, error) {
	raw := map[string]any{}
	body, err := frontmatter.MustParse(bytes.NewReader(source), &raw, metadataFormats...)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			if hasOpeningDelimiter(source) {
				return domain.Metadata{}, nil, domain.MalformedDocument(path, "metadata block is not terminated")
			}
			return domain.Metadata{}, nil, domain.MalformedDocument(path, "metadata block is missing")
		}
		return domain.Metadata{}, nil, domain.MalformedDocument(path, fmt.Sprintf("decode metadata: %v", err))
	}

	meta, err := p.decode(raw)
	if err != nil {
		return domain.Metadata{}, nil, domain.MalformedDocument(path, err.Error())
	}
	if p.validator != nil {
		if err := p.validator.Validate(raw); err != nil {
			return domain.Metadata{}, nil, domain.MalformedDocument(path, fmt.Sprintf("metadata schema: %v", err))
		}
	}
	return meta, body, nil
}

// ParseDocument parses source with a default Parser.
func ParseDocument(path string, source []byte) (domain.Metadata, []byte, error) {
	return NewParser(ParserConfig{}).Parse(path, source)
}

type requiredFields struct {
	Title string
}

func (f requiredFields) validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required.Error("title is required")),
	)
}

func (p *Parser) decode(raw map[string]any) (domain.Metadata, error) {
	var meta domain.Metadata
	var err error

	fields := requiredFields{}
	if fields.Title, err = stringField(raw, keyTitle); err != nil {
		return meta, err
	}
	fields.Title = strings.TrimSpace(fields.Title)
	if err := fields.validate(); err != nil {
		return meta, err
	}
	meta.Title = fields.Title

	// Any other layout value names a template; it stays in Params and the
	// kind is derived from the date.
	layout, err := stringField(raw, keyLayout)
	if err != nil {
		return meta, err
	}
	template := ""
	if kind, ok := domain.ParseLayoutKind(layout); ok {
		meta.Layout = kind
	} else {
		template = strings.TrimSpace(layout)
	}

	if meta.ID, err = stringField(raw, keyID); err != nil {
		return meta, err
	}
	if meta.Slug, err = stringField(raw, keySlug); err != nil {
		return meta, err
	}
	if meta.Permalink, err = stringField(raw, keyPermalink); err != nil {
		return meta, err
	}
	if meta.Summary, err = stringField(raw, keySummary); err != nil {
		return meta, err
	}
	if meta.PublishedAt, err = p.timeField(raw, dateAliases); err != nil {
		return meta, err
	}
	if meta.UpdatedAt, err = p.timeField(raw, updatedAliases); err != nil {
		return meta, err
	}
	if meta.Tags, err = tagsField(raw); err != nil {
		return meta, err
	}
	if meta.Draft, err = boolField(raw, keyDraft); err != nil {
		return meta, err
	}

	if meta.Layout == "" {
		meta.Layout = domain.LayoutPage
		if meta.HasDate() {
			meta.Layout = domain.LayoutPost
		}
	}
	if meta.Layout == domain.LayoutPost && !meta.HasDate() {
		return meta, errors.New("posts require a publication date")
	}

	meta.Params = passthrough(raw)
	if template != "" {
		meta.Params[keyLayout] = template
	}
	return meta, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, value)
	}
	return str, nil
}

func boolField(raw map[string]any, key string) (bool, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return false, nil
	}
	flag, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, value)
	}
	return flag, nil
}

func (p *Parser) timeField(raw map[string]any, aliases []string) (time.Time, error) {
	for _, key := range aliases {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		ts, err := p.coerceTime(value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", key, err)
		}
		return ts, nil
	}
	return time.Time{}, nil
}

func (p *Parser) coerceTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return p.parseTime(v)
	case fmt.Stringer:
		// go-toml local dates and datetimes
		return p.parseTime(v.String())
	default:
		return time.Time{}, fmt.Errorf("expected a date, got %T", value)
	}
}

func (p *Parser) parseTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("date is empty")
	}
	ts, err := dateparse.ParseIn(trimmed, p.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", trimmed, err)
	}
	return ts, nil
}

func tagsField(raw map[string]any) ([]string, error) {
	value, ok := raw[keyTags]
	if !ok || value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		return splitTags(v), nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for idx, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags[%d] must be a string, got %T", idx, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tags must be a list of strings, got %T", value)
	}
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var knownKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	for _, key := range []string{keyTitle, keyID, keySlug, keyPermalink, keySummary, keyLayout, keyTags, keyDraft} {
		keys[key] = struct{}{}
	}
	for _, key := range append(append([]string{}, dateAliases...), updatedAliases...) {
		keys[key] = struct{}{}
	}
	return keys
}()

func passthrough(raw map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range raw {
		if _, known := knownKeys[key]; known {
			continue
		}
		out[key] = value
	}
	return out
}

func hasOpeningDelimiter(source []byte) bool {
	for _, line := range bytes.Split(source, []byte("\n")) {
		trimmed := string(bytes.TrimSpace(line))
		if trimmed == "" {
			continue
		}
		for _, format := range metadataFormats {
			if trimmed == format.Start {
				return true
			}
		}
		return false
	}
	return false
}
