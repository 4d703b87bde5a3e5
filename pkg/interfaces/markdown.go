package interfaces

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations must be safe for concurrent use so a single instance can
// serve a whole ingestion pass.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string `yaml:"extensions" toml:"extensions" json:"extensions,omitempty"`
	Sanitize   bool     `yaml:"sanitize" toml:"sanitize" json:"sanitize,omitempty"`
	HardWraps  bool     `yaml:"hard_wraps" toml:"hard_wraps" json:"hard_wraps,omitempty"`
	SafeMode   bool     `yaml:"safe_mode" toml:"safe_mode" json:"safe_mode,omitempty"`
}
