package folio

import "github.com/goliatone/go-folio/internal/runtimeconfig"

var (
	ErrContentDirRequired           = runtimeconfig.ErrContentDirRequired
	ErrContentPatternInvalid        = runtimeconfig.ErrContentPatternInvalid
	ErrContentWorkersInvalid        = runtimeconfig.ErrContentWorkersInvalid
	ErrTimezoneInvalid              = runtimeconfig.ErrTimezoneInvalid
	ErrGeneratorOutputDirRequired   = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorBaseURLInvalid      = runtimeconfig.ErrGeneratorBaseURLInvalid
	ErrGeneratorMaxFeedItemsInvalid = runtimeconfig.ErrGeneratorMaxFeedItemsInvalid
	ErrHTTPAddrRequired             = runtimeconfig.ErrHTTPAddrRequired
	ErrWatchDebounceInvalid         = runtimeconfig.ErrWatchDebounceInvalid
	ErrLoggingProviderRequired      = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown       = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid          = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid         = runtimeconfig.ErrLoggingFormatInvalid
	ErrConfigFormatUnsupported      = runtimeconfig.ErrConfigFormatUnsupported
)

type (
	Config          = runtimeconfig.Config
	ContentConfig   = runtimeconfig.ContentConfig
	MarkdownConfig  = runtimeconfig.MarkdownConfig
	PermalinkConfig = runtimeconfig.PermalinkConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	HTTPConfig      = runtimeconfig.HTTPConfig
	WatchConfig     = runtimeconfig.WatchConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	Duration        = runtimeconfig.Duration
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML or TOML configuration file, selected by extension,
// over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
