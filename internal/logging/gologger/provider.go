package gologger

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

// Config mirrors the logging section of the runtime configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	// Focus restricts output to the named module loggers, e.g. "folio.pipeline".
	Focus []string
}

// Provider hands out go-logger child loggers, one per folio module.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider builds the root go-logger instance. Format is one of json
// (default), console or pretty.
func NewProvider(cfg Config) (*Provider, error) {
	var options []glog.Option

	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok && level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch format := strings.ToLower(strings.TrimSpace(cfg.Format)); format {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("gologger: unsupported format %q", cfg.Format)
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	var focus []string
	for _, name := range cfg.Focus {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			focus = append(focus, trimmed)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

var levels = map[string]string{
	"":        "",
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// GetLogger implements interfaces.LoggerProvider.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return adapt(p.root)
	}
	return adapt(p.root.GetLogger(name))
}

func adapt(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

func (a *adapter) Trace(msg string, args ...any) { a.inner.Trace(msg, args...) }
func (a *adapter) Debug(msg string, args ...any) { a.inner.Debug(msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.inner.Info(msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.inner.Warn(msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.inner.Error(msg, args...) }
func (a *adapter) Fatal(msg string, args ...any) { a.inner.Fatal(msg, args...) }

// WithFields attaches fields when the wrapped logger supports them and is a
// no-op otherwise.
func (a *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return a
	}
	if with, ok := a.inner.(glog.FieldsLogger); ok {
		return adapt(with.WithFields(maps.Clone(fields)))
	}
	return a
}

func (a *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return a
	}
	return adapt(a.inner.WithContext(ctx))
}
