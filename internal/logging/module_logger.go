package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-folio/pkg/interfaces"
)

const (
	rootModule       = "folio"
	markdownModule   = "folio.markdown"
	collectionModule = "folio.collection"
	pipelineModule   = "folio.pipeline"
	generatorModule  = "folio.generator"
	httpModule       = "folio.http"
)

// CommandsModule prefixes the loggers of command handlers.
const CommandsModule = "folio.commands"

const (
	fieldSourcePath = "source_path"
	fieldDocumentID = "document_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module name is attached as
// a structured field so entries can be filtered per stage.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}
	return logger
}

// MarkdownLogger returns the logger used while loading and parsing sources.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// CollectionLogger returns the logger used by the collection builder.
func CollectionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, collectionModule)
}

// PipelineLogger returns the logger used by builds, the publisher and the watcher.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pipelineModule)
}

// GeneratorLogger returns the logger used when writing artifacts.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// HTTPLogger returns the logger used by the read API.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger returns the logger used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, CommandsModule)
}

// WithDocumentContext adds source path and document id fields. Empty values
// are skipped.
func WithDocumentContext(logger interfaces.Logger, sourcePath, id string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(sourcePath); trimmed != "" {
		fields[fieldSourcePath] = trimmed
	}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldDocumentID] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
