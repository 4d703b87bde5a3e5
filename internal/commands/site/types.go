package sitecmd

import (
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/generator"
)

const buildSiteMessageType = "folio.site.build"

// ResultCallback receives the outcome of a build. It is invoked synchronously
// from the handler, also when generation fails after a successful pass.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a BuildSiteCommand.
type ResultEnvelope struct {
	Snapshot *collection.Snapshot
	Result   *generator.Result
	Metadata map[string]any
}

// BuildSiteCommand runs an ingestion pass and, unless DryRun is set, writes
// the artifacts for the resulting snapshot.
type BuildSiteCommand struct {
	// OutputDir overrides the configured artifact directory.
	OutputDir      string         `json:"output_dir,omitempty"`
	IncludeDrafts  bool           `json:"include_drafts,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate rejects output directories that would write into a filesystem
// root.
func (m BuildSiteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OutputDir, validation.By(validateOutputDir)),
	)
}

func validateOutputDir(value any) error {
	dir, _ := value.(string)
	if dir == "" {
		return nil
	}
	if strings.TrimSpace(dir) == "" {
		return validation.NewError("folio.site.build.output_dir_blank", "output_dir must not be blank")
	}
	cleaned := filepath.Clean(dir)
	if cleaned == string(filepath.Separator) || cleaned == filepath.VolumeName(cleaned)+string(filepath.Separator) {
		return validation.NewError("folio.site.build.output_dir_root", "output_dir must not be a filesystem root")
	}
	return nil
}
