package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Sentinel errors for the publishing taxonomy. Errors returned by the pipeline
// wrap one of these so callers can match with errors.Is.
var (
	ErrMalformedDocument  = errors.New("malformed document")
	ErrMultipleMarkers    = errors.New("multiple excerpt markers")
	ErrDuplicateID        = errors.New("duplicate document id")
	ErrPermalinkCollision = errors.New("permalink collision")
	ErrPermalinkAssigned  = errors.New("permalink already assigned")
	ErrInvalidPage        = errors.New("invalid page")
)

const (
	TextCodeMalformedDocument  = "MALFORMED_DOCUMENT"
	TextCodeMultipleMarkers    = "MULTIPLE_MARKERS"
	TextCodeDuplicateID        = "DUPLICATE_ID"
	TextCodePermalinkCollision = "PERMALINK_COLLISION"
	TextCodePermalinkAssigned  = "PERMALINK_ASSIGNED"
	TextCodeInvalidPage        = "INVALID_PAGE"
)

// MalformedDocument reports a document whose metadata block is missing,
// unterminated, or carries a field of the wrong type.
func MalformedDocument(path, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "invalid metadata"
	}
	return goerrors.Wrap(ErrMalformedDocument, goerrors.CategoryBadInput, fmt.Sprintf("%s: %s", displayPath(path), reason)).
		WithTextCode(TextCodeMalformedDocument).
		WithMetadata(map[string]any{"path": path})
}

// MultipleMarkers reports a body that contains more than one excerpt marker.
func MultipleMarkers(path string, count int) error {
	return goerrors.Wrap(ErrMultipleMarkers, goerrors.CategoryBadInput,
		fmt.Sprintf("%s: found %d excerpt markers, expected at most one", displayPath(path), count)).
		WithTextCode(TextCodeMultipleMarkers).
		WithMetadata(map[string]any{"path": path, "markers": count})
}

// DuplicateID reports two sources normalising to the same identifier.
func DuplicateID(id, firstPath, secondPath string) error {
	return goerrors.Wrap(ErrDuplicateID, goerrors.CategoryConflict,
		fmt.Sprintf("id %q produced by %s and %s", id, displayPath(firstPath), displayPath(secondPath))).
		WithTextCode(TextCodeDuplicateID).
		WithMetadata(map[string]any{"id": id, "paths": []string{firstPath, secondPath}})
}

// PermalinkCollision reports two documents resolving to the same URL path.
func PermalinkCollision(permalink, firstID, secondID string) error {
	return goerrors.Wrap(ErrPermalinkCollision, goerrors.CategoryConflict,
		fmt.Sprintf("%s claimed by %q and %q", permalink, firstID, secondID)).
		WithTextCode(TextCodePermalinkCollision).
		WithMetadata(map[string]any{"permalink": permalink, "ids": []string{firstID, secondID}})
}

// PermalinkAssigned reports a second permalink assignment for a document.
func PermalinkAssigned(id, current string) error {
	return goerrors.Wrap(ErrPermalinkAssigned, goerrors.CategoryInternal,
		fmt.Sprintf("document %q already has permalink %s", id, current)).
		WithTextCode(TextCodePermalinkAssigned)
}

// InvalidPage reports a page request with a number or size below one.
func InvalidPage(number, size int) error {
	return goerrors.Wrap(ErrInvalidPage, goerrors.CategoryValidation,
		fmt.Sprintf("page number and size must be >= 1 (got number=%d size=%d)", number, size)).
		WithTextCode(TextCodeInvalidPage).
		WithCode(http.StatusBadRequest).
		WithMetadata(map[string]any{"number": number, "size": size})
}

// IsBuildFatal reports whether err belongs to the build-time taxonomy that
// aborts a whole ingestion pass.
func IsBuildFatal(err error) bool {
	return errors.Is(err, ErrMalformedDocument) ||
		errors.Is(err, ErrMultipleMarkers) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrPermalinkCollision)
}

func displayPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "<inline>"
	}
	return path
}
