package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-folio/internal/domain"
)

type testMessage struct{}

func (testMessage) Type() string { return "folio.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "folio.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var got []TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return context.Canceled
	},
		WithOperation[testMessage]("site.build"),
		WithMessageFields(func(testMessage) map[string]any { return map[string]any{"dry_run": true} }),
		WithTelemetry(DefaultTelemetry[testMessage](func(info TelemetryInfo) {
			got = append(got, info)
		})),
	)

	err := h.Execute(context.Background(), testMessage{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one telemetry callback, got %d", len(got))
	}
	info := got[0]
	if info.Status != TelemetryStatusContextError {
		t.Fatalf("expected context error status, got %s", info.Status)
	}
	if info.Command != "folio.test.message" || info.Operation != "site.build" {
		t.Fatalf("unexpected telemetry identity: %+v", info)
	}
	if info.Fields["dry_run"] != true {
		t.Fatalf("expected message fields in telemetry, got %#v", info.Fields)
	}
}

func TestHandlerKeepsDomainErrorCategory(t *testing.T) {
	wrapped := domain.DuplicateID("posts/a", "posts/a.md", "posts/A.md")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return wrapped
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryConflict) {
		t.Fatalf("expected conflict category to survive, got %v", err)
	}
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected sentinel to survive, got %v", err)
	}
}
