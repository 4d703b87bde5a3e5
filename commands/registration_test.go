package commands

import (
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-folio"
	sitecmd "github.com/goliatone/go-folio/internal/commands/site"
	"github.com/goliatone/go-folio/internal/logging/console"
)

func newTestSite(t *testing.T, schedule string) *folio.Site {
	t.Helper()
	cfg := folio.DefaultConfig()
	cfg.Generator.OutputDir = t.TempDir()
	cfg.Generator.Schedule = schedule

	content := fstest.MapFS{
		"posts/hello.md": &fstest.MapFile{Data: []byte("---\ntitle: Hello\ndate: 2022-10-08\n---\nHello.\n")},
	}
	site, err := folio.New(cfg,
		folio.WithContentFS(content),
		folio.WithLoggerProvider(console.NewProvider(console.Options{Writer: io.Discard})),
		folio.WithoutMetrics(),
	)
	if err != nil {
		t.Fatalf("new site: %v", err)
	}
	return site
}

func TestRegisterSiteCommandsBuildsHandlers(t *testing.T) {
	registry := &recordingRegistry{}
	dispatch := &recordingDispatcher{}
	cron := &recordingCron{}

	result, err := RegisterSiteCommands(newTestSite(t, "@hourly"), RegistrationOptions{
		Registry:      registry,
		Dispatcher:    dispatch,
		CronRegistrar: cron.Registrar(),
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) != 1 {
		t.Fatalf("expected one handler, got %d", len(result.Handlers))
	}
	if _, ok := result.Handlers[0].(*sitecmd.BuildSiteHandler); !ok {
		t.Fatalf("expected build site handler, got %T", result.Handlers[0])
	}
	if len(registry.handlers) != 1 {
		t.Fatalf("expected registry to record the handler, got %d", len(registry.handlers))
	}
	if len(result.Subscriptions) != 1 {
		t.Fatalf("expected a dispatcher subscription, got %d", len(result.Subscriptions))
	}
	if len(cron.registrations) != 1 {
		t.Fatalf("expected a cron registration, got %d", len(cron.registrations))
	}
	if got := cron.registrations[0].config.Expression; got != "@hourly" {
		t.Fatalf("expected schedule expression, got %q", got)
	}
	if cron.registrations[0].handler == nil {
		t.Fatal("expected cron handler func")
	}
	if err := cron.registrations[0].handler(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}

	result.Unsubscribe()
	if dispatch.unsubscribed != 1 {
		t.Fatalf("expected subscription to be torn down, got %d", dispatch.unsubscribed)
	}
}

func TestRegisterSiteCommandsSkipsCronWithoutSchedule(t *testing.T) {
	cron := &recordingCron{}

	_, err := RegisterSiteCommands(newTestSite(t, ""), RegistrationOptions{CronRegistrar: cron.Registrar()})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(cron.registrations) != 0 {
		t.Fatalf("expected no cron registration, got %d", len(cron.registrations))
	}
}

func TestRegisterSiteCommandsJoinsErrors(t *testing.T) {
	failure := errors.New("registry down")

	result, err := RegisterSiteCommands(newTestSite(t, ""), RegistrationOptions{
		Registry: &recordingRegistry{err: failure},
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected registry error, got %v", err)
	}
	if len(result.Handlers) != 1 {
		t.Fatalf("handlers should still be returned, got %d", len(result.Handlers))
	}
}

func TestRegisterSiteCommandsRequiresSite(t *testing.T) {
	if _, err := RegisterSiteCommands(nil, RegistrationOptions{}); err == nil {
		t.Fatal("expected error for nil site")
	}
}

func TestGlobalDispatcherRoutesBuildCommand(t *testing.T) {
	site := newTestSite(t, "")

	result, err := RegisterSiteCommands(site, RegistrationOptions{Dispatcher: GlobalDispatcher{}})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	t.Cleanup(result.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), sitecmd.BuildSiteCommand{DryRun: true}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if site.Current() == nil {
		t.Fatal("expected dispatched build to publish a snapshot")
	}
}

func TestGlobalDispatcherRejectsUnknownHandlers(t *testing.T) {
	if _, err := (GlobalDispatcher{}).RegisterCommand(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported handler")
	}
}

type recordingRegistry struct {
	handlers []any
	err      error
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return r.err
	}
	r.handlers = append(r.handlers, handler)
	return nil
}

type recordingDispatcher struct {
	subscriptions []any
	unsubscribed  int
}

func (d *recordingDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	d.subscriptions = append(d.subscriptions, handler)
	return subscriptionFunc(func() { d.unsubscribed++ }), nil
}

type subscriptionFunc func()

func (f subscriptionFunc) Unsubscribe() { f() }

type cronRegistration struct {
	config  command.HandlerConfig
	handler func() error
}

type recordingCron struct {
	registrations []cronRegistration
}

func (c *recordingCron) Registrar() CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		var fn func() error
		if h, ok := handler.(func() error); ok {
			fn = h
		}
		c.registrations = append(c.registrations, cronRegistration{
			config:  cfg,
			handler: fn,
		})
		return nil
	}
}
