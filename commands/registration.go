package commands

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-folio"
	sitecmd "github.com/goliatone/go-folio/internal/commands/site"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry      CommandRegistry
	Dispatcher    CommandDispatcher
	CronRegistrar CronRegistrar
}

// RegistrationResult captures the registered handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// Unsubscribe tears down every dispatcher subscription.
func (r *RegistrationResult) Unsubscribe() {
	if r == nil {
		return
	}
	for _, sub := range r.Subscriptions {
		sub.Unsubscribe()
	}
	r.Subscriptions = nil
}

var errSiteRequired = errors.New("commands: site is required")

// RegisterSiteCommands registers the command handlers of site with the
// provided registry, dispatcher and cron integrations. Handlers without a
// cron expression are not scheduled.
func RegisterSiteCommands(site *folio.Site, opts RegistrationOptions) (*RegistrationResult, error) {
	if site == nil {
		return &RegistrationResult{}, errSiteRequired
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok && strings.TrimSpace(cronCmd.CronOptions().Expression) != "" {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	register(site.BuildSiteHandler())

	return result, errs
}

// GlobalDispatcher subscribes folio handlers with the process-wide
// go-command dispatcher.
type GlobalDispatcher struct{}

var errUnsupportedHandler = errors.New("commands: unsupported handler type")

// RegisterCommand satisfies CommandDispatcher.
func (GlobalDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	switch h := handler.(type) {
	case *sitecmd.BuildSiteHandler:
		return dispatcher.SubscribeCommand(h), nil
	default:
		return nil, errUnsupportedHandler
	}
}
