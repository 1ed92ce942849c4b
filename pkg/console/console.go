package console

import (
	core "github.com/goliatone/go-access-console/components/console"
	"github.com/goliatone/go-access-console/components/console/commands"
)

// Service exposes the underlying components/console.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// New builds a Service whose actions run through the gateway-backed commands.
// Commands already set in opts are kept.
func New(gateway core.Gateway, opts Options) *Service {
	opts.Gateway = gateway
	opts.Commands = GatewayCommands(gateway, opts.Telemetry, opts.Commands)
	return core.NewService(opts)
}

// GatewayCommands fills the unset executors of base with the commands package
// implementations bound to gateway.
func GatewayCommands(gateway core.Gateway, telemetry core.Telemetry, base core.Commands) core.Commands {
	if gateway == nil {
		return base
	}
	if base.Allow == nil {
		base.Allow = commands.NewAllowAccessCommand(gateway, telemetry)
	}
	if base.Revoke == nil {
		base.Revoke = commands.NewRevokeAccessCommand(gateway, telemetry)
	}
	if base.Remove == nil {
		base.Remove = commands.NewRemoveUserCommand(gateway, telemetry)
	}
	if base.Update == nil {
		base.Update = commands.NewUpdateAccessCommand(gateway, telemetry)
	}
	if base.Invite == nil {
		base.Invite = commands.NewGenerateInviteQuery(gateway, telemetry)
	}
	return base
}
