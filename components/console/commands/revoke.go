package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type revokeService interface {
	RevokeAccess(ctx context.Context, revocation console.AccessRevocation) error
}

// RevokeAccessCommand wraps Gateway.RevokeAccess.
type RevokeAccessCommand struct {
	service   revokeService
	telemetry Telemetry
}

// NewRevokeAccessCommand builds a command instance.
func NewRevokeAccessCommand(service revokeService, telemetry Telemetry) *RevokeAccessCommand {
	return &RevokeAccessCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[console.AccessRevocation] = (*RevokeAccessCommand)(nil)

// Execute disables access for msg.Target.
func (c *RevokeAccessCommand) Execute(ctx context.Context, msg console.AccessRevocation) error {
	if c.service == nil {
		return errors.New("revoke command requires service")
	}
	msg.Target = strings.TrimSpace(msg.Target)
	if msg.Target == "" {
		return &console.ValidationError{Field: "userId", Message: "user id is required"}
	}
	if err := c.service.RevokeAccess(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, eventAccessRevoke, map[string]any{"target": msg.Target})
	return nil
}
