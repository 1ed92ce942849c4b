package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type removeService interface {
	RemoveUser(ctx context.Context, removal console.UserRemoval) error
}

// RemoveUserCommand deletes users through the gateway and records telemetry
// for auditing purposes.
type RemoveUserCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemoveUserCommand builds a command instance.
func NewRemoveUserCommand(service removeService, telemetry Telemetry) *RemoveUserCommand {
	return &RemoveUserCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[console.UserRemoval] = (*RemoveUserCommand)(nil)

// Execute removes the user.
func (c *RemoveUserCommand) Execute(ctx context.Context, msg console.UserRemoval) error {
	if c.service == nil {
		return errors.New("remove command requires service")
	}
	msg.UserID = strings.TrimSpace(msg.UserID)
	if msg.UserID == "" {
		return &console.ValidationError{Field: "userId", Message: "user id is required"}
	}
	if err := c.service.RemoveUser(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, eventUserRemove, map[string]any{"user_id": msg.UserID})
	return nil
}
