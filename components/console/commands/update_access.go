package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type updateAccessService interface {
	UpdateAccess(ctx context.Context, update console.AccessUpdate) error
}

// UpdateAccessCommand moves the end of a user's access window.
type UpdateAccessCommand struct {
	service   updateAccessService
	telemetry Telemetry
}

// NewUpdateAccessCommand builds a command instance.
func NewUpdateAccessCommand(service updateAccessService, telemetry Telemetry) *UpdateAccessCommand {
	return &UpdateAccessCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[console.AccessUpdate] = (*UpdateAccessCommand)(nil)

// Execute updates the access window.
func (c *UpdateAccessCommand) Execute(ctx context.Context, msg console.AccessUpdate) error {
	if c.service == nil {
		return errors.New("update access command requires service")
	}
	msg.UserID = strings.TrimSpace(msg.UserID)
	if msg.UserID == "" {
		return &console.ValidationError{Field: "userId", Message: "user id is required"}
	}
	if msg.EndDate.IsZero() {
		return &console.ValidationError{Field: "endDate", Message: "end date is required"}
	}
	if err := c.service.UpdateAccess(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, eventAccessUpdate, map[string]any{
		"user_id":  msg.UserID,
		"end_date": msg.EndDate.Format(console.DateLayout),
	})
	return nil
}
