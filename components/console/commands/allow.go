package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type allowService interface {
	AllowAccess(ctx context.Context, grant console.AccessGrant) error
}

// AllowAccessCommand grants a dated access window and records telemetry.
type AllowAccessCommand struct {
	service   allowService
	telemetry Telemetry
}

// NewAllowAccessCommand builds a command instance.
func NewAllowAccessCommand(service allowService, telemetry Telemetry) *AllowAccessCommand {
	return &AllowAccessCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[console.AccessGrant] = (*AllowAccessCommand)(nil)

// Execute grants access to msg.Target.
func (c *AllowAccessCommand) Execute(ctx context.Context, msg console.AccessGrant) error {
	if c.service == nil {
		return errors.New("allow command requires service")
	}
	msg.Target = strings.TrimSpace(msg.Target)
	if msg.Target == "" {
		return &console.ValidationError{Field: "target", Message: "target is required"}
	}
	if msg.EndDate.Before(msg.StartDate) {
		return &console.ValidationError{Field: "endDate", Message: "end date precedes start date"}
	}
	if err := c.service.AllowAccess(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, eventAccessAllow, map[string]any{
		"target":     msg.Target,
		"start_date": msg.StartDate.Format(console.DateLayout),
		"end_date":   msg.EndDate.Format(console.DateLayout),
	})
	return nil
}
