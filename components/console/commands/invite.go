package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type inviteService interface {
	CreateInvite(ctx context.Context, req console.InviteRequest) (console.Invite, error)
}

// GenerateInviteQuery requests a new invite link. It is a query because the
// caller needs the generated link back.
type GenerateInviteQuery struct {
	service   inviteService
	telemetry Telemetry
	now       func() time.Time
}

// NewGenerateInviteQuery builds the query.
func NewGenerateInviteQuery(service inviteService, telemetry Telemetry) *GenerateInviteQuery {
	return &GenerateInviteQuery{service: service, telemetry: normalizeTelemetry(telemetry), now: time.Now}
}

var _ gocommand.Querier[console.InviteRequest, console.Invite] = (*GenerateInviteQuery)(nil)

// Query generates the link.
func (q *GenerateInviteQuery) Query(ctx context.Context, msg console.InviteRequest) (console.Invite, error) {
	if q.service == nil {
		return console.Invite{}, errors.New("invite query requires service")
	}
	if msg.Days < 1 {
		return console.Invite{}, &console.ValidationError{Field: "days", Message: "days must be at least 1"}
	}
	msg.Name = strings.TrimSpace(msg.Name)
	invite, err := q.service.CreateInvite(ctx, msg)
	if err != nil {
		return console.Invite{}, err
	}
	if invite.Link == "" {
		return console.Invite{}, errors.New("invite query: remote returned an empty link")
	}
	if invite.Days == 0 {
		invite.Days = msg.Days
	}
	if invite.Name == "" {
		invite.Name = msg.Name
	}
	if invite.IssuedAt.IsZero() {
		invite.IssuedAt = q.now()
	}
	q.telemetry.Record(ctx, eventInviteGenerate, map[string]any{
		"days": invite.Days,
		"name": invite.Name,
	})
	return invite, nil
}
