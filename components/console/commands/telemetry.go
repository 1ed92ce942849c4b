package commands

import (
	"context"

	"github.com/goliatone/go-access-console/components/console"
)

// Telemetry is the recorder commands report successful remote calls to.
type Telemetry = console.Telemetry

var (
	eventAccessAllow    = console.EventName("console", "access", "allow")
	eventAccessRevoke   = console.EventName("console", "access", "revoke")
	eventAccessUpdate   = console.EventName("console", "access", "update")
	eventUserRemove     = console.EventName("console", "user", "remove")
	eventInviteGenerate = console.EventName("console", "invite", "generate")
)

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
