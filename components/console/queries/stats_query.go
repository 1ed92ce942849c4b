package queries

import (
	"context"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type snapshotService interface {
	Refresh(ctx context.Context) error
	Snapshot() console.Snapshot
}

// StatsInput controls whether the snapshot is reloaded before reading.
type StatsInput struct {
	Refresh bool `json:"refresh"`
}

// StatsQuery returns the current snapshot, aggregates included.
type StatsQuery struct {
	service snapshotService
}

// NewStatsQuery builds the query.
func NewStatsQuery(service snapshotService) *StatsQuery {
	return &StatsQuery{service: service}
}

var _ gocommand.Querier[StatsInput, console.Snapshot] = (*StatsQuery)(nil)

// Query returns the snapshot. A users failure is returned; an analytics
// failure only shows up as Snapshot.AnalyticsStale.
func (q *StatsQuery) Query(ctx context.Context, msg StatsInput) (console.Snapshot, error) {
	if msg.Refresh {
		if err := q.service.Refresh(ctx); err != nil {
			return q.service.Snapshot(), err
		}
	}
	return q.service.Snapshot(), nil
}
