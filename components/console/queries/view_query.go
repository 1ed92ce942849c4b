package queries

import (
	"context"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type viewService interface {
	Refresh(ctx context.Context) error
	ResolveView(selector string) console.ViewResult
}

// ViewInput selects the user subset. Refresh reloads the snapshot first.
type ViewInput struct {
	Selector string `json:"view"`
	Refresh  bool   `json:"refresh"`
}

// ViewQuery resolves a filtered user view from the snapshot.
type ViewQuery struct {
	service viewService
}

// NewViewQuery builds the query.
func NewViewQuery(service viewService) *ViewQuery {
	return &ViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, console.ViewResult] = (*ViewQuery)(nil)

// Query resolves the view for msg.Selector.
func (q *ViewQuery) Query(ctx context.Context, msg ViewInput) (console.ViewResult, error) {
	if msg.Refresh {
		if err := q.service.Refresh(ctx); err != nil {
			return console.ViewResult{}, err
		}
	}
	return q.service.ResolveView(msg.Selector), nil
}
