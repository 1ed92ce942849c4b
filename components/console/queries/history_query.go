package queries

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-access-console/components/console"
	gocommand "github.com/goliatone/go-command"
)

type historyService interface {
	OpenHistory(ctx context.Context, userID string) console.HistoryView
}

// HistoryInput identifies the user whose ledger is loaded.
type HistoryInput struct {
	UserID string `json:"user_id"`
}

// HistoryQuery opens the history panel for a user.
type HistoryQuery struct {
	service historyService
}

// NewHistoryQuery builds the query.
func NewHistoryQuery(service historyService) *HistoryQuery {
	return &HistoryQuery{service: service}
}

var _ gocommand.Querier[HistoryInput, console.HistoryView] = (*HistoryQuery)(nil)

// Query loads the ledger. A failed fetch is reported in the returned view's
// status, not as an error.
func (q *HistoryQuery) Query(ctx context.Context, msg HistoryInput) (console.HistoryView, error) {
	if strings.TrimSpace(msg.UserID) == "" {
		return console.HistoryView{}, errors.New("history query requires user id")
	}
	return q.service.OpenHistory(ctx, msg.UserID), nil
}
