package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	core "github.com/goliatone/go-access-console/components/console"
	"github.com/goliatone/go-access-console/components/console/queries"
	"github.com/goliatone/go-access-console/pkg/session"
)

type loginCmd struct {
	Token  string `arg:"" optional:"" help:"Admin secret; read from stdin when omitted."`
	Verify bool   `default:"true" negatable:"" help:"Check the secret against the API before keeping it."`
}

func (cmd *loginCmd) Run(ctx context.Context, g *Globals) error {
	ctx, a, err := g.open(ctx, "login")
	if err != nil {
		return err
	}
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		fmt.Fprint(a.out, "Admin secret: ")
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("consolectl: read secret: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if err := a.store.Save(token, a.cfg.BaseURL); err != nil {
		return err
	}
	if cmd.Verify && !g.Demo {
		if err := a.service.Refresh(ctx); err != nil {
			return sessionError(err)
		}
	}
	fmt.Fprintf(a.out, "✓ Secret stored in %s\n", a.store.Path())
	return nil
}

type logoutCmd struct{}

func (cmd *logoutCmd) Run(ctx context.Context, g *Globals) error {
	_, a, err := g.open(ctx, "logout")
	if err != nil {
		return err
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "✓ Logged out")
	return nil
}

type usersCmd struct {
	View string `short:"v" default:"all" help:"View selector: all, active, blocked or pending."`
	JSON bool   `name:"json" help:"Print the users as JSON."`
}

func (cmd *usersCmd) Run(ctx context.Context, g *Globals) error {
	ctx, a, err := g.open(ctx, "users")
	if err != nil {
		return err
	}
	if err := requireSession(a, g); err != nil {
		return err
	}
	result, err := queries.NewViewQuery(a.service).Query(ctx, queries.ViewInput{Selector: cmd.View, Refresh: true})
	if err != nil {
		return sessionError(err)
	}
	if cmd.JSON {
		return writeJSON(a.out, result.Users)
	}
	return renderUsers(a.out, result, a.loc(), time.Now())
}

type statsCmd struct {
	Format string `enum:"table,env" default:"table" help:"Output format (table or env)."`
}

func (cmd *statsCmd) Run(ctx context.Context, g *Globals) error {
	ctx, a, err := g.open(ctx, "stats")
	if err != nil {
		return err
	}
	if err := requireSession(a, g); err != nil {
		return err
	}
	snap, err := queries.NewStatsQuery(a.service).Query(ctx, queries.StatsInput{Refresh: true})
	if err != nil {
		return sessionError(err)
	}
	if cmd.Format == "env" {
		return renderStatsEnv(a.out, snap)
	}
	return renderStats(a.out, snap, a.loc())
}

type chartCmd struct {
	Out string `required:"" type:"path" help:"Destination HTML file."`
}

func (cmd *chartCmd) Run(ctx context.Context, g *Globals) error {
	ctx, a, err := g.open(ctx, "chart")
	if err != nil {
		return err
	}
	if err := requireSession(a, g); err != nil {
		return err
	}
	snap, err := queries.NewStatsQuery(a.service).Query(ctx, queries.StatsInput{Refresh: true})
	if err != nil {
		return sessionError(err)
	}
	chart := core.NewAccessChart(
		core.WithChartCache(core.NewChartCache(a.cfg.ChartCacheTTL)),
		core.WithChartTheme(a.cfg.ChartTheme),
		core.WithChartLocalizer(a.loc()),
	)
	html, err := chart.Render(snap.Analytics)
	if err != nil {
		return fmt.Errorf("consolectl: render chart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Out), 0o755); err != nil {
		return fmt.Errorf("consolectl: mkdir %s: %w", filepath.Dir(cmd.Out), err)
	}
	if err := os.WriteFile(cmd.Out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("consolectl: write chart: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Chart written to %s\n", cmd.Out)
	return nil
}

type allowCmd struct {
	Target string `arg:"" help:"Numeric Telegram id or @handle."`
}

func (cmd *allowCmd) Run(ctx context.Context, g *Globals) error {
	return runAction(ctx, g, "allow", core.FlowAdminAction, func(ctx context.Context, o *core.Orchestrator) (core.Workflow, error) {
		return o.RequestAllow(ctx, cmd.Target)
	})
}

type revokeCmd struct {
	UserID string `arg:"" help:"Telegram id of the user."`
}

func (cmd *revokeCmd) Run(ctx context.Context, g *Globals) error {
	return runAction(ctx, g, "revoke", core.FlowAdminAction, func(ctx context.Context, o *core.Orchestrator) (core.Workflow, error) {
		return o.RequestRevoke(ctx, cmd.UserID)
	})
}

type removeCmd struct {
	UserID string `arg:"" help:"Telegram id of the user."`
}

func (cmd *removeCmd) Run(ctx context.Context, g *Globals) error {
	return runAction(ctx, g, "remove", core.FlowAdminAction, func(ctx context.Context, o *core.Orchestrator) (core.Workflow, error) {
		return o.RequestRemove(ctx, cmd.UserID)
	})
}

type updateAccessCmd struct {
	UserID string `arg:"" help:"Telegram id of the user."`
	End    string `required:"" help:"New end date (YYYY-MM-DD)."`
}

func (cmd *updateAccessCmd) Run(ctx context.Context, g *Globals) error {
	return runAction(ctx, g, "update-access", core.FlowAccessEdit, func(ctx context.Context, o *core.Orchestrator) (core.Workflow, error) {
		return o.OpenAccessEdit(ctx, cmd.UserID, cmd.End)
	})
}

type inviteCmd struct {
	Days int    `default:"30" help:"Access days granted by the invite."`
	Name string `help:"Optional label for the invite."`
	QR   string `name:"qr" type:"path" help:"Also write the link as a QR code PNG to this path."`
}

func (cmd *inviteCmd) Run(ctx context.Context, g *Globals) error {
	var invite core.Invite
	err := runAction(ctx, g, "invite", core.FlowInvite, func(ctx context.Context, o *core.Orchestrator) (core.Workflow, error) {
		if _, err := o.OpenInvite(ctx); err != nil {
			return core.Workflow{}, err
		}
		return o.EditInvite(ctx, cmd.Days, cmd.Name)
	}, func(ctx context.Context, a *app) error {
		copied, err := a.service.Orchestrator().CopyInvite(ctx)
		if err != nil {
			return err
		}
		invite = copied
		fmt.Fprintln(a.out, invite.Link)
		fmt.Fprintf(a.out, "expires %s\n", invite.ExpiresAt().Local().Format(time.DateTime))
		return nil
	})
	if err != nil {
		return err
	}
	if cmd.QR != "" {
		if err := qrcode.WriteFile(invite.Link, qrcode.Medium, 256, cmd.QR); err != nil {
			return fmt.Errorf("consolectl: write qr code: %w", err)
		}
	}
	return nil
}

type historyCmd struct {
	UserID string `arg:"" help:"Telegram id or @handle of the user."`
}

func (cmd *historyCmd) Run(ctx context.Context, g *Globals) error {
	ctx, a, err := g.open(ctx, "history")
	if err != nil {
		return err
	}
	if err := requireSession(a, g); err != nil {
		return err
	}
	if err := a.service.Refresh(ctx); err != nil {
		a.logger.WarnContext(ctx, "snapshot unavailable; showing history without user details", "error", err)
		if core.IsUnauthorized(err) {
			return sessionError(err)
		}
	}
	view, err := queries.NewHistoryQuery(a.service).Query(ctx, queries.HistoryInput{UserID: cmd.UserID})
	if err != nil {
		return err
	}
	renderHistory(a.out, view, a.loc())
	if view.Status == core.HistoryFailed {
		return sessionError(view.Err)
	}
	return nil
}

type watchCmd struct {
	Interval time.Duration `help:"Time between refreshes (defaults to the configured watch interval)."`
}

func (cmd *watchCmd) Run(ctx context.Context, g *Globals) error {
	ctx, a, err := g.open(ctx, "watch")
	if err != nil {
		return err
	}
	if err := requireSession(a, g); err != nil {
		return err
	}
	interval := cmd.Interval
	if interval <= 0 {
		interval = a.cfg.WatchInterval
	}
	events, cancel := a.events.Subscribe()
	defer cancel()

	refresh := func() error {
		if err := a.service.Refresh(ctx); err != nil {
			if core.IsUnauthorized(err) {
				return sessionError(err)
			}
			a.logger.ErrorContext(ctx, "refresh failed", "error", err)
		}
		return nil
	}
	if err := refresh(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-events:
			if event.Kind == core.EventSnapshotRefreshed && event.Snapshot != nil {
				renderWatchLine(a.out, event.At, *event.Snapshot, a.loc())
			}
		case <-ticker.C:
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}

type actionOpener func(ctx context.Context, o *core.Orchestrator) (core.Workflow, error)

type afterSuccess func(ctx context.Context, a *app) error

// runAction opens a workflow, asks for confirmation, executes it and prints
// the resulting feedback.
func runAction(ctx context.Context, g *Globals, name string, flow core.Flow, openFn actionOpener, after ...afterSuccess) error {
	ctx, a, err := g.open(ctx, name)
	if err != nil {
		return err
	}
	if err := requireSession(a, g); err != nil {
		return err
	}
	orch := a.service.Orchestrator()
	w, err := openFn(ctx, orch)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("consolectl: invalid %s: %w", name, err)
		}
		return err
	}
	if needsPrompt(flow) {
		ok, err := a.confirm(orch.Confirmation(w))
		if err != nil {
			return err
		}
		if !ok {
			orch.Cancel(ctx, flow)
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
	}
	resolved, err := orch.Confirm(ctx, flow)
	if err != nil {
		return sessionError(err)
	}
	if fb, shown := orch.Feedback().Current(); shown {
		renderFeedback(a.out, fb)
	}
	if resolved.Outcome == core.OutcomeError {
		orch.DismissFeedback(ctx)
		return fmt.Errorf("consolectl: %s failed: %w", name, resolved.Err)
	}
	for _, fn := range after {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	orch.DismissFeedback(ctx)
	return nil
}

func requireSession(a *app, g *Globals) error {
	if g.Demo {
		return nil
	}
	if _, err := a.store.LoadFor(a.cfg.BaseURL); err != nil {
		switch {
		case errors.Is(err, session.ErrNoSession):
			return errors.New("consolectl: not logged in, run `consolectl login` first")
		case errors.Is(err, session.ErrBaseURLMismatch):
			return fmt.Errorf("consolectl: run `consolectl login` for this API or pass the matching --base-url: %w", err)
		}
		return err
	}
	return nil
}

// needsPrompt reports whether flow asks for a y/N answer before running.
// Access edits are confirmed by the save itself.
func needsPrompt(flow core.Flow) bool {
	return flow != core.FlowAccessEdit
}
