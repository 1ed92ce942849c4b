package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ettle/strcase"

	core "github.com/goliatone/go-access-console/components/console"
)

func renderUsers(w io.Writer, result core.ViewResult, loc *core.Localizer, now time.Time) error {
	fmt.Fprintf(w, "%s\n%s\n\n", result.Title, result.Subtitle)
	if len(result.Users) == 0 {
		fmt.Fprintln(w, result.Empty)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tALIAS\tSTATUS\tSTART\tEND\tACTIVE")
	for _, u := range result.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID,
			loc.UserAlias(u),
			loc.UserStatus(u),
			formatDate(u.StartDate),
			formatDate(u.EndDate),
			activeLabel(u, loc, now),
		)
	}
	return tw.Flush()
}

func activeLabel(u core.User, loc *core.Localizer, now time.Time) string {
	days := u.DaysActive(now)
	if days < 0 {
		return "-"
	}
	label := loc.T(core.KeyUserDaysActive, map[string]any{"days": days})
	if u.NeedsRenewal(now) {
		label += " (" + loc.T(core.KeyUserRenewalDue, nil) + ")"
	}
	return label
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(core.DateLayout)
}

func renderStats(w io.Writer, snap core.Snapshot, loc *core.Localizer) error {
	counts := snap.Analytics.Users
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", loc.T(core.KeyStatsTotal, nil), loc.FormatCount(counts.Total))
	fmt.Fprintf(tw, "%s\t%s\n", loc.T(core.KeyStatsActive, nil), loc.FormatCount(counts.Active))
	fmt.Fprintf(tw, "%s\t%s\n", loc.T(core.KeyStatsBlocked, nil), loc.FormatCount(counts.Blocked))
	fmt.Fprintf(tw, "%s\t%s\n", loc.T(core.KeyStatsPending, nil), loc.FormatCount(counts.Pending))
	fmt.Fprintf(tw, "%s\t%s\n", loc.T(core.KeyStatsVolume, nil), loc.FormatAmount(snap.Analytics.Financials.TotalVolume))
	if err := tw.Flush(); err != nil {
		return err
	}
	if snap.AnalyticsStale {
		fmt.Fprintf(w, "! %s\n", loc.T(core.KeyStatsStale, nil))
	}
	return nil
}

// renderStatsEnv prints KEY=value lines suitable for shell sourcing.
func renderStatsEnv(w io.Writer, snap core.Snapshot) error {
	values := []struct {
		key   string
		value any
	}{
		{"totalUsers", snap.Analytics.Users.Total},
		{"activeUsers", snap.Analytics.Users.Active},
		{"blockedUsers", snap.Analytics.Users.Blocked},
		{"pendingUsers", snap.Analytics.Users.Pending},
		{"totalVolume", fmt.Sprintf("%.2f", snap.Analytics.Financials.TotalVolume)},
		{"analyticsStale", snap.AnalyticsStale},
	}
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "%s=%v\n", strcase.ToSNAKE(v.key), v.value); err != nil {
			return err
		}
	}
	return nil
}

func renderFeedback(w io.Writer, fb core.Feedback) {
	marker := "✓"
	switch fb.Variant {
	case core.FeedbackError:
		marker = "✗"
	case core.FeedbackInfo:
		marker = "i"
	}
	fmt.Fprintf(w, "%s %s %s\n", marker, fb.Title, fb.Message)
}

func renderHistory(w io.Writer, view core.HistoryView, loc *core.Localizer) {
	fmt.Fprintf(w, "%s (%s)\n", loc.UserAlias(view.User), view.User.ID)
	switch {
	case view.Status == core.HistoryFailed:
		fmt.Fprintln(w, loc.T(core.KeyHistoryFailed, nil))
		return
	case view.Empty():
		fmt.Fprintln(w, loc.T(core.KeyHistoryEmpty, nil))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, tx := range view.History.Transactions {
		sign := "-"
		if tx.IsGain() {
			sign = "+"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\n",
			tx.CreatedAt.Local().Format(time.DateTime),
			tx.Description,
			sign,
			loc.FormatAmount(tx.Amount),
		)
	}
	fmt.Fprintf(tw, "%s\t\t%s\n", loc.T(core.KeyHistoryBalance, nil), loc.FormatAmount(view.History.Balance))
	_ = tw.Flush()
}

func renderWatchLine(w io.Writer, at time.Time, snap core.Snapshot, loc *core.Localizer) {
	counts := snap.Analytics.Users
	line := fmt.Sprintf("[%s] %s=%d %s=%d %s=%d %s=%d",
		at.Local().Format(time.TimeOnly),
		loc.T(core.KeyStatsTotal, nil), counts.Total,
		loc.T(core.KeyStatsActive, nil), counts.Active,
		loc.T(core.KeyStatsBlocked, nil), counts.Blocked,
		loc.T(core.KeyStatsPending, nil), counts.Pending,
	)
	if snap.AnalyticsStale {
		line += " (" + loc.T(core.KeyStatsStale, nil) + ")"
	}
	fmt.Fprintln(w, line)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
