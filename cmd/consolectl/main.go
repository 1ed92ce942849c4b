package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var version = "dev"

type cli struct {
	Globals

	Version kong.VersionFlag `help:"Print the version and exit."`

	Login        loginCmd        `cmd:"" help:"Store the admin secret used for every request."`
	Logout       logoutCmd       `cmd:"" help:"Forget the stored admin secret."`
	Users        usersCmd        `cmd:"" help:"List users, optionally filtered by view (all, active, blocked, pending)."`
	Stats        statsCmd        `cmd:"" help:"Show user counts and financial totals."`
	Chart        chartCmd        `cmd:"" help:"Render the access chart as a standalone HTML page."`
	Allow        allowCmd        `cmd:"" help:"Grant a 30-day access window to a numeric id or @handle."`
	Revoke       revokeCmd       `cmd:"" help:"Disable a user's access."`
	Remove       removeCmd       `cmd:"" help:"Delete a user permanently."`
	UpdateAccess updateAccessCmd `cmd:"" name:"update-access" help:"Move the end of a user's access window."`
	Invite       inviteCmd       `cmd:"" help:"Generate a single-use invite link."`
	History      historyCmd      `cmd:"" help:"Show a user's transaction history."`
	Watch        watchCmd        `cmd:"" help:"Refresh periodically and print each snapshot."`
}

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root cli
	ctx := kong.Parse(&root,
		kong.Name("consolectl"),
		kong.Description("Admin console for the Telegram access and subscription service."),
		kong.UsageOnError(),
		kong.Vars{"version": "consolectl " + version},
		kong.BindTo(runCtx, (*context.Context)(nil)),
		kong.Bind(&root.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
