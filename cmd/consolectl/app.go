package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	core "github.com/goliatone/go-access-console/components/console"
	"github.com/goliatone/go-access-console/pkg/adminapi"
	"github.com/goliatone/go-access-console/pkg/config"
	"github.com/goliatone/go-access-console/pkg/console"
	"github.com/goliatone/go-access-console/pkg/logx"
	"github.com/goliatone/go-access-console/pkg/session"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `type:"path" env:"CONSOLE_CONFIG" help:"Path to the YAML config file."`
	BaseURL   string `name:"base-url" help:"Admin API base URL (overrides config)."`
	Locale    string `help:"Message locale, e.g. pt-BR or en-US (overrides config)."`
	Yes       bool   `short:"y" help:"Skip confirmation prompts."`
	Demo      bool   `help:"Use built-in demo data instead of the admin API."`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFormat string `name:"log-format" enum:",text,json" default:"" help:"Log format (text or json)."`
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *session.FileStore
	service *console.Service
	events  *core.BroadcastHook
	out     io.Writer
	in      *bufio.Reader
	yes     bool
}

func (g *Globals) settings() (config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return config.Config{}, err
	}
	if g.BaseURL != "" {
		cfg.BaseURL = g.BaseURL
	}
	if g.Locale != "" {
		cfg.Locale = g.Locale
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
	return cfg, nil
}

func (g *Globals) open(ctx context.Context, command string) (context.Context, *app, error) {
	cfg, err := g.settings()
	if err != nil {
		return ctx, nil, err
	}
	logger := logx.New(logx.Config{
		Service: "consolectl",
		Version: version,
		Env:     envName(g.Demo),
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	ctx = logx.WithCommand(logx.WithContext(ctx, logger), command)

	store := session.NewFileStore(cfg.SessionPath, logger)
	gateway, err := g.gateway(cfg, store, logger)
	if err != nil {
		return ctx, nil, err
	}
	events := core.NewBroadcastHook()
	service := console.New(gateway, console.Options{
		Localizer:   core.NewLocalizer(nil, cfg.Locale),
		SessionHook: store,
		Events:      events,
		Telemetry:   core.NewSlogTelemetry(logger.With("component", "telemetry")),
		Logger:      logger,
	})
	return ctx, &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: service,
		events:  events,
		out:     os.Stdout,
		in:      bufio.NewReader(os.Stdin),
		yes:     g.Yes,
	}, nil
}

func (g *Globals) gateway(cfg config.Config, store *session.FileStore, logger *slog.Logger) (core.Gateway, error) {
	if g.Demo {
		return adminapi.NewMockClient(adminapi.DemoData(time.Now())), nil
	}
	return adminapi.NewHTTPClient(adminapi.HTTPConfig{
		BaseURL:     cfg.BaseURL,
		Credentials: store,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		RateLimit:   cfg.RateLimit,
		Burst:       cfg.Burst,
		Logger:      logger,
	})
}

func envName(demo bool) string {
	if demo {
		return "demo"
	}
	return "prod"
}

func (a *app) loc() *core.Localizer {
	return a.service.Localizer()
}

// confirm asks the operator to accept c. --yes accepts without asking.
func (a *app) confirm(c core.Confirmation) (bool, error) {
	fmt.Fprintf(a.out, "%s\n%s\n", c.Title, c.Message)
	if a.yes {
		return true, nil
	}
	fmt.Fprint(a.out, "[y/N] ")
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("consolectl: read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true, nil
	default:
		return false, nil
	}
}

// sessionError rewrites a rejected credential into an operator hint.
func sessionError(err error) error {
	if core.IsUnauthorized(err) {
		return fmt.Errorf("consolectl: admin secret rejected, run `consolectl login` again: %w", err)
	}
	return err
}
