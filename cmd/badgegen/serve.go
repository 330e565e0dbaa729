package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/badgegen/internal/app"
	"github.com/abrezinsky/badgegen/internal/assets"
	"github.com/abrezinsky/badgegen/internal/auth"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/handlers"
	"github.com/abrezinsky/badgegen/internal/metrics"
	"github.com/abrezinsky/badgegen/internal/pipeline"
	"github.com/abrezinsky/badgegen/internal/repository"
	"github.com/abrezinsky/badgegen/internal/websocket"
	"github.com/abrezinsky/badgegen/pkg/pretix"
	"github.com/abrezinsky/badgegen/web"
)

type serveOptions struct {
	addr         string
	password     string
	reprintLimit int
	open       bool
	noKeyboard bool
}

func (c *cli) serveCommand() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reprint desk",
		Long: `Serves the reprint desk on the local network. Desk screens list rendered
badges, download their SVG and PDF files, and follow new badges live.
Logged-in operators can re-render one order at a time, which needs
PRETIX_TOKEN and a complete assets directory. Operators log in under
their own name; --reprint-limit caps the reprints of each session.

Keyboard shortcuts:
  o   Open the desk in the browser
  h   Toggle HTTP request logging
  l   Cycle log level (debug, info, warn, error)
  q   Quit
  ?   Show keyboard help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&opts.password, "password", "", "Desk password (auto-generated if not set)")
	cmd.Flags().IntVar(&opts.reprintLimit, "reprint-limit", 0, "Reprints allowed per operator session (0 for unlimited)")
	cmd.Flags().BoolVar(&opts.open, "open", false, "Open the desk in the browser once listening")
	cmd.Flags().BoolVar(&opts.noKeyboard, "nokeyboard", false, "Disable keyboard shortcuts")
	return cmd
}

func (c *cli) serve(ctx context.Context, opts serveOptions) error {
	if opts.reprintLimit < 0 {
		return aborted(errors.InvalidInputf("--reprint-limit must not be negative"))
	}
	password := opts.password
	if password == "" {
		password = auth.GeneratePassword()
	}

	m := metrics.New()
	page := handlers.PageData{Title: "Badge desk"}

	var newRunner app.RunnerFactory
	rt, err := c.loadRuntime()
	token := c.getenv(pretix.TokenEnv)
	switch {
	case err != nil:
		c.log.Warn("Reprinting disabled", "error", err)
	case token == "":
		c.log.Warn("Reprinting disabled", "reason", pretix.TokenEnv+" is not set")
	default:
		page.Organizer = rt.Config.Pretix.Organizer
		page.Event = rt.Config.Pretix.Event
		newRunner = c.reprintRunner(rt, token, m)
	}

	a, err := app.New(c.log, app.Config{
		DBPath:      c.dbPath,
		TemplatesFS: web.GetTemplatesFS(),
		StaticFS:    web.GetStaticFS(),
		Auth:        auth.New(password, auth.WithReprintLimit(opts.reprintLimit)),
		Metrics:     m,
		Page:        page,
		NewRunner:   newRunner,
	})
	if err != nil {
		return aborted(errors.Wrap(err, errors.ErrConfig, "initialize desk"))
	}
	defer a.Close()

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return aborted(errors.Wrapf(err, errors.ErrConfig, "listen on %s", opts.addr))
	}

	deskURL := app.DeskURL(ln.Addr())
	c.log.Info("Desk password", "password", password, "reprint_limit", opts.reprintLimit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.open {
		if err := c.open(deskURL); err != nil {
			c.log.Warn("Failed to open browser", "error", err)
		}
	}

	if !opts.noKeyboard {
		keys := &deskKeys{
			out:     c.stdout,
			deskURL: deskURL,
			log:     c.log,
			open:    c.open,
			quit:    cancel,
		}
		printKeyboardHelp(c.stdout)
		go listenForKeyboard(ctx, c.stdin, keys)
	}

	if err := a.Serve(ctx, ln); err != nil {
		return aborted(err)
	}
	fmt.Fprintln(c.stdout, "Desk stopped")
	return nil
}

// reprintRunner builds a pipeline per desk that shares the desk's ledger,
// websocket hub and metrics
func (c *cli) reprintRunner(rt *assets.Runtime, token string, m *metrics.Metrics) app.RunnerFactory {
	return func(repo *repository.Repository, hub *websocket.Hub) handlers.OrderRunner {
		return c.newPipeline(rt, token,
			pipeline.WithLedger(repo),
			pipeline.WithNotifier(hub),
			pipeline.WithMetrics(m),
		)
	}
}
