package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/badgegen/internal/cursor"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/pipeline"
	"github.com/abrezinsky/badgegen/internal/repository"
	"github.com/abrezinsky/badgegen/pkg/pretix"
)

func (c *cli) allCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Render badges for every order paid since the last run",
		Long: `Pages through every order of the event. Orders whose payments all predate
the cursor file are skipped. The cursor moves to this run's start time only
when every badge rendered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), pipeline.ModeAll, "", false)
		},
	}
}

func (c *cli) orderCommand() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "order <code>",
		Short: "Render the badges of a single order",
		Long:  `Fetches one order by code and renders its badges, ignoring the cursor.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), pipeline.ModeOrder, args[0], open)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Open the rendered badges in the default viewer")
	return cmd
}

// run executes one pipeline run and turns its outcome into an exit code
func (c *cli) run(ctx context.Context, mode, code string, open bool) error {
	if mode == pipeline.ModeOrder && !pretix.ValidOrderCode(code) {
		return aborted(errors.InvalidInputf("invalid order code %q", code))
	}

	token := c.getenv(pretix.TokenEnv)
	if token == "" {
		return aborted(errors.Configf("%s is not set", pretix.TokenEnv))
	}

	rt, err := c.loadRuntime()
	if err != nil {
		return aborted(err)
	}

	repo, err := repository.New(c.dbPath)
	if err != nil {
		return aborted(errors.Wrapf(err, errors.ErrConfig, "open ledger %s", c.dbPath))
	}
	defer repo.Close()

	opts := []pipeline.Option{pipeline.WithLedger(repo)}

	var cur *cursor.Cursor
	if mode == pipeline.ModeAll {
		cur = cursor.New(c.cursorPath)
		since, ok, err := cur.Load()
		if err != nil {
			return aborted(err)
		}
		if ok {
			c.log.Info("Skipping orders paid before last update", "since", since)
			opts = append(opts, pipeline.WithSince(since))
		}
	}

	p := c.newPipeline(rt, token, opts...)

	var report *pipeline.Report
	if mode == pipeline.ModeAll {
		report, err = p.RunAll(ctx)
	} else {
		report, err = p.RunOrder(ctx, code)
	}
	if report != nil {
		printReport(c.stdout, report)
	}
	if err != nil {
		return aborted(err)
	}

	if open {
		for _, a := range report.Artifacts {
			if err := c.open(a.PDFPath); err != nil {
				c.log.Warn("Failed to open badge", "code", a.Code, "error", err)
			}
		}
	}

	if report.Status() == pipeline.StatusFailed {
		return &exitError{code: exitFailures, err: fmt.Errorf("%d badge(s) failed", len(report.Failures))}
	}

	if cur != nil {
		if err := cur.Touch(report.StartedAt); err != nil {
			return aborted(err)
		}
		c.log.Debug("Cursor updated", "path", cur.Path(), "at", report.StartedAt)
	}
	return nil
}

// printReport writes the run summary and one line per failed badge
func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "%s run %s: %d orders (%d skipped), %d badges rendered, %d positions skipped, %d failed\n",
		r.Mode, r.Status(), r.Orders, r.OrdersSkipped, r.Rendered, r.Skipped, len(r.Failures))
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  FAILED %s\n", f.Error())
	}
}
