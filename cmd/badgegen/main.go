package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/badgegen/internal/assets"
	"github.com/abrezinsky/badgegen/internal/browser"
	"github.com/abrezinsky/badgegen/internal/classify"
	"github.com/abrezinsky/badgegen/internal/convert"
	"github.com/abrezinsky/badgegen/internal/cursor"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/logger"
	"github.com/abrezinsky/badgegen/internal/pipeline"
	"github.com/abrezinsky/badgegen/internal/render"
	"github.com/abrezinsky/badgegen/pkg/pretix"
)

var (
	version = "dev"
)

// Process exit codes
const (
	exitClean    = 0
	exitAborted  = 1
	exitFailures = 2
)

// exitError carries the process exit code for a command error
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func aborted(err error) error {
	return &exitError{code: exitAborted, err: err}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitClean
	}
	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	return exitAborted
}

// cli holds the flags and the seams the commands are built on
type cli struct {
	dir            string
	output         string
	dbPath         string
	cursorPath     string
	logLevel       string
	workers        int
	noInstallFonts bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time

	newClient    func(ordersURL, token string, log logger.Logger) pretix.Client
	newConverter func(pdfDir string) convert.Converter
	installFonts func(dir string) ([]string, error)
	open         func(target string) error

	log *logger.SlogLogger
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: os.Getenv,
		now:    time.Now,
		newClient: func(ordersURL, token string, log logger.Logger) pretix.Client {
			return pretix.NewHTTPClient(ordersURL, token, log)
		},
		newConverter: func(pdfDir string) convert.Converter {
			return convert.NewSVG2PDF(pdfDir)
		},
		installFonts: assets.InstallUserFonts,
		open:         browser.Open,
		log:          logger.Discard(),
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "badgegen",
		Short: "Generate conference badges from pretix orders",
		Long: `badgegen renders one SVG and one PDF badge per attendee ticket.

It reads orders from pretix, classifies every ticket into a badge style
using the event's badgegen.yaml, and writes <output>/svgs/<code>.svg and
<output>/pdfs/<code>.pdf. Badges are recorded in a local ledger that the
reprint desk (badgegen serve) reads.

PRETIX_TOKEN must hold an API token for the event.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.log = logger.NewWithWriter(c.stderr, logger.ParseLevel(c.logLevel))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return aborted(errors.InvalidInput("no mode given: use all, order <code> or serve"))
		},
	}

	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.dir, "dir", strconv.Itoa(c.now().UTC().Year()), "Event assets directory holding badgegen.yaml")
	flags.StringVar(&c.output, "output", ".", "Directory receiving svgs/ and pdfs/")
	flags.StringVar(&c.dbPath, "db", "badgegen.db", "SQLite badge ledger path")
	flags.StringVar(&c.cursorPath, "cursor", cursor.DefaultPath, "File whose modification time marks the last all-orders run")
	flags.StringVar(&c.logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")
	flags.IntVar(&c.workers, "workers", 1, "Badges rendered concurrently")
	flags.BoolVar(&c.noInstallFonts, "no-install-fonts", false, "Do not copy the event fonts into the user font directory")

	root.AddCommand(c.allCommand(), c.orderCommand(), c.serveCommand(), c.fontsCommand())
	return root
}

// loadRuntime reads the assets directory and makes its fonts visible to
// the converter. A directory that does not exist is an abort.
func (c *cli) loadRuntime() (*assets.Runtime, error) {
	rt, err := assets.Load(c.dir, c.log)
	if err != nil {
		return nil, err
	}
	if !rt.Ready() {
		return nil, errors.Configf("assets directory %s does not exist", c.dir)
	}
	if !c.noInstallFonts {
		installed, err := c.installFonts(c.dir)
		if err != nil {
			c.log.Warn("Failed to install fonts", "error", err)
		} else {
			c.log.Debug("Installed fonts", "count", len(installed))
		}
	}
	return rt, nil
}

// newPipeline wires the pretix client, classifier and generator for rt
func (c *cli) newPipeline(rt *assets.Runtime, token string, opts ...pipeline.Option) *pipeline.Pipeline {
	client := c.newClient(rt.Config.OrdersURL(), token, c.log)
	gen := render.NewGenerator(
		render.NewRenderer(rt),
		c.newConverter(filepath.Join(c.output, render.PDFDir)),
		c.output,
	)
	opts = append([]pipeline.Option{pipeline.WithWorkers(c.workers), pipeline.WithClock(c.now)}, opts...)
	return pipeline.New(client, classify.New(rt.Config), gen, c.log, opts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	err := c.rootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(exitCode(err))
}
