package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"github.com/abrezinsky/badgegen/internal/auth"
	"github.com/abrezinsky/badgegen/internal/models"
	"github.com/abrezinsky/badgegen/internal/pipeline"
	"github.com/abrezinsky/badgegen/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// PageData holds the data passed to the desk page
type PageData struct {
	Title     string
	Organizer string
	Event     string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index *template.Template
}

// BadgeStore is the read side of the badge ledger
type BadgeStore interface {
	GetBadge(ctx context.Context, code string) (*models.BadgeRecord, error)
	ListBadges(ctx context.Context, orderCode string) ([]models.BadgeRecord, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	ListFailures(ctx context.Context, runID string) ([]models.BadgeFailure, error)
	Stats(ctx context.Context) (*models.LedgerStats, error)
}

// OrderRunner renders the badges of a single order
type OrderRunner interface {
	RunOrder(ctx context.Context, code string) (*pipeline.Report, error)
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Store   BadgeStore
	Runner  OrderRunner
	Auth    *auth.Auth
	Hub     *websocket.Hub
	Metrics http.Handler
	Log     HTTPLogger
	Page    PageData

	templates    *Templates
	staticServer http.Handler

	// one order render at a time; concurrent runs would race on the same files
	runMu sync.Mutex
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies. runner may be
// nil when no pretix token is configured; reprints then answer 503.
func New(
	store BadgeStore,
	runner OrderRunner,
	templatesFS fs.FS,
	staticServer http.Handler,
	deskAuth *auth.Auth,
	hub *websocket.Hub,
	metrics http.Handler,
	page PageData,
	log HTTPLogger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Store:        store,
		Runner:       runner,
		Auth:         deskAuth,
		Hub:          hub,
		Metrics:      metrics,
		Log:          log,
		Page:         page,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// TestPassword is the desk password used by NewForTesting
const TestPassword = "test-password"

// NewForTesting creates a Handlers instance without templates, static files,
// websocket hub or metrics (for testing API endpoints)
func NewForTesting(store BadgeStore, runner OrderRunner) *Handlers {
	return &Handlers{
		Store:  store,
		Runner: runner,
		Auth:   auth.New(TestPassword),
		Log:    NoopHTTPLogger{},
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}

	return t, nil
}
