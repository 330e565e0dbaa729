// Package pipeline turns pretix orders into rendered badges.
package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/badgegen/internal/classify"
	"github.com/abrezinsky/badgegen/internal/convert"
	"github.com/abrezinsky/badgegen/internal/cursor"
	"github.com/abrezinsky/badgegen/internal/logger"
	"github.com/abrezinsky/badgegen/internal/metrics"
	"github.com/abrezinsky/badgegen/internal/models"
	"github.com/abrezinsky/badgegen/internal/render"
	"github.com/abrezinsky/badgegen/pkg/pretix"
)

// Generator writes the artifacts for one badge
type Generator interface {
	Generate(ctx context.Context, params models.BadgeParams) (render.Artifact, error)
}

// Ledger records runs and their badges
type Ledger interface {
	StartRun(ctx context.Context, mode string, startedAt time.Time) (string, error)
	FinishRun(ctx context.Context, id, status string, rendered, skipped, failed int, finishedAt time.Time) error
	RecordBadge(ctx context.Context, badge models.BadgeRecord) error
	RecordFailure(ctx context.Context, failure models.BadgeFailure) error
}

// Notifier pushes events to connected desk screens
type Notifier interface {
	BroadcastMessage(msgType string, payload interface{})
}

// Websocket event types
const (
	EventBadgeRendered = "badge_rendered"
	EventBadgeFailed   = "badge_failed"
	EventRunFinished   = "run_finished"
)

// Pipeline fetches orders, classifies positions and generates badges
type Pipeline struct {
	client     pretix.Client
	classifier *classify.Classifier
	generator  Generator
	log        logger.Logger

	workers  int
	since    time.Time
	ledger   Ledger
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithWorkers sets how many positions render concurrently. With one
// worker badges are produced in record order.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithSince skips orders whose payments all predate t in all-orders mode
func WithSince(t time.Time) Option {
	return func(p *Pipeline) {
		p.since = t
	}
}

// WithLedger records runs and badges in l
func WithLedger(l Ledger) Option {
	return func(p *Pipeline) {
		p.ledger = l
	}
}

// WithNotifier broadcasts badge events through n
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = n
	}
}

// WithMetrics counts outcomes in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline with injected dependencies
func New(client pretix.Client, classifier *classify.Classifier, generator Generator, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:     client,
		classifier: classifier,
		generator:  generator,
		log:        log,
		workers:    1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunAll processes every order of the event. Orders whose payments all
// predate the cursor are skipped. A failed page fetch aborts the run and
// is returned; per-position failures are collected in the report.
func (p *Pipeline) RunAll(ctx context.Context) (*Report, error) {
	report := p.start(ctx, ModeAll)
	g, gctx := p.group(ctx)

	err := p.client.ForEachOrder(ctx, func(order models.Order) error {
		if p.skipOrder(order) {
			p.log.Debug("Skipping order paid before last update", "order", order.Code)
			report.addOrderSkipped()
			if p.metrics != nil {
				p.metrics.IncrementOrdersSkipped()
			}
			return nil
		}
		p.processOrder(gctx, g, report, order)
		return nil
	})
	g.Wait()

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		report.abort()
	}
	p.finish(ctx, report)
	return report, err
}

// RunOrder processes a single order regardless of the cursor
func (p *Pipeline) RunOrder(ctx context.Context, code string) (*Report, error) {
	report := p.start(ctx, ModeOrder)

	order, err := p.client.FetchOrder(ctx, code)
	if err != nil {
		report.abort()
		p.finish(ctx, report)
		return report, err
	}

	g, gctx := p.group(ctx)
	p.processOrder(gctx, g, report, *order)
	g.Wait()

	if err := ctx.Err(); err != nil {
		report.abort()
		p.finish(ctx, report)
		return report, err
	}
	p.finish(ctx, report)
	return report, nil
}

// group bounds concurrency. Position work never returns an error to the
// group, so one failure does not cancel its siblings.
func (p *Pipeline) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	return g, gctx
}

func (p *Pipeline) skipOrder(order models.Order) bool {
	payments := make([]time.Time, 0, len(order.Payments))
	for _, pay := range order.Payments {
		payments = append(payments, pay.Created)
	}
	return cursor.Skip(p.since, payments, order.Datetime)
}

func (p *Pipeline) start(ctx context.Context, mode string) *Report {
	report := newReport(mode, p.now())
	if p.ledger != nil {
		id, err := p.ledger.StartRun(ctx, mode, report.StartedAt)
		if err != nil {
			p.log.Warn("Failed to record run start", "error", err)
		}
		report.RunID = id
	}
	p.log.Info("Run started", "mode", mode, "run_id", report.RunID, "workers", p.workers)
	return report
}

func (p *Pipeline) finish(ctx context.Context, report *Report) {
	report.FinishedAt = p.now()
	status := report.Status()

	if p.ledger != nil && report.RunID != "" {
		err := p.ledger.FinishRun(context.WithoutCancel(ctx), report.RunID, status,
			report.Rendered, report.Skipped, len(report.Failures), report.FinishedAt)
		if err != nil {
			p.log.Warn("Failed to record run finish", "run_id", report.RunID, "error", err)
		}
	}
	if p.metrics != nil {
		p.metrics.IncrementRun(report.Mode, status)
	}
	if p.notifier != nil {
		summary := report.Summary()
		summary["status"] = status
		p.notifier.BroadcastMessage(EventRunFinished, summary)
	}

	p.log.Info("Run finished",
		"mode", report.Mode,
		"status", status,
		"orders", report.Orders,
		"orders_skipped", report.OrdersSkipped,
		"rendered", report.Rendered,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"duration", report.FinishedAt.Sub(report.StartedAt))
}

func (p *Pipeline) processOrder(ctx context.Context, g *errgroup.Group, report *Report, order models.Order) {
	report.addOrder()
	summary := p.classifier.Summarize(order)
	p.log.Info("Order includes",
		"order", order.Code,
		"tickets", summary.Tickets,
		"workshops", summary.Workshops,
		"tees", summary.Tees)

	for _, pos := range order.Positions {
		if !p.classifier.Printable(pos.Item) {
			p.log.Debug("Skipping position, not a printable ticket type", "order", order.Code, "item", pos.Item)
			report.addSkipped()
			if p.metrics != nil {
				p.metrics.IncrementSkipped()
			}
			continue
		}
		g.Go(func() error {
			p.processPosition(ctx, report, pos)
			return nil
		})
	}
}

func (p *Pipeline) processPosition(ctx context.Context, report *Report, pos models.Position) {
	answers := pos.AnswerMap()
	out, err := p.classifier.Classify(pos.Item, answers)
	if err != nil {
		p.fail(ctx, report, pos, pos.TicketID(), StageClassify, err)
		return
	}

	params := classify.Params(pos, answers, out)
	if !p.generate(ctx, report, pos, out, params) {
		return
	}
	if out.Duplicate {
		p.generate(ctx, report, pos, out, params.LowVisionDuplicate())
	}
}

func (p *Pipeline) generate(ctx context.Context, report *Report, pos models.Position, out classify.Outcome, params models.BadgeParams) bool {
	start := p.now()
	artifact, err := p.generator.Generate(ctx, params)
	if err != nil {
		stage := StageRender
		var convErr *convert.ConversionError
		if stderrors.As(err, &convErr) {
			stage = StageConvert
		}
		p.fail(ctx, report, pos, params.Code, stage, err)
		return false
	}

	report.addArtifact(artifact)
	p.log.Info("Badge rendered", "code", artifact.Code, "category", out.Category)

	if p.metrics != nil {
		p.metrics.ObserveRendered(out.Category, start)
	}
	if p.ledger != nil {
		err := p.ledger.RecordBadge(ctx, models.BadgeRecord{
			Code:       artifact.Code,
			OrderCode:  pos.Order,
			PositionID: pos.PositionID,
			Item:       pos.Item,
			Category:   out.Category,
			Pseudonym:  params.PseudonymousID,
			SVGSHA256:  artifact.SHA256,
			SVGPath:    artifact.SVGPath,
			PDFPath:    artifact.PDFPath,
			RenderedAt: p.now(),
			RunID:      report.RunID,
		})
		if err != nil {
			p.log.Warn("Failed to record badge", "code", artifact.Code, "error", err)
		}
	}
	if p.notifier != nil {
		p.notifier.BroadcastMessage(EventBadgeRendered, map[string]interface{}{
			"code":     artifact.Code,
			"order":    pos.Order,
			"category": out.Category,
		})
	}
	return true
}

func (p *Pipeline) fail(ctx context.Context, report *Report, pos models.Position, code, stage string, err error) {
	perr := &PositionError{Code: code, PositionID: pos.PositionID, Stage: stage, Err: err}
	report.addFailure(perr)
	p.log.Error("Badge failed", "code", code, "stage", stage, "error", err)

	if p.metrics != nil {
		p.metrics.IncrementFailed(stage)
	}
	if p.ledger != nil && report.RunID != "" {
		lerr := p.ledger.RecordFailure(context.WithoutCancel(ctx), models.BadgeFailure{
			RunID:      report.RunID,
			Code:       code,
			PositionID: pos.PositionID,
			Stage:      stage,
			Error:      err.Error(),
			FailedAt:   p.now(),
		})
		if lerr != nil {
			p.log.Warn("Failed to record failure", "code", code, "error", lerr)
		}
	}
	if p.notifier != nil {
		p.notifier.BroadcastMessage(EventBadgeFailed, map[string]interface{}{
			"code":  code,
			"order": pos.Order,
			"stage": stage,
			"error": err.Error(),
		})
	}
}
