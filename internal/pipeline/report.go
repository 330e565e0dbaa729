package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/abrezinsky/badgegen/internal/models"
	"github.com/abrezinsky/badgegen/internal/render"
)

// Run modes
const (
	ModeAll   = "all"
	ModeOrder = "order"
)

// Run statuses
const (
	StatusClean   = models.RunClean
	StatusFailed  = models.RunFailed
	StatusAborted = models.RunAborted
)

// Stages a position can fail at
const (
	StageClassify = "classify"
	StageRender   = "render"
	StageConvert  = "convert"
)

// PositionError is a single position that could not be turned into a badge
type PositionError struct {
	Code       string
	PositionID int
	Stage      string
	Err        error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s (position %d) failed at %s: %v", e.Code, e.PositionID, e.Stage, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// Report summarises one run
type Report struct {
	Mode       string
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Orders        int
	OrdersSkipped int
	Rendered      int
	Skipped       int
	Artifacts     []render.Artifact
	Failures      []*PositionError

	aborted bool
	mu      sync.Mutex
}

func newReport(mode string, start time.Time) *Report {
	return &Report{Mode: mode, StartedAt: start}
}

// Status is clean when every printable position rendered, failed when
// some did not, and aborted when the run stopped early
func (r *Report) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.aborted:
		return StatusAborted
	case len(r.Failures) > 0:
		return StatusFailed
	default:
		return StatusClean
	}
}

// Summary returns the counters as a plain map for logs and websocket events
func (r *Report) Summary() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]interface{}{
		"mode":           r.Mode,
		"run_id":         r.RunID,
		"orders":         r.Orders,
		"orders_skipped": r.OrdersSkipped,
		"rendered":       r.Rendered,
		"skipped":        r.Skipped,
		"failed":         len(r.Failures),
	}
}

func (r *Report) addOrder() {
	r.mu.Lock()
	r.Orders++
	r.mu.Unlock()
}

func (r *Report) addOrderSkipped() {
	r.mu.Lock()
	r.OrdersSkipped++
	r.mu.Unlock()
}

func (r *Report) addSkipped() {
	r.mu.Lock()
	r.Skipped++
	r.mu.Unlock()
}

func (r *Report) addArtifact(a render.Artifact) {
	r.mu.Lock()
	r.Rendered++
	r.Artifacts = append(r.Artifacts, a)
	r.mu.Unlock()
}

func (r *Report) addFailure(e *PositionError) {
	r.mu.Lock()
	r.Failures = append(r.Failures, e)
	r.mu.Unlock()
}

func (r *Report) abort() {
	r.mu.Lock()
	r.aborted = true
	r.mu.Unlock()
}
