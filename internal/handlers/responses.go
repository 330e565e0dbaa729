package handlers

import (
	"time"

	"github.com/abrezinsky/badgegen/internal/auth"
	"github.com/abrezinsky/badgegen/internal/pipeline"
	"github.com/abrezinsky/badgegen/internal/render"
)

// FailureResponse is one position that failed during a run
type FailureResponse struct {
	Code       string `json:"code"`
	PositionID int    `json:"position_id"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

// RunReportResponse is the response for an order reprint
type RunReportResponse struct {
	RunID      string            `json:"run_id,omitempty"`
	Mode       string            `json:"mode"`
	Status     string            `json:"status"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Rendered   int               `json:"rendered"`
	Skipped    int               `json:"skipped"`
	Artifacts  []render.Artifact `json:"artifacts"`
	Failures   []FailureResponse `json:"failures"`
	Operator   string            `json:"operator,omitempty"`
	Remaining  int               `json:"reprints_remaining"`
}

// SessionResponse describes the caller's desk session
type SessionResponse struct {
	Operator  string    `json:"operator"`
	Expires   time.Time `json:"expires"`
	Reprints  int       `json:"reprints"`
	Remaining int       `json:"reprints_remaining"` // -1 when unlimited
}

func newSessionResponse(s auth.Session) SessionResponse {
	return SessionResponse{
		Operator:  s.Operator,
		Expires:   s.Expires,
		Reprints:  s.Reprints,
		Remaining: s.Remaining,
	}
}

func newRunReportResponse(report *pipeline.Report) RunReportResponse {
	resp := RunReportResponse{
		RunID:      report.RunID,
		Mode:       report.Mode,
		Status:     report.Status(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Rendered:   report.Rendered,
		Skipped:    report.Skipped,
		Artifacts:  report.Artifacts,
		Failures:   make([]FailureResponse, 0, len(report.Failures)),
	}
	if resp.Artifacts == nil {
		resp.Artifacts = []render.Artifact{}
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, FailureResponse{
			Code:       f.Code,
			PositionID: f.PositionID,
			Stage:      f.Stage,
			Error:      f.Err.Error(),
		})
	}
	return resp
}
