package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/abrezinsky/badgegen/internal/auth"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/handlers"
	"github.com/abrezinsky/badgegen/internal/models"
	"github.com/abrezinsky/badgegen/internal/pipeline"
	"github.com/abrezinsky/badgegen/internal/render"
	"github.com/abrezinsky/badgegen/internal/repository"
	"github.com/abrezinsky/badgegen/internal/testutil"
)

// fakeRunner records reprint requests
type fakeRunner struct {
	mu      sync.Mutex
	codes   []string
	report  *pipeline.Report
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeRunner) RunOrder(ctx context.Context, code string) (*pipeline.Report, error) {
	f.mu.Lock()
	f.codes = append(f.codes, code)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.report, f.err
}

func setupHandlers(t *testing.T, runner handlers.OrderRunner) (*handlers.Handlers, *repository.Repository) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	return handlers.NewForTesting(repo, runner), repo
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rr := doRequest(t, h, "POST", "/api/login", handlers.LoginRequest{Password: handlers.TestPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handlers.APIError {
	t.Helper()
	var apiErr handlers.APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("invalid error body %q: %v", rr.Body.String(), err)
	}
	return apiErr
}

func seedBadge(t *testing.T, repo *repository.Repository, dir, code, order string) models.BadgeRecord {
	t.Helper()
	svg := filepath.Join(dir, code+".svg")
	pdf := filepath.Join(dir, code+".pdf")
	if err := os.WriteFile(svg, []byte(`<svg id="`+code+`"/>`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pdf, []byte("%PDF-1.7 "+code), 0o644); err != nil {
		t.Fatal(err)
	}
	badge := models.BadgeRecord{
		Code:       code,
		OrderCode:  order,
		PositionID: 1,
		Item:       testutil.ItemTicket,
		Category:   "attendee",
		Pseudonym:  "PSEUDO",
		SVGSHA256:  "sum",
		SVGPath:    svg,
		PDFPath:    pdf,
		RenderedAt: time.Date(2024, 11, 22, 8, 0, 0, 0, time.UTC),
	}
	if err := repo.RecordBadge(context.Background(), badge); err != nil {
		t.Fatalf("failed to seed badge: %v", err)
	}
	return badge
}

func TestNew_WithValidTemplates(t *testing.T) {
	templatesFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte(`<html><body>{{.Title}} {{.Event}}</body></html>`)},
	}
	repo := testutil.NewTestRepository(t)

	h, err := handlers.New(repo, nil, templatesFS, handlers.NewStaticServer(fstest.MapFS{}),
		auth.New("pw"), nil, nil, handlers.PageData{Title: "Badge desk", Event: "2024"}, handlers.NoopHTTPLogger{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	rr := doRequest(t, h.Router(), "GET", "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Badge desk 2024") {
		t.Errorf("unexpected page: %s", rr.Body.String())
	}
}

func TestNew_WithMissingIndexTemplate(t *testing.T) {
	repo := testutil.NewTestRepository(t)

	_, err := handlers.New(repo, nil, fstest.MapFS{}, nil, auth.New("pw"), nil, nil, handlers.PageData{}, handlers.NoopHTTPLogger{})
	if err == nil {
		t.Fatal("expected error for missing index.html")
	}
}

func TestStaticFiles(t *testing.T) {
	templatesFS := fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte(`ok`)}}
	staticFS := fstest.MapFS{"js/desk.js": &fstest.MapFile{Data: []byte(`console.log("desk")`)}}
	repo := testutil.NewTestRepository(t)

	h, err := handlers.New(repo, nil, templatesFS, handlers.NewStaticServer(staticFS), auth.New("pw"), nil, nil, handlers.PageData{}, handlers.NoopHTTPLogger{})
	if err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, h.Router(), "GET", "/static/js/desk.js", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "desk") {
		t.Errorf("expected static file, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	templatesFS := fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte(`ok`)}}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("badgegen_runs_total 1\n"))
	})
	repo := testutil.NewTestRepository(t)

	h, err := handlers.New(repo, nil, templatesFS, nil, auth.New("pw"), nil, metrics, handlers.PageData{}, handlers.NoopHTTPLogger{})
	if err != nil {
		t.Fatal(err)
	}

	rr := doRequest(t, h.Router(), "GET", "/metrics", nil)
	if !strings.Contains(rr.Body.String(), "badgegen_runs_total") {
		t.Errorf("expected metrics output, got %s", rr.Body.String())
	}
}

func TestLogin(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := h.Router()

	rr := doRequest(t, router, "POST", "/api/login", handlers.LoginRequest{Password: "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rr.Code)
	}

	rr = doRequest(t, router, "POST", "/api/login", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", rr.Code)
	}

	rr = doRequest(t, router, "POST", "/api/login", handlers.LoginRequest{Password: handlers.TestPassword, Operator: "  Kim  "})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp handlers.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Operator != "Kim" || resp.Remaining != -1 {
		t.Errorf("unexpected session response: %+v", resp)
	}

	cookie := login(t, router)
	session, ok := h.Auth.Session(cookie.Value)
	if !ok {
		t.Fatal("expected session to be valid")
	}
	if session.Operator != auth.DefaultOperator {
		t.Errorf("expected default operator, got %q", session.Operator)
	}
}

func TestSession(t *testing.T) {
	h, _ := setupHandlers(t, &fakeRunner{report: &pipeline.Report{}})
	router := h.Router()

	rr := doRequest(t, router, "GET", "/api/session", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", rr.Code)
	}

	cookie := login(t, router)
	doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, cookie)

	rr = doRequest(t, router, "GET", "/api/session", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp handlers.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reprints != 1 {
		t.Errorf("expected 1 reprint recorded, got %d", resp.Reprints)
	}

	doRequest(t, router, "POST", "/api/login", handlers.LoginRequest{Password: handlers.TestPassword, Operator: "amir"})
	rr = doRequest(t, router, "GET", "/api/sessions", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list []handlers.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Operator != "amir" || list[1].Operator != auth.DefaultOperator {
		t.Errorf("unexpected sessions: %+v", list)
	}
}

func TestLogout(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := h.Router()
	cookie := login(t, router)

	rr := doRequest(t, router, "POST", "/api/logout", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, ok := h.Auth.Session(cookie.Value); ok {
		t.Error("expected session to be invalidated")
	}
}

func TestListBadges(t *testing.T) {
	h, repo := setupHandlers(t, nil)
	dir := t.TempDir()
	seedBadge(t, repo, dir, "AAAAA-1", "AAAAA")
	seedBadge(t, repo, dir, "AAAAA-1L", "AAAAA")
	seedBadge(t, repo, dir, "BBBBB-2", "BBBBB")
	router := h.Router()

	rr := doRequest(t, router, "GET", "/api/badges?order=AAAAA", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var badges []models.BadgeRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &badges); err != nil {
		t.Fatal(err)
	}
	if len(badges) != 2 || badges[0].Code != "AAAAA-1" || badges[1].Code != "AAAAA-1L" {
		t.Errorf("unexpected badges: %+v", badges)
	}

	rr = doRequest(t, router, "GET", "/api/badges", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &badges); err != nil {
		t.Fatal(err)
	}
	if len(badges) != 3 {
		t.Errorf("expected 3 badges, got %d", len(badges))
	}

	rr = doRequest(t, router, "GET", "/api/badges?order=../etc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid order code, got %d", rr.Code)
	}
}

func TestGetBadge(t *testing.T) {
	h, repo := setupHandlers(t, nil)
	seedBadge(t, repo, t.TempDir(), "KXWDL-3", "KXWDL")
	router := h.Router()

	rr := doRequest(t, router, "GET", "/api/badges/KXWDL-3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var badge models.BadgeRecord
	json.Unmarshal(rr.Body.Bytes(), &badge)
	if badge.OrderCode != "KXWDL" {
		t.Errorf("expected order KXWDL, got %q", badge.OrderCode)
	}

	rr = doRequest(t, router, "GET", "/api/badges/KXWDL-4", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}

	rr = doRequest(t, router, "GET", "/api/badges/not-a-code", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestBadgeFiles(t *testing.T) {
	h, repo := setupHandlers(t, nil)
	seedBadge(t, repo, t.TempDir(), "KXWDL-1L", "KXWDL")
	router := h.Router()

	rr := doRequest(t, router, "GET", "/badges/KXWDL-1L.svg", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("expected image/svg+xml, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `id="KXWDL-1L"`) {
		t.Errorf("unexpected svg body: %s", rr.Body.String())
	}

	rr = doRequest(t, router, "GET", "/badges/KXWDL-1L.pdf", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}

	cases := []struct {
		path   string
		status int
	}{
		{"/badges/KXWDL-1L.png", http.StatusNotFound},
		{"/badges/KXWDL-9.svg", http.StatusNotFound},
		{"/badges/..%2Fsecret.svg", http.StatusBadRequest},
		{"/badges/KXWDL.svg", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rr := doRequest(t, router, "GET", tc.path, nil)
		if rr.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.status, rr.Code)
		}
	}
}

func TestBadgeFiles_MissingPDF(t *testing.T) {
	h, repo := setupHandlers(t, nil)
	badge := seedBadge(t, repo, t.TempDir(), "KXWDL-2", "KXWDL")
	badge.PDFPath = ""
	repo.RecordBadge(context.Background(), badge)

	rr := doRequest(t, h.Router(), "GET", "/badges/KXWDL-2.pdf", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 when no pdf was recorded, got %d", rr.Code)
	}

	os.Remove(badge.SVGPath)
	rr = doRequest(t, h.Router(), "GET", "/badges/KXWDL-2.svg", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 when svg file is gone, got %d", rr.Code)
	}
}

func TestRenderOrder_RequiresAuth(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := setupHandlers(t, runner)

	rr := doRequest(t, h.Router(), "POST", "/api/orders/KXWDL/badges", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	if len(runner.codes) != 0 {
		t.Error("runner should not be called without a session")
	}
}

func TestRenderOrder(t *testing.T) {
	report := &pipeline.Report{
		Mode:     pipeline.ModeOrder,
		RunID:    "run-1",
		Rendered: 1,
		Artifacts: []render.Artifact{
			{Code: "KXWDL-1", SVGPath: "out/svgs/KXWDL-1.svg", PDFPath: "out/pdfs/KXWDL-1.pdf", SHA256: "abc"},
		},
		Failures: []*pipeline.PositionError{
			{Code: "KXWDL-2", PositionID: 2, Stage: pipeline.StageClassify, Err: errors.Classificationf("no team answer")},
		},
	}
	runner := &fakeRunner{report: report}
	h, _ := setupHandlers(t, runner)
	router := h.Router()
	cookie := login(t, router)

	rr := doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp handlers.RunReportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != pipeline.StatusFailed {
		t.Errorf("expected status failed, got %q", resp.Status)
	}
	if len(resp.Artifacts) != 1 || resp.Artifacts[0].Code != "KXWDL-1" {
		t.Errorf("unexpected artifacts: %+v", resp.Artifacts)
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Stage != pipeline.StageClassify {
		t.Errorf("unexpected failures: %+v", resp.Failures)
	}
	if len(runner.codes) != 1 || runner.codes[0] != "KXWDL" {
		t.Errorf("expected runner to be called with KXWDL, got %v", runner.codes)
	}
}

func TestRenderOrder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"invalid code", "/api/orders/bad-code!/badges", nil, http.StatusBadRequest},
		{"unknown order", "/api/orders/NOPE1/badges", errors.NotFoundf("order NOPE1 not found"), http.StatusNotFound},
		{"pretix down", "/api/orders/KXWDL/badges", errors.Networkf("pretix returned status 502"), http.StatusBadGateway},
		{"assets missing", "/api/orders/KXWDL/badges", errors.Configf("badge assets are not loaded"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupHandlers(t, &fakeRunner{err: tt.err, report: &pipeline.Report{}})
			router := h.Router()
			cookie := login(t, router)

			rr := doRequest(t, router, "POST", tt.path, nil, cookie)
			if rr.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRenderOrder_NoRunner(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := h.Router()
	cookie := login(t, router)

	rr := doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, cookie)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if code := decodeError(t, rr).Code; code != handlers.ErrCodeNotConfigured {
		t.Errorf("expected %s, got %s", handlers.ErrCodeNotConfigured, code)
	}
}

func TestRenderOrder_OneAtATime(t *testing.T) {
	runner := &fakeRunner{report: &pipeline.Report{}, block: make(chan struct{}), started: make(chan struct{})}
	h, _ := setupHandlers(t, runner)
	router := h.Router()
	cookie := login(t, router)

	done := make(chan int)
	go func() {
		rr := doRequest(t, router, "POST", "/api/orders/AAAAA/badges", nil, cookie)
		done <- rr.Code
	}()
	<-runner.started

	rr := doRequest(t, router, "POST", "/api/orders/BBBBB/badges", nil, cookie)
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 while a render is running, got %d", rr.Code)
	}

	close(runner.block)
	if code := <-done; code != http.StatusOK {
		t.Errorf("expected first render to succeed, got %d", code)
	}
}

func TestRenderOrder_ReprintLimit(t *testing.T) {
	runner := &fakeRunner{report: &pipeline.Report{Mode: pipeline.ModeOrder}}
	h, _ := setupHandlers(t, runner)
	h.Auth = auth.New(handlers.TestPassword, auth.WithReprintLimit(2))
	router := h.Router()

	rr := doRequest(t, router, "POST", "/api/login", handlers.LoginRequest{Password: handlers.TestPassword, Operator: "sam"})
	sam := rr.Result().Cookies()[0]
	kim := login(t, router)

	for i, wantRemaining := range []int{1, 0} {
		rr := doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, sam)
		if rr.Code != http.StatusOK {
			t.Fatalf("reprint %d: expected 200, got %d", i, rr.Code)
		}
		var resp handlers.RunReportResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Operator != "sam" || resp.Remaining != wantRemaining {
			t.Errorf("reprint %d: got operator %q remaining %d", i, resp.Operator, resp.Remaining)
		}
	}

	rr = doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, sam)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the allowance is spent, got %d", rr.Code)
	}
	apiErr := decodeError(t, rr)
	if apiErr.Code != handlers.ErrCodeReprintLimit || !strings.Contains(apiErr.Message, "sam") {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if len(runner.codes) != 2 {
		t.Errorf("expected the runner to be skipped once over the limit, got %d calls", len(runner.codes))
	}

	rr = doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, kim)
	if rr.Code != http.StatusOK {
		t.Errorf("expected another operator to keep their allowance, got %d", rr.Code)
	}
}

func TestRenderOrder_InvalidCodeIsNotCharged(t *testing.T) {
	h, _ := setupHandlers(t, &fakeRunner{report: &pipeline.Report{}})
	h.Auth = auth.New(handlers.TestPassword, auth.WithReprintLimit(1))
	router := h.Router()
	cookie := login(t, router)

	doRequest(t, router, "POST", "/api/orders/bad-code!/badges", nil, cookie)
	rr := doRequest(t, router, "POST", "/api/orders/KXWDL/badges", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Errorf("expected rejected request not to use the allowance, got %d", rr.Code)
	}
}

func TestRunsAndFailures(t *testing.T) {
	h, repo := setupHandlers(t, nil)
	ctx := context.Background()
	start := time.Date(2024, 11, 22, 7, 0, 0, 0, time.UTC)

	id, err := repo.StartRun(ctx, pipeline.ModeAll, start)
	if err != nil {
		t.Fatal(err)
	}
	repo.RecordFailure(ctx, models.BadgeFailure{RunID: id, Code: "AAAAA-1", PositionID: 1, Stage: "classify", Error: "no team", FailedAt: start})
	repo.FinishRun(ctx, id, models.RunFailed, 10, 2, 1, start.Add(time.Minute))
	router := h.Router()

	rr := doRequest(t, router, "GET", "/api/runs", nil)
	var runs []models.Run
	json.Unmarshal(rr.Body.Bytes(), &runs)
	if len(runs) != 1 || runs[0].Status != models.RunFailed || runs[0].Rendered != 10 {
		t.Errorf("unexpected runs: %+v", runs)
	}

	rr = doRequest(t, router, "GET", "/api/runs/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for run, got %d", rr.Code)
	}

	rr = doRequest(t, router, "GET", "/api/runs/"+id+"/failures", nil)
	var failures []models.BadgeFailure
	json.Unmarshal(rr.Body.Bytes(), &failures)
	if len(failures) != 1 || failures[0].Code != "AAAAA-1" {
		t.Errorf("unexpected failures: %+v", failures)
	}

	rr = doRequest(t, router, "GET", "/api/runs/missing/failures", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown run, got %d", rr.Code)
	}

	rr = doRequest(t, router, "GET", "/api/runs?limit=abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestStats(t *testing.T) {
	h, repo := setupHandlers(t, nil)
	dir := t.TempDir()
	seedBadge(t, repo, dir, "AAAAA-1", "AAAAA")
	seedBadge(t, repo, dir, "AAAAA-2", "AAAAA")
	seedBadge(t, repo, dir, "BBBBB-1", "BBBBB")

	rr := doRequest(t, h.Router(), "GET", "/api/stats", nil)
	var stats models.LedgerStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Badges != 3 || stats.Orders != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
