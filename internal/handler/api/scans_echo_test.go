package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "PumpScan/internal/domain/models"
	"PumpScan/internal/repository"
	icache "PumpScan/internal/service/cache"
	"PumpScan/internal/service/ratelimit"
	"PumpScan/internal/usecase"
	pkgcache "PumpScan/pkg/cache"
	xhttp "PumpScan/pkg/http"
)

type fakeScanner struct {
	mu    sync.Mutex
	calls []usecase.ScanParams
	err   error
	cache *icache.ReportCache
}

func (f *fakeScanner) Run(ctx context.Context, p usecase.ScanParams) (*models.ScanReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r := &models.ScanReport{ScanID: p.ScanID, Trigger: p.Trigger, Timestamp: time.Now()}
	if f.cache != nil {
		_ = f.cache.SaveReport(ctx, r)
	}
	return r, nil
}

func (f *fakeScanner) params() []usecase.ScanParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]usecase.ScanParams(nil), f.calls...)
}

type fakeQueue struct {
	msgType string
	payload interface{}
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) (string, error) {
	q.msgType, q.payload = msgType, payload
	return "job-1", nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type fixture struct {
	e       *echo.Echo
	scanner *fakeScanner
	reports *icache.ReportCache
	handler *ScansEchoHandler
}

func newFixture(t *testing.T, queue Enqueuer, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	mem := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	reports := icache.NewReportCache(mem, time.Hour, time.Minute)
	scanner := &fakeScanner{cache: reports}
	h := NewScansEchoHandler(nil, scanner, reports, repository.NewCacheHistory(mem, 10), queue, limiter)
	e := echo.New()
	h.RegisterRoutes(e)
	return &fixture{e: e, scanner: scanner, reports: reports, handler: h}
}

func (f *fixture) do(method, target, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestStartScanSyncDefaults(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, env := f.do(http.MethodPost, "/api/scans", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	calls := f.scanner.params()
	require.Len(t, calls, 1)
	assert.Equal(t, 5, calls[0].AnalyzeTop)
	assert.Equal(t, usecase.TriggerAPI, calls[0].Trigger)
	assert.NotEmpty(t, calls[0].ScanID)

	var r models.ScanReport
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, calls[0].ScanID, r.ScanID)
}

func TestStartScanValidation(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, env := f.do(http.MethodPost, "/api/scans", `{"sources":["reddit","twitter"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := validationErrors(t, env)
	require.Len(t, errs, 1)
	assert.Equal(t, "sources[1]", errs[0].Field)
	assert.Equal(t, "sources[1]: unknown source twitter, expected one of reddit, stocktwits, 4chan, bitcointalk", errs[0].Message)

	rec, env = f.do(http.MethodPost, "/api/scans", `{"analyze_top":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs = validationErrors(t, env)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_GTE", errs[0].Code)
	assert.Contains(t, errs[0].Message, "use 0 to skip AI analysis")

	rec, env = f.do(http.MethodPost, "/api/scans", `{"analyze_top":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "analyze_top can send at most 20 clusters for AI analysis", validationErrors(t, env)[0].Message)

	rec, env = f.do(http.MethodPost, "/api/scans", `{"sources":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR_BIND", validationErrors(t, env)[0].Code)

	assert.Empty(t, f.scanner.params())
}

func validationErrors(t *testing.T, env envelope) []xhttp.ValidationError {
	t.Helper()
	var errs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs
}

func TestStartScanInProgress(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.scanner.err = usecase.ErrScanInProgress

	rec, _ := f.do(http.MethodPost, "/api/scans", `{"analyze_top":0}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_SCAN_IN_PROGRESS")

	f.scanner.err = errors.New("boom")
	rec, _ = f.do(http.MethodPost, "/api/scans", `{"analyze_top":0}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStartScanAsyncQueued(t *testing.T) {
	q := &fakeQueue{}
	f := newFixture(t, q, nil)

	rec, env := f.do(http.MethodPost, "/api/scans", `{"async":true,"analyze_top":2,"sources":["reddit"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var acc ScanAccepted
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	assert.Equal(t, "queued", acc.Status)
	assert.Equal(t, "job-1", acc.JobID)

	assert.Equal(t, usecase.ScanJobType, q.msgType)
	payload, ok := q.payload.(models.ScanJobPayload)
	require.True(t, ok)
	assert.Equal(t, acc.ScanID, payload.ScanID)
	assert.Equal(t, 2, payload.AnalyzeTop)
	assert.Equal(t, []string{"reddit"}, payload.Sources)
	assert.Empty(t, f.scanner.params())
}

func TestStartScanAsyncWithoutQueue(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, _ := f.do(http.MethodPost, "/api/scans", `{"async":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, func() bool { return len(f.scanner.params()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartScanRateLimited(t *testing.T) {
	f := newFixture(t, nil, ratelimit.New(1, 1))

	rec, _ := f.do(http.MethodPost, "/api/scans", `{"analyze_top":0}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(http.MethodPost, "/api/scans", `{"analyze_top":0}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Len(t, f.scanner.params(), 1)
}

func TestReportsLookup(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, _ := f.do(http.MethodGet, "/api/reports/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(http.MethodGet, "/api/scans/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := "2b1d2f2e-8a7c-4c41-9d0e-0f7f3c1b2a10"
	rec, _ = f.do(http.MethodGet, "/api/scans/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, f.reports.SaveReport(context.Background(), &models.ScanReport{ScanID: id}))
	rec, env := f.do(http.MethodGet, "/api/scans/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var r models.ScanReport
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, id, r.ScanID)

	rec, _ = f.do(http.MethodGet, "/api/reports/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClustersFilter(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.NoError(t, f.reports.SaveReport(context.Background(), &models.ScanReport{
		ScanID: "s",
		Clusters: []models.ClusterDigest{
			{Theme: "squeeze_play", PlatformDiversity: 3},
			{Theme: "pump_hype", PlatformDiversity: 1},
			{Theme: "crypto_pump", PlatformDiversity: 2},
		},
	}))

	rec, env := f.do(http.MethodGet, "/api/clusters?min_platforms=2&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.ClusterDigest `json:"rows"`
		Total int64                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, models.ThemeTag("squeeze_play"), list.Rows[0].Theme)

	rec, _ = f.do(http.MethodGet, "/api/clusters?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAndAlerts(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, env := f.do(http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"total":0`)

	rec, _ = f.do(http.MethodGet, "/api/alerts?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.handler.AddHealthCheck("cache", func(context.Context) error { return nil })

	rec, _ := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.handler.AddHealthCheck("clickhouse", func(context.Context) error { return errors.New("down") })
	rec, env := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(env.Data), `"clickhouse":"down"`)
}
