package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	models "PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	icache "PumpScan/internal/service/cache"
	"PumpScan/internal/service/ratelimit"
	"PumpScan/internal/usecase"
	xhttp "PumpScan/pkg/http"
	xlogger "PumpScan/pkg/logger"
)

// Enqueuer hands a scan to the background job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// ScanAccepted answers an async scan request.
type ScanAccepted struct {
	ScanID string `json:"scan_id"`
	Status string `json:"status"`
	JobID  string `json:"job_id,omitempty"`
}

// ScansEchoHandler serves scans, cached reports and history.
type ScansEchoHandler struct {
	logger  *xlogger.Logger
	scanner usecase.Scanner
	reports domrepo.ReportCache
	history domrepo.HistoryStore
	queue   Enqueuer
	limiter *ratelimit.Limiter
	checks  map[string]HealthCheck
	binder  *xhttp.Validator
}

func newRequestValidator() *xhttp.Validator {
	return xhttp.NewValidator().
		Message("analyze_top.gte", "analyze_top cannot be negative; use 0 to skip AI analysis").
		Message("analyze_top.lte", "analyze_top can send at most {param} clusters for AI analysis").
		Message("sources.oneof", "{field}: unknown source {value}, expected one of {param}").
		Message("limit.lte", "limit is capped at {param} rows").
		Message("min_platforms.lte", "min_platforms cannot exceed {param}")
}

// NewScansEchoHandler builds the handler. queue and limiter may be nil.
func NewScansEchoHandler(
	logger *xlogger.Logger,
	scanner usecase.Scanner,
	reports domrepo.ReportCache,
	history domrepo.HistoryStore,
	queue Enqueuer,
	limiter *ratelimit.Limiter,
) *ScansEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ScansEchoHandler{
		logger:  logger.With(xlogger.Component("api")),
		scanner: scanner,
		reports: reports,
		history: history,
		queue:   queue,
		limiter: limiter,
		checks:  map[string]HealthCheck{},
		binder:  newRequestValidator(),
	}
}

// AddHealthCheck adds a named dependency to /healthz.
func (h *ScansEchoHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *ScansEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scans", h.StartScan)
	g.GET("/scans/:id", h.GetScan)
	g.GET("/reports/latest", h.LatestReport)
	g.GET("/clusters", h.Clusters)
	g.GET("/history", h.History)
	g.GET("/alerts", h.Alerts)
	e.GET("/healthz", h.Health)
}

func (h *ScansEchoHandler) StartScan(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		h.logger.Warn("scan request rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many scan requests").WithRetryAfter(h.limiter.RetryAfter()))
	}

	req := &models.ScanRequest{}
	if verr := h.binder.Bind(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	params := usecase.ScanParams{
		ScanID:     uuid.NewString(),
		Trigger:    usecase.TriggerAPI,
		AnalyzeTop: *req.AnalyzeTop,
		Sources:    req.Sources,
	}

	if req.Async {
		return h.startAsync(c, params)
	}

	report, err := h.scanner.Run(c.Request().Context(), params)
	if err != nil {
		return xhttp.AppErrorResponse(c, scanError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

// startAsync enqueues the scan when a queue is configured, otherwise runs it detached.
func (h *ScansEchoHandler) startAsync(c echo.Context, p usecase.ScanParams) error {
	if h.queue != nil {
		p.Trigger = usecase.TriggerQueue
		jobID, err := h.queue.Enqueue(c.Request().Context(), usecase.ScanJobType, models.ScanJobPayload{
			ScanID:     p.ScanID,
			AnalyzeTop: p.AnalyzeTop,
			Sources:    p.Sources,
		})
		if err != nil {
			h.logger.Error("enqueue scan", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("scan queue unavailable").WithError(err))
		}
		return xhttp.AcceptedResponse(c, ScanAccepted{ScanID: p.ScanID, Status: "queued", JobID: jobID})
	}

	ctx := context.WithoutCancel(c.Request().Context())
	go func() {
		if _, err := h.scanner.Run(ctx, p); err != nil {
			h.logger.Warn("background scan failed", xlogger.String("scan_id", p.ScanID), xlogger.Error(err))
		}
	}()
	return xhttp.AcceptedResponse(c, ScanAccepted{ScanID: p.ScanID, Status: "running"})
}

func (h *ScansEchoHandler) GetScan(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid scan id %q", id))
	}
	report, err := h.reports.Report(c.Request().Context(), id)
	if err != nil {
		return xhttp.AppErrorResponse(c, h.reportError(err, "scan "+id+" not found"))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ScansEchoHandler) LatestReport(c echo.Context) error {
	report, err := h.reports.Latest(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, h.reportError(err, "no scan has completed yet"))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, report)
}

// Clusters lists the latest report's clusters spanning at least min_platforms platforms.
func (h *ScansEchoHandler) Clusters(c echo.Context) error {
	req := &models.ClustersRequest{}
	if verr := h.binder.Bind(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	report, err := h.reports.Latest(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, h.reportError(err, "no scan has completed yet"))
	}

	rows := make([]models.ClusterDigest, 0, len(report.Clusters))
	for _, cl := range report.Clusters {
		if cl.PlatformDiversity < req.MinPlatforms {
			continue
		}
		rows = append(rows, cl)
		if len(rows) == req.Limit {
			break
		}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ScansEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := h.binder.Bind(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("history is disabled"))
	}
	rows, err := h.history.RecentSummaries(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("history query", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ScansEchoHandler) Alerts(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := h.binder.Bind(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("history is disabled"))
	}
	rows, err := h.history.RecentAlerts(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("alerts query", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("alerts query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Health answers 200 when every registered dependency responds, 503 otherwise.
func (h *ScansEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ScansEchoHandler) reportError(err error, notFound string) error {
	if errors.Is(err, icache.ErrNotFound) {
		return xhttp.NotFoundError(notFound)
	}
	h.logger.Error("report cache read", xlogger.Error(err))
	return xhttp.InternalError("report cache unavailable").WithError(err)
}

func scanError(err error) error {
	if errors.Is(err, usecase.ErrScanInProgress) {
		return xhttp.UnavailableError("a scan is already running").WithCode("ERR_SCAN_IN_PROGRESS").WithError(err)
	}
	return xhttp.InternalError("scan failed").WithError(err)
}
