package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listRequest struct {
	Limit int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
	Kind  string `query:"kind" json:"kind" default:"all" validate:"oneof=all hot"`
}

func newContext(method, target, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBindDefaults(t *testing.T) {
	var req listRequest
	errs := NewValidator().Bind(newContext(http.MethodGet, "/x", ""), &req)
	require.Nil(t, errs)
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, "all", req.Kind)
}

func TestBindQueryOutOfRange(t *testing.T) {
	var req listRequest
	errs := NewValidator().Bind(newContext(http.MethodGet, "/x?limit=500&kind=hot", ""), &req)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_LTE", errs[0].Code)
	assert.Equal(t, "limit", errs[0].Field)
	assert.Equal(t, "limit must be less than or equal to 200", errs[0].Message)
	assert.Equal(t, "200", errs[0].Params["max"])
}

func TestBindFieldMessage(t *testing.T) {
	v := NewValidator().
		Message("limit.lte", "at most {param} rows per page").
		Message("kind.oneof", "unknown kind {value}, use {param}")

	var req listRequest
	errs := v.Bind(newContext(http.MethodGet, "/x?limit=500&kind=cold", ""), &req)
	require.Len(t, errs, 2)
	assert.Equal(t, "at most 200 rows per page", errs[0].Message)
	assert.Equal(t, "unknown kind cold, use all, hot", errs[1].Message)
	assert.Equal(t, []string{"all", "hot"}, errs[1].Params["options"])
}

type tagsRequest struct {
	Tags []string `json:"tags" validate:"omitempty,dive,oneof=a b"`
}

func TestBindSliceElementMessage(t *testing.T) {
	v := NewValidator().Message("tags.oneof", "{field}: {value} is not a tag")

	var req tagsRequest
	errs := v.Bind(newContext(http.MethodPost, "/x", `{"tags":["a","zz"]}`), &req)
	require.Len(t, errs, 1)
	assert.Equal(t, "tags[1]", errs[0].Field)
	assert.Equal(t, "tags[1]: zz is not a tag", errs[0].Message)
}

func TestBindBadJSON(t *testing.T) {
	var req listRequest
	errs := NewValidator().Bind(newContext(http.MethodPost, "/x", "{"), &req)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
	assert.Contains(t, errs[0].Message, "malformed request")
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, NotFoundErrorf("scan %s not found", "abc")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan abc not found")
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestAppErrorResponseRetryAfter(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, TooManyRequestsError("slow down").WithRetryAfter(1500*time.Millisecond)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestAppErrorResponseHidesPlainErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, errors.New("dial tcp 10.0.0.1: refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestAppErrorWithCode(t *testing.T) {
	base := errors.New("locked")
	err := UnavailableError("busy").WithCode("ERR_SCAN_IN_PROGRESS").WithError(base)
	assert.Equal(t, "ERR_SCAN_IN_PROGRESS", err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "busy: locked", err.Error())
}
