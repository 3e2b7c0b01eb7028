package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cityideas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func testContext(path string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, path, nil)
	return c
}

func TestFailureStatusLogsStoreErrors(t *testing.T) {
	buf := captureLog(t)
	c := testContext("/notifications/7/read")

	err := errors.WithStack(&services.StoreError{Op: "mark notification read", Err: errors.New("connection reset")})
	if code := failureStatus(c, err); code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", code)
	}
	out := buf.String()
	if !strings.Contains(out, "connection reset") || !strings.Contains(out, "/notifications/7/read") {
		t.Errorf("Expected store failure in log, got %q", out)
	}
	if len(c.Errors) != 1 {
		t.Errorf("Expected error attached to context, got %d", len(c.Errors))
	}
}

func TestFailureStatusQuietForClientErrors(t *testing.T) {
	buf := captureLog(t)

	cases := map[error]int{
		errors.Wrap(services.ErrNotFound, "notification 7"): http.StatusNotFound,
		errors.Wrap(services.ErrForbidden, "login required"): http.StatusForbidden,
		&services.ValidationError{Problems: []string{"x"}}:    http.StatusBadRequest,
	}
	for err, want := range cases {
		if got := failureStatus(testContext("/ideas/1/vote"), err); got != want {
			t.Errorf("failureStatus(%v) = %d, want %d", err, got, want)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output for client errors, got %q", buf.String())
	}
}
