package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	controller "github.com/secmon-lab/guildsweep/pkg/controller/http"
	"github.com/secmon-lab/guildsweep/pkg/utils/logging"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithFormat(slog.LevelDebug, &buf, logging.FormatJSON)
	ctx := ctxlog.With(context.Background(), logger)

	var handlerLogged bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// handlers inherit the request-scoped logger
		ctxlog.From(r.Context()).Debug("inside handler")
		handlerLogged = true
		w.WriteHeader(http.StatusTeapot)
	})
	handler := middleware.RequestID(controller.LoggingMiddleware(ctx)(inner))

	req := httptest.NewRequest(http.MethodPost, "/addroleall", nil)
	req.Header.Set("X-Bot-Token", "header-secret-value")
	req.Header.Set("X-Guild-Id", "G1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	gt.True(t, handlerLogged)
	gt.Equal(t, w.Code, http.StatusTeapot)
	gt.False(t, bytes.Contains(buf.Bytes(), []byte("header-secret-value")))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	gt.A(t, lines).Length(2)

	var inside, access map[string]any
	gt.NoError(t, json.Unmarshal(lines[0], &inside)).Required()
	gt.NoError(t, json.Unmarshal(lines[1], &access)).Required()

	gt.Equal(t, inside["msg"], any("inside handler"))
	gt.Equal(t, access["msg"], any("HTTP request"))
	gt.Equal(t, access["method"], any("POST"))
	gt.Equal(t, access["path"], any("/addroleall"))
	gt.Equal(t, access["status"], any(float64(http.StatusTeapot)))

	requestID, ok := access["request_id"].(string)
	gt.True(t, ok)
	gt.True(t, requestID != "")
	gt.Equal(t, inside["request_id"], any(requestID))
}
