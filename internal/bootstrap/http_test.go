package bootstrap

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpx "github.com/Kjdragan/universal-agent-sub000/internal/http"
)

func testRouterServices(t *testing.T, logger *slog.Logger) httpx.RouterServices {
	t.Helper()
	services, err := NewServices(&ServiceDeps{Config: testAppConfig(), Logger: logger})
	require.NoError(t, err)
	return httpx.RouterServices{
		Auth:        services.Auth,
		UpstreamURL: "http://127.0.0.1:1",
		Logger:      logger,
	}
}

// The composed stack must assign the request id before the access log
// line is emitted, so the logged id matches the response header.
func TestBuildHTTPHandler_AccessLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := buildHTTPHandler(logger, testRouterServices(t, logger))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	headerID := w.Result().Header.Get("X-Request-Id")
	require.NotEmpty(t, headerID)

	var line struct {
		Msg       string `json:"msg"`
		Path      string `json:"path"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http", line.Msg)
	assert.Equal(t, "/healthz", line.Path)
	assert.Equal(t, headerID, line.RequestID)
}

func TestBuildHTTPHandler_InboundRequestIDLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := buildHTTPHandler(logger, testRouterServices(t, logger))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-789")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var line struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-789", line.RequestID)
	assert.Equal(t, "req-789", w.Result().Header.Get("X-Request-Id"))
}
