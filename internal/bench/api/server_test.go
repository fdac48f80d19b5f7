package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

func init() {
	config := logging.NewDefaultConfig("api_test")
	if err := logging.InitServiceLogger(config); err != nil {
		panic(err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer("0", "quorum", logging.GetServiceLogger())

	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "quorum", body["chain"])
}

func TestMetricsEndpoint(t *testing.T) {
	server := NewServer("0", "quorum", logging.GetServiceLogger())

	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "go_goroutines")
}
