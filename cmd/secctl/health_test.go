package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunHealth_JSONOutputMatchesServerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		json.NewEncoder(w).Encode(healthResponse{
			Status:    "healthy",
			Documents: 7,
			Cache:     cacheStats{Hits: 2, Misses: 1, Size: 3, HitRate: 0.66},
			Security:  securitySnapshot{Total: 5, Safe: 5},
			UptimeSec: 12.5,
		})
	}))
	defer srv.Close()

	origServerURL := serverURL
	serverURL = srv.URL
	defer func() { serverURL = origServerURL }()

	origJSON := healthJSONOutput
	healthJSONOutput = true
	defer func() { healthJSONOutput = origJSON }()

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	require.NoError(t, runHealth(healthCmd, nil))

	var decoded healthResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, "healthy", decoded.Status)
	require.Equal(t, 7, decoded.Documents)
}

func TestRunHealth_PlainOutputReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(healthResponse{Status: "initializing"})
	}))
	defer srv.Close()

	origServerURL := serverURL
	serverURL = srv.URL
	defer func() { serverURL = origServerURL }()

	healthJSONOutput = false

	old := captureStdout(t, func() {
		require.NoError(t, runHealth(healthCmd, nil))
	})
	require.True(t, strings.Contains(old, "initializing"))
}
