package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunIngest_SkipsPromptAndReportsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/ingest", r.URL.Path)
		json.NewEncoder(w).Encode(ingestResponse{Success: true, Documents: 3})
	}))
	defer srv.Close()

	origServerURL := serverURL
	serverURL = srv.URL
	defer func() { serverURL = origServerURL }()

	ingestSkipConfirm = true
	defer func() { ingestSkipConfirm = false }()

	out := captureStdout(t, func() {
		require.NoError(t, runIngest(ingestCmd, nil))
	})
	require.Contains(t, out, "ingested 3 documents")
}

func TestRunIngest_ServerFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ingestResponse{Success: false, Error: "docs root missing"})
	}))
	defer srv.Close()

	origServerURL := serverURL
	serverURL = srv.URL
	defer func() { serverURL = origServerURL }()

	ingestSkipConfirm = true
	defer func() { ingestSkipConfirm = false }()

	captureStdout(t, func() {
		err := runIngest(ingestCmd, nil)
		require.Error(t, err)
	})
}
