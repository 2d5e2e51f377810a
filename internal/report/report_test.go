package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/pkg/types"
)

func sampleResult() *types.ExecutionResult {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &types.ExecutionResult{
		RunID:        "run-1",
		WorkflowName: "deploy",
		Status:       types.RunStatusCompleted,
		StartedAt:    start,
		FinishedAt:   start.Add(3 * time.Second),
		StepResults: map[string]*types.StepOutcome{
			"build": {StepID: "build", Status: types.StepStatusSuccess, Success: true, Duration: 1200 * time.Millisecond, Attempts: 1},
			"push":  {StepID: "push", Status: types.StepStatusSuccess, Success: true, Duration: 800 * time.Millisecond, Attempts: 2},
		},
		Outputs: map[string]any{"image": "registry/app:1.2.3"},
		Stats:   &types.DurationStats{Count: 2, AvgMs: 1000, P95Ms: 1200, MaxMs: 1200},
	}
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	rep := NewConsoleReporter(&buf)

	require.NoError(t, rep.Report(context.Background(), sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "deploy COMPLETED (run run-1)")
	assert.Contains(t, out, "success   build (1200ms)")
	assert.Contains(t, out, "success   push (800ms, 2 attempts)")
	assert.Contains(t, out, "image = registry/app:1.2.3")
	assert.Contains(t, out, "avg 1000.0ms")
}

func TestJSONFileReporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	rep, err := NewJSONFileReporter(path)
	require.NoError(t, err)

	require.NoError(t, rep.Report(context.Background(), sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got types.ExecutionResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Len(t, got.StepResults, 2)
}

func TestJSONFileReporterRequiresPath(t *testing.T) {
	_, err := NewJSONFileReporter("")
	assert.Error(t, err)
}

func TestWebhookReporterDelivers(t *testing.T) {
	var received atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var result types.ExecutionResult
		require.NoError(t, json.NewDecoder(r.Body).Decode(&result))
		received.Store(result.RunID)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep, err := NewWebhookReporter(&WebhookConfig{URL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, rep.Report(context.Background(), sampleResult()))
	assert.Equal(t, "run-1", received.Load())
}

func TestWebhookReporterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep, err := NewWebhookReporter(&WebhookConfig{
		URL:        srv.URL,
		RetryDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, rep.Report(context.Background(), sampleResult()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookReporterGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rep, err := NewWebhookReporter(&WebhookConfig{
		URL:           srv.URL,
		RetryAttempts: 2,
		RetryDelay:    10 * time.Millisecond,
	})
	require.NoError(t, err)

	err = rep.Report(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestManagerFansOut(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "result.json")

	m, err := NewManager(DefaultRegistry(), []string{"json=" + path})
	require.NoError(t, err)
	m.Add(NewConsoleReporter(&buf))
	defer m.Close()

	require.NoError(t, m.Report(context.Background(), sampleResult()))
	assert.Contains(t, buf.String(), "deploy COMPLETED")
	assert.FileExists(t, path)
}

func TestManagerRejectsUnknownType(t *testing.T) {
	_, err := NewManager(DefaultRegistry(), []string{"nats=foo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reporter type")
}
