package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/pkg/engine"
	"yqhp/automation-engine/pkg/store"
	"yqhp/automation-engine/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := engine.New(engine.DefaultConfig(), engine.WithStore(store.NewMemoryStore()))
	require.NoError(t, err)
	return NewServer(eng, nil)
}

type testResponse struct {
	Code int
	Body []byte
}

func postJSON(t *testing.T, s *Server, path string, body any) testResponse {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testResponse{Code: resp.StatusCode, Body: b}
}

func decode[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body, &out))
	return out
}

func testWorkflow() *types.Workflow {
	return &types.Workflow{
		Name:        "hello",
		Version:     "1.0.0",
		Description: "says hello",
		Steps: []types.Step{
			{ID: "greet", Kind: types.StepKindCommand, Command: &types.CommandParams{Line: "echo hi"}},
		},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/v1/workflows/validate", WorkflowRequest{Workflow: testWorkflow()})
	require.Equal(t, 200, rec.Code)
	out := decode[ValidateResponse](t, rec)
	assert.True(t, out.Valid)

	bad := testWorkflow()
	bad.Steps[0].Command.Line = "rm -rf /"
	rec = postJSON(t, s, "/api/v1/workflows/validate", WorkflowRequest{Workflow: bad})
	require.Equal(t, 200, rec.Code)
	out = decode[ValidateResponse](t, rec)
	assert.False(t, out.Valid)
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, types.ErrCodeSafety, out.Errors[0].Code)
}

func TestValidateEndpointAcceptsYAML(t *testing.T) {
	s := newTestServer(t)
	doc := `name: hello
version: 1.0.0
description: says hello
steps:
  - id: greet
    kind: command
    command:
      line: echo hi
`
	rec := postJSON(t, s, "/api/v1/workflows/validate", WorkflowRequest{WorkflowYAML: doc})
	require.Equal(t, 200, rec.Code)
	assert.True(t, decode[ValidateResponse](t, rec).Valid)

	rec = postJSON(t, s, "/api/v1/workflows/validate", WorkflowRequest{WorkflowYAML: "steps: ["})
	assert.Equal(t, 422, rec.Code)
}

func TestPlanEndpoint(t *testing.T) {
	s := newTestServer(t)
	wf := testWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID: "after", Kind: types.StepKindCommand,
		Command:   &types.CommandParams{Line: "echo bye"},
		DependsOn: []string{"greet"},
	})

	rec := postJSON(t, s, "/api/v1/workflows/plan", WorkflowRequest{Workflow: wf})
	require.Equal(t, 200, rec.Code)
	out := decode[PlanResponse](t, rec)
	assert.Equal(t, [][]string{{"greet"}, {"after"}}, out.Stages)
	assert.Equal(t, 2, out.Steps)
}

func TestPlanEndpointCycle(t *testing.T) {
	s := newTestServer(t)
	wf := testWorkflow()
	wf.Steps[0].DependsOn = []string{"greet"}

	rec := postJSON(t, s, "/api/v1/workflows/plan", WorkflowRequest{Workflow: wf})
	assert.Equal(t, 422, rec.Code)
}

func TestExecuteEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/v1/runs", ExecuteRequest{
		WorkflowRequest: WorkflowRequest{Workflow: testWorkflow()},
	})
	require.Equal(t, 200, rec.Code)
	result := decode[types.ExecutionResult](t, rec)
	assert.Equal(t, types.RunStatusCompleted, result.Status)
	assert.NotEmpty(t, result.RunID)

	// The finished run is retrievable by id.
	req := httptest.NewRequest("GET", "/api/v1/runs/"+result.RunID, nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestExecuteEndpointRejectsInvalid(t *testing.T) {
	s := newTestServer(t)
	bad := testWorkflow()
	bad.Steps[0].Command.Line = "rm -rf /"

	rec := postJSON(t, s, "/api/v1/runs", ExecuteRequest{
		WorkflowRequest: WorkflowRequest{Workflow: bad},
	})
	assert.Equal(t, 422, rec.Code)
}

func TestStatusAndCancelUnknownRun(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/runs/nope/status", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	req = httptest.NewRequest("DELETE", "/api/v1/runs/nope", nil)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestAPIKeyAuth(t *testing.T) {
	eng, err := engine.New(engine.DefaultConfig())
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.APIKey = "secret"
	s := NewServer(eng, cfg)

	req := httptest.NewRequest("GET", "/api/v1/runs/x/status", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	// Health stays open.
	req = httptest.NewRequest("GET", "/health", nil)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/runs/x/status", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
