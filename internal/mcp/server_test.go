package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"tides-mcp/internal/logging"
	"tides-mcp/internal/services"
	"tides-mcp/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewFileTideStore(t.TempDir())
	require.NoError(t, err)
	return NewServer(services.NewTideService(store, logging.NewLogger()))
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleCreateTide(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleCreateTide(context.Background(), callRequest(map[string]interface{}{
		"name":      "Morning",
		"flow_type": "daily",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload services.CreateTideResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.True(t, payload.Success)
	assert.Contains(t, payload.TideID, "tide_")
	assert.Equal(t, "Morning", payload.Name)
	assert.NotEmpty(t, payload.NextFlow)
}

func TestHandleCreateTideMissingName(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleCreateTide(context.Background(), callRequest(map[string]interface{}{
		"flow_type": "daily",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleCreateTideBadFlowType(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleCreateTide(context.Background(), callRequest(map[string]interface{}{
		"name":      "x",
		"flow_type": "hourly",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListTides(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleCreateTide(ctx, callRequest(map[string]interface{}{
		"name":      "a",
		"flow_type": "daily",
	}))
	require.NoError(t, err)
	_, err = s.handleCreateTide(ctx, callRequest(map[string]interface{}{
		"name":      "b",
		"flow_type": "weekly",
	}))
	require.NoError(t, err)

	result, err := s.handleListTides(ctx, callRequest(map[string]interface{}{
		"flow_type": "weekly",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload services.ListTidesResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	require.Equal(t, 1, payload.Total)
	assert.Equal(t, "b", payload.Tides[0].Name)
}

func TestHandleFlowTideRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	createResult, err := s.handleCreateTide(ctx, callRequest(map[string]interface{}{
		"name":      "deep work",
		"flow_type": "project",
	}))
	require.NoError(t, err)
	var created services.CreateTideResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, createResult)), &created))

	// JSON numbers arrive as float64 over the tool boundary.
	result, err := s.handleFlowTide(ctx, callRequest(map[string]interface{}{
		"tide_id":   created.TideID,
		"intensity": "strong",
		"duration":  float64(50),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload services.FlowTideResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.True(t, payload.Success)
	assert.Len(t, payload.NextActions, 5)
	assert.NotEmpty(t, payload.FlowGuidance)
}

func TestHandleFlowTideUnknownIDReportsInPayload(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleFlowTide(context.Background(), callRequest(map[string]interface{}{
		"tide_id": "tide_0_000000",
	}))
	require.NoError(t, err)
	// Not a tool error: the failure travels in the result payload.
	require.False(t, result.IsError)

	var payload services.FlowTideResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "Tide not found", payload.FlowGuidance)
}

func TestHandleEndTide(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	createResult, err := s.handleCreateTide(ctx, callRequest(map[string]interface{}{
		"name":      "wrap",
		"flow_type": "daily",
	}))
	require.NoError(t, err)
	var created services.CreateTideResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, createResult)), &created))

	result, err := s.handleEndTide(ctx, callRequest(map[string]interface{}{
		"tide_id": created.TideID,
		"status":  "paused",
		"notes":   "resume tomorrow",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload services.EndTideResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "paused", payload.FinalStatus)
}

func TestHandleEndTideMissingID(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleEndTide(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
