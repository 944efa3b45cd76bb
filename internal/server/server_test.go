package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agenthands/recordlink/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewServer(core.NewService(nil, nil, nil), nil).SetupRouter()
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestConsolidate(t *testing.T) {
	r := newTestRouter()
	body := `{"judgments": [
		{"id_a": "A1", "id_b": "A2", "preferred": 0},
		{"id_a": "A2", "id_b": "A3", "preferred": 0},
		{"id_a": "B1", "id_b": "B2", "preferred": 1},
		{"id_a": "C1", "id_b": "C2", "preferred": 5}
	]}`

	w := do(t, r, http.MethodPost, "/consolidate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RunID   string `json:"run_id"`
		Mapping []struct {
			Duplicate string `json:"duplicate_id"`
			Canonical string `json:"canonical_id"`
		} `json:"mapping"`
		Rejected []struct {
			Index int `json:"index"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Mapping, 3)
	assert.Equal(t, "A2", resp.Mapping[0].Duplicate)
	assert.Equal(t, "A1", resp.Mapping[0].Canonical)
	assert.Equal(t, "B2", resp.Mapping[2].Canonical)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, 3, resp.Rejected[0].Index)

	w = do(t, r, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"consolidation"`)

	w = do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `recordlink_phase_duration_seconds_count{op="consolidation"} 1`)
}

func TestConsolidate_EchoesZeroBasedPreference(t *testing.T) {
	r := newTestRouter()
	body := `{"judgments": [
		{"id_a": "A", "id_b": "B", "preferred": 0},
		{"id_a": "C", "id_b": "D", "preferred": 0},
		{"id_a": "D", "id_b": "B", "preferred": 0}
	]}`

	w := do(t, r, http.MethodPost, "/consolidate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TieBreaks []struct {
			Judgment map[string]any `json:"judgment"`
			Kept     string         `json:"kept"`
		} `json:"tie_breaks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.TieBreaks, 1)
	assert.Equal(t, "A", resp.TieBreaks[0].Kept)
	assert.Equal(t, float64(0), resp.TieBreaks[0].Judgment["preferred"])
}

func TestConsolidate_BadBody(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodPost, "/consolidate", `{"judgments": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectClusters(t *testing.T) {
	body := `{
		"records": [
			{"id": "ed0000000001", "fields": {"title": "Emile"}},
			{"id": "ed0000000002", "fields": {"title": "Emile"}},
			{"id": "ed0000000003", "fields": {"title": null}}
		],
		"clusters": [{"members": [
			{"record_id": "ed0000000001", "confidence": 0.9},
			{"record_id": "ed0000000002", "confidence": 0.9}
		]}]
	}`
	w := do(t, newTestRouter(), http.MethodPost, "/clusters/project", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Records []struct {
			ID         string   `json:"id"`
			Cluster    *int     `json:"cluster"`
			Confidence *float64 `json:"confidence"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 3)
	require.NotNil(t, resp.Records[1].Cluster)
	assert.Equal(t, 0, *resp.Records[1].Cluster)
	assert.Nil(t, resp.Records[2].Cluster)
}

func TestProjectClusters_UnknownRecord(t *testing.T) {
	body := `{"records": [], "clusters": [{"members": [{"record_id": "x", "confidence": 0.9}]}]}`
	w := do(t, newTestRouter(), http.MethodPost, "/clusters/project", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatch_UnknownEntity(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodPost, "/match/printer", `{"records": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
