package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/service"
)

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHTTP_Health(t *testing.T) {
	rec := do(t, newTestServer(t).Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHTTP_Extract(t *testing.T) {
	h := newTestServer(t).Router()
	rec := do(t, h, http.MethodPost, "/extract", model.CapturedAttributes{Tag: "input", Name: "email", Placeholder: "Email"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var chain model.Chain
	decodeJSON(t, rec, &chain)
	require.NotEmpty(t, chain)
	assert.Equal(t, model.KindName, chain.Primary().Kind)

	rec = do(t, h, http.MethodPost, "/extract", map[string]string{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_Lifecycle(t *testing.T) {
	h := newTestServer(t).Router()

	capture := CaptureRequest{Locator: "id=save", Target: TargetRequest{Snapshot: pageV1}}
	rec := do(t, h, http.MethodPost, "/objects", capture)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var captured service.CaptureResult
	decodeJSON(t, rec, &captured)

	rec = do(t, h, http.MethodPost, "/objects", capture)
	assert.Equal(t, http.StatusOK, rec.Code, "re-capture returns the existing object")

	rec = do(t, h, http.MethodGet, "/objects?platform=web", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []service.ObjectSummary
	decodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, captured.ID, list[0].ID)

	path := "/objects/" + captured.ID
	for i := 0; i < 2; i++ {
		rec = do(t, h, http.MethodPost, path+"/resolve", ResolveRequest{Target: TargetRequest{Snapshot: pageV2}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res service.ResolveResult
		decodeJSON(t, rec, &res)
		assert.True(t, res.Success)
		assert.True(t, res.HealingApplied)
	}

	rec = do(t, h, http.MethodGet, "/healing/stats", nil)
	var stats model.Statistics
	decodeJSON(t, rec, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStrategy[model.StrategyFallback])

	rec = do(t, h, http.MethodGet, "/healing/suggestions", nil)
	var suggestions []model.UpdateSuggestion
	decodeJSON(t, rec, &suggestions)
	require.Len(t, suggestions, 1)

	rec = do(t, h, http.MethodGet, "/healing/suggestions?min_frequency=3", nil)
	decodeJSON(t, rec, &suggestions)
	assert.Empty(t, suggestions)

	rec = do(t, h, http.MethodPost, path+"/apply-suggestion", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var applied service.AppliedSuggestion
	decodeJSON(t, rec, &applied)
	assert.Equal(t, model.KindText, applied.Chain.Primary().Kind)

	rec = do(t, h, http.MethodPost, path+"/apply-suggestion", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/healing/export?format=jsonl", nil)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Len(t, strings.Split(strings.TrimSpace(rec.Body.String()), "\n"), 2)

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_SetChain(t *testing.T) {
	h := newTestServer(t).Router()
	rec := do(t, h, http.MethodPost, "/objects", CaptureRequest{
		Platform:   "web",
		Attributes: &model.CapturedAttributes{Tag: "button", ID: "go", Text: "Go"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var captured service.CaptureResult
	decodeJSON(t, rec, &captured)
	path := "/objects/" + captured.ID + "/chain"

	chain := model.Chain{
		{Kind: model.KindXPath, Value: "//button[1]", Reliability: 40},
		{Kind: model.KindText, Value: "Go", Tag: "button", Reliability: 90},
	}
	rec = do(t, h, http.MethodPut, path, chain)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var obj model.UIObject
	decodeJSON(t, rec, &obj)
	assert.Equal(t, model.KindText, obj.Chain.Primary().Kind, "stored chain is ordered by reliability")

	rec = do(t, h, http.MethodPut, path, model.Chain{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, path, model.Chain{{Kind: "css", Value: ".x", Reliability: 10}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/objects/missing/chain", chain)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_BadRequests(t *testing.T) {
	h := newTestServer(t).Router()
	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown platform", http.MethodGet, "/objects?platform=tv", nil, http.StatusBadRequest},
		{"capture without input", http.MethodPost, "/objects", CaptureRequest{}, http.StatusBadRequest},
		{"capture bad locator", http.MethodPost, "/objects", CaptureRequest{Locator: "nope"}, http.StatusBadRequest},
		{"capture without environment", http.MethodPost, "/objects", CaptureRequest{Locator: "id=save"}, http.StatusBadRequest},
		{"capture missing element", http.MethodPost, "/objects", CaptureRequest{Locator: "id=nope", Target: TargetRequest{Snapshot: pageV1}}, http.StatusNotFound},
		{"resolve unknown object", http.MethodPost, "/objects/missing/resolve", ResolveRequest{Target: TargetRequest{Snapshot: pageV1}}, http.StatusNotFound},
		{"bad min frequency", http.MethodGet, "/healing/suggestions?min_frequency=x", nil, http.StatusBadRequest},
		{"bad export format", http.MethodGet, "/healing/export?format=csv", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHTTP_CORSPreflight(t *testing.T) {
	h := newTestServer(t).Router()
	req := httptest.NewRequest(http.MethodOptions, "/objects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
