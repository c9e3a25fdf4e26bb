package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/trading-kb/internal/engine"
	"github.com/mohamedkhairy/trading-kb/internal/facts"
	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/rules"
	"github.com/mohamedkhairy/trading-kb/internal/storage"
)

func newTestRouter(t *testing.T, results storage.ResultStorage) *mux.Router {
	t.Helper()
	handler, err := NewHandler(HandlerConfig{
		Store:    rules.NewInMemoryRuleStoreFromSet(rules.DefaultTradingRules()),
		Registry: facts.NewRegistry(),
		Engine:   engine.Config{},
		Results:  results,
	})
	require.NoError(t, err)
	return handler.Router(1000)
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func bullishIndicators() map[string]interface{} {
	return map[string]interface{}{
		"rsi":        25,
		"macd":       1.0,
		"ma20":       105,
		"ma50":       100,
		"volume":     2_000_000,
		"volatility": 0.01,
	}
}

func TestHandleHealth(t *testing.T) {
	rec := doJSON(t, newTestRouter(t, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestHandleListFacts(t *testing.T) {
	rec := doJSON(t, newTestRouter(t, nil), http.MethodGet, "/api/v1/facts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Facts []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"facts"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 15, resp.Count)
	assert.Equal(t, "RSI_OVERSOLD", resp.Facts[0].Name)
	assert.NotEmpty(t, resp.Facts[0].Description)
}

func TestHandleEvaluate(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"symbol":     "AAPL",
		"indicators": bullishIndicators(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Symbol  string                  `json:"symbol"`
		Result  *models.InferenceResult `json:"result"`
		Summary string                  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, models.ActionBuy, resp.Result.Action)
	assert.Contains(t, resp.Result.FiredRules, "BUY_MOMENTUM_1")
	assert.Contains(t, resp.Summary, "Action: BUY")
}

func TestHandleEvaluate_BadRequests(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"symbol":     "BAD SYMBOL",
		"indicators": bullishIndicators(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestHandleEvaluate_ThresholdOverrides(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"indicators": bullishIndicators(),
		"thresholds": map[string]float64{"rsi_oversold": 10},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result *models.InferenceResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Result.FiredRules, "BUY_MOMENTUM_1")
	assert.False(t, resp.Result.Truth["RSI_OVERSOLD"])
}

func TestHandleEvaluateBatch(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate/batch", map[string]interface{}{
		"snapshots": []map[string]interface{}{
			{"symbol": "AAPL", "indicators": bullishIndicators()},
			{"symbol": "BAD", "indicators": map[string]interface{}{"volume": -1}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			Symbol string                  `json:"symbol"`
			Result *models.InferenceResult `json:"result"`
			Error  string                  `json:"error"`
		} `json:"results"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, models.ActionBuy, resp.Results[0].Result.Action)
	assert.NotEmpty(t, resp.Results[1].Error)
}

func TestHandleRulesCRUD(t *testing.T) {
	router := newTestRouter(t, nil)

	// List starts with the built-in library
	rec := doJSON(t, router, http.MethodGet, "/api/v1/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 14, listResp.Count)

	// Get an existing rule
	rec = doJSON(t, router, http.MethodGet, "/api/v1/rules/BUY_MOMENTUM_1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/rules/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Add a valid rule; missing ID gets generated
	newRule := map[string]interface{}{
		"premises":   []map[string]interface{}{{"symbol": "VOLUME_SURGE"}, {"symbol": "STRONG_UPTREND"}},
		"conclusion": "BUY",
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/rules", newRule)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.HornRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	// Unknown premise symbol is rejected
	rec = doJSON(t, router, http.MethodPost, "/api/v1/rules", map[string]interface{}{
		"rule_id":    "BAD_VOCAB",
		"premises":   []map[string]interface{}{{"symbol": "NOT_A_FACT"}},
		"conclusion": "BUY",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Duplicate ID conflicts
	rec = doJSON(t, router, http.MethodPost, "/api/v1/rules", map[string]interface{}{
		"rule_id":    "BUY_MOMENTUM_1",
		"premises":   []map[string]interface{}{{"symbol": "VOLUME_SURGE"}},
		"conclusion": "BUY",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Update
	rec = doJSON(t, router, http.MethodPut, "/api/v1/rules/BUY_AGGRESSIVE", map[string]interface{}{
		"premises":   []map[string]interface{}{{"symbol": "RSI_OVERSOLD"}},
		"conclusion": "BUY",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/rules/BUY_AGGRESSIVE", map[string]interface{}{
		"rule_id":    "OTHER_ID",
		"premises":   []map[string]interface{}{{"symbol": "RSI_OVERSOLD"}},
		"conclusion": "BUY",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/rules/SELL_AGGRESSIVE", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/rules/SELL_AGGRESSIVE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuleMutationAffectsEvaluation(t *testing.T) {
	router := newTestRouter(t, nil)

	// Baseline: bullish snapshot buys
	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"indicators": bullishIndicators(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Delete every buy rule the snapshot can fire
	for _, id := range []string{
		"BUY_MOMENTUM_1", "BUY_MOMENTUM_STRONG", "BUY_PULLBACK",
		"BUY_VOLUME_BREAKOUT", "BUY_CONSERVATIVE", "BUY_AGGRESSIVE", "BUY_LOW_VOL",
	} {
		rec = doJSON(t, router, http.MethodDelete, "/api/v1/rules/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code, id)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"indicators": bullishIndicators(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result *models.InferenceResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ActionHold, resp.Result.Action)
}

func TestExternalRuleChangeReachesEvaluation(t *testing.T) {
	// Another process writing to a shared rule store must be picked up
	// once the cached engine outlives the reload interval, without any
	// CRUD call through this handler.
	store := rules.NewInMemoryRuleStore()
	handler, err := NewHandler(HandlerConfig{
		Store:          store,
		Registry:       facts.NewRegistry(),
		Engine:         engine.Config{},
		ReloadInterval: time.Millisecond,
	})
	require.NoError(t, err)
	router := handler.Router(1000)

	// Warm the cache on an empty store
	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"indicators": bullishIndicators(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result *models.InferenceResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.ActionHold, resp.Result.Action)
	require.Empty(t, resp.Result.FiredRules)

	// External writer publishes a rule directly to the store
	require.NoError(t, store.AddRule(&models.HornRule{
		ID:         "EXTERNAL_BUY",
		Premises:   []models.Literal{{Symbol: "RSI_OVERSOLD"}},
		Conclusion: models.FactBuy,
	}))

	time.Sleep(5 * time.Millisecond)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"indicators": bullishIndicators(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ActionBuy, resp.Result.Action)
	assert.Contains(t, resp.Result.FiredRules, "EXTERNAL_BUY")
}

func TestResultsEndpoints(t *testing.T) {
	results := storage.NewMockResultStorage()
	router := newTestRouter(t, results)

	// Evaluating with a symbol persists the result
	rec := doJSON(t, router, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{
		"symbol":     "AAPL",
		"indicators": bullishIndicators(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, results.Count())

	var evalResp struct {
		Result *models.InferenceResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evalResp))

	rec = doJSON(t, router, http.MethodGet, "/api/v1/results/"+evalResp.Result.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/results?symbol=AAPL&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Count)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/results", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultsEndpoints_Unconfigured(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/results/some-id", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/results?symbol=AAPL", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewHandler_Validation(t *testing.T) {
	_, err := NewHandler(HandlerConfig{Registry: facts.NewRegistry()})
	require.Error(t, err)

	_, err = NewHandler(HandlerConfig{Store: rules.NewInMemoryRuleStore()})
	require.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doJSON(t, newTestRouter(t, nil), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kb_inference")
}
