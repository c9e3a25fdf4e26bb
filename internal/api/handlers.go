package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohamedkhairy/trading-kb/internal/engine"
	"github.com/mohamedkhairy/trading-kb/internal/facts"
	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/pubsub"
	"github.com/mohamedkhairy/trading-kb/internal/rules"
	"github.com/mohamedkhairy/trading-kb/internal/storage"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

// HandlerConfig wires the handler's collaborators
type HandlerConfig struct {
	Store      rules.RuleStore
	Registry   *facts.Registry
	Thresholds facts.Thresholds
	Engine     engine.Config

	// Results is optional; without it the results endpoints report the
	// audit log as unavailable and evaluations are not persisted
	Results storage.ResultStorage

	// Publisher is optional; when set, every persisted evaluation is
	// also fanned out on the result channel
	Publisher *pubsub.ResultPublisher

	// ReloadInterval bounds how stale the cached engine may get. When
	// positive, the rule snapshot is rebuilt from the store once it is
	// older than this, so rules written to a shared store by other
	// processes reach evaluation without a local CRUD call. Zero
	// disables time-based reloads.
	ReloadInterval time.Duration

	// BatchWorkers caps batch evaluation concurrency
	BatchWorkers int
}

// Handler serves the knowledge base REST API. Inference always runs
// against a cached immutable engine built from the rule store; rule
// mutations through the API invalidate the cache immediately, and the
// reload interval ages it out so external store writers are seen too.
type Handler struct {
	config HandlerConfig

	mu      sync.RWMutex
	cached  *engine.Engine
	builtAt time.Time
}

// NewHandler creates an API handler
func NewHandler(config HandlerConfig) (*Handler, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("rule store cannot be nil")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("fact registry cannot be nil")
	}
	return &Handler{config: config}, nil
}

// Router builds the HTTP router with the standard middleware chain
func (h *Handler) Router(rateLimitRPS int) *mux.Router {
	router := mux.NewRouter()

	chain := ChainMiddleware(
		RecoveryMiddleware(),
		LoggingMiddleware(),
		CORSMiddleware(),
		RateLimitMiddleware(rateLimitRPS),
	)
	router.Use(mux.MiddlewareFunc(chain))

	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/facts", h.handleListFacts).Methods(http.MethodGet)
	v1.HandleFunc("/evaluate", h.handleEvaluate).Methods(http.MethodPost)
	v1.HandleFunc("/evaluate/batch", h.handleEvaluateBatch).Methods(http.MethodPost)
	v1.HandleFunc("/rules", h.handleListRules).Methods(http.MethodGet)
	v1.HandleFunc("/rules", h.handleAddRule).Methods(http.MethodPost)
	v1.HandleFunc("/rules/{id}", h.handleGetRule).Methods(http.MethodGet)
	v1.HandleFunc("/rules/{id}", h.handleUpdateRule).Methods(http.MethodPut)
	v1.HandleFunc("/rules/{id}", h.handleDeleteRule).Methods(http.MethodDelete)
	v1.HandleFunc("/results", h.handleListResults).Methods(http.MethodGet)
	v1.HandleFunc("/results/{id}", h.handleGetResult).Methods(http.MethodGet)

	return router
}

// engine returns the cached engine, rebuilding it from the rule store
// after a mutation or once the snapshot outlives the reload interval
func (h *Handler) engine() (*engine.Engine, error) {
	h.mu.RLock()
	cached := h.cached
	builtAt := h.builtAt
	h.mu.RUnlock()
	if cached != nil && !h.stale(builtAt) {
		return cached, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cached != nil && !h.stale(h.builtAt) {
		return h.cached, nil
	}

	set, err := rules.SetFromStore(h.config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot rules: %w", err)
	}
	eng, err := engine.New(set, h.config.Registry, h.config.Thresholds, h.config.Engine)
	if err != nil {
		return nil, err
	}
	h.cached = eng
	h.builtAt = time.Now()
	return eng, nil
}

func (h *Handler) stale(builtAt time.Time) bool {
	return h.config.ReloadInterval > 0 && time.Since(builtAt) >= h.config.ReloadInterval
}

func (h *Handler) invalidate() {
	h.mu.Lock()
	h.cached = nil
	h.mu.Unlock()
}

// vocabulary builds the set of known symbols: registered facts plus
// every conclusion the stored rules can derive
func (h *Handler) vocabulary() (map[string]bool, error) {
	vocab := make(map[string]bool)
	for _, name := range h.config.Registry.Names() {
		vocab[name] = true
	}
	all, err := h.config.Store.GetAllRules()
	if err != nil {
		return nil, err
	}
	for _, rule := range all {
		vocab[rule.Conclusion] = true
	}
	return vocab, nil
}

// Health

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Facts

func (h *Handler) handleListFacts(w http.ResponseWriter, r *http.Request) {
	type factInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	names := h.config.Registry.Names()
	out := make([]factInfo, 0, len(names))
	for _, name := range names {
		def, _ := h.config.Registry.Get(name)
		out = append(out, factInfo{Name: def.Name, Description: def.Description})
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"facts": out,
		"count": len(out),
	})
}

// Evaluation

// evaluateRequest is the POST /evaluate body. Thresholds override the
// server defaults for this request only.
type evaluateRequest struct {
	Symbol     string                   `json:"symbol,omitempty"`
	Indicators *models.MarketIndicators `json:"indicators"`
	Thresholds map[string]float64       `json:"thresholds,omitempty"`
}

type evaluateResponse struct {
	Symbol  string                  `json:"symbol,omitempty"`
	Result  *models.InferenceResult `json:"result"`
	Summary string                  `json:"summary"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Indicators == nil {
		respondWithError(w, http.StatusBadRequest, "indicators is required")
		return
	}
	if req.Symbol != "" {
		if err := models.ValidateSymbol(req.Symbol); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid symbol: "+err.Error())
			return
		}
	}

	eng, err := h.engineForRequest(req.Thresholds)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := eng.Evaluate(req.Indicators)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.persistResult(r, req.Symbol, result)

	respondWithJSON(w, http.StatusOK, evaluateResponse{
		Symbol:  req.Symbol,
		Result:  result,
		Summary: engine.Summarize(result),
	})
}

// engineForRequest returns the cached engine, or a one-off engine when
// the request overrides thresholds
func (h *Handler) engineForRequest(overrides map[string]float64) (*engine.Engine, error) {
	if len(overrides) == 0 {
		return h.engine()
	}
	set, err := rules.SetFromStore(h.config.Store)
	if err != nil {
		return nil, err
	}
	merged := h.config.Thresholds.Merge(overrides)
	return engine.New(set, h.config.Registry, merged, h.config.Engine)
}

func (h *Handler) persistResult(r *http.Request, symbol string, result *models.InferenceResult) {
	if symbol == "" {
		return
	}
	if h.config.Publisher != nil {
		// Publisher logs its own failures; publishing is best effort
		_ = h.config.Publisher.Publish(r.Context(), symbol, result)
	}
	if h.config.Results == nil {
		return
	}
	if err := h.config.Results.SaveResult(r.Context(), symbol, result); err != nil {
		logger.Warn("Failed to persist inference result",
			logger.String("run_id", result.ID),
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
	}
}

type batchEvaluateRequest struct {
	Snapshots []struct {
		Symbol     string                   `json:"symbol"`
		Indicators *models.MarketIndicators `json:"indicators"`
	} `json:"snapshots"`
}

func (h *Handler) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Snapshots) == 0 {
		respondWithError(w, http.StatusBadRequest, "snapshots is required")
		return
	}

	eng, err := h.engine()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	requests := make([]engine.BatchRequest, len(req.Snapshots))
	for i, s := range req.Snapshots {
		requests[i] = engine.BatchRequest{Symbol: s.Symbol, Indicators: s.Indicators}
	}

	type batchItem struct {
		Symbol string                  `json:"symbol"`
		Result *models.InferenceResult `json:"result,omitempty"`
		Error  string                  `json:"error,omitempty"`
	}

	results := eng.EvaluateBatch(r.Context(), requests, h.config.BatchWorkers)
	out := make([]batchItem, len(results))
	for i, res := range results {
		item := batchItem{Symbol: res.Symbol}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else {
			item.Result = res.Result
			h.persistResult(r, res.Symbol, res.Result)
		}
		out[i] = item
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": out,
		"count":   len(out),
	})
}

// Rules CRUD

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := h.config.Store.GetAllRules()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rules": all,
		"count": len(all),
	})
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rule, err := h.config.Store.GetRule(id)
	if err != nil {
		if errors.Is(err, models.ErrRuleNotFound) {
			respondWithError(w, http.StatusNotFound, "Rule not found: "+id)
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule models.HornRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	if err := h.validateRuleSymbols(&rule); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.config.Store.AddRule(&rule); err != nil {
		if errors.Is(err, models.ErrDuplicateRuleID) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.invalidate()

	logger.Info("Rule added",
		logger.String("rule_id", rule.ID),
		logger.String("conclusion", rule.Conclusion),
	)
	respondWithJSON(w, http.StatusCreated, &rule)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var rule models.HornRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if rule.ID == "" {
		rule.ID = id
	}
	if rule.ID != id {
		respondWithError(w, http.StatusBadRequest, "Rule ID in body does not match URL")
		return
	}

	if err := h.validateRuleSymbols(&rule); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.config.Store.UpdateRule(&rule); err != nil {
		if errors.Is(err, models.ErrRuleNotFound) {
			respondWithError(w, http.StatusNotFound, "Rule not found: "+id)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.invalidate()

	respondWithJSON(w, http.StatusOK, &rule)
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.config.Store.DeleteRule(id); err != nil {
		if errors.Is(err, models.ErrRuleNotFound) {
			respondWithError(w, http.StatusNotFound, "Rule not found: "+id)
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.invalidate()

	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *Handler) validateRuleSymbols(rule *models.HornRule) error {
	vocab, err := h.vocabulary()
	if err != nil {
		return err
	}
	// A rule may premise on its own conclusion being derivable elsewhere
	vocab[rule.Conclusion] = true
	return rules.ValidateAgainstVocabulary(rule, vocab)
}

// Results audit log

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if h.config.Results == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Result audit log is not configured")
		return
	}

	id := mux.Vars(r)["id"]
	result, err := h.config.Results.GetResult(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	if h.config.Results == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Result audit log is not configured")
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := h.config.Results.GetRecentResults(r.Context(), symbol, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}
