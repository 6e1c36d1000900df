package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fernwell/royaltyd/internal/config"
	"github.com/fernwell/royaltyd/internal/engine"
	"github.com/fernwell/royaltyd/internal/metrics"
	"github.com/fernwell/royaltyd/internal/sales"
	"github.com/fernwell/royaltyd/internal/store"
)

const maxBatchSize = 5000

// Handler holds all HTTP handler dependencies.
type Handler struct {
	calc   *engine.Calculator
	rules  *store.Store
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(calc *engine.Calculator, rules *store.Store, loader *config.Loader) http.Handler {
	h := &Handler{calc: calc, rules: rules, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/contracts/{contractID}/calculate", h.calculate)
	h.mux.HandleFunc("GET /v1/contracts", h.listContracts)
	h.mux.HandleFunc("GET /v1/contracts/{contractID}/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	limiter := newRateLimit(50, 100)
	return loggingMiddleware(limiter.wrap(h.mux))
}

// calculateResponse wraps a batch result with a job identifier for audit
// correlation downstream.
type calculateResponse struct {
	JobID string `json:"job_id"`
	*engine.BatchResult
}

// POST /v1/contracts/{contractID}/calculate — synchronous batch rating.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contractID")
	var items []sales.LineItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(items) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(items), maxBatchSize))
		return
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		if items[i].TransactionDate.IsZero() {
			items[i].TransactionDate = time.Now()
		}
	}

	res, err := h.calc.Calculate(r.Context(), contractID, items)
	if err != nil {
		if strings.Contains(err.Error(), "unknown contract") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{JobID: uuid.New().String(), BatchResult: res})
}

// GET /v1/contracts — list loaded contract IDs.
func (h *Handler) listContracts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contracts": h.rules.Contracts(),
	})
}

// GET /v1/contracts/{contractID}/rules — list a contract's active rules.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contractID")
	rules, err := h.rules.RulesForContract(contractID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contract_id": contractID,
		"rules":       rules,
	})
}

// POST /v1/rules/reload — hot-reload the rule file from disk.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.rules.Invalidate()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":        true,
		"contracts_count": len(cfg.Contracts),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the rating queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.calc.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
