package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openalpha/nos-rewards/api/types"
	"github.com/openalpha/nos-rewards/metrics"
)

// RewardsHandler serves the reward ledger over HTTP
type RewardsHandler struct {
	service types.LedgerService
	metrics *metrics.Collector
}

// NewRewardsHandler creates a new rewards handler. collector may be nil.
func NewRewardsHandler(service types.LedgerService, collector *metrics.Collector) *RewardsHandler {
	return &RewardsHandler{service: service, metrics: collector}
}

// RegisterQueries mounts the read-only routes
func (h *RewardsHandler) RegisterQueries(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/v1/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/v1/pool", h.GetPool).Methods(http.MethodGet)
	r.HandleFunc("/v1/entries/{owner}", h.GetEntry).Methods(http.MethodGet)
	r.HandleFunc("/v1/claimable/{owner}", h.GetClaimable).Methods(http.MethodGet)
	r.HandleFunc("/v1/balances/{address}", h.GetBalance).Methods(http.MethodGet)
}

// RegisterMutations mounts the routes that change ledger state
func (h *RewardsHandler) RegisterMutations(r *mux.Router) {
	r.HandleFunc("/v1/enter", h.Enter).Methods(http.MethodPost)
	r.HandleFunc("/v1/add-fee", h.AddFee).Methods(http.MethodPost)
	r.HandleFunc("/v1/claim", h.Claim).Methods(http.MethodPost)
	r.HandleFunc("/v1/close", h.Close).Methods(http.MethodPost)
	r.HandleFunc("/v1/stake", h.SetStake).Methods(http.MethodPost)
	r.HandleFunc("/v1/fund", h.Fund).Methods(http.MethodPost)
}

// fail writes err as a JSON error response
func (h *RewardsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	h.reject(w, r, status, code, err.Error())
}

func (h *RewardsHandler) reject(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if h.metrics != nil {
		h.metrics.RecordAPIError(RouteTemplate(r), code)
	}
	writeError(w, status, code, message)
}

// decode reads a JSON body into req, answering 400 on failure
func (h *RewardsHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.reject(w, r, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return false
	}
	return true
}

// ============ Queries ============

// Health handles GET /health
func (h *RewardsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Health(r.Context()))
}

// GetPool handles GET /v1/pool
func (h *RewardsHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Pool(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetEntry handles GET /v1/entries/{owner}
func (h *RewardsHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Entry(r.Context(), mux.Vars(r)["owner"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetClaimable handles GET /v1/claimable/{owner}
func (h *RewardsHandler) GetClaimable(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Claimable(r.Context(), mux.Vars(r)["owner"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBalance handles GET /v1/balances/{address}
func (h *RewardsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Balance(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============ Mutations ============

// Enter handles POST /v1/enter
func (h *RewardsHandler) Enter(w http.ResponseWriter, r *http.Request) {
	var req types.EnterRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Enter(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// AddFee handles POST /v1/add-fee
func (h *RewardsHandler) AddFee(w http.ResponseWriter, r *http.Request) {
	var req types.AddFeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.AddFee(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Claim handles POST /v1/claim
func (h *RewardsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req types.ClaimRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Claim(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Close handles POST /v1/close
func (h *RewardsHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req types.CloseRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Close(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetStake handles POST /v1/stake
func (h *RewardsHandler) SetStake(w http.ResponseWriter, r *http.Request) {
	var req types.StakeRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.SetStake(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Fund handles POST /v1/fund
func (h *RewardsHandler) Fund(w http.ResponseWriter, r *http.Request) {
	var req types.FundRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Fund(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RouteTemplate labels r by its route pattern rather than its concrete path
func RouteTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
