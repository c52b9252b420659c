package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/campusride/wallet-ledger/internal/ledger"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CallerHeader carries the id of the already-authenticated account
const CallerHeader = "X-Account-ID"

type Handler struct {
	engine *ledger.Engine
	log    logrus.FieldLogger
}

func NewHandler(engine *ledger.Engine, log logrus.FieldLogger) *Handler {
	return &Handler{engine: engine, log: log.WithField("component", "api")}
}

type transactionRequest struct {
	TypeOfOperation   string          `json:"type_of_operation"`
	CostOfTransaction decimal.Decimal `json:"cost_of_transaction"`
	UserID            string          `json:"user_id"` // receiver email for transfer and ride_fare
	SchoolEmail       string          `json:"school_email"`
	CarOwnerEmail     string          `json:"car_owner_email"`
}

type accountRequest struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// CreateTransaction settles a load_wallet, transfer or ride_fare request for the caller
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	caller := strings.TrimSpace(r.Header.Get(CallerHeader))
	if caller == "" {
		writeFail(w, http.StatusUnauthorized, "Unauthorized", "unauthorized access")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}

	settlement, err := h.engine.Settle(r.Context(), models.SettlementRequest{
		Kind:          models.OperationKind(strings.ToLower(strings.TrimSpace(req.TypeOfOperation))),
		Amount:        req.CostOfTransaction,
		SenderID:      caller,
		ReceiverEmail: req.UserID,
		SchoolLabel:   req.SchoolEmail,
		CarOwnerLabel: req.CarOwnerEmail,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Status: "success",
		Data: map[string]any{
			"transaction": settlement.Entry,
			"free_ride":   settlement.FreeRide,
			"message":     "Transaction succesful",
		},
	})
}

func (h *Handler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	account, err := h.engine.RegisterAccount(r.Context(), req.Name, req.Email, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Status: "success", Data: account})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	balance, err := h.engine.GetBalance(r.Context(), accountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Status: "success",
		Data: struct {
			AccountID string          `json:"account_id"`
			Balance   decimal.Decimal `json:"balance"`
		}{accountID, balance},
	})
}

func (h *Handler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.engine.GetEntriesByAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: entries})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.engine.GetLedgerEntries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: entries})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledger.KindOf(err)
	message := err.Error()
	if kind == ledger.KindInternal {
		h.log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("request failed")
		message = "transaction could not be completed"
	}
	writeFail(w, ledger.StatusOf(err), string(kind), message)
}

func writeFail(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, envelope{
		Status: "fail",
		Data: map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
