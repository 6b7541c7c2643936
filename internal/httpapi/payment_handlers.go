package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"serveyz.org/internal/audit"
	"serveyz.org/internal/obs"
	"serveyz.org/internal/payment"
)

type paymentIntentRequest struct {
	Price float64 `json:"price"`
}

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (a *API) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	if a.intents == nil {
		writeError(w, r, http.StatusServiceUnavailable, "payments disabled")
		return
	}

	var req paymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Price <= 0 {
		writeError(w, r, http.StatusBadRequest, "price must be > 0")
		return
	}

	secret, err := a.intents.CreateIntent(r.Context(), payment.MinorUnits(req.Price), "usd")
	if err != nil {
		if errors.Is(err, payment.ErrInvalidAmount) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		// Gateway details stay in the server log.
		obs.LogRequest(map[string]any{
			"level":      "error",
			"msg":        "payment_intent_failed",
			"request_id": RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "payment intent creation failed")
		return
	}

	writeJSON(w, http.StatusOK, paymentIntentResponse{ClientSecret: secret})
}

type recordPaymentRequest struct {
	Email         string `json:"email"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

func (a *API) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := a.ledger.Record(r.Context(), payment.Payment{
		Email:         strings.TrimSpace(req.Email),
		Amount:        req.Amount,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidEmail), errors.Is(err, payment.ErrInvalidAmount):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	obs.PaymentRecorded()
	_ = audit.LogEvent(r.Context(), "payment.recorded", map[string]any{
		"payment_id":   receipt.Payment.ID,
		"email":        receipt.Payment.Email,
		"amount":       receipt.Payment.Amount,
		"role_updated": receipt.RoleUpdated,
	})
	writeJSON(w, http.StatusCreated, receipt)
}

func (a *API) paymentsByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !a.requireSelf(w, r, email) {
		return
	}
	payments, err := a.ledger.ListByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (a *API) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := a.ledger.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}
