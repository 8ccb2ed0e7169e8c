package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LeandroKeltech/bgcatalog/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidID             = "invalid_id"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidStatus         = "invalid_status"
	codeInvalidDuration       = "invalid_duration"
	codeItemNameRequired      = "item_name_required"
	codeCustomerNameRequired  = "customer_name_required"
	codeCustomerEmailRequired = "customer_email_required"
	codeEmptyCheckout         = "empty_checkout"
	codeItemNotFound          = "item_not_found"
	codeReservationNotFound   = "reservation_not_found"
	codeInsufficientStock     = "insufficient_stock"
	codeInvalidTransition     = "invalid_transition"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available *int   `json:"available,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps core errors to HTTP responses. Insufficient stock
// carries the live available count so callers can present a corrected
// maximum.
func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		available := stockErr.Available
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:     stockErr.Error(),
			Code:      codeInsufficientStock,
			Available: &available,
		})
		return
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, codeItemNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, codeInvalidDuration, err.Error())
	case errors.Is(err, domain.ErrItemNameRequired):
		writeError(w, http.StatusBadRequest, codeItemNameRequired, err.Error())
	case errors.Is(err, domain.ErrCustomerNameRequired):
		writeError(w, http.StatusBadRequest, codeCustomerNameRequired, err.Error())
	case errors.Is(err, domain.ErrCustomerEmailRequired):
		writeError(w, http.StatusBadRequest, codeCustomerEmailRequired, err.Error())
	case errors.Is(err, domain.ErrEmptyCheckout):
		writeError(w, http.StatusBadRequest, codeEmptyCheckout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
