package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/LeandroKeltech/bgcatalog/internal/app"
	"github.com/LeandroKeltech/bgcatalog/internal/domain"
)

// ReservationCreator is the minimal interface needed to create reservations.
type ReservationCreator interface {
	CreateReservation(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
	Checkout(ctx context.Context, in app.CheckoutInput) ([]domain.Reservation, error)
}

// ReservationAdmin is the minimal interface needed for operator actions.
type ReservationAdmin interface {
	Confirm(ctx context.Context, id, adminNotes string) error
	Cancel(ctx context.Context, id, adminNotes string) error
	Extend(ctx context.Context, id string, minutes int) error
	SweepExpired(ctx context.Context) (int, error)
	ListReservations(ctx context.Context, filter app.ReservationFilter) ([]domain.Reservation, error)
}

// HandleReservations serves POST /reservations (create one) and
// GET /reservations (admin/session listing).
func HandleReservations(creator ReservationCreator, admin ReservationAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req createReservationRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			res, err := creator.CreateReservation(r.Context(), app.CreateReservationInput{
				ItemID:   req.ItemID,
				Quantity: req.Quantity,
				Customer: app.Customer{
					Name:    req.CustomerName,
					Email:   req.CustomerEmail,
					Phone:   req.CustomerPhone,
					Message: req.CustomerMessage,
				},
				SessionKey: req.SessionKey,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toReservationResponse(res))
		case http.MethodGet:
			reservations, err := admin.ListReservations(r.Context(), app.ReservationFilter{
				Status:     r.URL.Query().Get("status"),
				SessionKey: r.URL.Query().Get("session_key"),
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			resp := make([]reservationResponse, 0, len(reservations))
			for _, res := range reservations {
				resp = append(resp, toReservationResponse(res))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleCheckout serves POST /checkout: every cart line reserved in one
// transaction, all-or-nothing.
func HandleCheckout(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req checkoutRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]app.CheckoutLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, app.CheckoutLine{ItemID: line.ItemID, Quantity: line.Quantity})
		}

		reservations, err := svc.Checkout(r.Context(), app.CheckoutInput{
			Lines: lines,
			Customer: app.Customer{
				Name:    req.CustomerName,
				Email:   req.CustomerEmail,
				Phone:   req.CustomerPhone,
				Message: req.CustomerMessage,
			},
			SessionKey: req.SessionKey,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]reservationResponse, 0, len(reservations))
		for _, res := range reservations {
			resp = append(resp, toReservationResponse(res))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleReservationActions serves POST /reservations/sweep and
// POST /reservations/{id}/{confirm|cancel|extend}.
func HandleReservationActions(svc ReservationAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) == 2 && parts[0] == "reservations" && parts[1] == "sweep" {
			n, err := svc.SweepExpired(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(sweepResponse{Expired: n})
			return
		}

		id, action, ok := parseReservationActionPath(parts)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req actionRequest
		if r.Body != nil && r.ContentLength != 0 {
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
		}

		var err error
		switch action {
		case "confirm":
			err = svc.Confirm(r.Context(), id, req.AdminNotes)
		case "cancel":
			err = svc.Cancel(r.Context(), id, req.AdminNotes)
		case "extend":
			minutes := req.Minutes
			if minutes == 0 {
				minutes = app.DefaultExtendMinutes
			}
			err = svc.Extend(r.Context(), id, minutes)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(actionResponse{ID: id, Action: action})
	}
}

func parseReservationActionPath(parts []string) (id, action string, ok bool) {
	if len(parts) != 3 || parts[0] != "reservations" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type createReservationRequest struct {
	ItemID          string `json:"item_id"`
	Quantity        int    `json:"quantity"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerMessage string `json:"customer_message"`
	SessionKey      string `json:"session_key"`
}

type checkoutLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type checkoutRequest struct {
	Lines           []checkoutLineRequest `json:"lines"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   string                `json:"customer_phone"`
	CustomerMessage string                `json:"customer_message"`
	SessionKey      string                `json:"session_key"`
}

type actionRequest struct {
	AdminNotes string `json:"admin_notes"`
	Minutes    int    `json:"minutes"`
}

type actionResponse struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type sweepResponse struct {
	Expired int `json:"expired"`
}

type reservationResponse struct {
	ID                   string     `json:"id"`
	ItemID               string     `json:"item_id"`
	Quantity             int        `json:"quantity"`
	Status               string     `json:"status"`
	CustomerName         string     `json:"customer_name"`
	CustomerEmail        string     `json:"customer_email"`
	SessionKey           string     `json:"session_key"`
	CreatedAt            time.Time  `json:"created_at"`
	ExpiresAt            time.Time  `json:"expires_at"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	AdminNotes           string     `json:"admin_notes,omitempty"`
	TimeRemainingSeconds int        `json:"time_remaining_seconds"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	remaining := 0
	if res.Status == domain.ReservationStatusActive {
		remaining = int(res.TimeRemaining(time.Now().UTC()).Seconds())
	}
	return reservationResponse{
		ID:                   res.ID,
		ItemID:               res.ItemID,
		Quantity:             res.Quantity,
		Status:               string(res.Status),
		CustomerName:         res.CustomerName,
		CustomerEmail:        res.CustomerEmail,
		SessionKey:           res.SessionKey,
		CreatedAt:            res.CreatedAt,
		ExpiresAt:            res.ExpiresAt,
		ConfirmedAt:          res.ConfirmedAt,
		CancelledAt:          res.CancelledAt,
		AdminNotes:           res.AdminNotes,
		TimeRemainingSeconds: remaining,
	}
}
