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

// ItemCatalog is the minimal interface needed for item endpoints.
type ItemCatalog interface {
	CreateItem(ctx context.Context, in app.CreateItemInput) (domain.Item, error)
	GetItem(ctx context.Context, id string) (app.ItemAvailability, error)
	ListItems(ctx context.Context) ([]app.ItemAvailability, error)
	Restock(ctx context.Context, id string, quantity int) (domain.Item, error)
}

// HandleItems serves POST /items (create) and GET /items (list with
// availability).
func HandleItems(svc ItemCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			items, err := svc.ListItems(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]itemResponse, 0, len(items))
			for _, ia := range items {
				resp = append(resp, toItemResponse(ia))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createItemRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			item, err := svc.CreateItem(r.Context(), app.CreateItemInput{
				Name:          req.Name,
				StockQuantity: req.StockQuantity,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toItemResponse(app.ItemAvailability{
				Item:              item,
				AvailableQuantity: item.StockQuantity,
				Available:         item.StockQuantity > 0,
			}))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleItemRoutes serves GET /items/{id} and POST /items/{id}/restock.
func HandleItemRoutes(svc ItemCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "items" || parts[1] == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		id := parts[1]

		switch {
		case len(parts) == 2 && r.Method == http.MethodGet:
			ia, err := svc.GetItem(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toItemResponse(ia))
		case len(parts) == 3 && parts[2] == "restock" && r.Method == http.MethodPost:
			var req restockRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			item, err := svc.Restock(r.Context(), id, req.StockQuantity)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toItemResponse(app.ItemAvailability{
				Item:              item,
				AvailableQuantity: item.StockQuantity,
				Available:         item.StockQuantity > 0,
			}))
		case len(parts) == 2 || (len(parts) == 3 && parts[2] == "restock"):
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type createItemRequest struct {
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
}

type restockRequest struct {
	StockQuantity int `json:"stock_quantity"`
}

type itemResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	StockQuantity     int        `json:"stock_quantity"`
	ReservedQuantity  int        `json:"reserved_quantity"`
	AvailableQuantity int        `json:"available_quantity"`
	Available         bool       `json:"available"`
	IsSoldOut         bool       `json:"is_sold_out"`
	SoldAt            *time.Time `json:"sold_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toItemResponse(ia app.ItemAvailability) itemResponse {
	return itemResponse{
		ID:                ia.Item.ID,
		Name:              ia.Item.Name,
		StockQuantity:     ia.Item.StockQuantity,
		ReservedQuantity:  ia.ReservedQuantity,
		AvailableQuantity: ia.AvailableQuantity,
		Available:         ia.Available,
		IsSoldOut:         ia.Item.IsSoldOut,
		SoldAt:            ia.Item.SoldAt,
		CreatedAt:         ia.Item.CreatedAt,
	}
}
