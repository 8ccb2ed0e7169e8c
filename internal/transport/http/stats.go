package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LeandroKeltech/bgcatalog/internal/app"
)

// StatsProvider is the minimal interface needed for the dashboard counters.
type StatsProvider interface {
	Stats(ctx context.Context) (app.ReservationStats, error)
}

// HandleStats serves GET /stats.
func HandleStats(svc StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsResponse{
			Active:           stats.Active,
			Confirmed:        stats.Confirmed,
			Cancelled:        stats.Cancelled,
			Expired:          stats.Expired,
			ReservedQuantity: stats.ReservedQuantity,
		})
	}
}

type statsResponse struct {
	Active           int `json:"active"`
	Confirmed        int `json:"confirmed"`
	Cancelled        int `json:"cancelled"`
	Expired          int `json:"expired"`
	ReservedQuantity int `json:"reserved_quantity"`
}
