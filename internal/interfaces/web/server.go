package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"tickfeed/internal/domain"
	"tickfeed/internal/feed"
)

// Feed is the slice of the price client the HTTP surface reads from.
type Feed interface {
	State() feed.ClientState
	CurrentPrices(symbol string) (map[domain.Topic]domain.PriceView, error)
}

// NewServer builds the read-only status server.
func NewServer(addr string, client Feed) *http.Server {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Get("/status", handleStatus(client))
	r.Get("/prices", handlePrices(client))
	r.Get("/prices/{symbol}", handleSymbolPrices(client))

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleStatus(client Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, client.State())
	}
}

func handlePrices(client Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, client.State().Prices)
	}
}

func handleSymbolPrices(client Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		views, err := client.CurrentPrices(symbol)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if views == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no data for symbol"})
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
