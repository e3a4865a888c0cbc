package router

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Nour-MZ/Nomada/internal/handlers"
)

// Options carries the pieces of the router that are not plain handlers.
type Options struct {
	AllowedOrigins []string
	Metrics        http.Handler
	BookingEvents  http.HandlerFunc
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, opts Options) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware(opts.AllowedOrigins))

	api := r.PathPrefix("/api").Subrouter()

	// Conversation
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete, http.MethodOptions)

	// Accounts
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost, http.MethodOptions)

	// Bookings
	api.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings/cancel", h.CancelBooking).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket for real-time booking updates
	if opts.BookingEvents != nil {
		api.HandleFunc("/bookings/ws", opts.BookingEvents)
	}

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	return r
}

// corsMiddleware allows every origin when allowed is empty or contains "*".
func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	allowAll := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		set[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && set[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
