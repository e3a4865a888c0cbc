package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"

	"github.com/Nour-MZ/Nomada/internal/database"
	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/service"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	svc service.Service
}

// NewHandler creates a new Handler instance
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func statusFor(err error) int {
	var verrs validation.Errors
	var pf *models.ProviderFailure
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, database.ErrEmailTaken), errors.Is(err, service.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &pf):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Chat handles POST /api/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.AuthResponse{Message: "Invalid request body"})
		return
	}

	resp, err := h.svc.Register(r.Context(), req)
	if err != nil {
		respondJSON(w, statusFor(err), models.AuthResponse{Message: err.Error()})
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.AuthResponse{Message: "Invalid request body"})
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		respondJSON(w, statusFor(err), models.AuthResponse{Message: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListBookings handles GET /api/bookings?email=
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.ListBookings(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// CancelBooking handles POST /api/bookings/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req models.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	detail, err := h.svc.CancelBooking(r.Context(), req)
	if err != nil {
		body := map[string]any{"error": err.Error()}
		if detail != nil {
			body["cancellation"] = detail
		}
		respondJSON(w, statusFor(err), body)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cancellation": detail})
}

// ListPayments handles GET /api/payments?email=
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.ListPayments(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.svc.DeleteSession(r.Context(), id) {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
