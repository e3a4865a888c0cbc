package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nour-MZ/Nomada/internal/database"
	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/service"
	"github.com/Nour-MZ/Nomada/internal/service/mocks"
)

func setupTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings/cancel", h.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf []byte
	switch b := body.(type) {
	case string:
		buf = []byte(b)
	default:
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Chat(t *testing.T) {
	mockService := new(mocks.MockService)
	router := setupTestRouter(NewHandler(mockService))

	req := models.ChatRequest{SessionID: "s1", Message: "flights to London", Email: "ada@example.com"}
	mockService.On("Chat", mock.Anything, req).
		Return(&models.ChatResponse{SessionID: "s1", Reply: "From where?", Kind: "text"}, nil)

	rec := postJSON(t, router, "/api/chat", req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "From where?", resp.Reply)
	mockService.AssertExpectations(t)
}

func TestHandler_Chat_Errors(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		mockError      error
		expectedStatus int
		shouldCallMock bool
	}{
		{
			name:           "invalid json",
			body:           "{",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty message",
			body:           models.ChatRequest{SessionID: "s1"},
			mockError:      validation.Errors{"message": errors.New("cannot be blank")},
			expectedStatus: http.StatusBadRequest,
			shouldCallMock: true,
		},
		{
			name:           "unexpected failure",
			body:           models.ChatRequest{Message: "hi"},
			mockError:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			shouldCallMock: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.MockService)
			router := setupTestRouter(NewHandler(mockService))
			if tt.shouldCallMock {
				mockService.On("Chat", mock.Anything, mock.AnythingOfType("models.ChatRequest")).Return(nil, tt.mockError)
			}

			rec := postJSON(t, router, "/api/chat", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if !tt.shouldCallMock {
				mockService.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     *models.AuthResponse
		mockError      error
		expectedStatus int
		expectedOK     bool
	}{
		{
			name:           "created",
			mockReturn:     &models.AuthResponse{Success: true, Message: "Account created", Name: "Ada", Email: "ada@example.com"},
			expectedStatus: http.StatusCreated,
			expectedOK:     true,
		},
		{
			name:           "email taken",
			mockError:      database.ErrEmailTaken,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid",
			mockError:      validation.Errors{"password": errors.New("the length must be between 8 and 72")},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.MockService)
			router := setupTestRouter(NewHandler(mockService))
			mockService.On("Register", mock.Anything, mock.AnythingOfType("models.RegisterRequest")).Return(tt.mockReturn, tt.mockError)

			rec := postJSON(t, router, "/api/auth/register", models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "analytical"})

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var resp models.AuthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.expectedOK, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestHandler_Login(t *testing.T) {
	mockService := new(mocks.MockService)
	router := setupTestRouter(NewHandler(mockService))
	mockService.On("Login", mock.Anything, models.LoginRequest{Email: "ada@example.com", Password: "analytical"}).
		Return(&models.AuthResponse{Success: true, Name: "Ada", Email: "ada@example.com"}, nil)
	mockService.On("Login", mock.Anything, models.LoginRequest{Email: "ada@example.com", Password: "nope"}).
		Return(nil, service.ErrInvalidCredentials)

	rec := postJSON(t, router, "/api/auth/login", models.LoginRequest{Email: "ada@example.com", Password: "analytical"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/api/auth/login", models.LoginRequest{Email: "ada@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), resp.Message)
}

func TestHandler_ListBookings(t *testing.T) {
	mockService := new(mocks.MockService)
	router := setupTestRouter(NewHandler(mockService))
	mockService.On("ListBookings", mock.Anything, "ada@example.com").Return([]models.BookingRecord{
		{ID: 1, UserEmail: "ada@example.com", Type: models.BookingTypeFlight, Reference: "ord_1", Status: models.BookingStatusActive},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings?email=ada@example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Bookings []models.BookingRecord `json:"bookings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "ord_1", resp.Bookings[0].Reference)
	mockService.AssertExpectations(t)
}

func TestHandler_CancelBooking(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     *models.CancellationDetail
		mockError      error
		expectedStatus int
	}{
		{
			name:           "confirmed",
			mockReturn:     &models.CancellationDetail{OrderID: "ord_1", Confirmed: true, RefundAmount: 120, RefundCurrency: "EUR"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not owned",
			mockError:      service.ErrBookingNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "not confirmed",
			mockReturn:     &models.CancellationDetail{OrderID: "ord_1", ConfirmationError: "too late"},
			mockError:      service.ErrNotCancellable,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "provider error",
			mockError:      &models.ProviderFailure{Provider: "duffel", Operation: "cancel_order", Status: 500, Message: "down"},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.MockService)
			router := setupTestRouter(NewHandler(mockService))
			req := models.CancelBookingRequest{Email: "ada@example.com", OrderID: "ord_1"}
			mockService.On("CancelBooking", mock.Anything, req).Return(tt.mockReturn, tt.mockError)

			rec := postJSON(t, router, "/api/bookings/cancel", req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.mockReturn != nil {
				var resp map[string]json.RawMessage
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Contains(t, resp, "cancellation")
			}
		})
	}
}

func TestHandler_ListPayments(t *testing.T) {
	mockService := new(mocks.MockService)
	router := setupTestRouter(NewHandler(mockService))
	mockService.On("ListPayments", mock.Anything, "").
		Return(nil, validation.Errors{"email": errors.New("cannot be blank")})

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteSession(t *testing.T) {
	mockService := new(mocks.MockService)
	router := setupTestRouter(NewHandler(mockService))
	mockService.On("DeleteSession", mock.Anything, "s1").Return(true)
	mockService.On("DeleteSession", mock.Anything, "missing").Return(false)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
