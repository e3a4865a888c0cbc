package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Nour-MZ/Nomada/internal/handlers"
	"github.com/Nour-MZ/Nomada/internal/service/mocks"
)

func TestRouter_Health(t *testing.T) {
	r := SetupRouter(handlers.NewHandler(new(mocks.MockService)), Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		expectedHeader string
	}{
		{name: "any origin", allowed: nil, origin: "http://evil.test", expectedHeader: "*"},
		{name: "listed origin", allowed: []string{"http://localhost:5173"}, origin: "http://localhost:5173", expectedHeader: "http://localhost:5173"},
		{name: "unlisted origin", allowed: []string{"http://localhost:5173"}, origin: "http://evil.test", expectedHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SetupRouter(handlers.NewHandler(new(mocks.MockService)), Options{AllowedOrigins: tt.allowed})
			req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expectedHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_MetricsAndSessions(t *testing.T) {
	svc := new(mocks.MockService)
	svc.On("DeleteSession", mock.Anything, "abc").Return(true)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nomada_turns_total 1\n"))
	})
	r := SetupRouter(handlers.NewHandler(svc), Options{Metrics: metrics})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "nomada_turns_total")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
