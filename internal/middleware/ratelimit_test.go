package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/magicgame/topup-store/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_OverQuota(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/order", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// Третий запрос того же клиента — сверх квоты
	req := httptest.NewRequest("GET", "/api/order", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, rr.Body.String())
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	handler := limiter.Middleware(okHandler())

	first := httptest.NewRequest("GET", "/api/order", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Квота первого клиента исчерпана, второй клиент не затронут
	second := httptest.NewRequest("GET", "/api/order", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, second)
	assert.Equal(t, http.StatusOK, rr.Code)

	repeat := httptest.NewRequest("GET", "/api/order", nil)
	repeat.RemoteAddr = "10.0.0.1:5678"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, repeat)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}
