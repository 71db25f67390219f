package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestRateLimitResponds429(t *testing.T) {
	limited := RateLimit(NewRateLimiter(1, time.Minute), ByClientIP)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	rec := httptest.NewRecorder()
	limited(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	limited(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests, please try again later"}`, rec.Body.String())
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	start := time.Now()

	_, ok := rl.allow("k", start)
	assert.True(t, ok)
	retry, ok := rl.allow("k", start.Add(20*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	_, ok = rl.allow("k", start.Add(61*time.Second))
	assert.True(t, ok)

	rl.cleanup(start.Add(3 * time.Minute))
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()
}

func TestRateLimitByUser(t *testing.T) {
	limited := RateLimit(NewRateLimiter(1, time.Minute), ByUser)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
		req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: id}))
		rec := httptest.NewRecorder()
		limited(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, id)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:4321"
	assert.Equal(t, "192.168.1.10", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestCSRFProtection(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := CSRFProtection(ok)

	// Safe request issues the cookie and echoes the token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	token := rec.Header().Get(CSRFHeader)
	require.Len(t, token, 43)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Missing header
	req := httptest.NewRequest(http.MethodPost, "/api/memories", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Matching header
	req = httptest.NewRequest(http.MethodPost, "/api/memories", nil)
	req.AddCookie(cookies[0])
	req.Header.Set(CSRFHeader, token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Bearer clients are exempt
	req = httptest.NewRequest(http.MethodDelete, "/api/memories/1", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}
