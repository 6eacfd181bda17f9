package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/portedaporte/tractage-backend/internal/middleware"
	"github.com/portedaporte/tractage-backend/internal/utils"
)

// call wraps a simple 200-OK inner handler in the provided middleware,
// optionally setting one cookie on the request, and returns the recorded
// response.
func call(t *testing.T, mw func(http.Handler) http.Handler, cookieName, cookieValue string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if cookieName != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestSessionMiddleware_IssuesCookie verifies that a request without a
// session cookie gets one issued and the ID injected into the context.
func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	var gotSessionID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.GetSessionIDFromContext(r.Context())
		if !ok {
			http.Error(w, "sessionID not in context", http.StatusInternalServerError)
			return
		}
		gotSessionID = id
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.SessionMiddleware(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if gotSessionID == "" {
		t.Fatal("expected a session ID in context")
	}

	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			issued = c
		}
	}
	if issued == nil {
		t.Fatal("expected a session_id cookie to be set")
	}
	if issued.Value != gotSessionID {
		t.Errorf("cookie value %q does not match context ID %q", issued.Value, gotSessionID)
	}
}

// TestSessionMiddleware_ReusesCookie verifies that an existing session_id
// cookie is reused rather than replaced.
func TestSessionMiddleware_ReusesCookie(t *testing.T) {
	const want = "existing-session"

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := utils.GetSessionIDFromContext(r.Context())
		if id != want {
			http.Error(w, "wrong sessionID in context: "+id, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.SessionMiddleware(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: want})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			t.Error("expected no new cookie when one was sent")
		}
	}
}

// TestCORSMiddleware_AllowedOrigin verifies that a listed origin is echoed
// back and preflight requests short-circuit with 204.
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://carte.portedaporte.fr")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORSMiddleware(inner)

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://carte.portedaporte.fr")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://carte.portedaporte.fr" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
}

// TestCORSMiddleware_UnknownOrigin verifies that an unlisted origin gets no
// CORS headers.
func TestCORSMiddleware_UnknownOrigin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORSMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}

// TestRateLimitMiddleware verifies that requests beyond the burst get 429
// and that sessions are limited independently.
func TestRateLimitMiddleware(t *testing.T) {
	mw := middleware.RateLimitMiddleware(1, 2)

	send := func(session string) int {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		handler := middleware.SessionMiddleware(mw(inner))
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: session})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("a"); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := send("a"); code != http.StatusOK {
		t.Fatalf("second request: expected 200, got %d", code)
	}
	if code := send("a"); code != http.StatusTooManyRequests {
		t.Errorf("third request: expected 429, got %d", code)
	}

	// A different session has its own budget.
	if code := send("b"); code != http.StatusOK {
		t.Errorf("other session: expected 200, got %d", code)
	}
}
