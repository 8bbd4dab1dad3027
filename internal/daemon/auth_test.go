package daemon

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{name: "single pair", raw: "alice:secret", want: map[string]string{"alice": "secret"}},
		{
			name: "multiple pairs with spaces",
			raw:  "alice:secret, bob:hunter2",
			want: map[string]string{"alice": "secret", "bob": "hunter2"},
		},
		{name: "password containing colon", raw: "alice:se:cret", want: map[string]string{"alice": "se:cret"}},
		{name: "missing separator skipped", raw: "alice", want: map[string]string{}},
		{name: "empty user skipped", raw: ":secret", want: map[string]string{}},
		{name: "trailing comma", raw: "alice:secret,", want: map[string]string{"alice": "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCredentials(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseCredentials(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for user, password := range tt.want {
				if got[user] != password {
					t.Fatalf("parseCredentials(%q)[%q] = %q, want %q", tt.raw, user, got[user], password)
				}
			}
		})
	}
}

func TestAuthMiddlewareBypassWithoutCredentials(t *testing.T) {
	called := false
	handler := authMiddleware(nil, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected passthrough with no credentials configured")
	}
}

func TestAuthMiddlewareRejectsMissingAuth(t *testing.T) {
	creds := map[string]string{"alice": "secret"}
	handler := authMiddleware(creds, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got != `Basic realm="taggerd"` {
		t.Fatalf("unexpected challenge header: %q", got)
	}
}

func TestAuthMiddlewareRejectsWrongPassword(t *testing.T) {
	creds := map[string]string{"alice": "secret"}
	handler := authMiddleware(creds, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad password")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "wrong")
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareAcceptsValidCredentials(t *testing.T) {
	creds := map[string]string{"alice": "secret", "bob": "hunter2"}
	called := false
	handler := authMiddleware(creds, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("bob", "hunter2")
	w := httptest.NewRecorder()
	handler(w, req)
	if !called || w.Code != http.StatusOK {
		t.Fatalf("expected authenticated passthrough, called=%v code=%d", called, w.Code)
	}
}
