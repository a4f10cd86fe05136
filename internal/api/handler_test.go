package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/userdefaults/internal/defaults"
)

func newTestHandler(t *testing.T, token string) (http.Handler, *defaults.Store) {
	t.Helper()
	s := defaults.New(defaults.NewMemoryBackend())
	return NewHandler(Deps{Store: s, Token: token}), s
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, "secret")

	rr := do(t, h, http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestBearerAuth(t *testing.T) {
	h, _ := newTestHandler(t, "secret")

	for _, tok := range []string{"", "wrong"} {
		rr := do(t, h, http.MethodGet, "/defaults", "", tok)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", tok, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "authentication_error") {
			t.Errorf("token %q: body = %s", tok, rr.Body)
		}
	}
	if rr := do(t, h, http.MethodGet, "/defaults", "", "secret"); rr.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", rr.Code)
	}
}

func TestPutGetDelete(t *testing.T) {
	h, s := newTestHandler(t, "")

	rr := do(t, h, http.MethodPut, "/defaults/greeting", `{"kind":"string","value":"hello"}`, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, body %s", rr.Code, rr.Body)
	}
	if v, ok, _ := s.GetString("greeting"); !ok || v != "hello" {
		t.Errorf("stored = %q, %v", v, ok)
	}

	rr = do(t, h, http.MethodGet, "/defaults/greeting", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"key":"greeting","kind":"string","value":"hello"}` {
		t.Errorf("GET body = %s", got)
	}

	rr = do(t, h, http.MethodDelete, "/defaults/greeting", "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rr.Code)
	}
	if rr = do(t, h, http.MethodGet, "/defaults/greeting", "", ""); rr.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rr.Code)
	}
}

func TestGetWithKind(t *testing.T) {
	h, s := newTestHandler(t, "")
	s.SetLong("n", 7)

	tests := []struct {
		query string
		code  int
		body  string
	}{
		{"?kind=long", http.StatusOK, `{"key":"n","kind":"long","value":7}`},
		{"?kind=double", http.StatusOK, `{"key":"n","kind":"double","value":7}`},
		{"?kind=string", http.StatusNotFound, ""},
		{"?kind=bogus", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rr := do(t, h, http.MethodGet, "/defaults/n"+tt.query, "", "")
		if rr.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.query, rr.Code, tt.code)
			continue
		}
		if tt.body != "" && strings.TrimSpace(rr.Body.String()) != tt.body {
			t.Errorf("%s: body = %s, want %s", tt.query, rr.Body, tt.body)
		}
	}
}

func TestPutRejectsBadInput(t *testing.T) {
	h, s := newTestHandler(t, "")

	tests := []struct {
		name string
		path string
		body string
	}{
		{"not json", "/defaults/k", `{`},
		{"unknown kind", "/defaults/k", `{"kind":"bool","value":true}`},
		{"wrong value type", "/defaults/k", `{"kind":"long","value":"x"}`},
		{"nul in value", "/defaults/k", `{"kind":"string","value":"a\u0000b"}`},
		{"nul in key", "/defaults/a%00b", `{"kind":"long","value":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPut, tt.path, tt.body, "")
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rr.Code, rr.Body)
			}
		})
	}
	if keys, _ := s.Keys(); len(keys) != 0 {
		t.Errorf("rejected PUTs stored %v", keys)
	}
}

func TestListDefaults(t *testing.T) {
	h, s := newTestHandler(t, "")
	s.SetStringArray("b", []string{"x", "y"})
	s.SetDouble("a", 1.5)

	rr := do(t, h, http.MethodGet, "/defaults", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	want := `[{"key":"a","kind":"double","value":1.5},{"key":"b","kind":"string-array","value":["x","y"]}]`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestKeyWithSlash(t *testing.T) {
	h, s := newTestHandler(t, "")
	rr := do(t, h, http.MethodPut, "/defaults/a%2Fb", `{"kind":"long","value":3}`, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, body %s", rr.Code, rr.Body)
	}
	if v, ok, _ := s.GetLong("a/b"); !ok || v != 3 {
		t.Errorf("GetLong(a/b) = %d, %v", v, ok)
	}
}

func TestKeyWithEscapedPercent(t *testing.T) {
	h, s := newTestHandler(t, "")
	rr := do(t, h, http.MethodPut, "/defaults/a%2541", `{"kind":"string","value":"x"}`, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, body %s", rr.Code, rr.Body)
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "a%41" {
		t.Errorf("stored keys = %q, want [a%%41]", keys)
	}

	rr = do(t, h, http.MethodGet, "/defaults/a%2541", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"key":"a%41"`) {
		t.Errorf("GET = %d %s", rr.Code, rr.Body)
	}
}

type brokenBackend struct {
	*defaults.MemoryBackend
}

func (brokenBackend) Keys() ([]string, error) { return nil, errors.New("disk on fire") }

func TestBackendFailureUsesDepsLogger(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(Deps{
		Store:  defaults.New(brokenBackend{defaults.NewMemoryBackend()}),
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})

	rr := do(t, h, http.MethodGet, "/defaults", "", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(logs.String(), "disk on fire") {
		t.Errorf("failure not logged through Deps.Logger: %q", logs.String())
	}
}
