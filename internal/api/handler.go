package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/userdefaults/internal/defaults"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds dependencies for the HTTP API.
type Deps struct {
	Store *defaults.Store
	// Token guards every route except /health. Empty disables auth.
	Token string
	// Logger receives backend failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewHandler returns the REST API over one preferences domain.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/defaults", handleList(deps))
		r.Get("/defaults/{key}", handleGet(deps))
		r.Put("/defaults/{key}", handlePut(deps))
		r.Delete("/defaults/{key}", handleDelete(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleList(deps Deps) http.HandlerFunc {
	s := deps.Store
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.Entries()
		if err != nil {
			deps.Logger.Error("listing defaults failed", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list defaults: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGet(deps Deps) http.HandlerFunc {
	s := deps.Store
	return func(w http.ResponseWriter, r *http.Request) {
		key := keyParam(r)

		var (
			v   defaults.Value
			ok  bool
			err error
		)
		if raw := r.URL.Query().Get("kind"); raw != "" {
			kind, perr := defaults.ParseKind(raw)
			if perr != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", perr)
				return
			}
			v, ok, err = s.GetKind(kind, key)
		} else {
			v, ok, err = s.Lookup(key)
		}
		if err != nil {
			writeStoreError(w, deps.Logger, err)
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "key %q is not set", key)
			return
		}
		writeJSON(w, http.StatusOK, defaults.Entry{Key: key, Value: v})
	}
}

func handlePut(deps Deps) http.HandlerFunc {
	s := deps.Store
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var v defaults.Value
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid value: %v", err)
			return
		}
		if err := s.Set(keyParam(r), v); err != nil {
			writeStoreError(w, deps.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDelete(deps Deps) http.HandlerFunc {
	s := deps.Store
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Delete(keyParam(r)); err != nil {
			writeStoreError(w, deps.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// keyParam returns the decoded {key} segment. chi matches on RawPath when
// the request has one (a key with an escaped '/'), and on the already
// decoded Path otherwise; only the former needs unescaping.
func keyParam(r *http.Request) string {
	raw := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return raw
	}
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}

func writeStoreError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, defaults.ErrInvalidKey),
		errors.Is(err, defaults.ErrInvalidString),
		errors.Is(err, defaults.ErrUnknownKind):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		logger.Error("preferences backend failed", "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
