package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	applog "lathera/internal/log"
	"lathera/internal/oils"
	"lathera/internal/soap"
)

const maxJSONBody = 1 << 20

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	library        = oils.MustDefault()
	defaults       = soap.DefaultSettings()
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

// ConfigureCalculator sets the embedded oil library fallback and the
// settings a fresh draft starts with.
func ConfigureCalculator(lib *oils.Library, settings soap.Settings) {
	if lib != nil {
		library = lib
	}
	defaults = settings
}

// resolver looks oils up in the database first when one is configured,
// falling back to the embedded library.
func resolver(ctx context.Context) soap.Resolver {
	if database == nil {
		return library
	}
	return oils.Chain{oils.NewStore(database).WithContext(ctx), library}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type calculationErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// writeCalculationError maps calculator failures onto HTTP statuses:
// 400 for invalid input, 422 for unknown oils.
func writeCalculationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := calculationErrorResponse{Error: err.Error()}
	var calcErr *soap.Error
	if errors.As(err, &calcErr) {
		resp.Field = calcErr.Field
	}

	switch {
	case errors.Is(err, soap.ErrInvalidInput):
		resp.Kind = soap.InvalidInput.String()
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, soap.ErrMissingReferenceData):
		resp.Kind = soap.MissingReferenceData.String()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		applog.Error(r.Context(), "calculation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "calculation failed")
	}
}

func renderComponent(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func requireDatabase(w http.ResponseWriter) bool {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "database is not configured")
		return false
	}
	return true
}

func trimmed(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
