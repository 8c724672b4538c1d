package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	applog "lathera/internal/log"
	"lathera/internal/oils"
	"lathera/internal/soap"
	"lathera/models"
)

type oilResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Category   string             `json:"category,omitempty"`
	Aliases    []string           `json:"aliases,omitempty"`
	SapNaOH    float64            `json:"sap_naoh"`
	SapKOH     float64            `json:"sap_koh"`
	Iodine     float64            `json:"iodine"`
	INS        float64            `json:"ins"`
	FattyAcids map[string]float64 `json:"fatty_acids"`
}

func oilFromEntry(entry oils.Entry) oilResponse {
	return oilResponse{
		ID:         entry.ID,
		Name:       entry.Name,
		Category:   entry.Category,
		Aliases:    entry.Aliases,
		SapNaOH:    entry.SapNaOH,
		SapKOH:     entry.SapKOH,
		Iodine:     entry.Iodine,
		INS:        entry.INS,
		FattyAcids: entry.FattyAcids,
	}
}

func oilFromModel(oil models.Oil) oilResponse {
	aliases := make([]string, 0, len(oil.Aliases))
	for _, alias := range oil.Aliases {
		aliases = append(aliases, alias.Name)
	}
	return oilResponse{
		ID:         oil.Slug,
		Name:       oil.Name,
		Category:   oil.Category,
		Aliases:    aliases,
		SapNaOH:    oil.SapNaOH,
		SapKOH:     oil.SapKOH,
		Iodine:     oil.Iodine,
		INS:        oil.INS,
		FattyAcids: oil.FattyAcids(),
	}
}

// OilIndex handles GET /api/oils. The optional q parameter filters by name.
func OilIndex(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	if database == nil {
		entries := library.Search(query)
		out := make([]oilResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, oilFromEntry(entry))
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	stored, err := oils.NewStore(database).List(r.Context())
	if err != nil {
		applog.Error(r.Context(), "failed to list oils", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load oils")
		return
	}
	needle := strings.ToLower(query)
	out := make([]oilResponse, 0, len(stored))
	for _, oil := range stored {
		resp := oilFromModel(oil)
		if needle != "" && !oilMatches(resp, needle) {
			continue
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func oilMatches(oil oilResponse, needle string) bool {
	if strings.Contains(strings.ToLower(oil.Name), needle) || strings.Contains(oil.ID, needle) {
		return true
	}
	for _, alias := range oil.Aliases {
		if strings.Contains(strings.ToLower(alias), needle) {
			return true
		}
	}
	return false
}

// OilShow handles GET /api/oils/{id}.
func OilShow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if database != nil {
		oil, err := oils.NewStore(database).Find(r.Context(), id)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, oilFromModel(*oil))
			return
		case !errors.Is(err, soap.ErrNotFound):
			applog.Error(r.Context(), "failed to load oil", "error", err, "id", id)
			writeJSONError(w, http.StatusInternalServerError, "unable to load oil")
			return
		}
	}

	entry, ok := library.Get(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "oil not found")
		return
	}
	writeJSON(w, http.StatusOK, oilFromEntry(entry))
}
