package handlers

import (
	"encoding/json"
	"net/http"

	"lathera/internal/formulation"
	applog "lathera/internal/log"
	"lathera/internal/soap"
)

const sessionDraftKey = "calculator:draft"

type draftResponse struct {
	Draft          formulation.Draft    `json:"draft"`
	TotalPercent   float64              `json:"total_percent"`
	PercentWarning string               `json:"percent_warning,omitempty"`
	Result         *calculationResponse `json:"result,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// loadDraft returns the session draft, or a fresh one on the configured
// defaults when the session has none.
func loadDraft(r *http.Request) formulation.Draft {
	draft := formulation.NewDraft(defaults)
	if sessionManager == nil {
		return draft
	}
	raw := sessionManager.GetBytes(r.Context(), sessionDraftKey)
	if len(raw) == 0 {
		return draft
	}
	if err := json.Unmarshal(raw, &draft); err != nil {
		applog.Error(r.Context(), "discarding unreadable session draft", "error", err)
		return formulation.NewDraft(defaults)
	}
	return draft
}

func saveDraft(r *http.Request, draft formulation.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionDraftKey, raw)
	return nil
}

func buildDraftResponse(r *http.Request, draft formulation.Draft) draftResponse {
	resp := draftResponse{
		Draft:          draft,
		TotalPercent:   formulation.TotalPercent(draft.Lines),
		PercentWarning: formulation.PercentWarning(draft.Lines),
	}
	if len(draft.Lines) == 0 {
		return resp
	}
	result, err := draft.Calculate(resolver(r.Context()))
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	presented := presentResult(result, draft.Settings.WeightUnit)
	resp.Result = &presented
	return resp
}

// DraftShow handles GET /api/draft.
func DraftShow(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sessions are not configured")
		return
	}
	writeJSON(w, http.StatusOK, buildDraftResponse(r, loadDraft(r)))
}

// DraftUpdate handles PUT /api/draft. Line weights are recomputed from
// percentages unless ?sync=weight, in which case percentages follow the
// weights and the batch total becomes their sum.
func DraftUpdate(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sessions are not configured")
		return
	}
	draft := formulation.NewDraft(defaults)
	if err := decodeJSON(r, &draft); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if draft.Lines == nil {
		draft.Lines = []formulation.Line{}
	}
	if draft.Settings.WeightUnit == "" {
		draft.Settings.WeightUnit = soap.UnitGrams
	}

	if len(draft.Lines) > 0 {
		var err error
		if r.URL.Query().Get("sync") == "weight" {
			total := formulation.TotalWeight(draft.Lines)
			draft.Lines, err = formulation.SyncFromWeight(draft.Lines, total)
			draft.Settings.TotalOilWeight = soap.FromGrams(total, draft.Settings.WeightUnit)
		} else {
			draft.Lines, err = formulation.SyncFromPercent(draft.Lines, draft.TotalGrams())
		}
		if err != nil {
			writeCalculationError(w, r, err)
			return
		}
	}

	if err := saveDraft(r, draft); err != nil {
		applog.Error(r.Context(), "failed to store draft", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to store draft")
		return
	}
	writeJSON(w, http.StatusOK, buildDraftResponse(r, draft))
}

// DraftReset handles DELETE /api/draft.
func DraftReset(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sessions are not configured")
		return
	}
	sessionManager.Remove(r.Context(), sessionDraftKey)
	writeJSON(w, http.StatusOK, buildDraftResponse(r, formulation.NewDraft(defaults)))
}
