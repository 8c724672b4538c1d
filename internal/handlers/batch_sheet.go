package handlers

import (
	"net/http"
	"time"

	"lathera/internal/views/pages"
)

// BatchSheet handles POST /batch-sheet. It takes the same body as
// /api/calculate and renders a printable HTML sheet. Without a body the
// session draft is printed.
func BatchSheet(w http.ResponseWriter, r *http.Request) {
	req := newCalculateRequest()
	if r.ContentLength == 0 {
		draft := loadDraft(r)
		req = calculateRequest{Title: draft.Name, Lines: draft.Lines, Settings: &draft.Settings}
	} else if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, settings, _, err := req.run(r)
	if err != nil {
		writeCalculationError(w, r, err)
		return
	}
	renderComponent(w, r, pages.BatchSheet(pages.NewBatchSheetData(req.Title, result, settings.WeightUnit, time.Now())))
}
