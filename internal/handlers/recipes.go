package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"lathera/internal/formulation"
	applog "lathera/internal/log"
	"lathera/internal/recipeimport"
	"lathera/internal/soap"
)

type recipeImportRequest struct {
	Text  string  `json:"text"`
	Total float64 `json:"total"`
}

type recipeImportResponse struct {
	recipeimport.Result
	SavedToDraft bool `json:"saved_to_draft"`
}

// RecipeImport handles POST /api/recipes/import. It accepts a JSON body
// ({"text": ...}) or a multipart form with recipe_text and/or recipe_file.
// With ?into=draft the imported lines replace the session draft.
func RecipeImport(w http.ResponseWriter, r *http.Request) {
	text, total, err := readRecipeInput(r)
	if err != nil {
		applog.Debug(r.Context(), "recipe import input rejected", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		writeJSONError(w, http.StatusBadRequest, "provide recipe text or upload a document")
		return
	}
	if total <= 0 {
		total = formulation.Draft{Settings: defaults}.TotalGrams()
	}

	result, err := recipeimport.Import(text, library, total)
	if err != nil {
		if errors.Is(err, recipeimport.ErrEmptyRecipe) || errors.Is(err, recipeimport.ErrMixedAmounts) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeCalculationError(w, r, err)
		return
	}

	resp := recipeImportResponse{Result: result}
	if r.URL.Query().Get("into") == "draft" && sessionManager != nil {
		draft := loadDraft(r)
		draft.Lines = result.Lines
		draft.Settings.TotalOilWeight = result.TotalOils
		draft.Settings.WeightUnit = soap.UnitGrams
		if err := saveDraft(r, draft); err != nil {
			applog.Error(r.Context(), "failed to store imported draft", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to store draft")
			return
		}
		resp.SavedToDraft = true
	}

	applog.Info(r.Context(), "recipe imported", "lines", len(result.Lines), "unmatched", len(result.Unmatched))
	writeJSON(w, http.StatusOK, resp)
}

func readRecipeInput(r *http.Request) (string, float64, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req recipeImportRequest
		if err := decodeJSON(r, &req); err != nil {
			return "", 0, err
		}
		return req.Text, req.Total, nil
	}

	if err := r.ParseMultipartForm(recipeimport.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", 0, fmt.Errorf("upload is too large or invalid: %w", err)
	}

	text := trimmed(r.FormValue("recipe_text"))
	total, _ := strconv.ParseFloat(strings.TrimSpace(r.FormValue("total")), 64)

	file, header, err := r.FormFile("recipe_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return text, total, nil
		}
		return "", 0, err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, recipeimport.MaxUploadSize+1)); err != nil {
		return "", 0, err
	}
	if buf.Len() > recipeimport.MaxUploadSize {
		return "", 0, fmt.Errorf("file exceeds %d bytes", recipeimport.MaxUploadSize)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = recipeimport.MimeTypeFromName(header.Filename)
	}
	extracted, err := recipeimport.ExtractText(buf.Bytes(), contentType)
	if err != nil {
		return "", 0, fmt.Errorf("unable to read %s: %w", header.Filename, err)
	}
	if text != "" {
		text += "\n"
	}
	return text + extracted, total, nil
}
