package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"lathera/internal/formulation"
	applog "lathera/internal/log"
	"lathera/internal/soap"
	"lathera/internal/views/pages"
	"lathera/models"
)

type formulationRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Settings    *soap.Settings     `json:"settings,omitempty"`
	Lines       []formulation.Line `json:"lines"`
}

type formulationResponse struct {
	ID             uint               `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Version        int                `json:"version"`
	ShareToken     string             `json:"share_token"`
	Settings       soap.Settings      `json:"settings"`
	Lines          []formulation.Line `json:"lines"`
	TotalPercent   float64            `json:"total_percent"`
	PercentWarning string             `json:"percent_warning,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func buildFormulationResponse(f models.Formulation) formulationResponse {
	lines := f.Lines()
	return formulationResponse{
		ID:             f.ID,
		Name:           f.Name,
		Description:    f.Description,
		Version:        f.Version,
		ShareToken:     f.ShareToken,
		Settings:       f.Settings(defaults.TotalOilWeight, defaults.WeightUnit),
		Lines:          lines,
		TotalPercent:   formulation.TotalPercent(lines),
		PercentWarning: formulation.PercentWarning(lines),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// validate checks the request and fills names from the reference data. A
// formulation is accepted only if it calculates.
func (req *formulationRequest) validate(r *http.Request) (soap.Settings, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return soap.Settings{}, errors.New("name is required")
	}
	settings := defaults
	if req.Settings != nil {
		settings = *req.Settings
	}

	res := resolver(r.Context())
	for i, line := range req.Lines {
		if strings.TrimSpace(line.Name) != "" {
			continue
		}
		if ref, err := res.Resolve(line.IngredientRef); err == nil {
			req.Lines[i].Name = ref.Name
		}
	}

	draft := formulation.Draft{Settings: settings, Lines: req.Lines}
	if _, err := draft.Calculate(res); err != nil {
		return soap.Settings{}, err
	}
	return settings, nil
}

func loadFormulation(r *http.Request) (*models.Formulation, int, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return nil, http.StatusBadRequest, errors.New("invalid formulation id")
	}
	var f models.Formulation
	if err := database.WithContext(r.Context()).Preload("Oils").First(&f, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusNotFound, errors.New("formulation not found")
		}
		return nil, http.StatusInternalServerError, err
	}
	return &f, http.StatusOK, nil
}

func writeLoadError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status == http.StatusInternalServerError {
		applog.Error(r.Context(), "failed to load formulation", "error", err)
		writeJSONError(w, status, "unable to load formulation")
		return
	}
	writeJSONError(w, status, err.Error())
}

// FormulationIndex handles GET /api/formulations.
func FormulationIndex(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w) {
		return
	}
	var records []models.Formulation
	if err := database.WithContext(r.Context()).Preload("Oils").Order("name asc").Find(&records).Error; err != nil {
		applog.Error(r.Context(), "failed to list formulations", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load formulations")
		return
	}
	out := make([]formulationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, buildFormulationResponse(record))
	}
	writeJSON(w, http.StatusOK, out)
}

// FormulationCreate handles POST /api/formulations.
func FormulationCreate(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w) {
		return
	}
	seed := defaults
	req := formulationRequest{Settings: &seed}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := req.validate(r)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	record := models.Formulation{Name: req.Name, Description: strings.TrimSpace(req.Description), Version: 1}
	record.ApplySettings(settings)
	record.SetLines(req.Lines)
	if err := database.WithContext(r.Context()).Create(&record).Error; err != nil {
		applog.Error(r.Context(), "failed to create formulation", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to save formulation")
		return
	}
	applog.Info(r.Context(), "formulation created", "id", record.ID, "oils", len(record.Oils))
	writeJSON(w, http.StatusCreated, buildFormulationResponse(record))
}

// FormulationShow handles GET /api/formulations/{id}.
func FormulationShow(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w) {
		return
	}
	record, status, err := loadFormulation(r)
	if err != nil {
		writeLoadError(w, r, status, err)
		return
	}
	writeJSON(w, http.StatusOK, buildFormulationResponse(*record))
}

// FormulationShared handles GET /api/formulations/shared/{token}.
func FormulationShared(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w) {
		return
	}
	token := chi.URLParam(r, "token")
	var record models.Formulation
	err := database.WithContext(r.Context()).Preload("Oils").Where("share_token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "formulation not found")
			return
		}
		writeLoadError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, buildFormulationResponse(record))
}

// FormulationUpdate handles PUT /api/formulations/{id}. Each update bumps
// the version and replaces the oil list.
func FormulationUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w) {
		return
	}
	record, status, err := loadFormulation(r)
	if err != nil {
		writeLoadError(w, r, status, err)
		return
	}
	current := record.Settings(defaults.TotalOilWeight, defaults.WeightUnit)
	req := formulationRequest{Settings: &current}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := req.validate(r)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	record.Name = req.Name
	record.Description = strings.TrimSpace(req.Description)
	record.Version++
	record.ApplySettings(settings)

	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("formulation_id = ?", record.ID).Delete(&models.FormulationOil{}).Error; err != nil {
			return err
		}
		record.SetLines(req.Lines)
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(record).Error
	})
	if err != nil {
		applog.Error(r.Context(), "failed to update formulation", "error", err, "id", record.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save formulation")
		return
	}
	applog.Info(r.Context(), "formulation updated", "id", record.ID, "version", record.Version)
	writeJSON(w, http.StatusOK, buildFormulationResponse(*record))
}

// FormulationDelete handles DELETE /api/formulations/{id}.
func FormulationDelete(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w) {
		return
	}
	record, status, err := loadFormulation(r)
	if err != nil {
		writeLoadError(w, r, status, err)
		return
	}
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("formulation_id = ?", record.ID).Delete(&models.FormulationOil{}).Error; err != nil {
			return err
		}
		return tx.Delete(record).Error
	})
	if err != nil {
		applog.Error(r.Context(), "failed to delete formulation", "error", err, "id", record.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete formulation")
		return
	}
	applog.Info(r.Context(), "formulation deleted", "id", record.ID)
	w.WriteHeader(http.StatusNoContent)
}

// batchSize reads ?total= and ?unit=, defaulting to the configured batch.
func batchSize(r *http.Request) (float64, soap.WeightUnit, error) {
	total := defaults.TotalOilWeight
	unit := defaults.WeightUnit
	if raw := strings.TrimSpace(r.URL.Query().Get("unit")); raw != "" {
		parsed, err := soap.ParseWeightUnit(raw)
		if err != nil {
			return 0, "", err
		}
		unit = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("total")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return 0, "", &soap.Error{Kind: soap.InvalidInput, Field: "total", Message: "total must be a positive number"}
		}
		total = parsed
	}
	return total, unit, nil
}

func calculateFormulation(w http.ResponseWriter, r *http.Request) (*models.Formulation, soap.Result, soap.WeightUnit, bool) {
	if !requireDatabase(w) {
		return nil, soap.Result{}, "", false
	}
	record, status, err := loadFormulation(r)
	if err != nil {
		writeLoadError(w, r, status, err)
		return nil, soap.Result{}, "", false
	}
	total, unit, err := batchSize(r)
	if err != nil {
		writeCalculationError(w, r, err)
		return nil, soap.Result{}, "", false
	}
	result, err := record.Draft(total, unit).Calculate(resolver(r.Context()))
	if err != nil {
		writeCalculationError(w, r, err)
		return nil, soap.Result{}, "", false
	}
	return record, result, unit, true
}

// FormulationCalculate handles POST /api/formulations/{id}/calculate.
func FormulationCalculate(w http.ResponseWriter, r *http.Request) {
	record, result, unit, ok := calculateFormulation(w, r)
	if !ok {
		return
	}
	resp := presentResult(result, unit)
	resp.PercentWarning = formulation.PercentWarning(record.Lines())
	writeJSON(w, http.StatusOK, resp)
}

// FormulationBatchSheet handles GET /formulations/{id}/batch-sheet.
func FormulationBatchSheet(w http.ResponseWriter, r *http.Request) {
	record, result, unit, ok := calculateFormulation(w, r)
	if !ok {
		return
	}
	renderComponent(w, r, pages.BatchSheet(pages.NewBatchSheetData(record.Name, result, unit, time.Now())))
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, soap.ErrInvalidInput) || errors.Is(err, soap.ErrMissingReferenceData) {
		writeCalculationError(w, r, err)
		return
	}
	writeJSONError(w, http.StatusBadRequest, err.Error())
}
