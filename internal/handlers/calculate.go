package handlers

import (
	"net/http"

	"lathera/internal/formulation"
	applog "lathera/internal/log"
	"lathera/internal/soap"
)

// calculateRequest accepts either resolved weights (oils) or percentage
// lines laid out over settings.total_oil_weight (lines).
type calculateRequest struct {
	Title    string             `json:"title,omitempty"`
	Oils     []soap.OilLine     `json:"oils,omitempty"`
	Lines    []formulation.Line `json:"lines,omitempty"`
	Settings *soap.Settings     `json:"settings,omitempty"`
}

type qualityResponse struct {
	Value   float64 `json:"value"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	InRange bool    `json:"in_range"`
}

type lineResponse struct {
	IngredientRef string  `json:"ingredient_ref"`
	Name          string  `json:"name"`
	Percent       float64 `json:"percent"`
	Weight        float64 `json:"weight"`
	LyeNaOH       float64 `json:"lye_naoh"`
	LyeKOH        float64 `json:"lye_koh"`
}

// calculationResponse is a soap.Result rounded for display and expressed
// in the requested weight unit.
type calculationResponse struct {
	Unit           soap.WeightUnit            `json:"unit"`
	LyeType        soap.LyeType               `json:"lye_type"`
	Lye            float64                    `json:"lye"`
	LyeNaOH        float64                    `json:"lye_naoh"`
	LyeKOH         float64                    `json:"lye_koh"`
	Water          float64                    `json:"water"`
	Fragrance      float64                    `json:"fragrance"`
	TotalOils      float64                    `json:"total_oils"`
	TotalBatch     float64                    `json:"total_batch_weight"`
	Superfat       float64                    `json:"superfat_percentage"`
	Qualities      map[string]qualityResponse `json:"qualities"`
	FattyAcids     map[string]float64         `json:"fatty_acids"`
	Lines          []lineResponse             `json:"lines"`
	Warnings       []soap.Warning             `json:"warnings,omitempty"`
	PercentWarning string                     `json:"percent_warning,omitempty"`
}

func presentResult(result soap.Result, unit soap.WeightUnit) calculationResponse {
	if unit == "" {
		unit = soap.UnitGrams
	}
	mass := func(grams float64) float64 {
		return soap.RoundIn(soap.FromGrams(grams, unit), unit)
	}

	resp := calculationResponse{
		Unit:       unit,
		LyeType:    result.LyeType,
		Lye:        mass(result.LyeMass()),
		LyeNaOH:    mass(result.LyeMassNaOH),
		LyeKOH:     mass(result.LyeMassKOH),
		Water:      mass(result.WaterMass),
		Fragrance:  mass(result.FragranceMass),
		TotalOils:  mass(result.TotalOilsMass),
		TotalBatch: mass(result.TotalBatchMass),
		Superfat:   result.SuperfatPercentage,
		Qualities:  make(map[string]qualityResponse, len(result.Qualities)),
		FattyAcids: make(map[string]float64, len(result.FattyAcidProfile)),
		Lines:      make([]lineResponse, 0, len(result.Lines)),
		Warnings:   result.Warnings,
	}
	for name, value := range result.Qualities {
		r := soap.QualityRanges[name]
		resp.Qualities[name] = qualityResponse{
			Value:   soap.RoundQuality(value),
			Min:     r.Min,
			Max:     r.Max,
			InRange: soap.InRange(name, value),
		}
	}
	for acid, value := range result.FattyAcidProfile {
		resp.FattyAcids[acid] = soap.RoundMass(value)
	}
	for _, line := range result.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			IngredientRef: line.IngredientRef,
			Name:          line.Name,
			Percent:       soap.RoundMass(line.Percent),
			Weight:        mass(line.WeightGrams),
			LyeNaOH:       mass(line.LyeNaOH),
			LyeKOH:        mass(line.LyeKOH),
		})
	}
	return resp
}

// newCalculateRequest seeds the settings with a copy of the defaults so a
// partial settings object only overrides the fields it names.
func newCalculateRequest() calculateRequest {
	settings := defaults
	return calculateRequest{Settings: &settings}
}

// run performs the calculation described by req.
func (req calculateRequest) run(r *http.Request) (soap.Result, soap.Settings, string, error) {
	settings := defaults
	if req.Settings != nil {
		settings = *req.Settings
	}

	if len(req.Lines) > 0 && len(req.Oils) == 0 {
		draft := formulation.Draft{Settings: settings, Lines: req.Lines}
		result, err := draft.Calculate(resolver(r.Context()))
		return result, settings, formulation.PercentWarning(req.Lines), err
	}
	result, err := soap.Calculate(req.Oils, settings, resolver(r.Context()))
	return result, settings, "", err
}

// Calculate handles POST /api/calculate. Settings fields left out of the
// body keep their configured defaults.
func Calculate(w http.ResponseWriter, r *http.Request) {
	req := newCalculateRequest()
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, settings, percentWarning, err := req.run(r)
	if err != nil {
		applog.Debug(r.Context(), "calculation rejected", "error", err)
		writeCalculationError(w, r, err)
		return
	}

	resp := presentResult(result, settings.WeightUnit)
	resp.PercentWarning = percentWarning
	applog.Debug(r.Context(), "calculation completed", "oils", len(result.Lines), "warnings", len(result.Warnings))
	writeJSON(w, http.StatusOK, resp)
}
