// Package formulation holds the editable form of a recipe. Lines carry both a
// percentage and a weight; the helpers here keep the two in step before a
// draft is handed to the calculator, which only ever sees resolved weights.
package formulation

import (
	"fmt"
	"math"
	"strings"

	"lathera/internal/soap"
)

// percentTolerance is how far the line percentages may drift from 100
// before a draft is flagged.
const percentTolerance = 0.01

// Line is one oil of a draft recipe.
type Line struct {
	IngredientRef string  `json:"ingredient_ref"`
	Name          string  `json:"name,omitempty"`
	Percent       float64 `json:"percent"`
	WeightGrams   float64 `json:"weight_grams"`
}

// Draft is a recipe being edited: settings plus percentage/weight lines.
type Draft struct {
	Name     string        `json:"name,omitempty"`
	Settings soap.Settings `json:"settings"`
	Lines    []Line        `json:"lines"`
}

// NewDraft returns an empty draft using settings.
func NewDraft(settings soap.Settings) Draft {
	return Draft{Settings: settings, Lines: []Line{}}
}

// TotalGrams returns the draft's batch oil weight in grams.
func (d Draft) TotalGrams() float64 {
	return soap.ToGrams(d.Settings.TotalOilWeight, d.Settings.WeightUnit)
}

// Calculate syncs line weights from their percentages and runs the calculator.
func (d Draft) Calculate(resolver soap.Resolver) (soap.Result, error) {
	lines, err := SyncFromPercent(d.Lines, d.TotalGrams())
	if err != nil {
		return soap.Result{}, err
	}
	oilLines, err := ToOilLines(lines)
	if err != nil {
		return soap.Result{}, err
	}
	return soap.Calculate(oilLines, d.Settings, resolver)
}

// SyncFromPercent recomputes every weight from its percentage of total.
func SyncFromPercent(lines []Line, total float64) ([]Line, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	out := make([]Line, len(lines))
	for i, line := range lines {
		if line.Percent < 0 {
			return nil, negative(i, "percent")
		}
		line.WeightGrams = line.Percent / 100 * total
		out[i] = line
	}
	return out, nil
}

// SyncFromWeight recomputes every percentage from its weight against total.
func SyncFromWeight(lines []Line, total float64) ([]Line, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	out := make([]Line, len(lines))
	for i, line := range lines {
		if line.WeightGrams < 0 {
			return nil, negative(i, "weight_grams")
		}
		line.Percent = line.WeightGrams / total * 100
		out[i] = line
	}
	return out, nil
}

// Rescale keeps each line's percentage and moves the batch to newTotal grams.
func Rescale(lines []Line, newTotal float64) ([]Line, error) {
	return SyncFromPercent(lines, newTotal)
}

// Scale multiplies every weight so the oils add up to target grams, then
// recomputes percentages from the new weights.
func Scale(lines []Line, target float64) ([]Line, error) {
	if err := checkTotal(target); err != nil {
		return nil, err
	}
	current := TotalWeight(lines)
	if current <= 0 {
		return nil, fmt.Errorf("%w: recipe has no oil weight to scale", soap.ErrInvalidInput)
	}
	factor := target / current
	out := make([]Line, len(lines))
	for i, line := range lines {
		line.WeightGrams *= factor
		out[i] = line
	}
	return SyncFromWeight(out, target)
}

// TotalPercent sums the line percentages.
func TotalPercent(lines []Line) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.Percent
	}
	return total
}

// TotalWeight sums the line weights.
func TotalWeight(lines []Line) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.WeightGrams
	}
	return total
}

// PercentWarning describes a draft whose percentages do not add up to 100.
// It returns an empty string when the total is within tolerance. A
// mismatched total is reported, never rejected.
func PercentWarning(lines []Line) string {
	total := TotalPercent(lines)
	if len(lines) == 0 || math.Abs(total-100) <= percentTolerance {
		return ""
	}
	if total > 100 {
		return fmt.Sprintf("oil percentages add up to %.1f%%, %.1f%% over", total, total-100)
	}
	return fmt.Sprintf("oil percentages add up to %.1f%%, %.1f%% short", total, 100-total)
}

// ToOilLines drops presentation fields, keeping what the calculator needs.
// Empty rows without an ingredient are skipped; a row that carries an amount
// but names no ingredient is a MissingReferenceData error.
func ToOilLines(lines []Line) ([]soap.OilLine, error) {
	out := make([]soap.OilLine, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line.IngredientRef) == "" {
			if line.Percent == 0 && line.WeightGrams == 0 {
				continue
			}
			return nil, unresolvedLine(i, line)
		}
		out = append(out, soap.OilLine{IngredientRef: line.IngredientRef, WeightGrams: line.WeightGrams})
	}
	return out, nil
}

func unresolvedLine(index int, line Line) error {
	name := line.Name
	if name == "" {
		name = fmt.Sprintf("line %d", index+1)
	}
	return &soap.Error{
		Kind:    soap.MissingReferenceData,
		Field:   fmt.Sprintf("lines[%d].ingredient_ref", index),
		Message: fmt.Sprintf("%q has an amount but no oil selected", name),
	}
}

func checkTotal(total float64) error {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return fmt.Errorf("%w: total oil weight must be greater than zero", soap.ErrInvalidInput)
	}
	return nil
}

func negative(index int, field string) error {
	return fmt.Errorf("%w: line %d: %s must not be negative", soap.ErrInvalidInput, index+1, field)
}
