package soap

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

type resolvedLine struct {
	line OilLine
	oil  OilReference
}

// Calculate computes the batch masses, qualities and fatty-acid profile for
// the given oils. It either returns a complete Result or an *Error; it never
// returns a partial result. The order of lines does not affect the output.
func Calculate(lines []OilLine, settings Settings, resolver Resolver) (Result, error) {
	if resolver == nil {
		return Result{}, invalidInput("resolver", "an oil resolver is required")
	}
	if err := validateSettings(settings); err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return Result{}, invalidInput("oils", "at least one oil is required")
	}

	resolved := make([]resolvedLine, 0, len(lines))
	totalOils := 0.0
	for i, line := range lines {
		if line.WeightGrams < 0 || math.IsNaN(line.WeightGrams) || math.IsInf(line.WeightGrams, 0) {
			return Result{}, invalidInput(fmt.Sprintf("oils[%d].weight_grams", i), "weight must be a non-negative number")
		}
		oil, err := resolver.Resolve(line.IngredientRef)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Result{}, missingReference(line.IngredientRef, err)
			}
			return Result{}, fmt.Errorf("resolve oil %q: %w", line.IngredientRef, err)
		}
		totalOils += line.WeightGrams
		resolved = append(resolved, resolvedLine{line: line, oil: oil})
	}
	if totalOils <= 0 {
		return Result{}, invalidInput("oils", "total oil weight must be greater than zero")
	}

	result := Result{
		LyeType:            settings.LyeType,
		TotalOilsMass:      totalOils,
		SuperfatPercentage: settings.SuperfatPercent,
		Lines:              make([]LineResult, 0, len(resolved)),
	}

	demandNaOH, demandKOH := 0.0, 0.0
	for _, rl := range resolved {
		lr := LineResult{
			IngredientRef: rl.line.IngredientRef,
			Name:          rl.oil.Name,
			WeightGrams:   rl.line.WeightGrams,
			Percent:       rl.line.WeightGrams / totalOils * 100,
		}
		if rl.oil.SapNaOH > 0 {
			lr.LyeNaOH = rl.line.WeightGrams * rl.oil.SapNaOH
		}
		if sap := rl.oil.KOHSap(); sap > 0 {
			lr.LyeKOH = rl.line.WeightGrams * sap
		}
		missingSap := lr.LyeNaOH == 0
		if settings.LyeType == LyeKOH {
			missingSap = lr.LyeKOH == 0
		}
		if missingSap && rl.line.WeightGrams > 0 {
			result.Warnings = append(result.Warnings, Warning{
				IngredientRef: rl.line.IngredientRef,
				Message:       fmt.Sprintf("%s has no SAP value and was excluded from the lye calculation", displayName(rl)),
			})
		}
		demandNaOH += lr.LyeNaOH
		demandKOH += lr.LyeKOH
		result.Lines = append(result.Lines, lr)
	}

	discount := 1 - settings.SuperfatPercent/100
	result.LyeMassNaOH = demandNaOH * discount
	result.LyeMassKOH = demandKOH * discount
	// Purity corrects the reported KOH mass whichever lye is selected.
	if settings.KOHPurity90 {
		result.LyeMassKOH /= kohFlakePurity
	}

	lye := result.LyeMass()
	switch settings.WaterMethod {
	case WaterPercentOfOils:
		result.WaterMass = totalOils * settings.WaterValue / 100
	case WaterLyeConcentration:
		result.WaterMass = lye * (100/settings.WaterValue - 1)
	case WaterLyeRatio:
		result.WaterMass = lye * settings.WaterValue
	}

	result.FragranceMass = totalOils * fragranceFraction(settings)
	result.TotalBatchMass = totalOils + lye + result.WaterMass + result.FragranceMass

	result.FattyAcidProfile = blendProfile(resolved, totalOils)
	result.Qualities = qualities(result.FattyAcidProfile, resolved, totalOils)

	return result, nil
}

func validateSettings(s Settings) error {
	switch s.LyeType {
	case LyeNaOH, LyeKOH:
	default:
		return invalidInput("lye_type", fmt.Sprintf("unknown lye type %q", s.LyeType))
	}

	if invalidNumber(s.WaterValue) || s.WaterValue < 0 {
		return invalidInput("water_value", "must be a non-negative number")
	}
	switch s.WaterMethod {
	case WaterPercentOfOils, WaterLyeRatio:
	case WaterLyeConcentration:
		if s.WaterValue <= 0 || s.WaterValue >= 100 {
			return invalidInput("water_value", "lye concentration must be between 0 and 100 percent")
		}
	default:
		return invalidInput("water_method", fmt.Sprintf("unknown water method %q", s.WaterMethod))
	}

	if invalidNumber(s.SuperfatPercent) || s.SuperfatPercent < 0 || s.SuperfatPercent > 100 {
		return invalidInput("superfat_percentage", "must be between 0 and 100")
	}
	if invalidNumber(s.FragranceRatio) || s.FragranceRatio < 0 {
		return invalidInput("fragrance_ratio", "must be a non-negative number")
	}
	switch s.FragranceUnit {
	case "", FragranceMassRatio, FragrancePercent, FragranceOzPerLb:
	default:
		return invalidInput("fragrance_unit", fmt.Sprintf("unknown fragrance unit %q", s.FragranceUnit))
	}
	if invalidNumber(s.TotalOilWeight) || s.TotalOilWeight < 0 {
		return invalidInput("total_oil_weight", "must be a non-negative number")
	}
	if s.WeightUnit != "" {
		if _, err := ParseWeightUnit(string(s.WeightUnit)); err != nil {
			return err
		}
	}
	return nil
}

func invalidNumber(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// fragranceFraction normalizes the fragrance setting to a mass fraction of oils.
func fragranceFraction(s Settings) float64 {
	switch s.FragranceUnit {
	case FragrancePercent:
		return s.FragranceRatio / 100
	case FragranceOzPerLb:
		return s.FragranceRatio / 16
	default:
		return s.FragranceRatio
	}
}

func blendProfile(lines []resolvedLine, totalOils float64) map[string]float64 {
	profile := make(map[string]float64, len(FattyAcids))
	for _, acid := range FattyAcids {
		profile[acid] = 0
	}
	for _, rl := range lines {
		share := rl.line.WeightGrams / totalOils
		for _, acid := range sortedKeys(rl.oil.FattyAcids) {
			profile[acid] += share * rl.oil.FattyAcids[acid]
		}
	}
	return profile
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func displayName(rl resolvedLine) string {
	if rl.oil.Name != "" {
		return rl.oil.Name
	}
	return rl.line.IngredientRef
}
