// Package soap computes lye, water and fragrance masses for a soap batch
// together with the predicted bar qualities and blended fatty-acid profile.
//
// SAP values are expressed as grams of lye needed to saponify one gram of
// oil (olive oil is roughly 0.134 for NaOH and 0.190 for KOH). Every mass in
// this package is in grams; conversions to other units happen at the edges.
package soap

import (
	"errors"
	"fmt"
	"strings"
)

// LyeType selects the caustic used for the batch.
type LyeType string

const (
	LyeNaOH LyeType = "NaOH"
	LyeKOH  LyeType = "KOH"
)

// WaterMethod selects how WaterValue is interpreted.
type WaterMethod string

const (
	// WaterPercentOfOils treats WaterValue as a percentage of total oil weight.
	WaterPercentOfOils WaterMethod = "percentage"
	// WaterLyeConcentration treats WaterValue as lye / (lye + water) in percent.
	WaterLyeConcentration WaterMethod = "concentration"
	// WaterLyeRatio treats WaterValue as grams of water per gram of lye.
	WaterLyeRatio WaterMethod = "ratio"
)

// FragranceUnit describes how FragranceRatio is expressed.
type FragranceUnit string

const (
	FragranceMassRatio FragranceUnit = "ratio"
	FragrancePercent   FragranceUnit = "percent"
	FragranceOzPerLb   FragranceUnit = "oz/lb"
)

// KOH flake sold commercially is typically 90% pure.
const kohFlakePurity = 0.90

// Molar mass ratio used to derive a KOH SAP value when only NaOH is tabulated.
const kohPerNaOH = 56.1 / 40.0

// Fatty acid keys used by the quality indices.
const (
	Lauric     = "lauric"
	Myristic   = "myristic"
	Palmitic   = "palmitic"
	Stearic    = "stearic"
	Ricinoleic = "ricinoleic"
	Oleic      = "oleic"
	Linoleic   = "linoleic"
	Linolenic  = "linolenic"
)

// FattyAcids lists the acids tracked by the reference library in display order.
var FattyAcids = []string{Lauric, Myristic, Palmitic, Stearic, Ricinoleic, Oleic, Linoleic, Linolenic}

// OilReference is a single entry of the oil reference library.
type OilReference struct {
	ID         string
	Name       string
	SapNaOH    float64
	SapKOH     float64
	FattyAcids map[string]float64
	Iodine     float64
	INS        float64
}

// KOHSap returns the tabulated KOH SAP value or derives it from the NaOH value.
func (o OilReference) KOHSap() float64 {
	if o.SapKOH > 0 {
		return o.SapKOH
	}
	return o.SapNaOH * kohPerNaOH
}

// ErrNotFound is returned by resolvers for unknown oil identifiers.
var ErrNotFound = errors.New("soap: oil not found")

// Resolver looks up oil reference data by identifier.
type Resolver interface {
	Resolve(id string) (OilReference, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(id string) (OilReference, error)

// Resolve calls f(id).
func (f ResolverFunc) Resolve(id string) (OilReference, error) {
	return f(id)
}

// MapResolver resolves oils from an in-memory map keyed by ID.
type MapResolver map[string]OilReference

// Resolve implements Resolver.
func (m MapResolver) Resolve(id string) (OilReference, error) {
	if oil, ok := m[id]; ok {
		return oil, nil
	}
	return OilReference{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// OilLine is one oil of a recipe with its fully resolved weight.
type OilLine struct {
	IngredientRef string  `json:"ingredient_ref"`
	WeightGrams   float64 `json:"weight_grams"`
}

// Settings configures a single calculation. It is a plain value; callers
// build a fresh one for each call.
type Settings struct {
	LyeType         LyeType       `json:"lye_type"`
	KOHPurity90     bool          `json:"koh_purity_90"`
	WaterMethod     WaterMethod   `json:"water_method"`
	WaterValue      float64       `json:"water_value"`
	SuperfatPercent float64       `json:"superfat_percentage"`
	FragranceRatio  float64       `json:"fragrance_ratio"`
	FragranceUnit   FragranceUnit `json:"fragrance_unit"`
	TotalOilWeight  float64       `json:"total_oil_weight"`
	WeightUnit      WeightUnit    `json:"weight_unit"`
}

// DefaultSettings mirrors the values a new formulation starts with.
func DefaultSettings() Settings {
	return Settings{
		LyeType:         LyeNaOH,
		KOHPurity90:     true,
		WaterMethod:     WaterPercentOfOils,
		WaterValue:      33,
		SuperfatPercent: 5,
		FragranceRatio:  0.03,
		FragranceUnit:   FragranceMassRatio,
		TotalOilWeight:  1000,
		WeightUnit:      UnitGrams,
	}
}

// ParseLyeType accepts case-insensitive lye names.
func ParseLyeType(value string) (LyeType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "naoh", "sodium":
		return LyeNaOH, nil
	case "koh", "potassium":
		return LyeKOH, nil
	}
	return "", invalidInput("lye_type", fmt.Sprintf("unknown lye type %q", value))
}

// ParseWaterMethod accepts the canonical method names and a few aliases.
func ParseWaterMethod(value string) (WaterMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "percentage", "percent", "percentageofoils":
		return WaterPercentOfOils, nil
	case "concentration", "lyeconcentration", "lyeconcentrationpercent":
		return WaterLyeConcentration, nil
	case "ratio", "watertolyeratio":
		return WaterLyeRatio, nil
	}
	return "", invalidInput("water_method", fmt.Sprintf("unknown water method %q", value))
}

// Warning describes a recipe line the calculation had to treat specially.
type Warning struct {
	IngredientRef string `json:"ingredient_ref"`
	Message       string `json:"message"`
}

// LineResult is the per-oil breakdown of a calculation.
type LineResult struct {
	IngredientRef string  `json:"ingredient_ref"`
	Name          string  `json:"name"`
	WeightGrams   float64 `json:"weight_grams"`
	Percent       float64 `json:"percent"`
	LyeNaOH       float64 `json:"lye_naoh"`
	LyeKOH        float64 `json:"lye_koh"`
}

// Result is the complete output of Calculate. Values carry full precision.
type Result struct {
	LyeType            LyeType            `json:"lye_type"`
	LyeMassNaOH        float64            `json:"lye_naoh"`
	LyeMassKOH         float64            `json:"lye_koh"`
	WaterMass          float64            `json:"water"`
	FragranceMass      float64            `json:"fragrance"`
	TotalOilsMass      float64            `json:"total_oils"`
	TotalBatchMass     float64            `json:"total_batch_weight"`
	Qualities          map[string]float64 `json:"qualities"`
	FattyAcidProfile   map[string]float64 `json:"fatty_acids"`
	SuperfatPercentage float64            `json:"superfat_percentage"`
	Lines              []LineResult       `json:"lines"`
	Warnings           []Warning          `json:"warnings,omitempty"`
}

// LyeMass returns the mass of the selected lye type.
func (r Result) LyeMass() float64 {
	if r.LyeType == LyeKOH {
		return r.LyeMassKOH
	}
	return r.LyeMassNaOH
}
