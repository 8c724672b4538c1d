package soap

import (
	"fmt"
	"math"
	"strings"
)

// WeightUnit is a display unit for masses.
type WeightUnit string

const (
	UnitGrams     WeightUnit = "g"
	UnitKilograms WeightUnit = "kg"
	UnitOunces    WeightUnit = "oz"
	UnitPounds    WeightUnit = "lb"
)

var gramsPer = map[WeightUnit]float64{
	UnitGrams:     1,
	UnitKilograms: 1000,
	UnitOunces:    28.349523125,
	UnitPounds:    453.59237,
}

// ParseWeightUnit accepts unit symbols and common spellings.
func ParseWeightUnit(value string) (WeightUnit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "g", "gram", "grams":
		return UnitGrams, nil
	case "kg", "kilogram", "kilograms":
		return UnitKilograms, nil
	case "oz", "ounce", "ounces":
		return UnitOunces, nil
	case "lb", "lbs", "pound", "pounds":
		return UnitPounds, nil
	}
	return "", invalidInput("weight_unit", fmt.Sprintf("unknown weight unit %q", value))
}

// ToGrams converts value expressed in unit to grams.
func ToGrams(value float64, unit WeightUnit) float64 {
	factor, ok := gramsPer[unit]
	if !ok {
		factor = 1
	}
	return value * factor
}

// FromGrams converts grams to the given unit.
func FromGrams(grams float64, unit WeightUnit) float64 {
	factor, ok := gramsPer[unit]
	if !ok {
		factor = 1
	}
	return grams / factor
}

// Convert converts value between two units.
func Convert(value float64, from, to WeightUnit) float64 {
	return FromGrams(ToGrams(value, from), to)
}

// RoundMass rounds a mass to the one-decimal display precision.
func RoundMass(v float64) float64 {
	return math.Round(v*10) / 10
}

// Precision is the number of decimals a mass in unit is displayed with.
// Kilograms and pounds need three to stay useful at kitchen scales.
func Precision(unit WeightUnit) int {
	if unit == UnitKilograms || unit == UnitPounds {
		return 3
	}
	return 1
}

// RoundIn rounds a mass already expressed in unit to its display precision.
func RoundIn(v float64, unit WeightUnit) float64 {
	scale := math.Pow(10, float64(Precision(unit)))
	return math.Round(v*scale) / scale
}

// RoundQuality rounds a quality index to a whole number.
func RoundQuality(v float64) float64 {
	return math.Round(v)
}
