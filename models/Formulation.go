package models

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lathera/internal/formulation"
	"lathera/internal/soap"
)

// Formulation is a saved recipe: oil percentages plus the calculator
// settings it was designed with. Weights are derived per batch.
type Formulation struct {
	gorm.Model
	Name            string           `gorm:"not null" json:"name"`
	Description     string           `gorm:"type:text" json:"description"`
	Version         int              `gorm:"not null;default:1" json:"version"`
	ShareToken      string           `gorm:"uniqueIndex;not null" json:"share_token"`
	LyeType         string           `gorm:"not null;default:NaOH" json:"lye_type"`
	KOHPurity90     bool             `gorm:"column:koh_purity_90" json:"koh_purity_90"`
	WaterMethod     string           `gorm:"not null;default:percentage" json:"water_method"`
	WaterValue      float64          `json:"water_value"`
	SuperfatPercent float64          `json:"superfat_percentage"`
	FragranceRatio  float64          `json:"fragrance_ratio"`
	FragranceUnit   string           `json:"fragrance_unit"`
	Oils            []FormulationOil `gorm:"foreignKey:FormulationID" json:"oils"`
}

// BeforeCreate assigns the public share token.
func (f *Formulation) BeforeCreate(tx *gorm.DB) error {
	if f.ShareToken == "" {
		f.ShareToken = uuid.NewString()
	}
	return nil
}

// Settings returns the stored calculator settings for a batch of total
// oils expressed in unit.
func (f Formulation) Settings(total float64, unit soap.WeightUnit) soap.Settings {
	return soap.Settings{
		LyeType:         soap.LyeType(f.LyeType),
		KOHPurity90:     f.KOHPurity90,
		WaterMethod:     soap.WaterMethod(f.WaterMethod),
		WaterValue:      f.WaterValue,
		SuperfatPercent: f.SuperfatPercent,
		FragranceRatio:  f.FragranceRatio,
		FragranceUnit:   soap.FragranceUnit(f.FragranceUnit),
		TotalOilWeight:  total,
		WeightUnit:      unit,
	}
}

// ApplySettings copies the persistent part of s onto the formulation.
// Batch size and display unit are chosen per calculation and not stored.
func (f *Formulation) ApplySettings(s soap.Settings) {
	f.LyeType = string(s.LyeType)
	f.KOHPurity90 = s.KOHPurity90
	f.WaterMethod = string(s.WaterMethod)
	f.WaterValue = s.WaterValue
	f.SuperfatPercent = s.SuperfatPercent
	f.FragranceRatio = s.FragranceRatio
	f.FragranceUnit = string(s.FragranceUnit)
}

// Lines returns the formulation's oils as draft lines ordered by position.
func (f Formulation) Lines() []formulation.Line {
	ordered := make([]FormulationOil, len(f.Oils))
	copy(ordered, f.Oils)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	lines := make([]formulation.Line, 0, len(ordered))
	for _, oil := range ordered {
		lines = append(lines, formulation.Line{
			IngredientRef: oil.OilSlug,
			Name:          oil.Name,
			Percent:       oil.Percent,
		})
	}
	return lines
}

// SetLines replaces the formulation's oils with lines, keeping their order.
func (f *Formulation) SetLines(lines []formulation.Line) {
	f.Oils = make([]FormulationOil, 0, len(lines))
	for i, line := range lines {
		f.Oils = append(f.Oils, FormulationOil{
			FormulationID: f.ID,
			OilSlug:       line.IngredientRef,
			Name:          line.Name,
			Percent:       line.Percent,
			Position:      i,
		})
	}
}

// Draft builds an editable draft sized to total oils in unit.
func (f Formulation) Draft(total float64, unit soap.WeightUnit) formulation.Draft {
	return formulation.Draft{
		Name:     f.Name,
		Settings: f.Settings(total, unit),
		Lines:    f.Lines(),
	}
}
