package models

import (
	"gorm.io/gorm"
)

// FormulationOil is one oil of a saved Formulation, stored as a share of
// total oil weight.
type FormulationOil struct {
	gorm.Model
	FormulationID uint    `gorm:"not null;index" json:"formulation_id"`
	OilSlug       string  `gorm:"not null" json:"oil_slug"`
	Name          string  `json:"name"`
	Percent       float64 `gorm:"not null" json:"percent"`
	Position      int     `gorm:"not null;default:0" json:"position"`
}
