package models

import (
	"gorm.io/gorm"

	"lathera/internal/soap"
)

// Oil is a persisted oil reference entry: SAP values plus the fatty-acid
// breakdown used for quality predictions.
type Oil struct {
	gorm.Model
	Slug       string     `gorm:"uniqueIndex;not null" json:"slug"`
	Name       string     `gorm:"uniqueIndex;not null" json:"name"`
	Category   string     `json:"category"`
	SapNaOH    float64    `gorm:"column:sap_naoh" json:"sap_naoh"`
	SapKOH     float64    `gorm:"column:sap_koh" json:"sap_koh"`
	Lauric     float64    `json:"lauric"`
	Myristic   float64    `json:"myristic"`
	Palmitic   float64    `json:"palmitic"`
	Stearic    float64    `json:"stearic"`
	Ricinoleic float64    `json:"ricinoleic"`
	Oleic      float64    `json:"oleic"`
	Linoleic   float64    `json:"linoleic"`
	Linolenic  float64    `json:"linolenic"`
	Iodine     float64    `json:"iodine"`
	INS        float64    `gorm:"column:ins" json:"ins"`
	Aliases    []OilAlias `gorm:"foreignKey:OilID" json:"aliases"`
}

// OilAlias holds an alternative name for an Oil.
type OilAlias struct {
	gorm.Model
	Name  string `gorm:"not null" json:"name"`
	OilID uint
}

// FattyAcids returns the non-zero fatty acids of the oil keyed by acid name.
func (o Oil) FattyAcids() map[string]float64 {
	all := map[string]float64{
		soap.Lauric:     o.Lauric,
		soap.Myristic:   o.Myristic,
		soap.Palmitic:   o.Palmitic,
		soap.Stearic:    o.Stearic,
		soap.Ricinoleic: o.Ricinoleic,
		soap.Oleic:      o.Oleic,
		soap.Linoleic:   o.Linoleic,
		soap.Linolenic:  o.Linolenic,
	}
	for k, v := range all {
		if v == 0 {
			delete(all, k)
		}
	}
	return all
}

// SetFattyAcids copies known acids from m onto the oil. Unknown keys are ignored.
func (o *Oil) SetFattyAcids(m map[string]float64) {
	o.Lauric = m[soap.Lauric]
	o.Myristic = m[soap.Myristic]
	o.Palmitic = m[soap.Palmitic]
	o.Stearic = m[soap.Stearic]
	o.Ricinoleic = m[soap.Ricinoleic]
	o.Oleic = m[soap.Oleic]
	o.Linoleic = m[soap.Linoleic]
	o.Linolenic = m[soap.Linolenic]
}

// Reference converts the record into the calculator's reference entry.
func (o Oil) Reference() soap.OilReference {
	return soap.OilReference{
		ID:         o.Slug,
		Name:       o.Name,
		SapNaOH:    o.SapNaOH,
		SapKOH:     o.SapKOH,
		FattyAcids: o.FattyAcids(),
		Iodine:     o.Iodine,
		INS:        o.INS,
	}
}
