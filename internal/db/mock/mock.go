package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lathera/internal/db"
	"lathera/internal/formulation"
	applog "lathera/internal/log"
	"lathera/internal/oils"
	"lathera/internal/soap"
	"lathera/models"
)

// New returns an in-memory sqlite database seeded with the reference oil
// library and a few sample formulations. Each call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:lathera-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

type sample struct {
	name        string
	description string
	settings    func(soap.Settings) soap.Settings
	lines       []formulation.Line
}

var samples = []sample{
	{
		name:        "Classic Castile",
		description: "Single-oil olive bar. Long cure, very mild.",
		lines: []formulation.Line{
			{IngredientRef: "olive-oil", Name: "Olive Oil", Percent: 100},
		},
	},
	{
		name:        "Everyday Bar",
		description: "Balanced hard bar with a creamy lather.",
		lines: []formulation.Line{
			{IngredientRef: "olive-oil", Name: "Olive Oil", Percent: 40},
			{IngredientRef: "coconut-oil-76", Name: "Coconut Oil, 76 deg", Percent: 25},
			{IngredientRef: "palm-oil", Name: "Palm Oil", Percent: 25},
			{IngredientRef: "castor-oil", Name: "Castor Oil", Percent: 5},
			{IngredientRef: "shea-butter", Name: "Shea Butter", Percent: 5},
		},
	},
	{
		name:        "Liquid Castile Paste",
		description: "Potassium hydroxide paste to dilute into liquid soap.",
		settings: func(s soap.Settings) soap.Settings {
			s.LyeType = soap.LyeKOH
			s.SuperfatPercent = 3
			s.WaterMethod = soap.WaterLyeRatio
			s.WaterValue = 3
			s.FragranceRatio = 0
			return s
		},
		lines: []formulation.Line{
			{IngredientRef: "olive-oil", Name: "Olive Oil", Percent: 80},
			{IngredientRef: "coconut-oil-76", Name: "Coconut Oil, 76 deg", Percent: 20},
		},
	},
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	lib, err := oils.Default()
	if err != nil {
		return err
	}
	created, err := oils.NewStore(database).Seed(ctx, lib)
	if err != nil {
		return err
	}

	for _, s := range samples {
		settings := soap.DefaultSettings()
		if s.settings != nil {
			settings = s.settings(settings)
		}
		record := models.Formulation{Name: s.name, Description: s.description, Version: 1}
		record.ApplySettings(settings)
		record.SetLines(s.lines)
		if err := database.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("seed formulation %q: %w", s.name, err)
		}
	}

	applog.Debug(ctx, "mock database seeded", "oils", created, "formulations", len(samples))
	return nil
}
