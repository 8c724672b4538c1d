package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lathera/internal/db"
	"lathera/internal/oils"
)

const sampleCSV = `Name,Slug,Category,SAP NaOH,SAP KOH,Lauric,Myristic,Palmitic,Stearic,Ricinoleic,Oleic,Linoleic,Linolenic,Iodine,INS,Aliases
Olive Oil,olive-oil,Oil,0.135,0.190,,,14,3,,69,12,1,85,105,"olive; EVOO"
Tucuma Butter,,Butter,,238,48,26,6,3,,13,,,13,175,tucuma
Kokum Butter,,Butter,0.137,N/A,,,4,56,,36,1,,35,150,
`

func newTestStore(t *testing.T) *oils.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:import_oils_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return oils.NewStore(database)
}

func TestImportOilsCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, updated, err := importOils(ctx, store, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("importOils() error = %v", err)
	}
	if created != 3 || updated != 0 {
		t.Fatalf("expected 3 created, got created=%d updated=%d", created, updated)
	}

	tucuma, err := store.Find(ctx, "tucuma-butter")
	if err != nil {
		t.Fatalf("expected slug derived from name: %v", err)
	}
	if math.Abs(tucuma.SapKOH-0.238) > 1e-9 {
		t.Fatalf("expected mg KOH/g to be normalised, got %v", tucuma.SapKOH)
	}
	if math.Abs(tucuma.SapNaOH-0.238*40/56.1) > 1e-9 {
		t.Fatalf("expected NaOH SAP derived from KOH, got %v", tucuma.SapNaOH)
	}

	olive, err := store.Find(ctx, "olive-oil")
	if err != nil {
		t.Fatalf("Find(olive-oil) error = %v", err)
	}
	if olive.Oleic != 69 || len(olive.Aliases) != 2 {
		t.Fatalf("unexpected olive oil record: oleic=%v aliases=%v", olive.Oleic, olive.Aliases)
	}

	created, updated, err = importOils(ctx, store, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("second importOils() error = %v", err)
	}
	if created != 0 || updated != 3 {
		t.Fatalf("expected re-import to update, got created=%d updated=%d", created, updated)
	}
}

func TestImportOilsRejectsRowsWithoutName(t *testing.T) {
	store := newTestStore(t)
	csv := "Name,SAP NaOH\n,0.1\n"
	if _, _, err := importOils(context.Background(), store, strings.NewReader(csv)); err == nil {
		t.Fatal("expected an error for a row without a name")
	}
}

func TestImportOilsEmptyCSV(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := importOils(context.Background(), store, strings.NewReader("")); err == nil {
		t.Fatal("expected an error for an empty csv")
	}
}

func TestBuildOilHelpers(t *testing.T) {
	if got := slugify("  Coconut Oil, 92 deg "); got != "coconut-oil-92-deg" {
		t.Fatalf("slugify = %q", got)
	}
	if got := parseFirstNumber("approx. 0,134"); got != 0.134 {
		t.Fatalf("parseFirstNumber = %v", got)
	}
	if got := normalizeSap(0.19); got != 0.19 {
		t.Fatalf("normalizeSap should keep gram ratios, got %v", got)
	}
	aliases := splitAliases("a; b, ,c")
	if len(aliases) != 3 {
		t.Fatalf("splitAliases = %v", aliases)
	}
}

func TestRunRequiresPath(t *testing.T) {
	if err := run(context.Background(), " "); err == nil {
		t.Fatal("expected empty path to fail")
	}
	if err := run(context.Background(), "does-not-exist.csv"); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
