package oils

import (
	"errors"
	"math"
	"strings"
	"testing"

	"lathera/internal/soap"
)

func TestDefaultLibraryLoads(t *testing.T) {
	t.Parallel()

	lib, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if lib.Len() < 15 {
		t.Fatalf("expected a populated library, got %d entries", lib.Len())
	}

	for _, entry := range lib.List() {
		if entry.SapNaOH <= 0 {
			t.Fatalf("%s has no NaOH SAP value", entry.ID)
		}
		if entry.SapKOH <= entry.SapNaOH {
			t.Fatalf("%s: KOH SAP %v should exceed NaOH SAP %v", entry.ID, entry.SapKOH, entry.SapNaOH)
		}
		if total := entry.FattyAcidTotal(); total > 101 {
			t.Fatalf("%s fatty acids sum to %v", entry.ID, total)
		}
	}
}

func TestLibraryResolve(t *testing.T) {
	t.Parallel()

	lib := MustDefault()

	oil, err := lib.Resolve("olive-oil")
	if err != nil {
		t.Fatalf("Resolve(olive-oil) error = %v", err)
	}
	if oil.Name != "Olive Oil" || oil.SapNaOH != 0.135 {
		t.Fatalf("unexpected olive oil entry: %+v", oil)
	}

	byName, err := lib.Resolve("castor oil")
	if err != nil || byName.ID != "castor-oil" {
		t.Fatalf("Resolve by name = %+v, %v", byName, err)
	}

	if _, err := lib.Resolve("unobtainium"); !errors.Is(err, soap.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLibraryResolveReturnsCopies(t *testing.T) {
	t.Parallel()

	lib := MustDefault()
	first, _ := lib.Resolve("olive-oil")
	first.FattyAcids[soap.Oleic] = 0

	second, _ := lib.Resolve("olive-oil")
	if second.FattyAcids[soap.Oleic] != 69 {
		t.Fatalf("library data was mutated through a resolved reference")
	}
}

func TestLibraryMatch(t *testing.T) {
	t.Parallel()

	lib := MustDefault()
	cases := []struct {
		name string
		want string
	}{
		{"Olive Oil", "olive-oil"},
		{"extra virgin olive oil", "olive-oil"},
		{"Coconut oil", "coconut-oil-76"},
		{"Castr Oil", "castor-oil"},
		{"Shea", "shea-butter"},
		{"beef tallow", "tallow-beef"},
	}

	for _, tt := range cases {
		entry, ok := lib.Match(tt.name)
		if !ok {
			t.Fatalf("Match(%q) found nothing", tt.name)
		}
		if entry.ID != tt.want {
			t.Fatalf("Match(%q) = %s, want %s", tt.name, entry.ID, tt.want)
		}
	}

	if _, ok := lib.Match("liquid nitrogen"); ok {
		t.Fatal("expected no match for an unrelated name")
	}
}

func TestLibrarySearch(t *testing.T) {
	t.Parallel()

	lib := MustDefault()
	results := lib.Search("butter")
	if len(results) < 3 {
		t.Fatalf("expected butters in search results, got %d", len(results))
	}
	for _, entry := range results {
		if !strings.Contains(strings.ToLower(entry.Name), "butter") && !strings.Contains(strings.Join(entry.Aliases, " "), "butter") {
			t.Fatalf("unexpected search hit %s", entry.Name)
		}
	}
	if got := len(lib.Search("")); got != lib.Len() {
		t.Fatalf("empty search returned %d entries, want %d", got, lib.Len())
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing id":   "oils:\n  - name: Mystery\n    sap_naoh: 0.1\n",
		"missing sap":  "oils:\n  - id: mystery\n    name: Mystery\n",
		"duplicate id": "oils:\n  - {id: a, name: A, sap_naoh: 0.1}\n  - {id: a, name: B, sap_naoh: 0.1}\n",
		"bad yaml":     "oils: [",
	}
	for name, doc := range cases {
		if _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestLibraryDrivesCalculator(t *testing.T) {
	t.Parallel()

	lib := MustDefault()
	lines := []soap.OilLine{
		{IngredientRef: "olive-oil", WeightGrams: 500},
		{IngredientRef: "coconut-oil-76", WeightGrams: 300},
		{IngredientRef: "shea-butter", WeightGrams: 200},
	}
	result, err := soap.Calculate(lines, soap.DefaultSettings(), lib)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	want := 0.0
	for _, line := range lines {
		entry, _ := lib.Get(line.IngredientRef)
		want += line.WeightGrams / 1000 * entry.FattyAcidTotal()
	}
	got := 0.0
	for _, v := range result.FattyAcidProfile {
		got += v
	}
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("fatty acid profile sums to %v, want %v", got, want)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"castor", "castor", 0},
		{"castor", "castr", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range cases {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Fatalf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
