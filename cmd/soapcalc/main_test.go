package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lathera/internal/soap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalcByWeight(t *testing.T) {
	out, err := execute(t, "calc", "olive-oil=500g")
	require.NoError(t, err)

	assert.Contains(t, out, "Olive Oil")
	assert.Contains(t, out, "Sodium hydroxide (NaOH)")
	assert.Contains(t, out, "64.1 g")
	assert.Contains(t, out, "165.0 g")
	assert.Contains(t, out, "conditioning")
}

func TestCalcByPercentJSON(t *testing.T) {
	out, err := execute(t, "calc", "olive=80%", "Castor Oil=20%", "--total", "1", "--unit", "kg", "--superfat", "0", "--json")
	require.NoError(t, err)

	var result soap.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Lines, 2)
	assert.Equal(t, "castor-oil", result.Lines[1].IngredientRef)
	assert.InDelta(t, 1000, result.TotalOilsMass, 1e-9)
	assert.InDelta(t, 800*0.135+200*0.128, result.LyeMassNaOH, 0.5)
}

func TestCalcReadsEnvironment(t *testing.T) {
	t.Setenv("SOAPCALC_LYE", "KOH")
	t.Setenv("SOAPCALC_KOH_PURITY_90", "false")
	out, err := execute(t, "calc", "olive-oil=100g", "--json")
	require.NoError(t, err)

	var result soap.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, soap.LyeKOH, result.LyeType)
	assert.InDelta(t, 100*0.190*0.95, result.LyeMassKOH, 1e-6)
}

func TestCalcConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "soapcalc.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("superfat: 10\nwater-method: ratio\nwater: 2\n"), 0o600))

	out, err := execute(t, "--config", cfg, "calc", "olive-oil=100g", "--json")
	require.NoError(t, err)

	var result soap.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 10, result.SuperfatPercentage, 1e-9)
	assert.InDelta(t, result.LyeMassNaOH*2, result.WaterMass, 1e-9)
}

func TestCalcRecipeAndSheet(t *testing.T) {
	dir := t.TempDir()
	recipe := filepath.Join(dir, "recipe.txt")
	sheet := filepath.Join(dir, "sheet.html")
	require.NoError(t, os.WriteFile(recipe, []byte("Olive Oil 600 g\nCoconut oil 400 g\nWater 330 g\n"), 0o600))

	out, err := execute(t, "calc", "--recipe", recipe, "--sheet", sheet, "--title", "Kitchen batch")
	require.NoError(t, err)
	assert.Contains(t, out, "Coconut Oil, 76 deg")

	html, err := os.ReadFile(sheet)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Kitchen batch")
	assert.Contains(t, string(html), "1000.0 g")
}

func TestCalcErrors(t *testing.T) {
	_, err := execute(t, "calc")
	require.Error(t, err)

	_, err = execute(t, "calc", "olive-oil=50%", "castor-oil=100g")
	require.ErrorContains(t, err, "mix of percentages and weights")

	_, err = execute(t, "calc", "unicorn tears=100g")
	require.True(t, errors.Is(err, soap.ErrMissingReferenceData), "got %v", err)

	_, err = execute(t, "calc", "olive-oil=100g", "--lye", "LiOH")
	require.True(t, errors.Is(err, soap.ErrInvalidInput), "got %v", err)

	_, err = execute(t, "calc", "olive-oil")
	require.ErrorContains(t, err, "oil=amount")
}

func TestOilsCommands(t *testing.T) {
	out, err := execute(t, "oils", "butter")
	require.NoError(t, err)
	assert.Contains(t, out, "shea-butter")
	assert.NotContains(t, out, "olive-oil")

	out, err = execute(t, "oils", "show", "castr oil")
	require.NoError(t, err)
	assert.Contains(t, out, "Castor Oil (castor-oil)")
	assert.Contains(t, out, "ricinoleic")

	_, err = execute(t, "oils", "zzzz")
	require.Error(t, err)
}

func TestLibraryFlag(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "oils.yaml")
	content := strings.Join([]string{
		"oils:",
		"  - id: test-oil",
		"    name: Test Oil",
		"    sap_naoh: 0.1",
		"    fatty_acids: {oleic: 100}",
	}, "\n")
	require.NoError(t, os.WriteFile(lib, []byte(content), 0o600))

	out, err := execute(t, "--library", lib, "calc", "test-oil=100g", "--superfat", "0", "--json")
	require.NoError(t, err)

	var result soap.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 10, result.LyeMassNaOH, 1e-9)
}
