package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lathera/internal/soap"
)

func TestDraftRequiresSessions(t *testing.T) {
	w := httptest.NewRecorder()
	DraftShow(w, httptest.NewRequest(http.MethodGet, "/api/draft", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a session manager, got %d", w.Code)
	}
}

func TestDraftLifecycle(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	w, cookie := serveWithSession(t, sm, DraftShow, httptest.NewRequest(http.MethodGet, "/api/draft", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	fresh := decodeBody[draftResponse](t, w)
	if fresh.Draft.Settings != defaults || len(fresh.Draft.Lines) != 0 || fresh.Result != nil {
		t.Fatalf("expected an empty draft on defaults, got %+v", fresh)
	}

	body := `{
		"name":"Kitchen test",
		"settings":{"lye_type":"NaOH","water_method":"percentage","water_value":33,"superfat_percentage":5,"total_oil_weight":500,"weight_unit":"g"},
		"lines":[
			{"ingredient_ref":"olive-oil","percent":80},
			{"ingredient_ref":"coconut-oil-76","percent":25}
		]
	}`
	w, cookie = serveWithSession(t, sm, DraftUpdate, jsonRequest(http.MethodPut, "/api/draft", body), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if cookie == nil {
		t.Fatal("expected a session cookie once the draft is stored")
	}
	updated := decodeBody[draftResponse](t, w)
	if updated.Draft.Lines[0].WeightGrams != 400 || updated.Draft.Lines[1].WeightGrams != 125 {
		t.Fatalf("expected weights from percentages, got %+v", updated.Draft.Lines)
	}
	if updated.TotalPercent != 105 || updated.PercentWarning == "" {
		t.Fatalf("expected a 5%% over warning, got %v %q", updated.TotalPercent, updated.PercentWarning)
	}
	if updated.Result == nil || updated.Result.Lye <= 0 {
		t.Fatalf("expected a calculated result, got %+v", updated.Result)
	}

	w, _ = serveWithSession(t, sm, DraftShow, httptest.NewRequest(http.MethodGet, "/api/draft", nil), cookie)
	stored := decodeBody[draftResponse](t, w)
	if stored.Draft.Name != "Kitchen test" || len(stored.Draft.Lines) != 2 {
		t.Fatalf("expected the stored draft back, got %+v", stored.Draft)
	}

	w, _ = serveWithSession(t, sm, DraftReset, httptest.NewRequest(http.MethodDelete, "/api/draft", nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	w, _ = serveWithSession(t, sm, DraftShow, httptest.NewRequest(http.MethodGet, "/api/draft", nil), cookie)
	if reset := decodeBody[draftResponse](t, w); len(reset.Draft.Lines) != 0 {
		t.Fatalf("expected reset draft to be empty, got %+v", reset.Draft.Lines)
	}
}

func TestDraftUpdateSyncFromWeight(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	body := `{
		"settings":{"lye_type":"NaOH","water_method":"percentage","water_value":33,"weight_unit":"kg"},
		"lines":[
			{"ingredient_ref":"olive-oil","weight_grams":750},
			{"ingredient_ref":"castor-oil","weight_grams":250}
		]
	}`
	w, _ := serveWithSession(t, sm, DraftUpdate, jsonRequest(http.MethodPut, "/api/draft?sync=weight", body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[draftResponse](t, w)
	if resp.Draft.Lines[0].Percent != 75 || resp.Draft.Lines[1].Percent != 25 {
		t.Fatalf("expected percentages from weights, got %+v", resp.Draft.Lines)
	}
	if resp.Draft.Settings.TotalOilWeight != 1 || resp.Draft.Settings.WeightUnit != soap.UnitKilograms {
		t.Fatalf("expected a 1 kg batch, got %v %s", resp.Draft.Settings.TotalOilWeight, resp.Draft.Settings.WeightUnit)
	}
	if resp.Result == nil || resp.Result.Unit != soap.UnitKilograms {
		t.Fatalf("expected result in kilograms, got %+v", resp.Result)
	}
}

func TestDraftUpdateReportsCalculationErrors(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	body := `{
		"settings":{"lye_type":"NaOH","water_method":"percentage","water_value":33,"total_oil_weight":500},
		"lines":[{"ingredient_ref":"dragon-fat","percent":100}]
	}`
	w, _ := serveWithSession(t, sm, DraftUpdate, jsonRequest(http.MethodPut, "/api/draft", body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected the draft to be stored even when it cannot calculate, got %d", w.Code)
	}
	resp := decodeBody[draftResponse](t, w)
	if resp.Result != nil || resp.Error == "" {
		t.Fatalf("expected an error instead of a result, got %+v", resp)
	}

	w, _ = serveWithSession(t, sm, DraftUpdate, jsonRequest(http.MethodPut, "/api/draft", `{"lines":[{"ingredient_ref":"olive-oil","percent":-1}]}`), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative percentage, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDraftUpdateFillsMissingSettingsFromDefaults(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	body := `{"settings":{"superfat_percentage":8},"lines":[{"ingredient_ref":"olive-oil","percent":100}]}`
	w, _ := serveWithSession(t, sm, DraftUpdate, jsonRequest(http.MethodPut, "/api/draft", body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[draftResponse](t, w)
	if resp.Error != "" || resp.Result == nil {
		t.Fatalf("expected a calculated draft, got error %q", resp.Error)
	}
	if resp.Draft.Settings.SuperfatPercent != 8 || resp.Draft.Settings.LyeType != defaults.LyeType {
		t.Fatalf("expected defaults with superfat 8, got %+v", resp.Draft.Settings)
	}
}

func TestDraftUpdateReportsLineWithoutIngredient(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	body := `{"lines":[{"ingredient_ref":"olive-oil","percent":50},{"name":"Coconut Oil","percent":50}]}`
	w, _ := serveWithSession(t, sm, DraftUpdate, jsonRequest(http.MethodPut, "/api/draft", body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected the draft to be stored, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[draftResponse](t, w)
	if resp.Result != nil || !strings.Contains(resp.Error, "Coconut Oil") {
		t.Fatalf("expected the unselected oil to block the result, got %+v", resp)
	}
}
