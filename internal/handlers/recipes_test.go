package handlers

import (
	"bytes"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

const sampleRecipe = `Olive Oil 600 g
Coconut oil 300 g
Castr Oil 100 g
Sodium Hydroxide 135 g
Water 330 g`

func TestRecipeImportJSON(t *testing.T) {
	body := `{"text":` + quoteJSON(sampleRecipe) + `}`
	w := httptest.NewRecorder()
	RecipeImport(w, jsonRequest(http.MethodPost, "/api/recipes/import", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[recipeImportResponse](t, w)
	if len(resp.Lines) != 3 || resp.TotalOils != 1000 {
		t.Fatalf("unexpected import result: %+v", resp.Result)
	}
	if resp.Lines[2].IngredientRef != "castor-oil" {
		t.Fatalf("expected fuzzy match for castor oil, got %+v", resp.Lines[2])
	}
	if resp.SavedToDraft {
		t.Fatal("did not ask for the draft to be replaced")
	}
}

func TestRecipeImportMultipartFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("total", "500"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	part, err := mw.CreateFormFile("recipe_file", "castile.txt")
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	part.Write([]byte("Olive oil 70%\nAvocado oil 30%\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	RecipeImport(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[recipeImportResponse](t, w)
	if len(resp.Lines) != 2 || resp.TotalOils != 500 {
		t.Fatalf("unexpected import result: %+v", resp.Result)
	}
	if math.Abs(resp.Lines[0].WeightGrams-350) > 1e-9 {
		t.Fatalf("expected 70%% of 500 g, got %v", resp.Lines[0].WeightGrams)
	}
}

func TestRecipeImportRejectsUnsupportedFiles(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="recipe_file"; filename="recipe.doc"`)
	header.Set("Content-Type", "application/msword")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	part.Write([]byte{0xd0, 0xcf, 0x11, 0xe0})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	RecipeImport(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unsupported document, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "unsupported document type") {
		t.Fatalf("expected the document type to be reported, got %s", w.Body.String())
	}
}

func TestRecipeImportErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"empty", `{"text":"   "}`, http.StatusBadRequest},
		{"no oils", `{"text":"Water 300 g\nLye 120 g"}`, http.StatusUnprocessableEntity},
		{"mixed", `{"text":"Olive oil 70%\nCoconut oil 300 g"}`, http.StatusUnprocessableEntity},
		{"malformed", `{"text":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RecipeImport(w, jsonRequest(http.MethodPost, "/api/recipes/import", tc.body))
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRecipeImportIntoDraft(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	body := `{"text":` + quoteJSON(sampleRecipe) + `}`
	w, cookie := serveWithSession(t, sm, RecipeImport, jsonRequest(http.MethodPost, "/api/recipes/import?into=draft", body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decodeBody[recipeImportResponse](t, w); !resp.SavedToDraft {
		t.Fatal("expected the import to replace the draft")
	}

	w, _ = serveWithSession(t, sm, DraftShow, httptest.NewRequest(http.MethodGet, "/api/draft", nil), cookie)
	draft := decodeBody[draftResponse](t, w)
	if len(draft.Draft.Lines) != 3 || draft.Draft.Settings.TotalOilWeight != 1000 {
		t.Fatalf("expected imported lines in the draft, got %+v", draft.Draft)
	}
	if draft.Result == nil {
		t.Fatalf("expected the imported draft to calculate, got error %q", draft.Error)
	}
}

func quoteJSON(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
