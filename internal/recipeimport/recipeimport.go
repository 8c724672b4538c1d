package recipeimport

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"lathera/internal/formulation"
	"lathera/internal/oils"
)

// MaxUploadSize bounds recipe documents accepted for import.
const MaxUploadSize = 5 << 20

var (
	// ErrEmptyRecipe is returned when no oil lines could be recognised.
	ErrEmptyRecipe = errors.New("recipeimport: no oil lines found")
	// ErrMixedAmounts is returned when a recipe mixes percentages and weights.
	ErrMixedAmounts = errors.New("recipeimport: recipe mixes percentages and weights")
)

// Matcher maps a free-form ingredient name onto a library entry.
type Matcher interface {
	Match(name string) (oils.Entry, bool)
}

// Result is an imported recipe ready to be loaded as a draft.
type Result struct {
	Lines     []formulation.Line `json:"lines"`
	TotalOils float64            `json:"total_oils"`
	Unmatched []string           `json:"unmatched,omitempty"`
	Skipped   []string           `json:"skipped,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// Import parses text and matches every oil line. Weight-based recipes keep
// their own total; percentage recipes are laid out over defaultTotal grams.
func Import(text string, matcher Matcher, defaultTotal float64) (Result, error) {
	candidates := ParseText(text)

	var result Result
	var oilCandidates []Candidate
	for _, c := range candidates {
		if isNonOil(c.Name) {
			result.Skipped = append(result.Skipped, c.Name)
			continue
		}
		oilCandidates = append(oilCandidates, c)
	}
	if len(oilCandidates) == 0 {
		return Result{}, ErrEmptyRecipe
	}

	percent := oilCandidates[0].Percent
	for _, c := range oilCandidates[1:] {
		if c.Percent != percent {
			return Result{}, ErrMixedAmounts
		}
	}

	index := make(map[string]int)
	for _, c := range oilCandidates {
		entry, ok := matcher.Match(c.Name)
		if !ok {
			result.Unmatched = append(result.Unmatched, c.Name)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%q does not match any oil in the library", c.Name))
			continue
		}
		if i, seen := index[entry.ID]; seen {
			if percent {
				result.Lines[i].Percent += c.Amount
			}
			result.Lines[i].WeightGrams += c.Grams()
			continue
		}
		index[entry.ID] = len(result.Lines)
		line := formulation.Line{IngredientRef: entry.ID, Name: entry.Name, WeightGrams: c.Grams()}
		if percent {
			line.Percent = c.Amount
		}
		result.Lines = append(result.Lines, line)
	}
	if len(result.Lines) == 0 {
		return result, fmt.Errorf("%w: none of %d lines matched", ErrEmptyRecipe, len(oilCandidates))
	}

	var err error
	if percent {
		result.TotalOils = defaultTotal
		result.Lines, err = formulation.SyncFromPercent(result.Lines, defaultTotal)
		if warning := formulation.PercentWarning(result.Lines); warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	} else {
		result.TotalOils = formulation.TotalWeight(result.Lines)
		result.Lines, err = formulation.SyncFromWeight(result.Lines, result.TotalOils)
	}
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// ExtractText returns the plain text of an uploaded document.
func ExtractText(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	case strings.HasPrefix(lower, "text/"), lower == "", lower == "application/octet-stream":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported document type %q", mime)
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					builder.WriteByte(' ')
				}
				builder.WriteString(word.S)
			}
			builder.WriteByte('\n')
		}
	}
	return builder.String(), nil
}

// MimeTypeFromName guesses a document type from its file extension.
func MimeTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text", ".md":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
