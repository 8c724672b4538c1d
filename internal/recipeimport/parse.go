// Package recipeimport turns a pasted or uploaded recipe into draft
// formulation lines matched against the oil reference library.
package recipeimport

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"lathera/internal/soap"
)

// Candidate is a recipe line recognised in free text before it is matched.
type Candidate struct {
	Name    string
	Amount  float64
	Unit    soap.WeightUnit
	Percent bool
	Source  string
}

// Grams returns the candidate amount in grams. Percentage lines return zero.
func (c Candidate) Grams() float64 {
	if c.Percent {
		return 0
	}
	return soap.ToGrams(c.Amount, c.Unit)
}

// amountPattern reads "1,250" as a grouped thousand and "12,5" as a
// decimal comma.
const amountPattern = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)\s*(%|g|grams?|kg|kilograms?|oz|ounces?|lbs?|pounds?)?`

var (
	nameFirst   = regexp.MustCompile(`(?i)^(.*?[a-z)].*?)[\s:=,\-–]+` + amountPattern + `\.?$`)
	amountFirst = regexp.MustCompile(`(?i)^` + amountPattern + `\s+(?:of\s+)?(.*[a-z].*)$`)
	bullet      = regexp.MustCompile(`^(?:[-*•·]|\d+[.)])\s+`)
	grouped     = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// nonOils are ingredients a recipe lists beside its oils that the
// calculator derives itself.
var nonOils = []string{
	"lye", "naoh", "koh", "sodium hydroxide", "potassium hydroxide",
	"water", "distilled water", "fragrance", "fragrance oil", "essential oil",
	"superfat", "total", "batch",
}

// ParseText extracts candidate oil lines from free text. Lines without an
// amount, such as headings, are ignored.
func ParseText(text string) []Candidate {
	var out []Candidate
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		if c, ok := parseLine(scanner.Text()); ok {
			out = append(out, c)
		}
	}
	return out
}

func parseLine(raw string) (Candidate, bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Candidate{}, false
	}
	// Strip list markers only when something other than a bare number follows.
	if stripped := bullet.ReplaceAllString(line, ""); stripped != line && !amountOnly(stripped) {
		line = stripped
	}

	var name, amount, unit string
	if m := nameFirst.FindStringSubmatch(line); m != nil {
		name, amount, unit = m[1], m[2], m[3]
	} else if m := amountFirst.FindStringSubmatch(line); m != nil {
		amount, unit, name = m[1], m[2], m[3]
	} else {
		return Candidate{}, false
	}

	name = strings.Trim(strings.TrimSpace(name), ":-–,")
	name = strings.TrimSpace(name)
	if name == "" {
		return Candidate{}, false
	}
	value, err := parseAmount(amount)
	if err != nil || value <= 0 {
		return Candidate{}, false
	}

	c := Candidate{Name: name, Amount: value, Unit: soap.UnitGrams, Source: strings.TrimSpace(raw)}
	if unit == "%" {
		c.Percent = true
		c.Unit = ""
		return c, true
	}
	if unit != "" {
		parsed, err := soap.ParseWeightUnit(unit)
		if err != nil {
			return Candidate{}, false
		}
		c.Unit = parsed
	}
	return c, true
}

func parseAmount(s string) (float64, error) {
	if grouped.MatchString(s) {
		return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func amountOnly(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func isNonOil(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, word := range nonOils {
		if lower == word || strings.HasPrefix(lower, word+" ") || strings.HasPrefix(lower, word+"(") {
			return true
		}
	}
	return false
}
