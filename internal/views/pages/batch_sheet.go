package pages

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"lathera/internal/soap"
	"lathera/internal/views/layout"
)

// BatchSheetLine is one oil row of the printed sheet.
type BatchSheetLine struct {
	Name    string
	Percent float64
	Grams   float64
}

// BatchSheetQuality is one quality row with its display range.
type BatchSheetQuality struct {
	Name    string
	Value   float64
	Range   soap.Range
	InRange bool
}

// BatchSheetData aggregates what the printable batch sheet shows.
type BatchSheetData struct {
	Title      string
	Unit       soap.WeightUnit
	RunDate    time.Time
	LyeLabel   string
	LyeGrams   float64
	WaterGrams float64
	Fragrance  float64
	TotalOils  float64
	TotalBatch float64
	Superfat   float64
	Lines      []BatchSheetLine
	Qualities  []BatchSheetQuality
	FattyAcids []BatchSheetLine
	Warnings   []string
}

// NewBatchSheetData lays out a calculation result for printing.
func NewBatchSheetData(title string, result soap.Result, unit soap.WeightUnit, runDate time.Time) BatchSheetData {
	if strings.TrimSpace(title) == "" {
		title = "Soap batch"
	}
	data := BatchSheetData{
		Title:      title,
		Unit:       unit,
		RunDate:    runDate,
		LyeLabel:   LyeLabel(result.LyeType),
		LyeGrams:   result.LyeMass(),
		WaterGrams: result.WaterMass,
		Fragrance:  result.FragranceMass,
		TotalOils:  result.TotalOilsMass,
		TotalBatch: result.TotalBatchMass,
		Superfat:   result.SuperfatPercentage,
	}
	for _, line := range result.Lines {
		data.Lines = append(data.Lines, BatchSheetLine{Name: line.Name, Percent: line.Percent, Grams: line.WeightGrams})
	}
	for _, name := range soap.Qualities {
		value := result.Qualities[name]
		data.Qualities = append(data.Qualities, BatchSheetQuality{
			Name:    name,
			Value:   value,
			Range:   soap.QualityRanges[name],
			InRange: soap.InRange(name, value),
		})
	}
	for _, acid := range soap.FattyAcids {
		data.FattyAcids = append(data.FattyAcids, BatchSheetLine{Name: acid, Percent: result.FattyAcidProfile[acid]})
	}
	for _, w := range result.Warnings {
		data.Warnings = append(data.Warnings, w.Message)
	}
	return data
}

// LyeLabel names the caustic for a lye type.
func LyeLabel(lye soap.LyeType) string {
	if lye == soap.LyeKOH {
		return "Potassium hydroxide (KOH)"
	}
	return "Sodium hydroxide (NaOH)"
}

// FormatMass renders grams in unit at the unit's display precision.
func FormatMass(grams float64, unit soap.WeightUnit) string {
	if unit == "" {
		unit = soap.UnitGrams
	}
	return fmt.Sprintf("%.*f %s", soap.Precision(unit), soap.FromGrams(grams, unit), unit)
}

// FormatReportDate renders the supplied time using a production-friendly layout.
func FormatReportDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006")
}

// BatchSheet renders the printable batch sheet as a full HTML document.
func BatchSheet(data BatchSheetData) templ.Component {
	return layout.Document(data.Title, batchSheetBody(data))
}

func batchSheetBody(data BatchSheetData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		esc := templ.EscapeString

		fmt.Fprintf(&b, `<h1>%s</h1>`, esc(data.Title))
		if date := FormatReportDate(data.RunDate); date != "" {
			fmt.Fprintf(&b, `<p>Run date: %s</p>`, esc(date))
		}
		for _, warning := range data.Warnings {
			fmt.Fprintf(&b, `<p class="warn">%s</p>`, esc(warning))
		}

		b.WriteString(`<h2>Oils</h2><table><thead><tr><th>Oil</th><th class="num">%</th><th class="num">Weight</th></tr></thead><tbody>`)
		for _, line := range data.Lines {
			fmt.Fprintf(&b, `<tr><td>%s</td><td class="num">%.1f</td><td class="num">%s</td></tr>`,
				esc(line.Name), line.Percent, esc(FormatMass(line.Grams, data.Unit)))
		}
		b.WriteString(`</tbody></table>`)

		b.WriteString(`<h2>Batch</h2><table><tbody>`)
		rows := []struct {
			label string
			grams float64
		}{
			{"Total oils", data.TotalOils},
			{data.LyeLabel, data.LyeGrams},
			{"Water", data.WaterGrams},
			{"Fragrance", data.Fragrance},
			{"Total batch", data.TotalBatch},
		}
		for _, row := range rows {
			fmt.Fprintf(&b, `<tr><th>%s</th><td class="num">%s</td></tr>`, esc(row.label), esc(FormatMass(row.grams, data.Unit)))
		}
		fmt.Fprintf(&b, `<tr><th>Superfat</th><td class="num">%.1f%%</td></tr></tbody></table>`, data.Superfat)

		b.WriteString(`<h2>Qualities</h2><table><thead><tr><th>Quality</th><th class="num">Value</th><th class="num">Range</th></tr></thead><tbody>`)
		for _, q := range data.Qualities {
			class := ""
			if !q.InRange {
				class = ` class="out"`
			}
			fmt.Fprintf(&b, `<tr%s><td>%s</td><td class="num">%.0f</td><td class="num">%.0f-%.0f</td></tr>`,
				class, esc(q.Name), soap.RoundQuality(q.Value), q.Range.Min, q.Range.Max)
		}
		b.WriteString(`</tbody></table>`)

		b.WriteString(`<h2>Fatty acids</h2><table><tbody>`)
		for _, acid := range data.FattyAcids {
			fmt.Fprintf(&b, `<tr><td>%s</td><td class="num">%.1f%%</td></tr>`, esc(acid.Name), acid.Percent)
		}
		b.WriteString(`</tbody></table>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
