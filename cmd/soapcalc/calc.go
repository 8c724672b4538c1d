package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lathera/internal/formulation"
	"lathera/internal/oils"
	"lathera/internal/recipeimport"
	"lathera/internal/soap"
	"lathera/internal/views/pages"
)

var amountArg = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(%|[a-z]+)?$`)

func newCalcCmd(a *app) *cobra.Command {
	defaults := soap.DefaultSettings()
	cmd := &cobra.Command{
		Use:   "calc [oil=amount ...]",
		Short: "Calculate lye, water and fragrance for a batch",
		Long: `Each argument names an oil by id or name followed by an amount, either a
percentage of the batch (olive-oil=70%) or a weight (olive-oil=500g).
All arguments must use the same kind of amount. Use --recipe to read the
oils from a text or PDF recipe instead.`,
		Example: `  soapcalc calc olive-oil=70% coconut-oil-76=25% castor-oil=5% --total 1 --unit kg
  soapcalc calc "shea butter=200g" "olive=800g" --lye KOH --water-method concentration --water 30
  soapcalc calc --recipe castile.pdf --sheet castile.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCalc(cmd.OutOrStdout(), args)
		},
	}

	flags := cmd.Flags()
	flags.String("lye", string(defaults.LyeType), "lye type: NaOH or KOH")
	flags.Bool("koh-purity-90", defaults.KOHPurity90, "adjust KOH for 90% pure flake")
	flags.String("water-method", string(defaults.WaterMethod), "percentage, concentration or ratio")
	flags.Float64("water", defaults.WaterValue, "water value for the chosen method")
	flags.Float64("superfat", defaults.SuperfatPercent, "superfat percentage")
	flags.Float64("fragrance", defaults.FragranceRatio, "fragrance amount")
	flags.String("fragrance-unit", string(defaults.FragranceUnit), "ratio, percent or oz/lb")
	flags.Float64("total", defaults.TotalOilWeight, "total oil weight for percentage recipes")
	flags.String("unit", string(defaults.WeightUnit), "weight unit: g, kg, oz or lb")
	flags.String("recipe", "", "read oils from a text or PDF recipe")
	flags.String("title", "", "batch title for the printed sheet")
	flags.String("sheet", "", "write a printable HTML batch sheet to this file")
	flags.Bool("json", false, "print the result as JSON")
	return cmd
}

func (a *app) runCalc(out io.Writer, args []string) error {
	settings, err := settingsFromViper(a.v)
	if err != nil {
		return err
	}

	var lines []formulation.Line
	var notes []string
	if path := a.v.GetString("recipe"); path != "" {
		lines, notes, err = linesFromRecipe(path, a.library, soap.ToGrams(settings.TotalOilWeight, settings.WeightUnit))
		if err != nil {
			return err
		}
		settings.TotalOilWeight = soap.FromGrams(formulation.TotalWeight(lines), settings.WeightUnit)
	} else {
		var byWeight bool
		lines, byWeight, err = linesFromArgs(args, a.library, settings.WeightUnit)
		if err != nil {
			return err
		}
		if byWeight {
			total := formulation.TotalWeight(lines)
			if lines, err = formulation.SyncFromWeight(lines, total); err != nil {
				return err
			}
			settings.TotalOilWeight = soap.FromGrams(total, settings.WeightUnit)
		}
	}

	draft := formulation.Draft{Name: a.v.GetString("title"), Settings: settings, Lines: lines}
	result, err := draft.Calculate(a.library)
	if err != nil {
		return err
	}
	if warning := formulation.PercentWarning(lines); warning != "" {
		notes = append(notes, warning)
	}

	if path := a.v.GetString("sheet"); path != "" {
		if err := writeSheet(path, draft.Name, result, settings.WeightUnit); err != nil {
			return err
		}
	}

	if a.v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReport(out, result, settings.WeightUnit, notes)
	return nil
}

func settingsFromViper(v *viper.Viper) (soap.Settings, error) {
	lye, err := soap.ParseLyeType(v.GetString("lye"))
	if err != nil {
		return soap.Settings{}, err
	}
	method, err := soap.ParseWaterMethod(v.GetString("water-method"))
	if err != nil {
		return soap.Settings{}, err
	}
	unit, err := soap.ParseWeightUnit(v.GetString("unit"))
	if err != nil {
		return soap.Settings{}, err
	}
	return soap.Settings{
		LyeType:         lye,
		KOHPurity90:     v.GetBool("koh-purity-90"),
		WaterMethod:     method,
		WaterValue:      v.GetFloat64("water"),
		SuperfatPercent: v.GetFloat64("superfat"),
		FragranceRatio:  v.GetFloat64("fragrance"),
		FragranceUnit:   soap.FragranceUnit(v.GetString("fragrance-unit")),
		TotalOilWeight:  v.GetFloat64("total"),
		WeightUnit:      unit,
	}, nil
}

// linesFromArgs parses oil=amount arguments. Weights are returned in grams
// and byWeight reports whether the amounts were weights.
func linesFromArgs(args []string, lib *oils.Library, unit soap.WeightUnit) ([]formulation.Line, bool, error) {
	if len(args) == 0 {
		return nil, false, errors.New("no oils given; pass oil=amount arguments or --recipe")
	}

	lines := make([]formulation.Line, 0, len(args))
	byWeight := false
	for i, arg := range args {
		idx := strings.LastIndex(arg, "=")
		if idx <= 0 {
			return nil, false, fmt.Errorf("argument %q must look like oil=amount", arg)
		}
		name, raw := strings.TrimSpace(arg[:idx]), strings.TrimSpace(arg[idx+1:])

		entry, ok := lib.Match(name)
		if !ok {
			return nil, false, fmt.Errorf("%w: no oil matches %q", soap.ErrMissingReferenceData, name)
		}

		m := amountArg.FindStringSubmatch(raw)
		if m == nil {
			return nil, false, fmt.Errorf("argument %q has no usable amount", arg)
		}
		amount, _ := strconv.ParseFloat(m[1], 64)
		isPercent := m[2] == "%"
		if i > 0 && isPercent == byWeight {
			return nil, false, errors.New("mix of percentages and weights; use one kind of amount")
		}
		byWeight = !isPercent

		line := formulation.Line{IngredientRef: entry.ID, Name: entry.Name}
		if isPercent {
			line.Percent = amount
		} else {
			lineUnit := unit
			if m[2] != "" {
				parsed, err := soap.ParseWeightUnit(m[2])
				if err != nil {
					return nil, false, err
				}
				lineUnit = parsed
			}
			line.WeightGrams = soap.ToGrams(amount, lineUnit)
		}
		lines = append(lines, line)
	}
	return lines, byWeight, nil
}

func linesFromRecipe(path string, lib *oils.Library, defaultTotal float64) ([]formulation.Line, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read recipe: %w", err)
	}
	text, err := recipeimport.ExtractText(data, recipeimport.MimeTypeFromName(path))
	if err != nil {
		return nil, nil, err
	}
	result, err := recipeimport.Import(text, lib, defaultTotal)
	if err != nil {
		return nil, nil, err
	}
	return result.Lines, result.Warnings, nil
}

func writeSheet(path, title string, result soap.Result, unit soap.WeightUnit) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create batch sheet: %w", err)
	}
	defer file.Close()

	data := pages.NewBatchSheetData(title, result, unit, time.Now())
	if err := pages.BatchSheet(data).Render(context.Background(), file); err != nil {
		return fmt.Errorf("render batch sheet: %w", err)
	}
	return file.Close()
}

func printReport(out io.Writer, result soap.Result, unit soap.WeightUnit, notes []string) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Oil\t%\tWeight\t")
	for _, line := range result.Lines {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t\n", line.Name, line.Percent, pages.FormatMass(line.WeightGrams, unit))
	}
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintf(tw, "%s\t\t%s\t\n", pages.LyeLabel(result.LyeType), pages.FormatMass(result.LyeMass(), unit))
	fmt.Fprintf(tw, "Water\t\t%s\t\n", pages.FormatMass(result.WaterMass, unit))
	fmt.Fprintf(tw, "Fragrance\t\t%s\t\n", pages.FormatMass(result.FragranceMass, unit))
	fmt.Fprintf(tw, "Total batch\t\t%s\t\n", pages.FormatMass(result.TotalBatchMass, unit))
	fmt.Fprintf(tw, "Superfat\t%.1f\t\t\n", result.SuperfatPercentage)
	tw.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Qualities:")
	for _, name := range soap.Qualities {
		value, ok := result.Qualities[name]
		if !ok {
			continue
		}
		r := soap.QualityRanges[name]
		flag := ""
		if !soap.InRange(name, value) {
			flag = "  (outside typical range)"
		}
		fmt.Fprintf(out, "  %-14s %4.0f   %.0f-%.0f%s\n", name, soap.RoundQuality(value), r.Min, r.Max, flag)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w.Message)
	}
	for _, note := range notes {
		fmt.Fprintf(out, "note: %s\n", note)
	}
}
