package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"lathera/internal/config"
	"lathera/internal/db"
	applog "lathera/internal/log"
	"lathera/internal/oils"
	"lathera/internal/soap"
	"lathera/models"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*[.,]?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
	slugPattern     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Column headers understood by the importer. Lookups are case-insensitive.
const (
	colName     = "name"
	colSlug     = "slug"
	colCategory = "category"
	colSapNaOH  = "sap naoh"
	colSapKOH   = "sap koh"
	colIodine   = "iodine"
	colINS      = "ins"
	colAliases  = "aliases"
)

const naohPerKOH = 40.0 / 56.1

func main() {
	csvPath := "oils.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}
	defer file.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	created, updated, err := importOils(ctx, oils.NewStore(database), file)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d oils (%d new, %d updated) from %s\n", created+updated, created, updated, filepath.Base(csvPath))
	return nil
}

type upserter interface {
	Upsert(ctx context.Context, oil models.Oil, aliases []string) (*models.Oil, bool, error)
}

// importOils upserts every CSV row and reports how many rows were created
// and how many replaced an existing slug.
func importOils(ctx context.Context, store upserter, r io.Reader) (int, int, error) {
	records, err := readCSV(r)
	if err != nil {
		return 0, 0, fmt.Errorf("read csv: %w", err)
	}

	created, updated := 0, 0
	for idx, record := range records {
		oil, aliases, err := buildOil(record)
		if err != nil {
			return created, updated, fmt.Errorf("record %d (%s): %w", idx+1, record[colName], err)
		}
		if total := fattyAcidTotal(oil); total > 101 {
			applog.Warn(ctx, "fatty acids exceed 100%", "oil", oil.Slug, "total", total)
		}

		_, isNew, err := store.Upsert(ctx, oil, aliases)
		if err != nil {
			return created, updated, fmt.Errorf("record %d (%s): %w", idx+1, oil.Name, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildOil(row map[string]string) (models.Oil, []string, error) {
	name := normalizeText(row[colName])
	if name == "" {
		return models.Oil{}, nil, errors.New("name is required")
	}
	slug := slugify(row[colSlug])
	if slug == "" {
		slug = slugify(name)
	}

	oil := models.Oil{
		Slug:     slug,
		Name:     name,
		Category: normalizeValue(row[colCategory]),
		SapNaOH:  normalizeSap(parseFirstNumber(row[colSapNaOH])),
		SapKOH:   normalizeSap(parseFirstNumber(row[colSapKOH])),
		Iodine:   parseFirstNumber(row[colIodine]),
		INS:      parseFirstNumber(row[colINS]),
	}
	if oil.SapNaOH == 0 && oil.SapKOH > 0 {
		oil.SapNaOH = oil.SapKOH * naohPerKOH
	}

	acids := make(map[string]float64, len(soap.FattyAcids))
	for _, acid := range soap.FattyAcids {
		acids[acid] = parseFirstNumber(row[acid])
	}
	oil.SetFattyAcids(acids)

	return oil, splitAliases(row[colAliases]), nil
}

// normalizeSap converts SAP values published as mg KOH per gram of oil
// (olive is about 190) to grams of lye per gram.
func normalizeSap(value float64) float64 {
	if value > 1 {
		return value / 1000
	}
	return value
}

func fattyAcidTotal(oil models.Oil) float64 {
	total := 0.0
	for _, v := range oil.FattyAcids() {
		total += v
	}
	return total
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") || value == "-" {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func parseFirstNumber(value string) float64 {
	value = normalizeValue(value)
	if value == "" {
		return 0
	}

	match := numberPattern.FindString(value)
	if match == "" {
		return 0
	}

	parsed, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return parsed
}

func splitAliases(value string) []string {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, ";", ",")
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if clean := normalizeText(part); clean != "" {
			result = append(result, clean)
		}
	}
	return result
}

func slugify(value string) string {
	value = strings.ToLower(value)
	value = slugPattern.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}
