package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"prepcost/internal/allergen"
	"prepcost/internal/config"
	"prepcost/internal/db"
	applog "prepcost/internal/log"
	"prepcost/internal/units"
	"prepcost/models"

	"gorm.io/gorm"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

func main() {
	csvPath := "ingredients.csv"
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

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	imported, err := importRecords(ctx, database, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients from %s\n", imported, filepath.Base(csvPath))
	return nil
}

// importRecords upserts each record by case-insensitive name. Each record
// commits on its own so one bad row does not roll back the rest.
func importRecords(ctx context.Context, database *gorm.DB, records []map[string]string) (int, error) {
	taxonomy := allergen.Default()

	imported := 0
	for idx, record := range records {
		ingredient, err := buildIngredient(record, taxonomy)
		if err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}

		if err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Ingredient
			err := tx.Where("lower(name) = ?", strings.ToLower(ingredient.Name)).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&ingredient).Error; err != nil {
					return fmt.Errorf("create ingredient %q: %w", ingredient.Name, err)
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("find ingredient %q: %w", ingredient.Name, err)
			}

			updates := map[string]any{
				"unit":                       ingredient.Unit,
				"category":                   ingredient.Category,
				"cost_per_unit":              ingredient.CostPerUnit,
				"cost_per_unit_incl_trim":    ingredient.CostPerUnitInclTrim,
				"trim_peel_waste_percentage": ingredient.TrimPeelWastePercentage,
				"yield_percentage":           ingredient.YieldPercentage,
				"allergens":                  ingredient.Allergens,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update ingredient %q: %w", ingredient.Name, err)
			}
			return nil
		}); err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", idx+1, record["Name"], err)
		}
		imported++
	}
	return imported, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
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
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildIngredient(row map[string]string, taxonomy *allergen.Taxonomy) (models.Ingredient, error) {
	name := normalizeText(row["Name"])
	if name == "" {
		return models.Ingredient{}, errors.New("ingredient name is required")
	}

	unit := units.Normalize(row["Unit"])
	if unit == "" {
		unit = "g"
	}

	waste := parseFirstNumber(row["Trim/Peel Waste %"])
	if waste != nil && (*waste < 0 || *waste >= 100) {
		applog.Warn(context.Background(), "dropping out of range waste percentage", "ingredient", name, "waste", *waste)
		waste = nil
	}

	codes := splitList(row["Allergens"])
	consolidated := taxonomy.Consolidate(codes)
	if len(consolidated) < len(codes) {
		applog.Debug(context.Background(), "allergen codes folded or dropped", "ingredient", name, "raw", codes, "kept", consolidated)
	}

	return models.Ingredient{
		Name:                    name,
		Unit:                    unit,
		Category:                strings.ToLower(normalizeValue(row["Category"])),
		CostPerUnit:             parseFirstNumber(row["Cost Per Unit"]),
		CostPerUnitInclTrim:     parseFirstNumber(row["Cost Per Unit Incl Trim"]),
		TrimPeelWastePercentage: waste,
		YieldPercentage:         parseFirstNumber(row["Yield %"]),
		Allergens:               consolidated,
	}, nil
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
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

// parseFirstNumber reads the first number in value, e.g. "$0.012/g" or
// "1,200.50". Blank cells stay nil so the engine can tell missing from zero.
func parseFirstNumber(value string) *float64 {
	value = strings.ReplaceAll(normalizeValue(value), ",", "")
	if value == "" {
		return nil
	}

	match := numberPattern.FindString(value)
	if match == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func splitList(value string) []string {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, ";", ",")
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
