// Package schema recognises errors caused by columns missing from older
// databases and describes progressively narrower menu item queries.
package schema

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// DriftKind classifies a persistence error.
type DriftKind int

const (
	NotDrift DriftKind = iota
	MissingPricing
	MissingDietary
	MissingDescription
	UnknownColumn
)

func (k DriftKind) String() string {
	switch k {
	case MissingPricing:
		return "missing-pricing"
	case MissingDietary:
		return "missing-dietary"
	case MissingDescription:
		return "missing-description"
	case UnknownColumn:
		return "unknown-column"
	default:
		return "not-drift"
	}
}

const (
	undefinedColumnCode = "42703"
	// PostgREST reports unknown columns in its schema cache with this code.
	schemaCacheColumnCode = "PGRST204"
)

var (
	PricingColumns = []string{"recommended_selling_price", "actual_selling_price", "selling_price"}
	DietaryColumns = []string{"allergens", "is_vegan", "is_vegetarian", "dietary_confidence", "dietary_method", "dietary_checked_at"}
)

var columnPhrases = []string{
	"does not exist",
	"could not find",
	"no such column",
	"has no column named",
	"unknown column",
}

// Classify inspects err's message, code, detail and hint. Pricing wins over
// dietary, which wins over description, when several columns are named.
func Classify(err error) DriftKind {
	if err == nil {
		return NotDrift
	}

	text := err.Error()
	columnError := false

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		text = strings.Join([]string{pgErr.Message, pgErr.Detail, pgErr.Hint, pgErr.ColumnName}, " ")
		columnError = pgErr.Code == undefinedColumnCode
	}
	text = strings.ToLower(text)
	if strings.Contains(text, strings.ToLower(schemaCacheColumnCode)) {
		columnError = true
	}
	if !columnError {
		for _, phrase := range columnPhrases {
			if strings.Contains(text, phrase) && strings.Contains(text, "column") {
				columnError = true
				break
			}
		}
	}
	if !columnError {
		return NotDrift
	}

	switch {
	case mentionsAny(text, PricingColumns):
		return MissingPricing
	case mentionsAny(text, DietaryColumns):
		return MissingDietary
	case strings.Contains(text, "description"):
		return MissingDescription
	default:
		return UnknownColumn
	}
}

func mentionsAny(text string, columns []string) bool {
	for _, c := range columns {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}
