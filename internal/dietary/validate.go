// Package dietary derives vegetarian and vegan verdicts and keeps them
// consistent with allergen data.
package dietary

import (
	"context"

	"prepcost/internal/allergen"
	applog "prepcost/internal/log"
)

// ValidateVegan overrides a vegan verdict that the allergen set contradicts.
// nil and false pass through unchanged; true becomes false when milk or eggs
// are present.
func ValidateVegan(ctx context.Context, isVegan *bool, allergens []string, taxonomy *allergen.Taxonomy) *bool {
	if isVegan == nil || !*isVegan {
		return isVegan
	}
	if taxonomy == nil {
		taxonomy = allergen.Default()
	}

	codes := taxonomy.Consolidate(allergens)
	var conflicts []string
	for _, code := range codes {
		if code == "milk" || code == "eggs" {
			conflicts = append(conflicts, code)
		}
	}
	if len(conflicts) > 0 {
		applog.Warn(ctx, "vegan verdict contradicts allergens; forcing false", "allergens", conflicts)
		return boolPtr(false)
	}
	return boolPtr(true)
}

// Conflicted reports whether ValidateVegan overturned a vegan verdict.
func Conflicted(before, after *bool) bool {
	return before != nil && *before && after != nil && !*after
}

func boolPtr(v bool) *bool { return &v }
