package validation

import (
	"fmt"
	"regexp"
)

var categoryRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}[a-z0-9]$`)

var reservedCategories = map[string]struct{}{
	"api":           {},
	"auth":          {},
	"ws":            {},
	"swagger":       {},
	"metrics":       {},
	"notifications": {},
	"health":        {},
}

// ValidateCategory checks an optional content category. The empty string is
// allowed and means "uncategorized".
func ValidateCategory(category string) error {
	if category == "" {
		return nil
	}
	if !categoryRegex.MatchString(category) {
		return fmt.Errorf("category must be 2-64 lowercase letters, numbers, or inner hyphens")
	}
	if _, reserved := reservedCategories[category]; reserved {
		return fmt.Errorf("category is reserved")
	}
	return nil
}
