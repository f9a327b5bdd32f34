package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a client supplied direction to ASC or DESC.
// Anything other than asc (any case) sorts newest first.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when the whitelist allows it, else defaultField.
// Column names are never interpolated from user input without passing through here.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY expression
func orderClause(sortField, orderDir string, allowedFields map[string]bool, defaultField string) string {
	return ValidateSortField(sortField, allowedFields, defaultField) + " " + ValidateSortOrder(orderDir)
}

// PaymentSortFields lists the columns a payment listing may be ordered by
var PaymentSortFields = map[string]bool{
	"created_at": true,
	"paid_at":    true,
	"amount":     true,
}

