package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint
// violations. Uniqueness is enforced by the schema, so concurrent
// duplicate inserts surface here rather than racing past an application
// pre-check.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// translateUnique maps a storage-level unique violation onto the domain
// duplicate-key error, passing other errors through untouched.
func translateUnique(err error, message string) error {
	if isUniqueViolation(err) {
		return appErrors.Clone(appErrors.ErrDuplicateKey, message)
	}
	return err
}

// prefixColumns qualifies every column in a comma-separated list with a
// table alias for use in joined queries.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func clampPage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}
