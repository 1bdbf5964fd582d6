package service

import (
	"errors"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

// asDomainError passes through typed domain errors produced by the
// repository layer, such as duplicate-key translations, and wraps
// everything else as internal.
func asDomainError(err error, message string) error {
	var domainErr *appErrors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
