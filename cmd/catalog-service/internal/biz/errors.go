package biz

import (
	"errors"

	"moviecatalog/cmd/catalog-service/internal/domain"
	apierrors "moviecatalog/pkg/errors"
)

// storeError maps repository failures onto the API error taxonomy.
func storeError(err error) error {
	var castErr *domain.CastError
	if errors.As(err, &castErr) {
		return apierrors.NewValidationError(castErr.Error()).WithCause(err)
	}

	var batchErr *domain.BatchInsertError
	if errors.As(err, &batchErr) {
		return apierrors.NewIngestPartialFailure(batchErr.Persisted, batchErr.Submitted, err)
	}

	return apierrors.NewStoreError(err)
}
