package service

import (
	"database/sql"
	"errors"

	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

func mapLookupError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, message)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
