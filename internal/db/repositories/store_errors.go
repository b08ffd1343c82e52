package repositories

import (
	"errors"
	"fmt"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"

	"gorm.io/gorm"
)

// storeError classifies a database failure: a missing row becomes NotFound
// (with the given code), anything else is a retryable Unavailable.
func storeError(op, notFoundCode string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NotFound(notFoundCode, fmt.Sprintf("%s: not found", op))
	}
	if _, ok := common.AsAppError(err); ok {
		return err
	}
	return common.Unavailable(constants.ErrCodeStoreUnavailable, op, err)
}
