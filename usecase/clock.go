package usecase

import (
	"errors"
	"time"

	"github.com/fastygo/questboard/domain"
)

// Clock supplies the current time.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// StoreFailure classifies an unclassified storage error as internal,
// leaving domain errors untouched.
func StoreFailure(message string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.WrapError(domain.ErrCodeInternal, message, err)
}
