package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/tonebank/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrToneNotFound indicates the requested tone does not exist.
	ErrToneNotFound = errors.NewStd("tone not found")

	// ErrSampleNotFound indicates the requested sample does not exist.
	ErrSampleNotFound = errors.NewStd("sample not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)

// isDuplicateKey reports whether err is a unique constraint violation.
// Drivers translate most violations to gorm.ErrDuplicatedKey; the string
// checks cover errors raised before translation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// translate maps driver errors to repository sentinels
func translate(err error) error {
	if isDuplicateKey(err) {
		return errors.Join(ErrDuplicateKey, err)
	}
	return err
}
