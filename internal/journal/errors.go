package journal

import "errors"

// Error values returned by journal stores.
var (
	ErrDuplicateRecord = errors.New("duplicate journal record")
	ErrInvalidLimit    = errors.New("invalid list limit")
)

const (
	// DefaultListLimit applies when a caller passes a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single List call.
	MaxListLimit = 200
)

// NormalizeLimit applies DefaultListLimit and rejects limits above MaxListLimit.
func NormalizeLimit(limit int) (int, error) {
	if limit <= 0 {
		return DefaultListLimit, nil
	}
	if limit > MaxListLimit {
		return 0, ErrInvalidLimit
	}
	return limit, nil
}
