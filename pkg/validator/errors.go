package validator

import "errors"

// ErrValidationFailed matches any ValidationErrors via errors.Is.
var ErrValidationFailed = errors.New("validation failed")

// Is lets errors.Is(err, ErrValidationFailed) detect field errors.
func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}
