package validator

import "errors"

// ErrValidationFailed matches any ValidationErrors value.
var ErrValidationFailed = errors.New("validation failed")
