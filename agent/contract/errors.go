package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrUnknownRoute    = errors.New("unknown routing label")
	ErrRecursionLimit  = errors.New("recursion limit exceeded")
	ErrValidation      = errors.New("validation failed")
)
