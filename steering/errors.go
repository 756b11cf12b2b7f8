package steering

import "errors"

// Configuration errors. Factories wrap these with the type name so callers
// can match with errors.Is.
var (
	ErrUnknownType      = errors.New("unknown type")
	ErrChildCount       = errors.New("wrong number of children")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter value")
	ErrSharedNode       = errors.New("behaviour node used more than once in a tree")
	ErrMissingPart      = errors.New("pilot needs a behaviour and a steerable")
)
