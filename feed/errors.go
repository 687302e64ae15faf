package feed

import "errors"

var (
	ErrMissingTable  = errors.New("required table missing")
	ErrMissingColumn = errors.New("required column missing")
	ErrInvalidTime   = errors.New("invalid time")
)
