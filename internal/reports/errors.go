package reports

import "errors"

var (
	ErrNotFound   = errors.New("report not found")
	ErrValidation = errors.New("invalid report")
	ErrConflict   = errors.New("report id already exists")
)
