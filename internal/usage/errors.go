package usage

import "errors"

// ErrLimitReached indicates the category exhausted its daily limit.
var ErrLimitReached = errors.New("limit reached")
