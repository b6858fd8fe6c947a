package domain

import "errors"

// ErrInvalidArgument marks a request the caller must fix; it is never retried.
var ErrInvalidArgument = errors.New("invalid argument")
