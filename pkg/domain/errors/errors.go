package errors

import "errors"

// ErrMissing means the requested rows do not exist in either schema.
// It is a valid, expected outcome; callers branch on it, never crash on it.
var ErrMissing = errors.New("missing")
