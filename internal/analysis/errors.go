package analysis

import "errors"

// ErrInput marks requests whose input cannot be analyzed at all, as opposed
// to inputs that were analyzed but yielded nothing.
var ErrInput = errors.New("invalid input")
