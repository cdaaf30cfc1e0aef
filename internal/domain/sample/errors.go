package sample

import "errors"

// ErrInvalidInput marks a rejected registration or status change. Handlers
// map it to a 400; anything else from the service is an infrastructure
// failure.
var ErrInvalidInput = errors.New("invalid sample request")
