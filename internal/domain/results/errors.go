package results

import "errors"

// ErrInvalidInput marks a submission rejected before validation ran:
// unknown workflow type, missing sample reference, or a payload the engine
// cannot interpret. Handlers map it to a 400.
var ErrInvalidInput = errors.New("invalid workflow result submission")
