package eventstream

import "errors"

// ErrNilCommandEvent indicates a nil command event payload was provided to a
// publisher.
var ErrNilCommandEvent = errors.New("nil command event")
