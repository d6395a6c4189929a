package wrapper

import "errors"

// ErrRender is returned when the wrapper source cannot be produced.
var ErrRender = errors.New("wrapper synthesis failed")
