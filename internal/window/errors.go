package window

import "errors"

var (
	ErrInvalidLength = errors.New("window length must be positive")
	ErrInvalidStep   = errors.New("window step must be positive")
)
