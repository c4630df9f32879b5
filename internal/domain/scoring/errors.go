package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNilMatch = errors.New("nil match")
)
