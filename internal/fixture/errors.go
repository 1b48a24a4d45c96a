package fixture

import "errors"

var (
	// ErrInvalidDocument indicates a fixture document is not valid hujson
	// or does not match the expected schema.
	ErrInvalidDocument = errors.New("fixture: invalid document")
)
