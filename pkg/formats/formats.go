// Package formats provides parsers for Wavefront OBJ and MTL files.
package formats

import "errors"

// Loader errors.
var (
	ErrFileNotFound = errors.New("file could not be opened")
)
