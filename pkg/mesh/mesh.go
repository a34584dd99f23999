// Package mesh turns parsed OBJ data into indexed triangle models.
//
// The pipeline is Triangulate, GenerateNormals, then BuildModel, with
// Split optionally run first to produce one model per material group.
// Load and LoadSet run the whole pipeline for a file.
package mesh

import "errors"

// DefaultHashGap is the number of index table slots reserved per position.
const DefaultHashGap = 6

var (
	ErrEmptyMesh         = errors.New("mesh has no positions")
	ErrInvariantViolated = errors.New("mesh invariant violated")
	ErrNotTriangulated   = errors.New("mesh is not triangulated")
)
