package mesh

import "errors"

// Fatal error kinds surfaced by construction and stitching. All of
// these indicate programmer error or corrupt input; irregular but
// well-formed topology (unpaired edges, open meshes) is reported
// through mesh state instead.
var (
	// ErrMalformedInput reports a bad face-index encoding: an index out
	// of range, a face with fewer than 3 vertices, or a flat index
	// array whose length does not match the face count.
	ErrMalformedInput = errors.New("malformed input")

	// ErrDegenerateFace reports a vertex loop whose fitted plane normal
	// has negligible magnitude (collinear or coincident vertices).
	ErrDegenerateFace = errors.New("degenerate face")

	// ErrMalformedFace reports a face whose edge ring contains the same
	// directed vertex pair twice.
	ErrMalformedFace = errors.New("malformed face")

	// ErrFaceOwned reports an attempt to stitch a face that already
	// belongs to a mesh.
	ErrFaceOwned = errors.New("face already owned by a mesh")
)
