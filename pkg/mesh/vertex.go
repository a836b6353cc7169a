package mesh

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex is a position in 3-space plus a tag bitset for outer
// algorithms. Vertices are stored by value in a MeshSet's
// VertexStorage slice; identity is the address within that slice, and
// two vertices are the same vertex only if their pointers are equal.
// Coordinate equality is never used.
//
// A vertex does not record its incident edges. Meshes share vertex
// storage, so a single incident-edge pointer would be ambiguous;
// adjacency queries walk the edge rings of the faces of interest
// instead.
type Vertex struct {
	V v3.Vec
	Tags
}

// AABB returns the degenerate box containing only the vertex position.
func (v *Vertex) AABB() sdf.Box3 {
	return sdf.Box3{Min: v.V, Max: v.V}
}
