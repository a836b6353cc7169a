// Package poly holds the legacy indexed-polyhedron representation and
// its converters to and from the half-edge mesh structures. The flat
// form is the interchange format: vertices by index, faces as index
// loops, each face stamped with the id of the manifold it belongs to.
package poly

import (
	"fmt"

	"github.com/ForeverDavid/carve/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

// FaceRecord is one polygon of a flat polyhedron: a loop of vertex
// indices and the id of the manifold (connected surface) the face
// belongs to.
type FaceRecord struct {
	Indices    []int
	ManifoldID int
}

// Polyhedron is the flat indexed form of a mesh set.
type Polyhedron struct {
	Vertices []v3.Vec
	Faces    []FaceRecord
}

// FromMeshSet flattens a mesh set. Vertex indices are the positions
// in the set's storage; manifold ids are mesh positions.
func FromMeshSet(ms *mesh.MeshSet) *Polyhedron {
	p := &Polyhedron{
		Vertices: make([]v3.Vec, len(ms.VertexStorage)),
	}
	vidx := make(map[*mesh.Vertex]int, len(ms.VertexStorage))
	for i := range ms.VertexStorage {
		p.Vertices[i] = ms.VertexStorage[i].V
		vidx[&ms.VertexStorage[i]] = i
	}
	for mi, m := range ms.Meshes {
		for _, f := range m.Faces {
			rec := FaceRecord{
				Indices:    make([]int, 0, f.NEdges),
				ManifoldID: mi,
			}
			e := f.Edge
			for {
				rec.Indices = append(rec.Indices, vidx[e.Vert])
				e = e.Next
				if e == f.Edge {
					break
				}
			}
			p.Faces = append(p.Faces, rec)
		}
	}
	return p
}

// vertEntry indexes one canonical vertex in the merge tree.
type vertEntry struct {
	idx    int
	pos    v3.Vec
	bounds *rtreego.Rect
}

func (e *vertEntry) Bounds() *rtreego.Rect { return e.bounds }

// ToMeshSet rebuilds a mesh set from the flat form. Vertices closer
// together than mergeTol are merged onto the first occurrence, so
// polyhedra emitted by tools that duplicate corner vertices per face
// still stitch into connected meshes. Faces whose loop collapses
// under merging are rejected by face construction.
func ToMeshSet(p *Polyhedron, mergeTol float64, tol mesh.Tolerances) (*mesh.MeshSet, error) {
	canon := mergeVertices(p.Vertices, mergeTol)
	points := make([]v3.Vec, 0, len(p.Vertices))
	remap := make([]int, len(p.Vertices))
	for i, c := range canon {
		if c == i {
			remap[i] = len(points)
			points = append(points, p.Vertices[i])
		} else {
			remap[i] = remap[c]
		}
	}
	var flat []int
	for _, f := range p.Faces {
		flat = append(flat, len(f.Indices))
		for _, idx := range f.Indices {
			if idx < 0 || idx >= len(remap) {
				return nil, fmt.Errorf("vertex index %d out of range: %w", idx, mesh.ErrMalformedInput)
			}
			flat = append(flat, remap[idx])
		}
	}
	return mesh.NewMeshSet(tol, points, len(p.Faces), flat)
}

// mergeVertices returns, for each vertex, the index of its canonical
// representative: the earliest representative within mergeTol of it,
// or the vertex itself when no representative is that close, in which
// case it becomes a representative. Lookup uses an R-tree so the pass
// stays near-linear on large vertex sets.
func mergeVertices(verts []v3.Vec, mergeTol float64) []int {
	canon := make([]int, len(verts))
	if mergeTol <= 0 {
		for i := range canon {
			canon[i] = i
		}
		return canon
	}
	tree := rtreego.NewTree(3, 8, 16)
	for i, v := range verts {
		pt := rtreego.Point{v.X, v.Y, v.Z}
		// Earliest representative within range wins. Only
		// representatives are in the tree, so merging is not
		// transitive: a vertex within range of a merged vertex but not
		// of its representative starts a new representative.
		best := -1
		for _, h := range tree.SearchIntersect(pt.ToRect(mergeTol)) {
			ent := h.(*vertEntry)
			if ent.pos.Sub(v).Length() <= mergeTol && (best == -1 || ent.idx < best) {
				best = ent.idx
			}
		}
		if best >= 0 {
			canon[i] = best
			continue
		}
		canon[i] = i
		tree.Insert(&vertEntry{idx: i, pos: v, bounds: pt.ToRect(mergeTol)})
	}
	return canon
}
