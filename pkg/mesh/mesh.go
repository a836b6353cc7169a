package mesh

import (
	"github.com/deadsy/sdfx/sdf"
)

// Mesh is one connected component of stitched faces. ClosedEdges holds
// one canonical half-edge per twinned pair; OpenEdges holds every
// half-edge without a twin. A mesh with no open edges is closed and is
// negative when it bounds a cavity (its signed volume is negative).
type Mesh struct {
	Faces       []*Face
	OpenEdges   []*Edge
	ClosedEdges []*Edge

	negative bool

	// MeshSet is the owning set, nil until the mesh is adopted.
	MeshSet *MeshSet
}

// newMesh takes ownership of the given stitched faces and classifies
// their edges. Faces are visited in order and each ring in ring order,
// so the canonical representative of a twinned pair is the half-edge
// encountered first.
func newMesh(faces []*Face) *Mesh {
	m := &Mesh{Faces: faces}
	seen := make(map[*Edge]bool)
	for _, f := range faces {
		f.Mesh = m
		e := f.Edge
		for {
			if e.Rev == nil {
				m.OpenEdges = append(m.OpenEdges, e)
			} else if !seen[e.Rev] {
				m.ClosedEdges = append(m.ClosedEdges, e)
				seen[e] = true
			}
			e = e.Next
			if e == f.Edge {
				break
			}
		}
	}
	if m.IsClosed() {
		m.negative = m.Volume() < 0
	}
	return m
}

// IsClosed reports whether every edge of the mesh is twinned.
func (m *Mesh) IsClosed() bool { return len(m.OpenEdges) == 0 }

// IsNegative reports whether the mesh bounds a cavity. Only meaningful
// for closed meshes; open meshes are never negative.
func (m *Mesh) IsNegative() bool { return m.negative }

// Volume returns the signed volume enclosed by the mesh, computed by
// the divergence theorem over a fan triangulation of each face. The
// result is meaningful only for closed meshes.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, f := range m.Faces {
		base := f.Edge.Vert.V
		e := f.Edge.Next
		for e.Next != f.Edge {
			b := e.Vert.V
			c := e.Next.Vert.V
			vol += base.Dot(b.Cross(c))
			e = e.Next
		}
	}
	return vol / 6
}

// AABB returns the bounding box of the mesh's faces.
func (m *Mesh) AABB() sdf.Box3 {
	box := m.Faces[0].AABB()
	for _, f := range m.Faces[1:] {
		box = box.Extend(f.AABB())
	}
	return box
}

// Invert flips the orientation of every face, turning a positive mesh
// into a negative one and vice versa. Twin links are re-established
// after the per-face flips disconnect them.
func (m *Mesh) Invert() {
	type pairRec struct{ a, b *Edge }
	var pairs []pairRec
	seen := make(map[*Edge]bool)
	for _, e := range m.ClosedEdges {
		if !seen[e] {
			pairs = append(pairs, pairRec{e, e.Rev})
			seen[e] = true
		}
	}
	for _, f := range m.Faces {
		f.Invert()
	}
	for _, p := range pairs {
		p.a.Rev = p.b
		p.b.Rev = p.a
	}
	if m.IsClosed() {
		m.negative = !m.negative
	}
}

// clone copies the mesh's faces over new vertex storage. vmap maps old
// vertices to new; emap accumulates the edge correspondence, which
// clone uses to restore twin links among its own faces.
func (m *Mesh) clone(vmap map[*Vertex]*Vertex, emap map[*Edge]*Edge) *Mesh {
	nm := &Mesh{
		negative: m.negative,
	}
	nm.Faces = make([]*Face, len(m.Faces))
	for i, f := range m.Faces {
		nf := f.clone(vmap, emap)
		nf.Mesh = nm
		nm.Faces[i] = nf
	}
	for _, e := range m.ClosedEdges {
		ne := emap[e]
		nrev := emap[e.Rev]
		ne.Rev = nrev
		nrev.Rev = ne
		nm.ClosedEdges = append(nm.ClosedEdges, ne)
	}
	for _, e := range m.OpenEdges {
		nm.OpenEdges = append(nm.OpenEdges, emap[e])
	}
	return nm
}

// vertices returns the distinct vertices referenced by the mesh, in
// first-encounter order.
func (m *Mesh) vertices() []*Vertex {
	seen := make(map[*Vertex]bool)
	var out []*Vertex
	for _, f := range m.Faces {
		e := f.Edge
		for {
			if !seen[e.Vert] {
				seen[e.Vert] = true
				out = append(out, e.Vert)
			}
			e = e.Next
			if e == f.Edge {
				break
			}
		}
	}
	return out
}
