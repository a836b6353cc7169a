package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is the oriented plane dot(N, p) + D == 0 with unit normal N.
type Plane struct {
	N v3.Vec
	D float64
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(pt v3.Vec) float64 {
	return p.N.Dot(pt) + p.D
}

// Face is a planar polygon bounded by a ring of half-edges. The ring
// is circular and doubly linked; Edge points at an arbitrary member.
// Faces are created detached and acquire a Mesh only through
// stitching.
type Face struct {
	Edge   *Edge
	NEdges int
	Mesh   *Mesh
	ID     int
	Plane  Plane
	Tags

	// projAxis is the coordinate axis dropped when projecting loop
	// vertices to 2D, chosen as the dominant component of the face
	// normal. projFlip records whether the remaining two axes are
	// swapped so that the projected loop keeps positive area.
	projAxis int
	projFlip bool
}

// NewFace builds a face over the given vertex loop. The loop must have
// at least 3 vertices and must span a plane: if the fitted normal is
// negligible the face is degenerate and an error wrapping
// ErrDegenerateFace is returned. Vertices are traversed in the order
// given; the face normal follows the right-hand rule over that order.
func NewFace(tol Tolerances, verts ...*Vertex) (*Face, error) {
	if len(verts) < 3 {
		return nil, fmt.Errorf("face with %d vertices: %w", len(verts), ErrMalformedInput)
	}
	f := &Face{}
	f.attachLoop(verts)
	if err := f.Recalc(tol); err != nil {
		f.ClearEdges()
		return nil, err
	}
	return f, nil
}

// attachLoop replaces the face's ring with a fresh ring over verts.
func (f *Face) attachLoop(verts []*Vertex) {
	var first, prev *Edge
	for _, v := range verts {
		e := newEdge(v, f)
		if first == nil {
			first = e
		} else {
			e.Prev = prev
			prev.Next = e
		}
		prev = e
	}
	first.Prev = prev
	prev.Next = first
	f.Edge = first
	f.NEdges = len(verts)
}

// Recalc refits the plane and projection axis from the current vertex
// loop. It returns an error wrapping ErrDegenerateFace when the
// Newell normal of the loop has magnitude below tol.MinNormal.
func (f *Face) Recalc(tol Tolerances) error {
	n := f.newellNormal()
	mag := n.Length()
	if mag < tol.MinNormal {
		return fmt.Errorf("face normal magnitude %g: %w", mag, ErrDegenerateFace)
	}
	f.Plane.N = n.DivScalar(mag)
	f.Plane.D = -f.Plane.N.Dot(f.Centroid())
	f.pickProjection()
	return nil
}

// newellNormal computes the unnormalized loop normal by Newell's
// method, which is stable for slightly non-planar loops.
func (f *Face) newellNormal() v3.Vec {
	var n v3.Vec
	e := f.Edge
	for {
		a := e.Vert.V
		b := e.Next.Vert.V
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
		e = e.Next
		if e == f.Edge {
			break
		}
	}
	return n
}

// pickProjection drops the axis of the dominant normal component and
// records whether the remaining axes must swap to keep projected
// loops positively oriented.
func (f *Face) pickProjection() {
	n := f.Plane.N
	ax, ay, az := abs(n.X), abs(n.Y), abs(n.Z)
	switch {
	case ax >= ay && ax >= az:
		f.projAxis = 0
		f.projFlip = n.X < 0
	case ay >= az:
		f.projAxis = 1
		f.projFlip = n.Y < 0
	default:
		f.projAxis = 2
		f.projFlip = n.Z < 0
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Project maps a point into the face's 2D projection plane. Loops
// projected through a face keep their orientation: an anticlockwise
// loop about the face normal projects to positive area.
func (f *Face) Project(p v3.Vec) v2.Vec {
	switch f.projAxis {
	case 0:
		if f.projFlip {
			return v2.Vec{X: p.Z, Y: p.Y}
		}
		return v2.Vec{X: p.Y, Y: p.Z}
	case 1:
		if f.projFlip {
			return v2.Vec{X: p.X, Y: p.Z}
		}
		return v2.Vec{X: p.Z, Y: p.X}
	default:
		if f.projFlip {
			return v2.Vec{X: p.Y, Y: p.X}
		}
		return v2.Vec{X: p.X, Y: p.Y}
	}
}

// Unproject lifts a projected point back onto the face plane.
func (f *Face) Unproject(p v2.Vec) v3.Vec {
	var out v3.Vec
	switch f.projAxis {
	case 0:
		if f.projFlip {
			out = v3.Vec{Y: p.Y, Z: p.X}
		} else {
			out = v3.Vec{Y: p.X, Z: p.Y}
		}
		out.X = -(f.Plane.D + f.Plane.N.Y*out.Y + f.Plane.N.Z*out.Z) / f.Plane.N.X
	case 1:
		if f.projFlip {
			out = v3.Vec{X: p.X, Z: p.Y}
		} else {
			out = v3.Vec{X: p.Y, Z: p.X}
		}
		out.Y = -(f.Plane.D + f.Plane.N.X*out.X + f.Plane.N.Z*out.Z) / f.Plane.N.Y
	default:
		if f.projFlip {
			out = v3.Vec{X: p.Y, Y: p.X}
		} else {
			out = v3.Vec{X: p.X, Y: p.Y}
		}
		out.Z = -(f.Plane.D + f.Plane.N.X*out.X + f.Plane.N.Y*out.Y) / f.Plane.N.Z
	}
	return out
}

// Centroid returns the mean of the loop vertex positions.
func (f *Face) Centroid() v3.Vec {
	var sum v3.Vec
	e := f.Edge
	for {
		sum = sum.Add(e.Vert.V)
		e = e.Next
		if e == f.Edge {
			break
		}
	}
	return sum.DivScalar(float64(f.NEdges))
}

// AABB returns the bounding box of the loop vertices.
func (f *Face) AABB() sdf.Box3 {
	box := sdf.Box3{Min: f.Edge.Vert.V, Max: f.Edge.Vert.V}
	e := f.Edge.Next
	for e != f.Edge {
		box = box.Include(e.Vert.V)
		e = e.Next
	}
	return box
}

// Vertices appends the loop vertices in ring order to out and returns
// the extended slice.
func (f *Face) Vertices(out []*Vertex) []*Vertex {
	e := f.Edge
	for {
		out = append(out, e.Vert)
		e = e.Next
		if e == f.Edge {
			break
		}
	}
	return out
}

// ProjectedVertices appends the 2D projections of the loop vertices in
// ring order to out and returns the extended slice.
func (f *Face) ProjectedVertices(out []v2.Vec) []v2.Vec {
	e := f.Edge
	for {
		out = append(out, f.Project(e.Vert.V))
		e = e.Next
		if e == f.Edge {
			break
		}
	}
	return out
}

// Derive builds a new face over verts, inheriting this face's plane
// and projection when the new loop lies in the same plane within
// tol.PlaneFit, and refitting from scratch otherwise. The typical
// caller is an algorithm that re-triangulates or clips an existing
// face and wants the fragments to share its frame.
func (f *Face) Derive(tol Tolerances, verts ...*Vertex) (*Face, error) {
	if len(verts) < 3 {
		return nil, fmt.Errorf("face with %d vertices: %w", len(verts), ErrMalformedInput)
	}
	nf := &Face{
		ID:       f.ID,
		Plane:    f.Plane,
		Tags:     f.Tags,
		projAxis: f.projAxis,
		projFlip: f.projFlip,
	}
	nf.attachLoop(verts)
	for _, v := range verts {
		if abs(f.Plane.Distance(v.V)) > tol.PlaneFit {
			if err := nf.Recalc(tol); err != nil {
				nf.ClearEdges()
				return nil, err
			}
			break
		}
	}
	return nf, nil
}

// Invert reverses the loop orientation and flips the plane. Each edge
// keeps its geometric edge but traverses it the other way, so callers
// holding edge pointers can re-establish twin links afterwards. Rev
// links are disconnected, since every directed edge changes direction.
func (f *Face) Invert() {
	dests := make([]*Vertex, 0, f.NEdges)
	e := f.Edge
	for {
		dests = append(dests, e.Next.Vert)
		e = e.Next
		if e == f.Edge {
			break
		}
	}
	i := 0
	e = f.Edge
	for {
		next := e.Next
		if e.Rev != nil {
			e.Rev.Rev = nil
			e.Rev = nil
		}
		e.Vert = dests[i]
		i++
		e.Next, e.Prev = e.Prev, e.Next
		e = next
		if e == f.Edge {
			break
		}
	}
	f.Plane.N = f.Plane.N.Neg()
	f.Plane.D = -f.Plane.D
	f.pickProjection()
}

// ClearEdges detaches and discards the face's ring.
func (f *Face) ClearEdges() {
	for f.Edge != nil {
		f.Edge.remove()
	}
	f.NEdges = 0
}

// clone copies the face over a new vertex storage. vmap translates old
// vertex pointers to new ones; emap accumulates the old-to-new edge
// correspondence so the caller can restore rev links afterwards.
func (f *Face) clone(vmap map[*Vertex]*Vertex, emap map[*Edge]*Edge) *Face {
	nf := &Face{
		NEdges:   f.NEdges,
		ID:       f.ID,
		Plane:    f.Plane,
		Tags:     f.Tags,
		projAxis: f.projAxis,
		projFlip: f.projFlip,
	}
	var first, prev *Edge
	e := f.Edge
	for {
		ne := newEdge(vmap[e.Vert], nf)
		ne.Tags = e.Tags
		emap[e] = ne
		if first == nil {
			first = ne
		} else {
			ne.Prev = prev
			prev.Next = ne
		}
		prev = ne
		e = e.Next
		if e == f.Edge {
			break
		}
	}
	first.Prev = prev
	prev.Next = first
	nf.Edge = first
	return nf
}
