package mesh

// Edge is a half-edge: a directed traversal of one polygon edge,
// belonging to exactly one face. Edges form a circular doubly-linked
// ring around their face. Rev points at the half-edge traversing the
// same geometric edge in the opposite direction on the adjacent face,
// or is nil for an open (boundary) edge.
type Edge struct {
	Vert *Vertex
	Face *Face
	Prev *Edge
	Next *Edge
	Rev  *Edge
	Tags
}

// newEdge creates a detached half-edge that is its own ring.
func newEdge(vert *Vertex, face *Face) *Edge {
	e := &Edge{Vert: vert, Face: face}
	e.Prev = e
	e.Next = e
	return e
}

// V1 returns the origin vertex.
func (e *Edge) V1() *Vertex { return e.Vert }

// V2 returns the destination vertex (the origin of the next edge).
func (e *Edge) V2() *Vertex { return e.Next.Vert }

// LoopSize counts the edges in the ring containing e.
func (e *Edge) LoopSize() int {
	n := 0
	c := e
	for {
		n++
		c = c.Next
		if c == e {
			break
		}
	}
	return n
}

// PerimNext returns the next open edge along the perimeter of the open
// region bounded by e, or nil if e is not open.
func (e *Edge) PerimNext() *Edge {
	if e.Rev != nil {
		return nil
	}
	c := e.Next
	for c.Rev != nil {
		c = c.Rev.Next
	}
	return c
}

// PerimPrev returns the previous open edge along the perimeter of the
// open region bounded by e, or nil if e is not open.
func (e *Edge) PerimPrev() *Edge {
	if e.Rev != nil {
		return nil
	}
	c := e.Prev
	for c.Rev != nil {
		c = c.Rev.Prev
	}
	return c
}

// remove detaches e from its containing ring. The rev link of e is
// disconnected, as is the rev link of the preceding edge, whose
// successor vertex changes. After removal e is its own ring.
func (e *Edge) remove() {
	if e.Rev != nil {
		e.Rev.Rev = nil
		e.Rev = nil
	}
	if e.Prev != e && e.Prev.Rev != nil {
		e.Prev.Rev.Rev = nil
		e.Prev.Rev = nil
	}
	e.Next.Prev = e.Prev
	e.Prev.Next = e.Next
	if e.Face != nil {
		e.Face.NEdges--
		if e.Face.Edge == e {
			if e.Next != e {
				e.Face.Edge = e.Next
			} else {
				e.Face.Edge = nil
			}
		}
		e.Face = nil
	}
	e.Prev = e
	e.Next = e
}

// insertBefore splices e into other's ring immediately before other.
// The rev link of the edge that previously preceded other is
// disconnected, since its successor vertex changes. e must be detached.
func (e *Edge) insertBefore(other *Edge) {
	e.Prev = other.Prev
	e.Next = other
	e.Prev.Next = e
	e.Next.Prev = e
	if e.Prev.Rev != nil {
		e.Prev.Rev.Rev = nil
		e.Prev.Rev = nil
	}
	e.Face = other.Face
	if e.Face != nil {
		e.Face.NEdges++
	}
}

// insertAfter splices e into other's ring immediately after other. The
// rev link of other is disconnected, since its successor vertex
// changes. e must be detached.
func (e *Edge) insertAfter(other *Edge) {
	e.Next = other.Next
	e.Prev = other
	e.Next.Prev = e
	e.Prev.Next = e
	if other.Rev != nil {
		other.Rev.Rev = nil
		other.Rev = nil
	}
	e.Face = other.Face
	if e.Face != nil {
		e.Face.NEdges++
	}
}
