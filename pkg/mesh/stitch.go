package mesh

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// edgeKey identifies a geometric (undirected) edge by the dense
// indices of its endpoints, smaller index first. Dense indices are
// assigned in first-encounter order, so stitching is deterministic for
// a given face sequence and independent of allocator behaviour.
type edgeKey struct {
	a, b int
}

// edgeGroup collects the half-edges traversing one geometric edge.
// fwd holds edges directed a to b, rev edges directed b to a, each in
// encounter order.
type edgeGroup struct {
	va, vb *Vertex
	fwd    []*Edge
	rev    []*Edge
}

// stitcher pairs the half-edges of a face soup into twins and gathers
// the faces into connected components.
type stitcher struct {
	tol    Tolerances
	faces  []*Face
	vidx   map[*Vertex]int
	fidx   map[*Face]int
	order  []edgeKey
	groups map[edgeKey]*edgeGroup
	comp   *dsu
}

// stitchFaces pairs half-edges across the given faces and returns the
// resulting meshes, one per connected face component, in order of each
// component's first face. The faces must be unowned. Irregular
// topology (unpaired half-edges) is not an error; it surfaces as open
// edges on the resulting meshes.
func stitchFaces(tol Tolerances, faces []*Face) ([]*Mesh, error) {
	if len(faces) == 0 {
		return nil, nil
	}
	s := &stitcher{
		tol:    tol,
		faces:  faces,
		vidx:   make(map[*Vertex]int),
		fidx:   make(map[*Face]int, len(faces)),
		groups: make(map[edgeKey]*edgeGroup),
		comp:   newDSU(len(faces)),
	}
	if err := s.prep(); err != nil {
		return nil, err
	}
	s.pairSimple()
	s.pairComplex()
	s.resolveOpenEdges()
	return s.assemble(), nil
}

// prep indexes vertices and faces, clears stale rev links and fills
// the edge map. It fails on faces that already belong to a mesh and on
// faces whose ring repeats a directed vertex pair.
func (s *stitcher) prep() error {
	for i, f := range s.faces {
		if f.Mesh != nil {
			return fmt.Errorf("face %d: %w", i, ErrFaceOwned)
		}
		s.fidx[f] = i
		seen := make(map[edgeKey]bool, f.NEdges)
		e := f.Edge
		for {
			e.Rev = nil
			ia := s.index(e.Vert)
			ib := s.index(e.Next.Vert)
			if seen[edgeKey{ia, ib}] {
				return fmt.Errorf("face %d repeats directed edge (%d,%d): %w", i, ia, ib, ErrMalformedFace)
			}
			seen[edgeKey{ia, ib}] = true
			s.classify(e, ia, ib)
			e = e.Next
			if e == f.Edge {
				break
			}
		}
	}
	return nil
}

// index returns the dense index of v, assigning the next one on first
// encounter.
func (s *stitcher) index(v *Vertex) int {
	if i, ok := s.vidx[v]; ok {
		return i
	}
	i := len(s.vidx)
	s.vidx[v] = i
	return i
}

// classify files e under its geometric edge.
func (s *stitcher) classify(e *Edge, ia, ib int) {
	k := edgeKey{ia, ib}
	forward := true
	if ib < ia {
		k = edgeKey{ib, ia}
		forward = false
	}
	g, ok := s.groups[k]
	if !ok {
		g = &edgeGroup{}
		if forward {
			g.va, g.vb = e.Vert, e.Next.Vert
		} else {
			g.va, g.vb = e.Next.Vert, e.Vert
		}
		s.groups[k] = g
		s.order = append(s.order, k)
	}
	if forward {
		g.fwd = append(g.fwd, e)
	} else {
		g.rev = append(g.rev, e)
	}
}

func (s *stitcher) pair(a, b *Edge) {
	a.Rev = b
	b.Rev = a
	s.comp.union(s.fidx[a.Face], s.fidx[b.Face])
}

// pairSimple twins every geometric edge carried by exactly one forward
// and one reverse half-edge.
func (s *stitcher) pairSimple() {
	for _, k := range s.order {
		g := s.groups[k]
		if len(g.fwd) == 1 && len(g.rev) == 1 {
			s.pair(g.fwd[0], g.rev[0])
		}
	}
}

// stitchEntry is one half-edge of a complex geometric edge together
// with its angular position about the edge direction.
type stitchEntry struct {
	edge     *Edge
	reversed bool
	angle    float64
}

// pairComplex resolves geometric edges carried by more than two
// half-edges. The incident faces are sorted by anti-clockwise angle
// about the edge direction and each reversed half-edge is twinned with
// the forward half-edge that follows it in the cyclic order, so that
// each solid's own sheets pair with each other rather than across
// solids. Half-edges left over by the walk stay open.
func (s *stitcher) pairComplex() {
	for _, k := range s.order {
		g := s.groups[k]
		if len(g.fwd) == 0 || len(g.rev) == 0 {
			continue
		}
		if len(g.fwd) == 1 && len(g.rev) == 1 {
			continue
		}
		edgeDir := g.vb.V.Sub(g.va.V).Normalize()
		baseDir := g.fwd[0].Face.Plane.N

		entries := make([]stitchEntry, 0, len(g.fwd)+len(g.rev))
		for _, e := range g.fwd {
			entries = append(entries, stitchEntry{
				edge:  e,
				angle: antiClockwiseAngle(baseDir, e.Face.Plane.N, edgeDir),
			})
		}
		for _, e := range g.rev {
			entries = append(entries, stitchEntry{
				edge:     e,
				reversed: true,
				angle:    antiClockwiseAngle(baseDir, e.Face.Plane.N.Neg(), edgeDir),
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if a.angle != b.angle {
				return a.angle < b.angle
			}
			if a.reversed != b.reversed {
				return a.reversed
			}
			return s.fidx[a.edge.Face] < s.fidx[b.edge.Face]
		})

		n := len(entries)
		for i := 0; i < n; i++ {
			cur := entries[i]
			if !cur.reversed || cur.edge.Rev != nil {
				continue
			}
			nxt := entries[(i+1)%n]
			if nxt.reversed || nxt.edge.Rev != nil {
				continue
			}
			s.pair(cur.edge, nxt.edge)
		}
	}
}

// antiClockwiseAngle returns the angle in [0, 2pi) from base to dir,
// measured anti-clockwise about axis. base and dir must be
// perpendicular to axis.
func antiClockwiseAngle(base, dir, axis v3.Vec) float64 {
	a := math.Atan2(base.Cross(dir).Dot(axis), base.Dot(dir))
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// resolveOpenEdges repairs T-junctions: a single open half-edge whose
// opposite side is subdivided into a collinear chain of open
// half-edges is split at the chain's interior vertices and the
// resulting segments twinned with the chain. A plainly missing face
// is not patched; its boundary stays open.
func (s *stitcher) resolveOpenEdges() {
	var open []*Edge
	out := make(map[*Vertex][]*Edge)
	for _, f := range s.faces {
		e := f.Edge
		for {
			if e.Rev == nil {
				open = append(open, e)
				out[e.Vert] = append(out[e.Vert], e)
			}
			e = e.Next
			if e == f.Edge {
				break
			}
		}
	}
	for _, e := range open {
		if e.Rev != nil {
			continue
		}
		chain := s.findOpposingChain(e, out)
		if chain == nil {
			continue
		}
		s.splitAndPair(e, chain)
	}
}

// findOpposingChain looks for a path of open half-edges running from
// e.V2 back to e.V1 along the segment of e, every interior vertex
// within the collinearity tolerance of that segment. Returns nil if no
// such chain exists.
func (s *stitcher) findOpposingChain(e *Edge, out map[*Vertex][]*Edge) []*Edge {
	v1, v2 := e.V1(), e.V2()
	seg := v2.V.Sub(v1.V)
	segLen2 := seg.Length2()
	if segLen2 == 0 {
		return nil
	}
	param := func(p v3.Vec) (float64, bool) {
		d := p.Sub(v1.V)
		t := d.Dot(seg) / segLen2
		perp := d.Sub(seg.MulScalar(t))
		return t, perp.Length() <= s.tol.Collinear
	}

	var chain []*Edge
	cur := v2
	curT := 1.0
	for cur != v1 {
		var best *Edge
		bestT := -1.0
		for _, c := range out[cur] {
			if c.Rev != nil || c == e {
				continue
			}
			dst := c.V2()
			if dst == v1 {
				if best == nil || bestT < 0 {
					best, bestT = c, 0
				}
				continue
			}
			t, onSeg := param(dst.V)
			if !onSeg || t <= 0 || t >= curT {
				continue
			}
			if t > bestT {
				best, bestT = c, t
			}
		}
		if best == nil {
			return nil
		}
		chain = append(chain, best)
		cur = best.V2()
		curT = bestT
		if len(chain) > len(out)+1 {
			return nil
		}
	}
	if len(chain) < 2 {
		// A lone opposite half-edge is an ordinary pairing, not a
		// T-junction; the edge map already had its chance at it.
		return nil
	}
	return chain
}

// splitAndPair subdivides e at the interior vertices of chain and
// twins each segment with its opposing chain edge. chain runs from
// e.V2 to e.V1; segment j of the split edge twins chain edge
// len(chain)-1-j.
func (s *stitcher) splitAndPair(e *Edge, chain []*Edge) {
	k := len(chain)
	prev := e
	for i := k - 1; i >= 1; i-- {
		ne := newEdge(chain[i].Vert, nil)
		ne.insertAfter(prev)
		prev = ne
	}
	seg := e
	for i := k - 1; i >= 0; i-- {
		s.pair(seg, chain[i])
		seg = seg.Next
	}
}

// assemble buckets faces by stitched component and builds one mesh per
// bucket, ordered by each component's first face.
func (s *stitcher) assemble() []*Mesh {
	bucketOf := make(map[int]int)
	var buckets [][]*Face
	for i, f := range s.faces {
		r := s.comp.find(i)
		bi, ok := bucketOf[r]
		if !ok {
			bi = len(buckets)
			bucketOf[r] = bi
			buckets = append(buckets, nil)
		}
		buckets[bi] = append(buckets[bi], f)
	}
	meshes := make([]*Mesh, len(buckets))
	for i, b := range buckets {
		meshes[i] = newMesh(b)
	}
	return meshes
}
