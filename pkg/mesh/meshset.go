package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MeshSet owns vertex storage and the meshes built over it. Vertices
// live by value in VertexStorage and are identified by address, so the
// slice is never grown after construction.
type MeshSet struct {
	VertexStorage []Vertex
	Meshes        []*Mesh
}

// NewMeshSet builds a mesh set from points and a flat face-index
// encoding: for each face, a vertex count followed by that many
// indices into points. Faces are stitched into connected components.
// Returns an error wrapping ErrMalformedInput when the encoding is
// inconsistent, and ErrDegenerateFace when a vertex loop spans no
// plane.
func NewMeshSet(tol Tolerances, points []v3.Vec, nFaces int, faceIndices []int) (*MeshSet, error) {
	ms := &MeshSet{
		VertexStorage: make([]Vertex, len(points)),
	}
	for i, p := range points {
		ms.VertexStorage[i].V = p
	}

	faces := make([]*Face, 0, nFaces)
	pos := 0
	for fi := 0; fi < nFaces; fi++ {
		if pos >= len(faceIndices) {
			return nil, fmt.Errorf("face %d: index array exhausted: %w", fi, ErrMalformedInput)
		}
		n := faceIndices[pos]
		pos++
		if n < 3 {
			return nil, fmt.Errorf("face %d has %d vertices: %w", fi, n, ErrMalformedInput)
		}
		if pos+n > len(faceIndices) {
			return nil, fmt.Errorf("face %d: index array exhausted: %w", fi, ErrMalformedInput)
		}
		verts := make([]*Vertex, n)
		for j := 0; j < n; j++ {
			idx := faceIndices[pos+j]
			if idx < 0 || idx >= len(points) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range: %w", fi, idx, ErrMalformedInput)
			}
			verts[j] = &ms.VertexStorage[idx]
		}
		pos += n
		f, err := NewFace(tol, verts...)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", fi, err)
		}
		f.ID = fi
		faces = append(faces, f)
	}
	if pos != len(faceIndices) {
		return nil, fmt.Errorf("%d trailing indices: %w", len(faceIndices)-pos, ErrMalformedInput)
	}

	meshes, err := stitchFaces(tol, faces)
	if err != nil {
		return nil, err
	}
	ms.adopt(meshes)
	return ms, nil
}

// NewMeshSetFromFaces takes ownership of detached faces, consolidates
// their vertices into fresh storage and stitches them. The faces and
// their vertices must not be reused by the caller afterwards.
func NewMeshSetFromFaces(tol Tolerances, faces []*Face) (*MeshSet, error) {
	ms := &MeshSet{}
	ms.consolidate(faces)
	meshes, err := stitchFaces(tol, faces)
	if err != nil {
		return nil, err
	}
	ms.adopt(meshes)
	return ms, nil
}

// NewMeshSetFromMeshes consolidates already-stitched meshes into one
// set with shared vertex storage. The input meshes are cloned; the
// originals are untouched.
func NewMeshSetFromMeshes(meshes []*Mesh) *MeshSet {
	ms := &MeshSet{}
	var verts []*Vertex
	seen := make(map[*Vertex]bool)
	for _, m := range meshes {
		for _, v := range m.vertices() {
			if !seen[v] {
				seen[v] = true
				verts = append(verts, v)
			}
		}
	}
	ms.VertexStorage = make([]Vertex, len(verts))
	vmap := make(map[*Vertex]*Vertex, len(verts))
	for i, v := range verts {
		ms.VertexStorage[i] = *v
		vmap[v] = &ms.VertexStorage[i]
	}
	cloned := make([]*Mesh, len(meshes))
	for i, m := range meshes {
		emap := make(map[*Edge]*Edge)
		cloned[i] = m.clone(vmap, emap)
	}
	ms.adopt(cloned)
	return ms
}

// consolidate copies the distinct vertices referenced by faces into
// the set's storage, in first-encounter order, and re-points the face
// rings at the copies.
func (ms *MeshSet) consolidate(faces []*Face) {
	var verts []*Vertex
	seen := make(map[*Vertex]bool)
	for _, f := range faces {
		e := f.Edge
		for {
			if !seen[e.Vert] {
				seen[e.Vert] = true
				verts = append(verts, e.Vert)
			}
			e = e.Next
			if e == f.Edge {
				break
			}
		}
	}
	ms.VertexStorage = make([]Vertex, len(verts))
	vmap := make(map[*Vertex]*Vertex, len(verts))
	for i, v := range verts {
		ms.VertexStorage[i] = *v
		vmap[v] = &ms.VertexStorage[i]
	}
	for _, f := range faces {
		e := f.Edge
		for {
			e.Vert = vmap[e.Vert]
			e = e.Next
			if e == f.Edge {
				break
			}
		}
	}
}

func (ms *MeshSet) adopt(meshes []*Mesh) {
	ms.Meshes = meshes
	for _, m := range meshes {
		m.MeshSet = ms
	}
}

// Clone deep-copies the set: fresh vertex storage, cloned faces and
// meshes, twin links and tags preserved.
func (ms *MeshSet) Clone() *MeshSet {
	out := &MeshSet{
		VertexStorage: make([]Vertex, len(ms.VertexStorage)),
	}
	vmap := make(map[*Vertex]*Vertex, len(ms.VertexStorage))
	for i := range ms.VertexStorage {
		out.VertexStorage[i] = ms.VertexStorage[i]
		vmap[&ms.VertexStorage[i]] = &out.VertexStorage[i]
	}
	cloned := make([]*Mesh, len(ms.Meshes))
	for i, m := range ms.Meshes {
		emap := make(map[*Edge]*Edge)
		cloned[i] = m.clone(vmap, emap)
	}
	out.adopt(cloned)
	return out
}

// AABB returns the bounding box of all meshes in the set.
func (ms *MeshSet) AABB() sdf.Box3 {
	if len(ms.Meshes) == 0 {
		return sdf.Box3{}
	}
	box := ms.Meshes[0].AABB()
	for _, m := range ms.Meshes[1:] {
		box = box.Extend(m.AABB())
	}
	return box
}

// FaceCount returns the total number of faces across all meshes.
func (ms *MeshSet) FaceCount() int {
	n := 0
	for _, m := range ms.Meshes {
		n += len(m.Faces)
	}
	return n
}

// FaceIter is a random-access iterator over every face of a mesh set,
// in mesh order then face order. Dereference is O(1); advancing across
// mesh boundaries costs one step per crossed mesh.
type FaceIter struct {
	ms   *MeshSet
	mesh int
	face int
}

// FaceBegin returns an iterator at the first face of the set.
func (ms *MeshSet) FaceBegin() FaceIter {
	it := FaceIter{ms: ms}
	it.skipEmpty()
	return it
}

// FaceEnd returns the past-the-end iterator.
func (ms *MeshSet) FaceEnd() FaceIter {
	return FaceIter{ms: ms, mesh: len(ms.Meshes)}
}

// Face returns the face under the iterator.
func (it FaceIter) Face() *Face {
	return it.ms.Meshes[it.mesh].Faces[it.face]
}

// Equal reports whether two iterators address the same position.
func (it FaceIter) Equal(other FaceIter) bool {
	return it.ms == other.ms && it.mesh == other.mesh && it.face == other.face
}

// skipEmpty moves the iterator past meshes with no faces.
func (it *FaceIter) skipEmpty() {
	for it.mesh < len(it.ms.Meshes) && it.face >= len(it.ms.Meshes[it.mesh].Faces) {
		it.mesh++
		it.face = 0
	}
}

// Next advances to the following face.
func (it *FaceIter) Next() {
	it.face++
	it.skipEmpty()
}

// Adv moves the iterator by n positions, which may be negative.
func (it *FaceIter) Adv(n int) {
	for n > 0 {
		room := len(it.ms.Meshes[it.mesh].Faces) - it.face
		if n < room {
			it.face += n
			return
		}
		n -= room
		it.mesh++
		it.face = 0
		it.skipEmpty()
	}
	for n < 0 {
		if it.face+n >= 0 {
			it.face += n
			return
		}
		n += it.face + 1
		it.mesh--
		for len(it.ms.Meshes[it.mesh].Faces) == 0 {
			it.mesh--
		}
		it.face = len(it.ms.Meshes[it.mesh].Faces) - 1
	}
}

// Sub returns the signed distance from other to it: the n such that
// advancing other by n reaches it.
func (it FaceIter) Sub(other FaceIter) int {
	return it.linear() - other.linear()
}

// linear returns the flat position of the iterator.
func (it FaceIter) linear() int {
	n := it.face
	for i := 0; i < it.mesh; i++ {
		n += len(it.ms.Meshes[i].Faces)
	}
	return n
}
