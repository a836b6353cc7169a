package mesh

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func buildCubeAndTet(t *testing.T) *MeshSet {
	t.Helper()
	tol := DefaultTolerances()
	points := append(cubePoints(v3.Vec{}, 1), tetPoints(v3.Vec{X: 4})...)
	idx := append(cubeFaceIndices(0), tetFaceIndices(8)...)
	ms, err := NewMeshSet(tol, points, 10, idx)
	if err != nil {
		t.Fatalf("NewMeshSet: %v", err)
	}
	return ms
}

func TestFaceIter(t *testing.T) {
	ms := buildCubeAndTet(t)
	if len(ms.Meshes) != 2 {
		t.Fatalf("got %d meshes", len(ms.Meshes))
	}
	if ms.FaceCount() != 10 {
		t.Fatalf("FaceCount %d, want 10", ms.FaceCount())
	}

	n := 0
	for it := ms.FaceBegin(); !it.Equal(ms.FaceEnd()); it.Next() {
		if it.Face() == nil {
			t.Fatal("nil face under iterator")
		}
		n++
	}
	if n != 10 {
		t.Errorf("iterated %d faces, want 10", n)
	}

	it := ms.FaceBegin()
	it.Adv(7)
	if it.Face() != ms.Meshes[1].Faces[1] {
		t.Error("Adv(7) landed on the wrong face")
	}
	if d := it.Sub(ms.FaceBegin()); d != 7 {
		t.Errorf("Sub gave %d, want 7", d)
	}
	it.Adv(-5)
	if it.Face() != ms.Meshes[0].Faces[2] {
		t.Error("Adv(-5) landed on the wrong face")
	}
	if d := ms.FaceEnd().Sub(ms.FaceBegin()); d != 10 {
		t.Errorf("end-begin = %d, want 10", d)
	}

	back := it
	back.Adv(3)
	fwd := it
	fwd.Adv(3)
	if !back.Equal(fwd) {
		t.Error("equal advances disagree")
	}
}

func TestClone(t *testing.T) {
	ms := buildCubeAndTet(t)
	ms.Meshes[0].Faces[0].Tags.Set(5)
	ms.Meshes[0].Faces[0].Edge.Tags.Set(1)
	ms.VertexStorage[0].Tags.Set(2)

	cl := ms.Clone()
	checkMeshSetInvariants(t, cl)
	if len(cl.Meshes) != len(ms.Meshes) {
		t.Fatalf("clone has %d meshes", len(cl.Meshes))
	}
	if cl.FaceCount() != ms.FaceCount() {
		t.Fatalf("clone has %d faces", cl.FaceCount())
	}
	if !cl.Meshes[0].Faces[0].Tags.Has(5) {
		t.Error("face tags lost in clone")
	}
	if !cl.Meshes[0].Faces[0].Edge.Tags.Has(1) {
		t.Error("edge tags lost in clone")
	}
	if !cl.VertexStorage[0].Tags.Has(2) {
		t.Error("vertex tags lost in clone")
	}
	if cl.Meshes[0].IsClosed() != ms.Meshes[0].IsClosed() {
		t.Error("clone changed closedness")
	}
	if v1, v2 := ms.Meshes[0].Volume(), cl.Meshes[0].Volume(); !approx(v1, v2, 1e-12) {
		t.Errorf("clone volume %g, original %g", v2, v1)
	}

	// The clone must be fully detached from the original storage.
	ms.VertexStorage[0].V = v3.Vec{X: 100}
	if cl.VertexStorage[0].V.Equals(v3.Vec{X: 100}, 1e-12) {
		t.Error("clone shares vertex storage with the original")
	}
	for i := range cl.VertexStorage {
		for _, m := range cl.Meshes {
			for _, f := range m.Faces {
				e := f.Edge
				for {
					if e.Vert == &ms.VertexStorage[i] {
						t.Fatal("clone references original storage")
					}
					e = e.Next
					if e == f.Edge {
						break
					}
				}
			}
		}
	}
}

func TestNewMeshSetFromMeshes(t *testing.T) {
	a := buildCubeAndTet(t)
	b := buildCubeAndTet(t)
	ms := NewMeshSetFromMeshes([]*Mesh{a.Meshes[0], b.Meshes[1]})
	checkMeshSetInvariants(t, ms)
	if len(ms.Meshes) != 2 {
		t.Fatalf("got %d meshes", len(ms.Meshes))
	}
	if len(ms.VertexStorage) != 12 {
		t.Errorf("consolidated storage holds %d vertices, want 12", len(ms.VertexStorage))
	}
	if !ms.Meshes[0].IsClosed() || !ms.Meshes[1].IsClosed() {
		t.Error("consolidation broke closedness")
	}
	// Source sets must be untouched.
	if a.Meshes[0].MeshSet != a {
		t.Error("source mesh was re-owned")
	}
}

func TestNewMeshSetFromFaces(t *testing.T) {
	tol := DefaultTolerances()
	pts := tetPoints(v3.Vec{})
	verts := mkVerts(pts...)
	order := [][]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}}
	faces := make([]*Face, len(order))
	for i, loop := range order {
		f, err := NewFace(tol, verts[loop[0]], verts[loop[1]], verts[loop[2]])
		if err != nil {
			t.Fatalf("NewFace %d: %v", i, err)
		}
		f.ID = i
		faces[i] = f
	}
	ms, err := NewMeshSetFromFaces(tol, faces)
	if err != nil {
		t.Fatalf("NewMeshSetFromFaces: %v", err)
	}
	checkMeshSetInvariants(t, ms)
	if len(ms.Meshes) != 1 || !ms.Meshes[0].IsClosed() {
		t.Fatal("tetrahedron did not stitch closed")
	}
	if len(ms.VertexStorage) != 4 {
		t.Errorf("storage holds %d vertices, want 4", len(ms.VertexStorage))
	}
	if v := ms.Meshes[0].Volume(); !approx(v, 1.0/6, 1e-12) {
		t.Errorf("volume %g", v)
	}
}

func TestMeshSetAABB(t *testing.T) {
	ms := buildCubeAndTet(t)
	box := ms.AABB()
	if !box.Min.Equals(v3.Vec{}, 1e-12) {
		t.Errorf("AABB min %v", box.Min)
	}
	if !box.Max.Equals(v3.Vec{X: 5, Y: 1, Z: 1}, 1e-12) {
		t.Errorf("AABB max %v", box.Max)
	}
}
