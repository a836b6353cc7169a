package mesh

import (
	"errors"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func mkVerts(pts ...v3.Vec) []*Vertex {
	vs := make([]Vertex, len(pts))
	out := make([]*Vertex, len(pts))
	for i, p := range pts {
		vs[i].V = p
		out[i] = &vs[i]
	}
	return out
}

func TestNewFaceNormal(t *testing.T) {
	tol := DefaultTolerances()
	cases := []struct {
		name string
		pts  []v3.Vec
		n    v3.Vec
	}{
		{"xy ccw", []v3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}, v3.Vec{Z: 1}},
		{"xy cw", []v3.Vec{{}, {Y: 1}, {X: 1, Y: 1}, {X: 1}}, v3.Vec{Z: -1}},
		{"xz", []v3.Vec{{}, {Z: 1}, {X: 1, Z: 1}, {X: 1}}, v3.Vec{Y: 1}},
		{"tilted", []v3.Vec{{X: 1}, {Y: 1}, {Z: 1}}, v3.Vec{X: 1, Y: 1, Z: 1}.Normalize()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFace(tol, mkVerts(tc.pts...)...)
			if err != nil {
				t.Fatalf("NewFace: %v", err)
			}
			if !f.Plane.N.Equals(tc.n, 1e-12) {
				t.Errorf("normal %v, want %v", f.Plane.N, tc.n)
			}
			for _, p := range tc.pts {
				if d := f.Plane.Distance(p); math.Abs(d) > 1e-12 {
					t.Errorf("vertex %v off plane by %g", p, d)
				}
			}
		})
	}
}

func TestNewFaceErrors(t *testing.T) {
	tol := DefaultTolerances()
	if _, err := NewFace(tol, mkVerts(v3.Vec{}, v3.Vec{X: 1})...); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("2 vertices: got %v, want ErrMalformedInput", err)
	}
	collinear := mkVerts(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 2}, v3.Vec{X: 3})
	if _, err := NewFace(tol, collinear...); !errors.Is(err, ErrDegenerateFace) {
		t.Errorf("collinear loop: got %v, want ErrDegenerateFace", err)
	}
	coincident := mkVerts(v3.Vec{X: 1, Y: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{X: 1, Y: 1})
	if _, err := NewFace(tol, coincident...); !errors.Is(err, ErrDegenerateFace) {
		t.Errorf("coincident loop: got %v, want ErrDegenerateFace", err)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	tol := DefaultTolerances()
	loops := [][]v3.Vec{
		{{}, {X: 2}, {X: 2, Y: 1}, {Y: 1}},
		{{}, {Y: 1}, {X: 1, Y: 1}, {X: 1}},
		{{X: 1}, {Y: 1}, {Z: 1}},
		{{Z: 3}, {X: 1, Z: 3}, {X: 1, Y: 1, Z: 2}, {Y: 1, Z: 2}},
	}
	for li, pts := range loops {
		f, err := NewFace(tol, mkVerts(pts...)...)
		if err != nil {
			t.Fatalf("loop %d: %v", li, err)
		}
		for _, p := range pts {
			back := f.Unproject(f.Project(p))
			if !back.Equals(p, 1e-9) {
				t.Errorf("loop %d: %v round-trips to %v", li, p, back)
			}
		}
		proj := f.ProjectedVertices(nil)
		area := 0.0
		for i := range proj {
			j := (i + 1) % len(proj)
			area += proj[i].X*proj[j].Y - proj[j].X*proj[i].Y
		}
		if area <= 0 {
			t.Errorf("loop %d: projected area %g not positive", li, area)
		}
	}
}

func TestCentroidAABB(t *testing.T) {
	tol := DefaultTolerances()
	f, err := NewFace(tol, mkVerts(v3.Vec{}, v3.Vec{X: 2}, v3.Vec{X: 2, Y: 2}, v3.Vec{Y: 2})...)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	if c := f.Centroid(); !c.Equals(v3.Vec{X: 1, Y: 1}, 1e-12) {
		t.Errorf("centroid %v", c)
	}
	box := f.AABB()
	if !box.Min.Equals(v3.Vec{}, 1e-12) || !box.Max.Equals(v3.Vec{X: 2, Y: 2}, 1e-12) {
		t.Errorf("AABB %v", box)
	}
}

func TestFaceInvert(t *testing.T) {
	tol := DefaultTolerances()
	verts := mkVerts(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1})
	f, err := NewFace(tol, verts...)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	before := f.Vertices(nil)
	e := f.Edge
	u, v := e.V1(), e.V2()
	f.Invert()
	if !f.Plane.N.Equals(v3.Vec{Z: -1}, 1e-12) {
		t.Errorf("inverted normal %v", f.Plane.N)
	}
	if e.V1() != v || e.V2() != u {
		t.Error("edge did not flip in place")
	}
	after := f.Vertices(nil)
	if len(after) != len(before) {
		t.Fatalf("loop size changed: %d", len(after))
	}
	if n := f.Edge.LoopSize(); n != f.NEdges {
		t.Errorf("ring size %d, NEdges %d", n, f.NEdges)
	}
}

func TestDerive(t *testing.T) {
	tol := DefaultTolerances()
	quad := mkVerts(v3.Vec{}, v3.Vec{X: 2}, v3.Vec{X: 2, Y: 2}, v3.Vec{Y: 2})
	f, err := NewFace(tol, quad...)
	if err != nil {
		t.Fatalf("NewFace: %v", err)
	}
	f.Tags.Set(3)

	// Coplanar sub-loop inherits the frame.
	tri, err := f.Derive(tol, quad[0], quad[1], quad[2])
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if !tri.Plane.N.Equals(f.Plane.N, 1e-12) {
		t.Errorf("derived normal %v, want %v", tri.Plane.N, f.Plane.N)
	}
	if !tri.Tags.Has(3) {
		t.Error("derived face lost tags")
	}

	// Off-plane loop forces a refit.
	lifted := mkVerts(v3.Vec{Z: 1}, v3.Vec{X: 1, Z: 1}, v3.Vec{X: 1, Y: 1, Z: 2})
	g, err := f.Derive(tol, lifted...)
	if err != nil {
		t.Fatalf("Derive off-plane: %v", err)
	}
	if g.Plane.N.Equals(f.Plane.N, 1e-9) {
		t.Error("off-plane derive kept the stale plane")
	}
	for _, v := range lifted {
		if d := g.Plane.Distance(v.V); math.Abs(d) > 1e-9 {
			t.Errorf("refit plane misses %v by %g", v.V, d)
		}
	}
}
