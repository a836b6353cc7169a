package engine

import (
	"strings"
	"testing"
)

func TestEvaluateEmptySource(t *testing.T) {
	e := NewEngine()
	set, evalErrs, err := e.Evaluate("")
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if set == nil || len(set.Meshes) != 0 {
		t.Errorf("empty source should produce an empty set")
	}
}

func TestEvaluateCubeScript(t *testing.T) {
	src := `
; a unit cube
(box :min (vec 0 0 0) :size 1)
(build)
`
	e := NewEngine()
	set, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(set.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(set.Meshes))
	}
	m := set.Meshes[0]
	if !m.IsClosed() {
		t.Error("cube not closed")
	}
	if v := m.Volume(); v < 0.999 || v > 1.001 {
		t.Errorf("volume %g, want 1", v)
	}
}

func TestEvaluateExplicitFaces(t *testing.T) {
	src := `
(def a (vertex 0 0 0))
(def b (vertex 1 0 0))
(def c (vertex 0 1 0))
(def d (vertex 0 0 1))
(face a c b)
(face a b d)
(face b c d)
(face a d c)
(build)
`
	e := NewEngine()
	set, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(set.Meshes) != 1 || !set.Meshes[0].IsClosed() {
		t.Fatal("tetrahedron did not stitch closed")
	}
}

func TestEvaluateImplicitBuild(t *testing.T) {
	// A script that declares geometry without (build) still gets a
	// stitched set.
	src := `(box :size 2)`
	e := NewEngine()
	set, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(set.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(set.Meshes))
	}
	if v := set.Meshes[0].Volume(); v < 7.999 || v > 8.001 {
		t.Errorf("volume %g, want 8", v)
	}
}

func TestEvaluateMergeTolerance(t *testing.T) {
	// Duplicated corner vertices, the way triangle-soup formats
	// arrive. With a merge radius the soup becomes one closed shell.
	src := `
(merge-tolerance 1e-6)
(face (vertex 0 0 0) (vertex 0 1 0) (vertex 1 0 0))
(face (vertex 0 0 0) (vertex 1 0 0) (vertex 0 0 1))
(face (vertex 1 0 0) (vertex 0 1 0) (vertex 0 0 1))
(face (vertex 0 0 0) (vertex 0 0 1) (vertex 0 1 0))
(build)
`
	e := NewEngine()
	set, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(set.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(set.Meshes))
	}
	if !set.Meshes[0].IsClosed() {
		t.Error("merged soup not closed")
	}
	if len(set.VertexStorage) != 4 {
		t.Errorf("storage holds %d vertices, want 4", len(set.VertexStorage))
	}
}

func TestEvaluateParseError(t *testing.T) {
	e := NewEngine()
	set, evalErrs, err := e.Evaluate("(box :size")
	if err != nil {
		t.Fatalf("parse failure should not be fatal: %v", err)
	}
	if set != nil {
		t.Error("broken source produced a set")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
}

func TestEvaluateDegenerateFace(t *testing.T) {
	src := `
(face (vertex 0 0 0) (vertex 1 0 0) (vertex 2 0 0))
(build)
`
	e := NewEngine()
	set, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if set != nil {
		t.Error("degenerate face produced a set")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	found := false
	for _, ee := range evalErrs {
		if strings.Contains(ee.Message, "degenerate") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors %v do not mention the degenerate face", evalErrs)
	}
}

func TestEvaluateBadFaceIndex(t *testing.T) {
	e := NewEngine()
	set, evalErrs, err := e.Evaluate(`(face 0 1 2)`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if set != nil {
		t.Error("out-of-range face produced a set")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
}

func TestPreprocessSource(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{"keyword", `(box :size 1)`, `(box "__kw_size" 1)`},
		{"kebab call", `(merge-tolerance 1e-6)`, `(merge_tolerance 1e-6)`},
		{"minus untouched", `(vec (- 1 2) 0 0)`, `(vec (- 1 2) 0 0)`},
		{"comment", "; note\n(build)", "// note\n(build)"},
		{"string untouched", `(print "a-b :c")`, `(print "a-b :c")`},
		{"assignment untouched", `(def x := 1)`, `(def x := 1)`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := preprocessSource(tc.in); got != tc.out {
				t.Errorf("got %q, want %q", got, tc.out)
			}
		})
	}
}

func TestParseZygomysError(t *testing.T) {
	errs := parseZygomysError(errTest("Error on line 3: unexpected token"))
	if len(errs) != 1 || errs[0].Line != 3 {
		t.Errorf("got %v, want line 3", errs)
	}
	errs = parseZygomysError(errTest("something else entirely"))
	if len(errs) != 1 || errs[0].Line != 0 {
		t.Errorf("got %v, want line 0 fallback", errs)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
