package engine

import (
	"fmt"
	"strings"

	"github.com/ForeverDavid/carve/pkg/mesh"
	"github.com/ForeverDavid/carve/pkg/poly"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms carve Lisp source before passing it to
// zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal),
//     so keywords need no global symbol registration.
//  2. Kebab-case to underscore: merge-tolerance -> merge_tolerance,
//     since zygomys reads a bare hyphen as subtraction.
//  3. ; line comments become // comments, which is what zygomys reads.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Kebab-case identifiers: only when the hyphen sits between
		// identifier characters, never a minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpVec wraps a 3-vector so positions can flow between builtins.
type sexpVec struct {
	vec v3.Vec
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

// sexpVertRef is the handle returned by `vertex`, naming a point by
// its position in the builder's point list.
type sexpVertRef struct {
	idx int
}

func (r *sexpVertRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vertref %d)", r.idx)
}
func (r *sexpVertRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by
// preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string, returning
// the keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword
// argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toVec(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec, got %T (%s)", s, s.SexpString(nil))
}

// toVertIndex accepts either a vertex handle or a plain integer index.
func toVertIndex(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *sexpVertRef:
		return v.idx, nil
	case *zygo.SexpInt:
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected vertex reference or index, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builder state
// ---------------------------------------------------------------------------

// builder accumulates the points and face loops declared by a script
// and stitches them on (build).
type builder struct {
	tol    mesh.Tolerances
	merge  float64
	points []v3.Vec
	faces  [][]int
	set    *mesh.MeshSet
}

func newBuilder(tol mesh.Tolerances) *builder {
	return &builder{tol: tol}
}

func (b *builder) addPoint(p v3.Vec) int {
	b.points = append(b.points, p)
	return len(b.points) - 1
}

func (b *builder) addFace(loop []int) (int, error) {
	if len(loop) < 3 {
		return 0, fmt.Errorf("face needs at least 3 vertices, got %d", len(loop))
	}
	for _, idx := range loop {
		if idx < 0 || idx >= len(b.points) {
			return 0, fmt.Errorf("face references vertex %d of %d", idx, len(b.points))
		}
	}
	b.faces = append(b.faces, loop)
	return len(b.faces) - 1, nil
}

// build stitches the accumulated geometry into a mesh set. With a
// merge radius the flat form goes through the polyhedron converter,
// which collapses coincident vertices first.
func (b *builder) build() error {
	if len(b.faces) == 0 {
		b.set = &mesh.MeshSet{}
		return nil
	}
	if b.merge > 0 {
		p := &poly.Polyhedron{Vertices: b.points}
		for _, loop := range b.faces {
			p.Faces = append(p.Faces, poly.FaceRecord{Indices: loop})
		}
		set, err := poly.ToMeshSet(p, b.merge, b.tol)
		if err != nil {
			return err
		}
		b.set = set
		return nil
	}
	var flat []int
	for _, loop := range b.faces {
		flat = append(flat, len(loop))
		flat = append(flat, loop...)
	}
	set, err := mesh.NewMeshSet(b.tol, b.points, len(b.faces), flat)
	if err != nil {
		return err
	}
	b.set = set
	return nil
}

// addBox emits the 8 corners and 6 outward-wound quads of an
// axis-aligned box and returns the index of its first face.
func (b *builder) addBox(min, size v3.Vec) (int, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return 0, fmt.Errorf("box size (%g %g %g) must be positive", size.X, size.Y, size.Z)
	}
	base := len(b.points)
	for _, d := range []v3.Vec{
		{},
		{X: size.X},
		{X: size.X, Y: size.Y},
		{Y: size.Y},
		{Z: size.Z},
		{X: size.X, Z: size.Z},
		{X: size.X, Y: size.Y, Z: size.Z},
		{Y: size.Y, Z: size.Z},
	} {
		b.addPoint(min.Add(d))
	}
	first := len(b.faces)
	for _, q := range [][]int{
		{0, 3, 2, 1},
		{4, 5, 6, 7},
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
	} {
		loop := make([]int, len(q))
		for i, c := range q {
			loop[i] = base + c
		}
		if _, err := b.addFace(loop); err != nil {
			return 0, err
		}
	}
	return first, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the carve DSL into a zygomys environment.
// The builtins populate the builder during evaluation.
//
// Source must be preprocessed with preprocessSource() first so that
// :keyword tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec: component %d: %w", i, err)
			}
			c[i] = f
		}
		return &sexpVec{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (vertex 0 0 1)  or  (vertex (vec 0 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var p v3.Vec
		switch len(args) {
		case 1:
			v, err := toVec(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vertex: %w", err)
			}
			p = v
		case 3:
			var c [3]float64
			for i, a := range args {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("vertex: component %d: %w", i, err)
				}
				c[i] = f
			}
			p = v3.Vec{X: c[0], Y: c[1], Z: c[2]}
		default:
			return zygo.SexpNull, fmt.Errorf("vertex requires 3 numbers or one vec, got %d arguments", len(args))
		}
		return &sexpVertRef{idx: b.addPoint(p)}, nil
	})

	// -----------------------------------------------------------------------
	// (face v0 v1 v2 ...)
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		loop := make([]int, len(args))
		for i, a := range args {
			idx, err := toVertIndex(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: vertex %d: %w", i, err)
			}
			loop[i] = idx
		}
		fi, err := b.addFace(loop)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		return &zygo.SexpInt{Val: int64(fi)}, nil
	})

	// -----------------------------------------------------------------------
	// (box :min (vec 0 0 0) :size (vec 1 1 1))
	// :size also accepts a single number for a cube.
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		min := v3.Vec{}
		if v, ok := pa.kw["min"]; ok {
			m, err := toVec(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: min: %w", err)
			}
			min = m
		}
		size := v3.Vec{X: 1, Y: 1, Z: 1}
		if v, ok := pa.kw["size"]; ok {
			if s, err := toVec(v); err == nil {
				size = s
			} else if f, err := toFloat64(v); err == nil {
				size = v3.Vec{X: f, Y: f, Z: f}
			} else {
				return zygo.SexpNull, fmt.Errorf("box: size: expected vec or number, got %T", v)
			}
		}
		first, err := b.addBox(min, size)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &zygo.SexpInt{Val: int64(first)}, nil
	})

	// -----------------------------------------------------------------------
	// (merge-tolerance 1e-6)
	//
	// Registered as merge_tolerance; the preprocessor converts the
	// kebab form in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("merge_tolerance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("merge-tolerance requires one argument")
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge-tolerance: %w", err)
		}
		if f < 0 {
			return zygo.SexpNull, fmt.Errorf("merge-tolerance: radius %g must not be negative", f)
		}
		b.merge = f
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (build)
	// -----------------------------------------------------------------------
	env.AddFunction("build", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("build takes no arguments")
		}
		if err := b.build(); err != nil {
			return zygo.SexpNull, fmt.Errorf("build: %w", err)
		}
		return &zygo.SexpInt{Val: int64(len(b.set.Meshes))}, nil
	})
}
