// Package engine provides the Lisp scripting surface for carve. It
// wraps zygomys in a sandboxed environment and produces a stitched
// mesh set from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ForeverDavid/carve/pkg/mesh"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during
// evaluation, such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for carve scripts. It is safe
// for concurrent use; each call to Evaluate creates a fresh sandboxed
// environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	tol        mesh.Tolerances
}

// NewEngine creates an Engine using the default geometric tolerances.
func NewEngine() *Engine {
	return &Engine{tol: mesh.DefaultTolerances()}
}

// NewEngineWithTolerances creates an Engine whose builds use the
// given tolerance bundle.
func NewEngineWithTolerances(tol mesh.Tolerances) *Engine {
	return &Engine{tol: tol}
}

// Evaluate runs carve Lisp source and returns the mesh set it builds.
// Each call creates a fresh zygomys sandbox.
//
// Return semantics:
//   - On success: returns mesh set + nil errors + nil error
//   - On parse/eval failure: returns nil set + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*mesh.MeshSet, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		set, evalErrs, err := e.evaluate(source)
		ch <- evalResult{set: set, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*mesh.MeshSet, []EvalError, error) {
	// Empty source is a valid program that produces an empty set.
	if strings.TrimSpace(source) == "" {
		return &mesh.MeshSet{}, nil, nil
	}

	// Sandbox mode prevents user code from touching the filesystem
	// or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(e.tol)
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	// A script that defines geometry but never calls (build) still
	// gets its set stitched.
	if b.set == nil {
		if err := b.build(); err != nil {
			return nil, []EvalError{{Message: err.Error()}}, nil
		}
	}
	return b.set, nil, nil
}

// linePattern matches zygomys error messages that include
// "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more
// EvalError values, extracting line numbers where the message carries
// them.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{
			Line:    line,
			Message: strings.TrimSpace(m[2]),
		}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{
			Line:    line,
			Message: strings.TrimSpace(m[2]),
		}}
	}
	return []EvalError{{
		Message: strings.TrimSpace(msg),
	}}
}
