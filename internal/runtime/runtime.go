// Package runtime is the call surface compiled code links against: printing,
// arbitrary-precision arithmetic and comparison, the none check, and the
// machine-word math builtins.
//
// A Runtime is created before a program runs and discarded after; it owns
// the memory handle and the output buffer that stands in for the console.
package runtime

import (
	"strings"

	"pyrite/internal/ast"
	"pyrite/internal/bignum"
	"pyrite/internal/logx"
	"pyrite/internal/memory"
)

// Runtime holds the state shared by every call-surface function.
type Runtime struct {
	mem memory.Memory
	out strings.Builder
	log *logx.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger attaches a debug logger.
func WithLogger(l *logx.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// New returns a runtime over mem.
func New(mem memory.Memory, opts ...Option) *Runtime {
	r := &Runtime{mem: mem}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Memory returns the memory the runtime encodes integers into.
func (r *Runtime) Memory() memory.Memory { return r.mem }

// Output returns everything printed so far.
func (r *Runtime) Output() string { return r.out.String() }

// ResetOutput clears the output buffer.
func (r *Runtime) ResetOutput() { r.out.Reset() }

// Stringify renders a runtime value of the given static kind the way
// print shows it.
func (r *Runtime) Stringify(kind ast.TypeKind, v int32) (string, error) {
	switch kind {
	case ast.KindNum:
		n, err := bignum.Decode(r.mem, v)
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case ast.KindBool:
		if v != 0 {
			return "True", nil
		}
		return "False", nil
	case ast.KindNone:
		return "None", nil
	default:
		return "<object>", nil
	}
}

func (r *Runtime) print(kind ast.TypeKind, v int32) (int32, error) {
	s, err := r.Stringify(kind, v)
	if err != nil {
		return 0, err
	}
	r.out.WriteString(s)
	r.out.WriteByte('\n')
	r.log.Debugf("print %s", s)
	return v, nil
}

// PrintNum prints a decoded integer and returns v unchanged.
func (r *Runtime) PrintNum(v int32) (int32, error) { return r.print(ast.KindNum, v) }

// PrintBool prints True or False and returns v unchanged.
func (r *Runtime) PrintBool(v int32) (int32, error) { return r.print(ast.KindBool, v) }

// PrintNone prints None and returns v unchanged.
func (r *Runtime) PrintNone(v int32) (int32, error) { return r.print(ast.KindNone, v) }

// PrintObject prints a value whose static type is a class.
func (r *Runtime) PrintObject(v int32) (int32, error) { return r.print(ast.KindClass, v) }

// PrintLastNum returns v without printing. Compiled code uses it for the
// value of a trailing expression that has already been shown.
func (r *Runtime) PrintLastNum(v int32) (int32, error) { return v, nil }
