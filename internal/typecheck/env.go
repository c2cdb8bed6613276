package typecheck

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"pyrite/internal/ast"
)

// ---------------------------------------------------------------------------
// Scope
// ---------------------------------------------------------------------------

// Scope maps names to T. Lookups report absence explicitly; there is no
// zero-value fallback.
type Scope[T any] struct {
	entries map[string]T
}

// NewScope returns an empty scope.
func NewScope[T any]() *Scope[T] {
	return &Scope[T]{entries: make(map[string]T)}
}

// Lookup returns the binding for name and whether it exists.
func (s *Scope[T]) Lookup(name string) (T, bool) {
	v, ok := s.entries[name]
	return v, ok
}

// Define binds name to v, replacing any earlier binding.
func (s *Scope[T]) Define(name string, v T) {
	s.entries[name] = v
}

// Len returns the number of bindings.
func (s *Scope[T]) Len() int { return len(s.entries) }

// Names returns the bound names in sorted order.
func (s *Scope[T]) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns an independent copy.
func (s *Scope[T]) Clone() *Scope[T] {
	c := NewScope[T]()
	for k, v := range s.entries {
		c.entries[k] = v
	}
	return c
}

// ---------------------------------------------------------------------------
// Signatures
// ---------------------------------------------------------------------------

// Signature is a function's parameter types in order and its return type.
type Signature struct {
	Params []ast.Type
	Ret    ast.Type
}

// Equal reports whether two signatures are identical.
func (s Signature) Equal(o Signature) bool {
	return s.Ret == o.Ret && slices.Equal(s.Params, o.Params)
}

func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), s.Ret)
}

// ---------------------------------------------------------------------------
// Environments
// ---------------------------------------------------------------------------

// GlobalEnv holds the types of global variables and the signatures of
// functions visible to a compilation unit.
type GlobalEnv struct {
	Globals   *Scope[ast.Type]
	Functions *Scope[Signature]
}

// LocalEnv holds the variables of one function body (or of the top level)
// and the return type expected there.
type LocalEnv struct {
	Vars        *Scope[ast.Type]
	ExpectedRet ast.Type
}

// EmptyGlobalEnv returns a global environment with no bindings.
func EmptyGlobalEnv() *GlobalEnv {
	return &GlobalEnv{
		Globals:   NewScope[ast.Type](),
		Functions: NewScope[Signature](),
	}
}

// EmptyLocalEnv returns a local environment expecting None.
func EmptyLocalEnv() *LocalEnv {
	return &LocalEnv{
		Vars:        NewScope[ast.Type](),
		ExpectedRet: ast.TypeNone,
	}
}

// DefaultGlobalEnv is the environment a fresh session starts from: empty
// apart from the math builtins the runtime provides.
func DefaultGlobalEnv() *GlobalEnv {
	env := EmptyGlobalEnv()
	num := ast.TypeNum
	env.Functions.Define("abs", Signature{Params: []ast.Type{num}, Ret: num})
	env.Functions.Define("max", Signature{Params: []ast.Type{num, num}, Ret: num})
	env.Functions.Define("min", Signature{Params: []ast.Type{num, num}, Ret: num})
	env.Functions.Define("pow", Signature{Params: []ast.Type{num, num}, Ret: num})
	return env
}

// Clone returns an independent copy of env.
func (env *GlobalEnv) Clone() *GlobalEnv {
	return &GlobalEnv{
		Globals:   env.Globals.Clone(),
		Functions: env.Functions.Clone(),
	}
}

func (env *GlobalEnv) String() string {
	var b strings.Builder
	for _, name := range env.Globals.Names() {
		t, _ := env.Globals.Lookup(name)
		fmt.Fprintf(&b, "%s: %s\n", name, t)
	}
	for _, name := range env.Functions.Names() {
		sig, _ := env.Functions.Lookup(name)
		fmt.Fprintf(&b, "def %s%s\n", name, sig)
	}
	return b.String()
}

// lookupVar resolves name in the local scope first, then the global one.
func lookupVar(env *GlobalEnv, locals *LocalEnv, name string) (ast.Type, bool) {
	if t, ok := locals.Vars.Lookup(name); ok {
		return t, true
	}
	return env.Globals.Lookup(name)
}
