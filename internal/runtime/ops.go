package runtime

import (
	"pyrite/internal/ast"
	"pyrite/internal/bignum"
	"pyrite/internal/diag"
	"pyrite/internal/memory"
)

// ---------------------------------------------------------------------------
// Arbitrary-precision arithmetic
// ---------------------------------------------------------------------------

func (r *Runtime) arith(op ast.BinOp, a, b memory.Addr) (memory.Addr, error) {
	addr, err := bignum.Arithmetic(r.mem, op, a, b)
	if err != nil {
		return memory.NoneAddr, err
	}
	r.log.Debugf("%s %d %d -> %d", op, a, b, addr)
	return addr, nil
}

func (r *Runtime) Plus(a, b memory.Addr) (memory.Addr, error)  { return r.arith(ast.Plus, a, b) }
func (r *Runtime) Minus(a, b memory.Addr) (memory.Addr, error) { return r.arith(ast.Minus, a, b) }
func (r *Runtime) Mul(a, b memory.Addr) (memory.Addr, error)   { return r.arith(ast.Mul, a, b) }
func (r *Runtime) IDiv(a, b memory.Addr) (memory.Addr, error)  { return r.arith(ast.IDiv, a, b) }
func (r *Runtime) Mod(a, b memory.Addr) (memory.Addr, error)   { return r.arith(ast.Mod, a, b) }

// ---------------------------------------------------------------------------
// Arbitrary-precision comparison
// ---------------------------------------------------------------------------

func (r *Runtime) Eq(a, b memory.Addr) (bool, error)  { return bignum.Compare(r.mem, ast.Eq, a, b) }
func (r *Runtime) Neq(a, b memory.Addr) (bool, error) { return bignum.Compare(r.mem, ast.Neq, a, b) }
func (r *Runtime) Lte(a, b memory.Addr) (bool, error) { return bignum.Compare(r.mem, ast.Lte, a, b) }
func (r *Runtime) Gte(a, b memory.Addr) (bool, error) { return bignum.Compare(r.mem, ast.Gte, a, b) }
func (r *Runtime) Lt(a, b memory.Addr) (bool, error)  { return bignum.Compare(r.mem, ast.Lt, a, b) }
func (r *Runtime) Gt(a, b memory.Addr) (bool, error)  { return bignum.Compare(r.mem, ast.Gt, a, b) }

// AssertNotNone fails when v is the none sentinel and returns v otherwise.
func (r *Runtime) AssertNotNone(v int32) (int32, error) {
	if v == memory.NoneAddr {
		return 0, diag.Runtimef(diag.NoneValue, "cannot perform operation on none")
	}
	return v, nil
}
