package bignum

import (
	"math/big"

	"pyrite/internal/ast"
	"pyrite/internal/diag"
	"pyrite/internal/memory"
)

// Arithmetic decodes both operands, applies op and encodes the result.
// Division and modulo round toward negative infinity; the remainder takes
// the sign of the divisor.
func Arithmetic(mem memory.Memory, op ast.BinOp, a, b memory.Addr) (memory.Addr, error) {
	x, y, err := decodePair(mem, a, b)
	if err != nil {
		return memory.NoneAddr, err
	}
	r, err := Apply(op, x, y)
	if err != nil {
		return memory.NoneAddr, err
	}
	return Encode(mem, r)
}

// Apply computes op on native values without touching memory.
func Apply(op ast.BinOp, x, y *big.Int) (*big.Int, error) {
	switch op {
	case ast.Plus:
		return new(big.Int).Add(x, y), nil
	case ast.Minus:
		return new(big.Int).Sub(x, y), nil
	case ast.Mul:
		return new(big.Int).Mul(x, y), nil
	case ast.IDiv, ast.Mod:
		if y.Sign() == 0 {
			return nil, diag.Runtimef(diag.DivisionByZero, "integer division or modulo by zero")
		}
		q, m := FloorDivMod(x, y)
		if op == ast.IDiv {
			return q, nil
		}
		return m, nil
	}
	return nil, diag.Runtimef(diag.UnknownOperator, "unknown arithmetic operator %s", op)
}

// FloorDivMod returns the floored quotient and the matching remainder, so
// that x == q*y + m and m has the sign of y. y must not be zero.
func FloorDivMod(x, y *big.Int) (q, m *big.Int) {
	q, m = new(big.Int).QuoRem(x, y, new(big.Int))
	if m.Sign() != 0 && m.Sign() != y.Sign() {
		q.Sub(q, big.NewInt(1))
		m.Add(m, y)
	}
	return q, m
}

// Compare decodes both operands and reports whether op holds between them.
func Compare(mem memory.Memory, op ast.BinOp, a, b memory.Addr) (bool, error) {
	x, y, err := decodePair(mem, a, b)
	if err != nil {
		return false, err
	}
	c := x.Cmp(y)
	switch op {
	case ast.Eq:
		return c == 0, nil
	case ast.Neq:
		return c != 0, nil
	case ast.Lte:
		return c <= 0, nil
	case ast.Gte:
		return c >= 0, nil
	case ast.Lt:
		return c < 0, nil
	case ast.Gt:
		return c > 0, nil
	}
	return false, diag.Runtimef(diag.UnknownOperator, "unknown comparison operator %s", op)
}

func decodePair(mem memory.Memory, a, b memory.Addr) (*big.Int, *big.Int, error) {
	x, err := Decode(mem, a)
	if err != nil {
		return nil, nil, err
	}
	y, err := Decode(mem, b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
