package runtime

import (
	"math/big"

	"pyrite/internal/bignum"
	"pyrite/internal/diag"
	"pyrite/internal/memory"
)

// Import is one named function compiled code may call. Arguments and the
// result are raw words: integer record addresses, 0/1 for booleans, 0 for
// none.
type Import struct {
	Name  string
	Arity int
	Fn    func(args []int64) (int64, error)
}

// Imports returns the call surface bound to r, keyed by import name.
func (r *Runtime) Imports() map[string]Import {
	table := map[string]Import{}
	add := func(name string, arity int, fn func(args []int64) (int64, error)) {
		table[name] = Import{Name: name, Arity: arity, Fn: fn}
	}

	unary := func(f func(int32) (int32, error)) func([]int64) (int64, error) {
		return func(args []int64) (int64, error) {
			v, err := f(int32(args[0]))
			return int64(v), err
		}
	}
	arith := func(f func(a, b memory.Addr) (memory.Addr, error)) func([]int64) (int64, error) {
		return func(args []int64) (int64, error) {
			v, err := f(memory.Addr(args[0]), memory.Addr(args[1]))
			return int64(v), err
		}
	}
	compare := func(f func(a, b memory.Addr) (bool, error)) func([]int64) (int64, error) {
		return func(args []int64) (int64, error) {
			ok, err := f(memory.Addr(args[0]), memory.Addr(args[1]))
			if ok {
				return 1, err
			}
			return 0, err
		}
	}

	add("print_num", 1, unary(r.PrintNum))
	add("print_bool", 1, unary(r.PrintBool))
	add("print_none", 1, unary(r.PrintNone))
	add("print_object", 1, unary(r.PrintObject))
	add("print_last_num", 1, unary(r.PrintLastNum))
	add("assert_not_none", 1, unary(r.AssertNotNone))

	add("plus", 2, arith(r.Plus))
	add("minus", 2, arith(r.Minus))
	add("mul", 2, arith(r.Mul))
	add("iDiv", 2, arith(r.IDiv))
	add("mod", 2, arith(r.Mod))

	add("eq", 2, compare(r.Eq))
	add("neq", 2, compare(r.Neq))
	add("lte", 2, compare(r.Lte))
	add("gte", 2, compare(r.Gte))
	add("lt", 2, compare(r.Lt))
	add("gt", 2, compare(r.Gt))

	add("abs", 1, r.wordMath(func(w []int64) (int64, error) { return Abs(w[0]) }))
	add("min", 2, r.wordMath(func(w []int64) (int64, error) { return Min(w[0], w[1]), nil }))
	add("max", 2, r.wordMath(func(w []int64) (int64, error) { return Max(w[0], w[1]), nil }))
	add("pow", 2, r.wordMath(func(w []int64) (int64, error) { return Pow(w[0], w[1]) }))

	return table
}

// wordMath adapts a machine-word builtin to integer records: the arguments
// are decoded and must each fit a machine word, the result is encoded.
func (r *Runtime) wordMath(f func(words []int64) (int64, error)) func([]int64) (int64, error) {
	return func(args []int64) (int64, error) {
		words := make([]int64, len(args))
		for i, a := range args {
			v, err := bignum.Decode(r.mem, memory.Addr(a))
			if err != nil {
				return 0, err
			}
			if !v.IsInt64() {
				return 0, diag.Runtimef(diag.Overflow, "%s does not fit a machine word", v)
			}
			words[i] = v.Int64()
		}
		res, err := f(words)
		if err != nil {
			return 0, err
		}
		addr, err := bignum.Encode(r.mem, big.NewInt(res))
		return int64(addr), err
	}
}
