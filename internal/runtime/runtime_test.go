package runtime_test

import (
	"bytes"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"pyrite/internal/ast"
	"pyrite/internal/bignum"
	"pyrite/internal/diag"
	"pyrite/internal/logx"
	"pyrite/internal/memory"
	"pyrite/internal/runtime"
)

func newRuntime() *runtime.Runtime {
	return runtime.New(memory.NewArena())
}

func num(t *testing.T, r *runtime.Runtime, v int64) memory.Addr {
	t.Helper()
	addr, err := bignum.EncodeInt64(r.Memory(), v)
	be.Err(t, err, nil)
	return addr
}

func decode(t *testing.T, r *runtime.Runtime, addr memory.Addr) string {
	t.Helper()
	v, err := bignum.Decode(r.Memory(), addr)
	be.Err(t, err, nil)
	return v.String()
}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

func TestPrintIsIdentity(t *testing.T) {
	r := newRuntime()
	a := num(t, r, -12)

	got, err := r.PrintNum(a)
	be.Err(t, err, nil)
	be.Equal(t, got, a)

	got, err = r.PrintBool(1)
	be.Err(t, err, nil)
	be.Equal(t, got, int32(1))

	_, err = r.PrintBool(0)
	be.Err(t, err, nil)

	got, err = r.PrintNone(0)
	be.Err(t, err, nil)
	be.Equal(t, got, int32(0))

	got, err = r.PrintObject(5)
	be.Err(t, err, nil)
	be.Equal(t, got, int32(5))

	be.Equal(t, r.Output(), "-12\nTrue\nFalse\nNone\n<object>\n")
}

func TestPrintLastNumHasNoOutput(t *testing.T) {
	r := newRuntime()
	a := num(t, r, 7)
	got, err := r.PrintLastNum(a)
	be.Err(t, err, nil)
	be.Equal(t, got, a)
	be.Equal(t, r.Output(), "")
}

func TestResetOutput(t *testing.T) {
	r := newRuntime()
	_, _ = r.PrintBool(1)
	r.ResetOutput()
	be.Equal(t, r.Output(), "")
}

func TestStringify(t *testing.T) {
	r := newRuntime()
	s, err := r.Stringify(ast.KindNum, num(t, r, 1<<40))
	be.Err(t, err, nil)
	be.Equal(t, s, "1099511627776")

	s, _ = r.Stringify(ast.KindBool, 0)
	be.Equal(t, s, "False")
	s, _ = r.Stringify(ast.KindNone, 0)
	be.Equal(t, s, "None")
	s, _ = r.Stringify(ast.KindClass, 12)
	be.Equal(t, s, "<object>")
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	r := runtime.New(memory.NewArena(), runtime.WithLogger(logx.New(&buf, true)))
	_, err := r.Plus(num(t, r, 1), num(t, r, 2))
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(buf.String(), "[DEBUG] + "))
}

// ---------------------------------------------------------------------------
// Arithmetic and comparison
// ---------------------------------------------------------------------------

func TestArithmeticOps(t *testing.T) {
	r := newRuntime()
	a, b := num(t, r, -7), num(t, r, 2)

	ops := []struct {
		name string
		fn   func(a, b memory.Addr) (memory.Addr, error)
		want string
	}{
		{"plus", r.Plus, "-5"},
		{"minus", r.Minus, "-9"},
		{"mul", r.Mul, "-14"},
		{"iDiv", r.IDiv, "-4"},
		{"mod", r.Mod, "1"},
	}
	for _, op := range ops {
		addr, err := op.fn(a, b)
		be.Err(t, err, nil)
		if got := decode(t, r, addr); got != op.want {
			t.Errorf("%s: got %s, want %s", op.name, got, op.want)
		}
	}
}

func TestComparisonOps(t *testing.T) {
	r := newRuntime()
	a, b := num(t, r, 3), num(t, r, 5)

	ops := []struct {
		name string
		fn   func(a, b memory.Addr) (bool, error)
		want bool
	}{
		{"eq", r.Eq, false},
		{"neq", r.Neq, true},
		{"lte", r.Lte, true},
		{"gte", r.Gte, false},
		{"lt", r.Lt, true},
		{"gt", r.Gt, false},
	}
	for _, op := range ops {
		got, err := op.fn(a, b)
		be.Err(t, err, nil)
		if got != op.want {
			t.Errorf("%s: got %v, want %v", op.name, got, op.want)
		}
	}
}

func TestAssertNotNone(t *testing.T) {
	r := newRuntime()
	v, err := r.AssertNotNone(17)
	be.Err(t, err, nil)
	be.Equal(t, v, int32(17))

	_, err = r.AssertNotNone(memory.NoneAddr)
	d, ok := diag.As(err)
	be.True(t, ok)
	be.Equal(t, d.Kind, diag.Runtime)
	be.Equal(t, d.Code, diag.NoneValue)
}

// ---------------------------------------------------------------------------
// Machine-word math
// ---------------------------------------------------------------------------

func TestWordMath(t *testing.T) {
	v, err := runtime.Abs(-5)
	be.Err(t, err, nil)
	be.Equal(t, v, int64(5))

	_, err = runtime.Abs(math.MinInt64)
	be.True(t, diag.IsCode(err, diag.Overflow))

	be.Equal(t, runtime.Min(3, -2), int64(-2))
	be.Equal(t, runtime.Max(3, -2), int64(3))

	v, err = runtime.Pow(2, 10)
	be.Err(t, err, nil)
	be.Equal(t, v, int64(1024))

	v, err = runtime.Pow(-1, 1001)
	be.Err(t, err, nil)
	be.Equal(t, v, int64(-1))

	v, err = runtime.Pow(5, 0)
	be.Err(t, err, nil)
	be.Equal(t, v, int64(1))

	_, err = runtime.Pow(2, -1)
	be.True(t, diag.IsCode(err, diag.InvalidArgument))

	_, err = runtime.Pow(2, 63)
	be.True(t, diag.IsCode(err, diag.Overflow))

	_, err = runtime.Pow(10, 1000000)
	be.True(t, diag.IsCode(err, diag.Overflow))
}

// ---------------------------------------------------------------------------
// Import table
// ---------------------------------------------------------------------------

func TestImportTable(t *testing.T) {
	r := newRuntime()
	imports := r.Imports()

	for _, name := range []string{
		"print_num", "print_bool", "print_none", "print_object", "print_last_num", "assert_not_none",
		"plus", "minus", "mul", "iDiv", "mod",
		"eq", "neq", "lte", "gte", "lt", "gt",
		"abs", "min", "max", "pow",
	} {
		imp, ok := imports[name]
		if !ok {
			t.Errorf("missing import %s", name)
			continue
		}
		be.Equal(t, imp.Name, name)
	}
	be.Equal(t, imports["plus"].Arity, 2)
	be.Equal(t, imports["print_num"].Arity, 1)
}

func TestImportCalls(t *testing.T) {
	r := newRuntime()
	imports := r.Imports()
	a, b := int64(num(t, r, 6)), int64(num(t, r, 4))

	sum, err := imports["plus"].Fn([]int64{a, b})
	be.Err(t, err, nil)
	be.Equal(t, decode(t, r, memory.Addr(sum)), "10")

	lt, err := imports["lt"].Fn([]int64{a, b})
	be.Err(t, err, nil)
	be.Equal(t, lt, int64(0))

	p, err := imports["pow"].Fn([]int64{a, b})
	be.Err(t, err, nil)
	be.Equal(t, decode(t, r, memory.Addr(p)), "1296")

	m, err := imports["max"].Fn([]int64{a, b})
	be.Err(t, err, nil)
	be.Equal(t, decode(t, r, memory.Addr(m)), "6")

	_, err = imports["print_num"].Fn([]int64{sum})
	be.Err(t, err, nil)
	be.Equal(t, r.Output(), "10\n")
}

func TestImportMathOverflow(t *testing.T) {
	r := newRuntime()
	huge, err := bignum.Encode(r.Memory(), new(big.Int).Lsh(big.NewInt(1), 70))
	be.Err(t, err, nil)
	_, err = r.Imports()["abs"].Fn([]int64{int64(huge)})
	be.True(t, diag.IsCode(err, diag.Overflow))
}
