package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pkg/errors"

	"pyrite/internal/ast"
	"pyrite/internal/config"
	"pyrite/internal/diag"
	"pyrite/internal/logx"
)

func newSession() *Session {
	return NewSession(nil, nil)
}

func mustEval(t *testing.T, s *Session, src string) *Result {
	t.Helper()
	res, err := s.Eval(src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return res
}

func TestEvalPrintsAndReturnsValue(t *testing.T) {
	s := newSession()
	res := mustEval(t, s, "print(1 + 2)\n")
	be.Equal(t, res.Output, "3\n")
	be.Equal(t, res.Value, "3")
	be.Equal(t, res.Type, ast.TypeNum)
}

func TestEvalValueByType(t *testing.T) {
	s := newSession()
	be.Equal(t, mustEval(t, s, "3 > 2\n").Value, "True")
	be.Equal(t, mustEval(t, s, "pass\n").Value, "")
	be.Equal(t, mustEval(t, s, "123456789012345678901234567890 * 10\n").Value, "1234567890123456789012345678900")
}

func TestEcho(t *testing.T) {
	s := newSession()
	be.True(t, mustEval(t, s, "1 + 1\n").Echo())
	be.True(t, mustEval(t, s, "if True:\n    print(1)\nelse:\n    2\n").Echo())
	be.Equal(t, mustEval(t, s, "print(5)\n").Echo(), false)
	be.Equal(t, mustEval(t, s, "x : int = 1\n").Echo(), false)
}

func TestOutputIsPerSnippet(t *testing.T) {
	s := newSession()
	mustEval(t, s, "print(1)\n")
	res := mustEval(t, s, "print(2)\n")
	be.Equal(t, res.Output, "2\n")
}

func TestDeclarationsPersist(t *testing.T) {
	s := newSession()
	mustEval(t, s, "x : int = 10\n")
	mustEval(t, s, "def sq(n : int) -> int:\n    return n * n\n")
	be.Equal(t, mustEval(t, s, "sq(x)\n").Value, "100")

	typ, ok := s.Env().Globals.Lookup("x")
	be.True(t, ok)
	be.Equal(t, typ, ast.TypeNum)
}

func TestCheckFailureKeepsSession(t *testing.T) {
	s := newSession()
	_, err := s.Eval("y : int = True\n")
	be.True(t, diag.IsCode(err, diag.InitMismatch))
	be.Err(t, err, "type checking failed")

	_, err = s.Eval("y\n")
	be.True(t, diag.IsCode(err, diag.UnboundId))
}

func TestRuntimeFailureRollsBack(t *testing.T) {
	s := newSession()
	mustEval(t, s, "z : int = 1\n")

	res, err := s.Eval("def f() -> int:\n    return 2\nz = 5\nprint(z)\nz // 0\n")
	be.True(t, diag.IsCode(err, diag.DivisionByZero))
	be.Err(t, err, "execution failed")
	be.Equal(t, res.Output, "5\n")

	_, err = s.Eval("f()\n")
	be.True(t, diag.IsCode(err, diag.UndefinedFunction))
	be.Equal(t, mustEval(t, s, "z\n").Value, "1")
}

func TestLexErrors(t *testing.T) {
	s := newSession()
	_, err := s.Eval("x = $ + ?\n")
	var lexErrs LexErrors
	be.True(t, errors.As(err, &lexErrs))
	be.Equal(t, len(lexErrs), 2)
	be.Err(t, err, "lexing failed")
}

func TestParseErrors(t *testing.T) {
	s := newSession()
	_, err := s.Eval("def f(:\n    pass\n")
	var parseErrs ParseErrors
	be.True(t, errors.As(err, &parseErrs))
	be.True(t, len(parseErrs) > 0)
	be.Err(t, err, "parsing failed")
}

func TestCheckDoesNotCommit(t *testing.T) {
	s := newSession()
	res, err := s.Check("a : int = 1\na\n")
	be.Err(t, err, nil)
	be.Equal(t, res.Type, ast.TypeNum)
	be.True(t, res.Module == nil)

	_, err = s.Check("a\n")
	be.True(t, diag.IsCode(err, diag.UnboundId))
}

func TestCompileDumps(t *testing.T) {
	cfg := config.Default()
	cfg.Output.DumpIR = true
	cfg.Output.DumpAST = true
	s := NewSession(cfg, nil)

	res, err := s.Compile("x : int = 1\nx + 1\n")
	be.Err(t, err, nil)
	be.True(t, res.Module != nil)
	be.True(t, strings.Contains(res.IRDump, "call_import"))
	be.True(t, strings.Contains(res.AST, "x"))
	be.Equal(t, res.Output, "")

	_, ok := s.Env().Globals.Lookup("x")
	be.Equal(t, ok, false)
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession(nil, logx.New(&buf, true))
	mustEval(t, s, "print(7)\n")

	out := buf.String()
	for _, want := range []string{
		"[DEBUG] Lexing complete.",
		"[DEBUG] Parsing complete. No errors.",
		"[DEBUG] Type checking complete. Program has type int.",
		"[DEBUG] --- AST ---",
		"[DEBUG] [codegen] lowering",
		"[DEBUG] Running $main...",
		"[DEBUG] print 7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q:\n%s", want, out)
		}
	}
}

func TestArenaLimitFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Memory = config.MemoryConfig{PageWords: 64, InitialPages: 1, MaxPages: 1}
	s := NewSession(cfg, nil)

	_, err := s.Eval("i : int = 0\nwhile True:\n    i = i + 1\n")
	be.True(t, diag.IsCode(err, diag.OutOfMemory))
}

func TestCallDepthFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.VM.MaxCallDepth = 10
	s := NewSession(cfg, nil)

	_, err := s.Eval("def r(n : int) -> int:\n    return r(n)\nr(1)\n")
	be.True(t, diag.IsCode(err, diag.StackOverflow))
}
