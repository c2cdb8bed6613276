// Package compiler drives the pipeline for one session: lex, parse, type
// check, lower and run. A session keeps the global type environment and the
// machine state between snippets so a REPL can build on earlier input.
package compiler

import (
	"strings"

	"github.com/pkg/errors"

	"pyrite/internal/ast"
	"pyrite/internal/codegen"
	"pyrite/internal/config"
	"pyrite/internal/lexer"
	"pyrite/internal/logx"
	"pyrite/internal/memory"
	"pyrite/internal/parser"
	"pyrite/internal/runtime"
	"pyrite/internal/typecheck"
	"pyrite/internal/vm"
)

// LexErrors is every error the lexer reported for one input.
type LexErrors []lexer.LexError

func (e LexErrors) Error() string {
	lines := make([]string, len(e))
	for i, err := range e {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// ParseErrors is every error the parser reported for one input.
type ParseErrors []parser.ParseError

func (e ParseErrors) Error() string {
	lines := make([]string, len(e))
	for i, err := range e {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// Result describes one processed snippet.
type Result struct {
	Program *ast.Program[ast.Type]
	Module  *codegen.IRModule // nil after Check
	Type    ast.Type          // type of the last statement

	AST    string // set when output.dump_ast is on
	IRDump string // set when output.dump_ir is on

	Output string // text printed while running
	Value  string // rendered value of the last statement; empty for None
}

// Echo reports whether a REPL should show Value. A trailing print has
// already shown it.
func (r *Result) Echo() bool {
	if r.Value == "" || len(r.Program.Stmts) == 0 {
		return false
	}
	last, ok := r.Program.Stmts[len(r.Program.Stmts)-1].(*ast.ExprStmt[ast.Type])
	if !ok {
		return true
	}
	call, ok := last.Expression.(*ast.Builtin1Expr[ast.Type])
	return !ok || call.Name != "print"
}

// Session holds the state that persists between snippets.
type Session struct {
	cfg     *config.Config
	log     *logx.Logger
	env     *typecheck.GlobalEnv
	rt      *runtime.Runtime
	machine *vm.Machine
}

// NewSession returns a session with the built-in functions in scope. A nil
// cfg means config.Default().
func NewSession(cfg *config.Config, log *logx.Logger) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	rt := runtime.New(memory.NewArena(cfg.MemoryOptions()...), runtime.WithLogger(log))
	return &Session{
		cfg:     cfg,
		log:     log,
		env:     typecheck.DefaultGlobalEnv(),
		rt:      rt,
		machine: vm.New(rt, vm.WithMaxCallDepth(cfg.VM.MaxCallDepth), vm.WithLogger(log)),
	}
}

// Env returns the global environment as of the last successful snippet.
func (s *Session) Env() *typecheck.GlobalEnv { return s.env }

func (s *Session) parse(src string) (*ast.Program[ast.Unit], error) {
	s.log.Debugf("Starting lexing process...")
	tokens, lexErrs := lexer.Lex(src)
	if len(lexErrs) > 0 {
		return nil, errors.Wrap(LexErrors(lexErrs), "lexing failed")
	}
	s.log.Debugf("Lexing complete. %d tokens produced.", len(tokens))

	s.log.Debugf("Starting parsing process...")
	prog, parseErrs := parser.Parse(tokens)
	if len(parseErrs) > 0 {
		return nil, errors.Wrap(ParseErrors(parseErrs), "parsing failed")
	}
	s.log.Debugf("Parsing complete. No errors.")
	return prog, nil
}

// check runs the front end and returns the environment the snippet would
// leave behind without committing it.
func (s *Session) check(src string) (*Result, *typecheck.GlobalEnv, error) {
	prog, err := s.parse(src)
	if err != nil {
		return nil, nil, err
	}

	s.log.Debugf("Starting type checking...")
	typed, env, err := typecheck.Check(s.env, prog)
	if err != nil {
		return nil, nil, errors.Wrap(err, "type checking failed")
	}
	s.log.Debugf("Type checking complete. Program has type %s.", typed.Ann)

	res := &Result{Program: typed, Type: typed.Ann}
	if s.cfg.Output.DumpAST || s.log.Enabled() {
		dump := ast.DebugString(typed)
		s.log.Debugf("--- AST ---\n%s\n--- End AST ---", dump)
		if s.cfg.Output.DumpAST {
			res.AST = dump
		}
	}
	return res, env, nil
}

// Check type-checks src against the session environment. The environment
// is not changed.
func (s *Session) Check(src string) (*Result, error) {
	res, _, err := s.check(src)
	return res, err
}

func (s *Session) compile(src string) (*Result, *typecheck.GlobalEnv, error) {
	res, env, err := s.check(src)
	if err != nil {
		return nil, nil, err
	}
	gen, err := codegen.Generate(res.Program, codegen.Options{Logger: s.log, DumpIR: s.cfg.Output.DumpIR})
	if err != nil {
		return nil, nil, errors.Wrap(err, "code generation failed")
	}
	res.Module = gen.Module
	res.IRDump = gen.IRDump
	return res, env, nil
}

// Compile checks and lowers src. The environment is not changed.
func (s *Session) Compile(src string) (*Result, error) {
	res, _, err := s.compile(src)
	return res, err
}

// Eval compiles and runs src. On success the snippet's declarations stay
// in the session; on any failure the session is left as it was.
func (s *Session) Eval(src string) (*Result, error) {
	res, env, err := s.compile(src)
	if err != nil {
		return nil, err
	}

	snap := s.machine.Snapshot()
	s.rt.ResetOutput()
	value, err := s.execute(res.Module)
	res.Output = s.rt.Output()
	if err != nil {
		s.machine.Restore(snap)
		return res, errors.Wrap(err, "execution failed")
	}

	if res.Type != ast.TypeNone {
		res.Value, err = s.rt.Stringify(res.Type.Kind, int32(value))
		if err != nil {
			s.machine.Restore(snap)
			return res, errors.Wrap(err, "execution failed")
		}
	}
	s.env = env
	return res, nil
}

func (s *Session) execute(mod *codegen.IRModule) (int64, error) {
	s.log.Debugf("Running %s...", mod.EntryFunc)
	if err := s.machine.Load(mod); err != nil {
		return 0, err
	}
	return s.machine.Run(mod)
}
