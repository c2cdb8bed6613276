// Package typecheck verifies that a parsed program is well typed and returns
// a copy of the tree in which every statement and expression carries its
// static type.
//
// Checking is a single pass that stops at the first error. The global
// environment is threaded through successive programs, so a REPL can check
// one snippet against everything declared by the snippets before it.
package typecheck

import (
	"strings"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"

	"pyrite/internal/ast"
	"pyrite/internal/diag"
)

var (
	arithOps    = set.From([]ast.BinOp{ast.Plus, ast.Minus, ast.Mul, ast.IDiv, ast.Mod})
	equalityOps = set.From([]ast.BinOp{ast.Eq, ast.Neq})
	orderOps    = set.From([]ast.BinOp{ast.Lte, ast.Gte, ast.Lt, ast.Gt})
	logicOps    = set.From([]ast.BinOp{ast.And, ast.Or})
)

// ---------------------------------------------------------------------------
// Type relations
// ---------------------------------------------------------------------------

// IsSubtype reports whether t1 may stand in for t2: the types are identical
// or t2 is a class type.
func IsSubtype(env *GlobalEnv, t1, t2 ast.Type) bool {
	if t1 == t2 {
		return true
	}
	return t2.IsClass()
}

// IsAssignable reports whether a value of type t1 may be stored in a
// variable of type t2.
func IsAssignable(env *GlobalEnv, t1, t2 ast.Type) bool {
	return IsSubtype(env, t1, t2)
}

// Join is the least upper bound of two types. Only the trivial answer is
// implemented and no rule depends on it yet.
func Join(env *GlobalEnv, t1, t2 ast.Type) ast.Type {
	return ast.TypeNone
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// CheckLiteral returns the type of a literal.
func CheckLiteral(lit ast.Literal) ast.Type {
	if lit.Kind == ast.LitBool {
		return ast.TypeBool
	}
	return ast.TypeNum
}

// CheckInit verifies that a declaration's literal matches its declared type.
func CheckInit(init *ast.VarInit[ast.Unit]) (*ast.VarInit[ast.Type], error) {
	got := CheckLiteral(init.Value)
	if got != init.Type {
		return nil, diag.Checkf(diag.InitMismatch, init.Pos,
			"expected type %s for %q; got type %s", init.Type, init.Name, got)
	}
	return &ast.VarInit[ast.Type]{
		Name:  init.Name,
		Type:  init.Type,
		Value: init.Value,
		Ann:   init.Type,
		Pos:   init.Pos,
	}, nil
}

// Augment returns a new environment extending env with the program's
// variable declarations and function signatures. env is left untouched.
func Augment(env *GlobalEnv, prog *ast.Program[ast.Unit]) (*GlobalEnv, error) {
	next := env.Clone()
	for _, init := range prog.Inits {
		typed, err := CheckInit(init)
		if err != nil {
			return nil, err
		}
		next.Globals.Define(init.Name, typed.Ann)
	}
	for _, fn := range prog.Funs {
		next.Functions.Define(fn.Name, Signature{Params: fn.ParamTypes(), Ret: fn.Ret})
	}
	return next, nil
}

// CheckDef checks a function body against its signature. Parameters and
// local declarations are visible in the body ahead of globals.
func CheckDef(env *GlobalEnv, fn *ast.FunDef[ast.Unit]) (*ast.FunDef[ast.Type], error) {
	locals := EmptyLocalEnv()
	locals.ExpectedRet = fn.Ret
	for _, p := range fn.Params {
		locals.Vars.Define(p.Name, p.Type)
	}
	inits := make([]*ast.VarInit[ast.Type], 0, len(fn.Inits))
	for _, init := range fn.Inits {
		typed, err := CheckInit(init)
		if err != nil {
			return nil, err
		}
		locals.Vars.Define(init.Name, typed.Ann)
		inits = append(inits, typed)
	}

	c := &checker{env: env}
	body, err := c.block(locals, fn.Body)
	if err != nil {
		return nil, err
	}
	if got := blockType(body); got != fn.Ret {
		return nil, diag.Checkf(diag.ReturnMismatch, fn.Pos,
			"function %s has return type %s; type %s expected", fn.Name, got, fn.Ret)
	}
	return &ast.FunDef[ast.Type]{
		Name:   fn.Name,
		Params: fn.Params,
		Ret:    fn.Ret,
		Inits:  inits,
		Body:   body,
		Pos:    fn.Pos,
	}, nil
}

// Check type-checks a whole program against env. It returns the annotated
// program and the environment extended with everything the program
// declares. On error env is unchanged and no environment is returned.
func Check(env *GlobalEnv, prog *ast.Program[ast.Unit]) (*ast.Program[ast.Type], *GlobalEnv, error) {
	next, err := Augment(env, prog)
	if err != nil {
		return nil, nil, err
	}

	inits := make([]*ast.VarInit[ast.Type], 0, len(prog.Inits))
	for _, init := range prog.Inits {
		typed, err := CheckInit(init)
		if err != nil {
			return nil, nil, err
		}
		inits = append(inits, typed)
	}

	funs := make([]*ast.FunDef[ast.Type], 0, len(prog.Funs))
	for _, fn := range prog.Funs {
		typed, err := CheckDef(next, fn)
		if err != nil {
			return nil, nil, err
		}
		funs = append(funs, typed)
	}

	locals := EmptyLocalEnv()
	c := &checker{env: next}
	stmts, err := c.block(locals, prog.Stmts)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range locals.Vars.Names() {
		t, _ := locals.Vars.Lookup(name)
		next.Globals.Define(name, t)
	}

	return &ast.Program[ast.Type]{
		Inits: inits,
		Funs:  funs,
		Stmts: stmts,
		Ann:   blockType(stmts),
		Pos:   prog.Pos,
	}, next, nil
}

// blockType is the type of a block's last statement, None when empty.
func blockType(stmts []ast.Stmt[ast.Type]) ast.Type {
	if len(stmts) == 0 {
		return ast.TypeNone
	}
	return stmts[len(stmts)-1].Annotation()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type checker struct {
	env *GlobalEnv
}

func (c *checker) block(locals *LocalEnv, stmts []ast.Stmt[ast.Unit]) ([]ast.Stmt[ast.Type], error) {
	out := make([]ast.Stmt[ast.Type], 0, len(stmts))
	for _, s := range stmts {
		typed, err := c.stmt(locals, s)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

func (c *checker) stmt(locals *LocalEnv, s ast.Stmt[ast.Unit]) (ast.Stmt[ast.Type], error) {
	switch s := s.(type) {
	case *ast.AssignStmt[ast.Unit]:
		value, err := c.expr(locals, s.Value)
		if err != nil {
			return nil, err
		}
		target, ok := lookupVar(c.env, locals, s.Name)
		if !ok {
			return nil, diag.Checkf(diag.UnboundId, s.Pos, "undefined identifier %q", s.Name)
		}
		if got := value.Annotation(); !IsAssignable(c.env, got, target) {
			return nil, diag.Checkf(diag.NotAssignable, s.Pos,
				"cannot assign %s to %q of type %s", got, s.Name, target)
		}
		return &ast.AssignStmt[ast.Type]{Name: s.Name, Value: value, Ann: ast.TypeNone, Pos: s.Pos}, nil

	case *ast.ExprStmt[ast.Unit]:
		e, err := c.expr(locals, s.Expression)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt[ast.Type]{Expression: e, Ann: e.Annotation(), Pos: s.Pos}, nil

	case *ast.IfStmt[ast.Unit]:
		cond, err := c.expr(locals, s.Condition)
		if err != nil {
			return nil, err
		}
		then, err := c.block(locals, s.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.block(locals, s.Else)
		if err != nil {
			return nil, err
		}
		if got := cond.Annotation(); got != ast.TypeBool {
			return nil, diag.Checkf(diag.NonBoolCondition, s.Condition.GetPos(),
				"condition must be bool; got %s", got)
		}
		thenType, elseType := blockType(then), blockType(els)
		if thenType != elseType {
			return nil, diag.Checkf(diag.BranchMismatch, s.Pos,
				"then branch has type %s but else branch has type %s", thenType, elseType)
		}
		return &ast.IfStmt[ast.Type]{Condition: cond, Then: then, Else: els, Ann: thenType, Pos: s.Pos}, nil

	case *ast.WhileStmt[ast.Unit]:
		cond, err := c.expr(locals, s.Condition)
		if err != nil {
			return nil, err
		}
		body, err := c.block(locals, s.Body)
		if err != nil {
			return nil, err
		}
		if got := cond.Annotation(); got != ast.TypeBool {
			return nil, diag.Checkf(diag.NonBoolCondition, s.Condition.GetPos(),
				"condition must be bool; got %s", got)
		}
		return &ast.WhileStmt[ast.Type]{Condition: cond, Body: body, Ann: ast.TypeNone, Pos: s.Pos}, nil

	case *ast.ReturnStmt[ast.Unit]:
		value, err := c.expr(locals, s.Value)
		if err != nil {
			return nil, err
		}
		if got := value.Annotation(); got != locals.ExpectedRet {
			return nil, diag.Checkf(diag.ReturnMismatch, s.Pos,
				"expected return type %s; got type %s", locals.ExpectedRet, got)
		}
		return &ast.ReturnStmt[ast.Type]{Value: value, Ann: value.Annotation(), Pos: s.Pos}, nil

	case *ast.PassStmt[ast.Unit]:
		return &ast.PassStmt[ast.Type]{Ann: ast.TypeNone, Pos: s.Pos}, nil

	default:
		return nil, diag.Checkf(diag.UnsupportedOp, s.GetPos(), "unsupported statement %T", s)
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *checker) expr(locals *LocalEnv, e ast.Expr[ast.Unit]) (ast.Expr[ast.Type], error) {
	switch e := e.(type) {
	case *ast.LitExpr[ast.Unit]:
		return &ast.LitExpr[ast.Type]{Value: e.Value, Ann: CheckLiteral(e.Value), Pos: e.Pos}, nil

	case *ast.IdentExpr[ast.Unit]:
		t, ok := lookupVar(c.env, locals, e.Name)
		if !ok {
			return nil, diag.Checkf(diag.UnboundId, e.Pos, "undefined identifier %q", e.Name)
		}
		return &ast.IdentExpr[ast.Type]{Name: e.Name, Ann: t, Pos: e.Pos}, nil

	case *ast.UnaryExpr[ast.Unit]:
		return c.unary(locals, e)

	case *ast.BinaryExpr[ast.Unit]:
		return c.binary(locals, e)

	case *ast.Builtin1Expr[ast.Unit]:
		arg, err := c.expr(locals, e.Arg)
		if err != nil {
			return nil, err
		}
		if e.Name == "print" {
			return &ast.Builtin1Expr[ast.Type]{Name: e.Name, Arg: arg, Ann: arg.Annotation(), Pos: e.Pos}, nil
		}
		ret, err := c.resolveCall(e.Name, e.Pos, []ast.Expr[ast.Type]{arg})
		if err != nil {
			return nil, err
		}
		return &ast.Builtin1Expr[ast.Type]{Name: e.Name, Arg: arg, Ann: ret, Pos: e.Pos}, nil

	case *ast.Builtin2Expr[ast.Unit]:
		left, err := c.expr(locals, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(locals, e.Right)
		if err != nil {
			return nil, err
		}
		ret, err := c.resolveCall(e.Name, e.Pos, []ast.Expr[ast.Type]{left, right})
		if err != nil {
			return nil, err
		}
		return &ast.Builtin2Expr[ast.Type]{Name: e.Name, Left: left, Right: right, Ann: ret, Pos: e.Pos}, nil

	case *ast.CallExpr[ast.Unit]:
		args := make([]ast.Expr[ast.Type], 0, len(e.Args))
		for _, a := range e.Args {
			typed, err := c.expr(locals, a)
			if err != nil {
				return nil, err
			}
			args = append(args, typed)
		}
		ret, err := c.resolveCall(e.Name, e.Pos, args)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr[ast.Type]{Name: e.Name, Args: args, Ann: ret, Pos: e.Pos}, nil

	default:
		return nil, diag.Checkf(diag.UnsupportedOp, e.GetPos(), "unsupported expression %T", e)
	}
}

func (c *checker) unary(locals *LocalEnv, e *ast.UnaryExpr[ast.Unit]) (ast.Expr[ast.Type], error) {
	operand, err := c.expr(locals, e.Operand)
	if err != nil {
		return nil, err
	}
	want := ast.TypeNum
	if e.Op == ast.Not {
		want = ast.TypeBool
	}
	if got := operand.Annotation(); got != want {
		return nil, diag.Checkf(diag.OperandType, e.Pos,
			"operator %s expects %s; got %s", e.Op, want, got)
	}
	return &ast.UnaryExpr[ast.Type]{Op: e.Op, Operand: operand, Ann: want, Pos: e.Pos}, nil
}

func (c *checker) binary(locals *LocalEnv, e *ast.BinaryExpr[ast.Unit]) (ast.Expr[ast.Type], error) {
	left, err := c.expr(locals, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.expr(locals, e.Right)
	if err != nil {
		return nil, err
	}
	lt, rt := left.Annotation(), right.Annotation()

	var result ast.Type
	switch {
	case arithOps.Contains(e.Op):
		if lt != ast.TypeNum || rt != ast.TypeNum {
			return nil, operandError(e, lt, rt)
		}
		result = ast.TypeNum
	case equalityOps.Contains(e.Op):
		if lt != rt {
			return nil, operandError(e, lt, rt)
		}
		result = ast.TypeBool
	case orderOps.Contains(e.Op):
		if lt != ast.TypeNum || rt != ast.TypeNum {
			return nil, operandError(e, lt, rt)
		}
		result = ast.TypeBool
	case logicOps.Contains(e.Op):
		if lt != ast.TypeBool || rt != ast.TypeBool {
			return nil, operandError(e, lt, rt)
		}
		result = ast.TypeBool
	default:
		return nil, diag.Checkf(diag.UnsupportedOp, e.Pos, "operator %s is not supported", e.Op)
	}
	return &ast.BinaryExpr[ast.Type]{Op: e.Op, Left: left, Right: right, Ann: result, Pos: e.Pos}, nil
}

func operandError(e *ast.BinaryExpr[ast.Unit], lt, rt ast.Type) error {
	return diag.Checkf(diag.OperandType, e.Pos,
		"type mismatch for operator %s: %s and %s", e.Op, lt, rt)
}

// resolveCall looks name up among the known functions and matches the
// argument types against its parameters exactly.
func (c *checker) resolveCall(name string, pos ast.Position, args []ast.Expr[ast.Type]) (ast.Type, error) {
	sig, ok := c.env.Functions.Lookup(name)
	if !ok {
		return ast.Type{}, diag.Checkf(diag.UndefinedFunction, pos, "undefined function %q", name)
	}
	got := make([]ast.Type, len(args))
	for i, a := range args {
		got[i] = a.Annotation()
	}
	if !slices.Equal(got, sig.Params) {
		return ast.Type{}, diag.Checkf(diag.CallMismatch, pos,
			"function call type mismatch: %s%s called with %s", name, sig, typeList(got))
	}
	return sig.Ret, nil
}

func typeList(ts []ast.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
