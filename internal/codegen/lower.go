package codegen

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"pyrite/internal/ast"
	"pyrite/internal/diag"
)

// Names of the two functions every lowered program gets.
const (
	InitFuncName = "$init"
	MainFuncName = "$main"
)

// Runtime imports operators lower to.
var binOpImports = map[ast.BinOp]string{
	ast.Plus:  "plus",
	ast.Minus: "minus",
	ast.Mul:   "mul",
	ast.IDiv:  "iDiv",
	ast.Mod:   "mod",
	ast.Eq:    "eq",
	ast.Neq:   "neq",
	ast.Lte:   "lte",
	ast.Gte:   "gte",
	ast.Lt:    "lt",
	ast.Gt:    "gt",
}

// printImports picks the print entry point from the static type of the
// argument.
var printImports = map[ast.TypeKind]string{
	ast.KindNum:   "print_num",
	ast.KindBool:  "print_bool",
	ast.KindNone:  "print_none",
	ast.KindClass: "print_object",
}

// ---------------------------------------------------------------------------
// Lowerer translates a checked Program into an IRModule
// ---------------------------------------------------------------------------

// Lowerer walks the annotated tree and produces IR instructions.
type Lowerer struct {
	module *IRModule
	fn     *IRFunc // current function being lowered

	nextVReg  int
	nextLabel int

	// Local slots of the current function; nil at top level, where every
	// name is a global.
	locals map[string]int

	err error
}

// Lower translates a checked program into an IRModule. The module holds the
// program's functions plus $init, which stores the global initial values,
// and $main, which runs the top-level statements and returns the value of
// the last one.
func Lower(program *ast.Program[ast.Type]) (*IRModule, error) {
	l := &Lowerer{
		module: &IRModule{
			InitFunc:  InitFuncName,
			EntryFunc: MainFuncName,
			Imports:   set.New[string](8),
		},
	}

	l.lowerInits(program.Inits)
	for _, fn := range program.Funs {
		l.lowerFunction(fn)
	}
	l.lowerMain(program)

	if l.err != nil {
		return nil, l.err
	}
	return l.module, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (l *Lowerer) freshVReg() int {
	r := l.nextVReg
	l.nextVReg++
	return r
}

func (l *Lowerer) freshLabel(prefix string) string {
	lbl := fmt.Sprintf(".L%s_%d", prefix, l.nextLabel)
	l.nextLabel++
	return lbl
}

func (l *Lowerer) emit(instr IRInstr) {
	l.fn.Emit(instr)
}

func (l *Lowerer) emitComment(text string) {
	l.emit(IRInstr{Op: IRComment, Src1: LabelOp(text)})
}

func (l *Lowerer) fail(pos ast.Position, format string, args ...any) Operand {
	if l.err == nil {
		l.err = diag.Checkf(diag.UnsupportedOp, pos, format, args...)
	}
	return Imm(0)
}

// allocLocal returns the slot for name, allocating one on first use.
func (l *Lowerer) allocLocal(name string) int {
	if slot, ok := l.locals[name]; ok {
		return slot
	}
	slot := len(l.locals)
	l.locals[name] = slot
	return slot
}

func (l *Lowerer) callImport(name string, args ...Operand) Operand {
	l.module.Imports.Insert(name)
	dst := l.freshVReg()
	l.emit(IRInstr{Op: IRCallImport, Dst: VReg(dst), Src1: LabelOp(name), Args: args})
	return VReg(dst)
}

// begin starts a new function and makes it current.
func (l *Lowerer) begin(fn *IRFunc, locals map[string]int) {
	l.fn = fn
	l.nextVReg = 0
	l.locals = locals
	l.emit(IRInstr{Op: IRLabel, Dst: LabelOp(fn.Name)})
}

// finish closes the current function with a return of val, unless it
// already ends in one, and adds it to the module.
func (l *Lowerer) finish(val Operand) {
	n := len(l.fn.Instrs)
	if n == 0 || l.fn.Instrs[n-1].Op != IRRet {
		l.emit(IRInstr{Op: IRRet, Src1: val})
	}
	l.fn.VRegs = l.nextVReg
	l.fn.Locals = len(l.locals)
	l.module.Functions = append(l.module.Functions, l.fn)
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerInits(inits []*ast.VarInit[ast.Type]) {
	l.begin(&IRFunc{Name: InitFuncName}, nil)
	for _, init := range inits {
		val := l.lowerLiteral(init.Value)
		l.emit(IRInstr{Op: IRStoreGlobal, Dst: Global(init.Name), Src1: val})
		l.module.Globals = append(l.module.Globals, init.Name)
	}
	l.finish(Imm(0))
}

func (l *Lowerer) lowerFunction(fn *ast.FunDef[ast.Type]) {
	irFn := &IRFunc{
		Name:       fn.Name,
		ParamCount: len(fn.Params),
		ParamNames: make([]string, len(fn.Params)),
	}
	l.begin(irFn, map[string]int{})
	l.emitComment(fmt.Sprintf("function %s -> %s", fn.Name, fn.Ret))

	for i, param := range fn.Params {
		irFn.ParamNames[i] = param.Name
		l.allocLocal(param.Name)
	}
	for _, init := range fn.Inits {
		slot := l.allocLocal(init.Name)
		val := l.lowerLiteral(init.Value)
		l.emit(IRInstr{Op: IRStoreLocal, Dst: Local(slot), Src1: val})
	}

	l.finish(l.lowerBlock(fn.Body))
}

func (l *Lowerer) lowerMain(program *ast.Program[ast.Type]) {
	l.begin(&IRFunc{Name: MainFuncName}, nil)
	val := l.lowerBlock(program.Stmts)
	if program.Ann == ast.TypeNum {
		val = l.callImport("print_last_num", val)
	}
	l.finish(val)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// lowerBlock lowers stmts and returns the value of the last one.
func (l *Lowerer) lowerBlock(stmts []ast.Stmt[ast.Type]) Operand {
	val := Imm(0)
	for _, stmt := range stmts {
		val = l.lowerStmt(stmt)
	}
	return val
}

func (l *Lowerer) lowerStmt(stmt ast.Stmt[ast.Type]) Operand {
	switch s := stmt.(type) {
	case *ast.AssignStmt[ast.Type]:
		val := l.lowerExpr(s.Value)
		if slot, ok := l.locals[s.Name]; ok {
			l.emit(IRInstr{Op: IRStoreLocal, Dst: Local(slot), Src1: val})
		} else {
			l.emit(IRInstr{Op: IRStoreGlobal, Dst: Global(s.Name), Src1: val})
		}
		return Imm(0)
	case *ast.ExprStmt[ast.Type]:
		return l.lowerExpr(s.Expression)
	case *ast.IfStmt[ast.Type]:
		return l.lowerIfStmt(s)
	case *ast.WhileStmt[ast.Type]:
		l.lowerWhileStmt(s)
		return Imm(0)
	case *ast.ReturnStmt[ast.Type]:
		val := l.lowerExpr(s.Value)
		l.emit(IRInstr{Op: IRRet, Src1: val})
		return val
	case *ast.PassStmt[ast.Type]:
		return Imm(0)
	default:
		return l.fail(stmt.GetPos(), "cannot lower statement %T", stmt)
	}
}

// lowerIfStmt leaves the value of whichever branch ran in a fresh register.
func (l *Lowerer) lowerIfStmt(s *ast.IfStmt[ast.Type]) Operand {
	condOp := l.lowerExpr(s.Condition)
	elseLabel := l.freshLabel("else")
	endLabel := l.freshLabel("endif")
	result := l.freshVReg()

	l.emit(IRInstr{Op: IRJmpNot, Src1: condOp, Dst: LabelOp(elseLabel)})
	thenVal := l.lowerBlock(s.Then)
	l.emit(IRInstr{Op: IRMov, Dst: VReg(result), Src1: thenVal})
	l.emit(IRInstr{Op: IRJmp, Dst: LabelOp(endLabel)})

	l.emit(IRInstr{Op: IRLabel, Dst: LabelOp(elseLabel)})
	elseVal := l.lowerBlock(s.Else)
	l.emit(IRInstr{Op: IRMov, Dst: VReg(result), Src1: elseVal})

	l.emit(IRInstr{Op: IRLabel, Dst: LabelOp(endLabel)})
	return VReg(result)
}

func (l *Lowerer) lowerWhileStmt(s *ast.WhileStmt[ast.Type]) {
	condLabel := l.freshLabel("while_cond")
	endLabel := l.freshLabel("while_end")

	l.emit(IRInstr{Op: IRLabel, Dst: LabelOp(condLabel)})
	condOp := l.lowerExpr(s.Condition)
	l.emit(IRInstr{Op: IRJmpNot, Src1: condOp, Dst: LabelOp(endLabel)})
	l.lowerBlock(s.Body)
	l.emit(IRInstr{Op: IRJmp, Dst: LabelOp(condLabel)})
	l.emit(IRInstr{Op: IRLabel, Dst: LabelOp(endLabel)})
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerLiteral(lit ast.Literal) Operand {
	if lit.Kind == ast.LitBool {
		if lit.Bool {
			return Imm(1)
		}
		return Imm(0)
	}
	dst := l.freshVReg()
	l.emit(IRInstr{Op: IRConstNum, Dst: VReg(dst), Src1: BigLit(lit.Num)})
	return VReg(dst)
}

func (l *Lowerer) lowerExpr(expr ast.Expr[ast.Type]) Operand {
	switch e := expr.(type) {
	case *ast.LitExpr[ast.Type]:
		return l.lowerLiteral(e.Value)

	case *ast.IdentExpr[ast.Type]:
		dst := l.freshVReg()
		if slot, ok := l.locals[e.Name]; ok {
			l.emit(IRInstr{Op: IRLoadLocal, Dst: VReg(dst), Src1: Local(slot)})
		} else {
			l.emit(IRInstr{Op: IRLoadGlobal, Dst: VReg(dst), Src1: Global(e.Name)})
		}
		return VReg(dst)

	case *ast.UnaryExpr[ast.Type]:
		operand := l.lowerExpr(e.Operand)
		switch e.Op {
		case ast.Neg:
			zero := l.lowerLiteral(ast.Literal{Kind: ast.LitNum, Num: "0"})
			return l.callImport("minus", zero, operand)
		case ast.Not:
			dst := l.freshVReg()
			l.emit(IRInstr{Op: IRNot, Dst: VReg(dst), Src1: operand})
			return VReg(dst)
		}
		return l.fail(e.Pos, "cannot lower unary operator %s", e.Op)

	case *ast.BinaryExpr[ast.Type]:
		return l.lowerBinaryExpr(e)

	case *ast.Builtin1Expr[ast.Type]:
		arg := l.lowerExpr(e.Arg)
		if e.Name == "print" {
			return l.callImport(printImports[e.Arg.Annotation().Kind], arg)
		}
		return l.lowerCall(e.Name, arg)

	case *ast.Builtin2Expr[ast.Type]:
		left := l.lowerExpr(e.Left)
		right := l.lowerExpr(e.Right)
		return l.lowerCall(e.Name, left, right)

	case *ast.CallExpr[ast.Type]:
		args := make([]Operand, len(e.Args))
		for i, a := range e.Args {
			args[i] = l.lowerExpr(a)
		}
		return l.lowerCall(e.Name, args...)

	default:
		return l.fail(expr.GetPos(), "cannot lower expression %T", expr)
	}
}

// lowerCall calls a function by name. The callee is resolved when the code
// runs: a defined function first, then a runtime import of the same name.
func (l *Lowerer) lowerCall(name string, args ...Operand) Operand {
	dst := l.freshVReg()
	l.emit(IRInstr{Op: IRCall, Dst: VReg(dst), Src1: LabelOp(name), Args: args})
	return VReg(dst)
}

func (l *Lowerer) lowerBinaryExpr(e *ast.BinaryExpr[ast.Type]) Operand {
	left := l.lowerExpr(e.Left)
	right := l.lowerExpr(e.Right)

	switch e.Op {
	case ast.Plus, ast.Minus, ast.Mul, ast.IDiv, ast.Mod,
		ast.Lte, ast.Gte, ast.Lt, ast.Gt:
		return l.callImport(binOpImports[e.Op], left, right)

	case ast.Eq, ast.Neq:
		// Integers compare by value, everything else by word.
		if e.Left.Annotation() == ast.TypeNum {
			return l.callImport(binOpImports[e.Op], left, right)
		}
		op := IRCmpEq
		if e.Op == ast.Neq {
			op = IRCmpNe
		}
		dst := l.freshVReg()
		l.emit(IRInstr{Op: op, Dst: VReg(dst), Src1: left, Src2: right})
		return VReg(dst)

	case ast.And, ast.Or:
		op := IRAnd
		if e.Op == ast.Or {
			op = IROr
		}
		dst := l.freshVReg()
		l.emit(IRInstr{Op: op, Dst: VReg(dst), Src1: left, Src2: right})
		return VReg(dst)
	}
	return l.fail(e.Pos, "cannot lower operator %s", e.Op)
}
