package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Annotations
// ---------------------------------------------------------------------------

// Unit is the annotation carried by a tree that has not been type-checked.
type Unit struct{}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node. T is the annotation slot:
// Unit before checking, Type after.
type Stmt[T any] interface {
	Node
	Annotation() T
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr[T any] interface {
	Node
	Annotation() T
	exprNode()
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinOp is a binary operator.
type BinOp int

const (
	Plus BinOp = iota
	Minus
	Mul
	IDiv
	Mod
	Eq
	Neq
	Lte
	Gte
	Lt
	Gt
	And
	Or
	Is
)

var binOpNames = [...]string{
	Plus: "+", Minus: "-", Mul: "*", IDiv: "//", Mod: "%",
	Eq: "==", Neq: "!=", Lte: "<=", Gte: ">=", Lt: "<", Gt: ">",
	And: "and", Or: "or", Is: "is",
}

func (op BinOp) String() string {
	if op >= 0 && int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return fmt.Sprintf("binop(%d)", int(op))
}

// UniOp is a unary operator.
type UniOp int

const (
	Neg UniOp = iota
	Not
)

func (op UniOp) String() string {
	switch op {
	case Neg:
		return "-"
	case Not:
		return "not"
	default:
		return fmt.Sprintf("uniop(%d)", int(op))
	}
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// LitKind tags a literal value.
type LitKind int

const (
	LitNum LitKind = iota
	LitBool
)

// Literal is a constant written in source. Numbers keep their decimal text
// so that values wider than a machine word reach the runtime intact.
type Literal struct {
	Kind LitKind
	Num  string
	Bool bool
	Pos  Position
}

func (l Literal) String() string {
	if l.Kind == LitBool {
		if l.Bool {
			return "True"
		}
		return "False"
	}
	return l.Num
}

// ---------------------------------------------------------------------------
// Program (root) and declarations
// ---------------------------------------------------------------------------

// Program is a compilation unit: variable declarations, function
// definitions and the top-level statements, in that order.
type Program[T any] struct {
	Inits []*VarInit[T]
	Funs  []*FunDef[T]
	Stmts []Stmt[T]
	Ann   T
	Pos   Position
}

func (n *Program[T]) GetPos() Position { return n.Pos }

// VarInit declares a variable with a literal initializer: x : int = 5
type VarInit[T any] struct {
	Name  string
	Type  Type
	Value Literal
	Ann   T
	Pos   Position
}

func (n *VarInit[T]) GetPos() Position { return n.Pos }

// Param is a typed function parameter.
type Param struct {
	Name string
	Type Type
	Pos  Position
}

// FunDef is a function definition with its local declarations and body.
type FunDef[T any] struct {
	Name   string
	Params []Param
	Ret    Type
	Inits  []*VarInit[T]
	Body   []Stmt[T]
	Pos    Position
}

func (n *FunDef[T]) GetPos() Position { return n.Pos }

// ParamTypes returns the parameter types in declaration order.
func (n *FunDef[T]) ParamTypes() []Type {
	out := make([]Type, len(n.Params))
	for i, p := range n.Params {
		out[i] = p.Type
	}
	return out
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// AssignStmt: <name> = <value>
type AssignStmt[T any] struct {
	Name  string
	Value Expr[T]
	Ann   T
	Pos   Position
}

func (n *AssignStmt[T]) GetPos() Position { return n.Pos }
func (n *AssignStmt[T]) Annotation() T    { return n.Ann }
func (n *AssignStmt[T]) stmtNode()        {}

// ExprStmt wraps a bare expression used as a statement.
type ExprStmt[T any] struct {
	Expression Expr[T]
	Ann        T
	Pos        Position
}

func (n *ExprStmt[T]) GetPos() Position { return n.Pos }
func (n *ExprStmt[T]) Annotation() T    { return n.Ann }
func (n *ExprStmt[T]) stmtNode()        {}

// IfStmt: if <cond>: <then> else: <else>
type IfStmt[T any] struct {
	Condition Expr[T]
	Then      []Stmt[T]
	Else      []Stmt[T]
	Ann       T
	Pos       Position
}

func (n *IfStmt[T]) GetPos() Position { return n.Pos }
func (n *IfStmt[T]) Annotation() T    { return n.Ann }
func (n *IfStmt[T]) stmtNode()        {}

// WhileStmt: while <cond>: <body>
type WhileStmt[T any] struct {
	Condition Expr[T]
	Body      []Stmt[T]
	Ann       T
	Pos       Position
}

func (n *WhileStmt[T]) GetPos() Position { return n.Pos }
func (n *WhileStmt[T]) Annotation() T    { return n.Ann }
func (n *WhileStmt[T]) stmtNode()        {}

// ReturnStmt: return <value>
type ReturnStmt[T any] struct {
	Value Expr[T]
	Ann   T
	Pos   Position
}

func (n *ReturnStmt[T]) GetPos() Position { return n.Pos }
func (n *ReturnStmt[T]) Annotation() T    { return n.Ann }
func (n *ReturnStmt[T]) stmtNode()        {}

// PassStmt: pass
type PassStmt[T any] struct {
	Ann T
	Pos Position
}

func (n *PassStmt[T]) GetPos() Position { return n.Pos }
func (n *PassStmt[T]) Annotation() T    { return n.Ann }
func (n *PassStmt[T]) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// LitExpr is a literal used as an expression.
type LitExpr[T any] struct {
	Value Literal
	Ann   T
	Pos   Position
}

func (n *LitExpr[T]) GetPos() Position { return n.Pos }
func (n *LitExpr[T]) Annotation() T    { return n.Ann }
func (n *LitExpr[T]) exprNode()        {}

// IdentExpr is a plain identifier reference.
type IdentExpr[T any] struct {
	Name string
	Ann  T
	Pos  Position
}

func (n *IdentExpr[T]) GetPos() Position { return n.Pos }
func (n *IdentExpr[T]) Annotation() T    { return n.Ann }
func (n *IdentExpr[T]) exprNode()        {}

// UnaryExpr: <op> <operand>  (-x, not b)
type UnaryExpr[T any] struct {
	Op      UniOp
	Operand Expr[T]
	Ann     T
	Pos     Position
}

func (n *UnaryExpr[T]) GetPos() Position { return n.Pos }
func (n *UnaryExpr[T]) Annotation() T    { return n.Ann }
func (n *UnaryExpr[T]) exprNode()        {}

// BinaryExpr: <left> <op> <right>
type BinaryExpr[T any] struct {
	Op    BinOp
	Left  Expr[T]
	Right Expr[T]
	Ann   T
	Pos   Position
}

func (n *BinaryExpr[T]) GetPos() Position { return n.Pos }
func (n *BinaryExpr[T]) Annotation() T    { return n.Ann }
func (n *BinaryExpr[T]) exprNode()        {}

// Builtin1Expr is a single-argument builtin call such as print(x) or abs(x).
type Builtin1Expr[T any] struct {
	Name string
	Arg  Expr[T]
	Ann  T
	Pos  Position
}

func (n *Builtin1Expr[T]) GetPos() Position { return n.Pos }
func (n *Builtin1Expr[T]) Annotation() T    { return n.Ann }
func (n *Builtin1Expr[T]) exprNode()        {}

// Builtin2Expr is a two-argument builtin call such as max(a, b).
type Builtin2Expr[T any] struct {
	Name  string
	Left  Expr[T]
	Right Expr[T]
	Ann   T
	Pos   Position
}

func (n *Builtin2Expr[T]) GetPos() Position { return n.Pos }
func (n *Builtin2Expr[T]) Annotation() T    { return n.Ann }
func (n *Builtin2Expr[T]) exprNode()        {}

// CallExpr is a call to a user-defined function.
type CallExpr[T any] struct {
	Name string
	Args []Expr[T]
	Ann  T
	Pos  Position
}

func (n *CallExpr[T]) GetPos() Position { return n.Pos }
func (n *CallExpr[T]) Annotation() T    { return n.Ann }
func (n *CallExpr[T]) exprNode()        {}

// ---------------------------------------------------------------------------
// Debug printer – produces a human-readable tree representation
// ---------------------------------------------------------------------------

// DebugString returns a readable multi-line representation of the AST.
// Annotations are shown after a colon once the tree has been checked.
func DebugString[T any](prog *Program[T]) string {
	var b strings.Builder
	debugProgram(&b, prog, 0)
	return b.String()
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func annString(a any) string {
	if _, ok := a.(Unit); ok {
		return ""
	}
	return fmt.Sprintf(" : %v", a)
}

func debugProgram[T any](b *strings.Builder, prog *Program[T], level int) {
	writeIndent(b, level)
	fmt.Fprintf(b, "Program%s\n", annString(prog.Ann))
	for _, v := range prog.Inits {
		writeIndent(b, level+1)
		fmt.Fprintf(b, "Var %s: %s = %s\n", v.Name, v.Type, v.Value)
	}
	for _, fn := range prog.Funs {
		debugFunDef(b, fn, level+1)
	}
	debugBlock(b, prog.Stmts, level+1)
}

func debugFunDef[T any](b *strings.Builder, fn *FunDef[T], level int) {
	writeIndent(b, level)
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name + ": " + p.Type.String()
	}
	fmt.Fprintf(b, "Def %s(%s) -> %s\n", fn.Name, strings.Join(params, ", "), fn.Ret)
	for _, v := range fn.Inits {
		writeIndent(b, level+1)
		fmt.Fprintf(b, "Var %s: %s = %s\n", v.Name, v.Type, v.Value)
	}
	debugBlock(b, fn.Body, level+1)
}

func debugBlock[T any](b *strings.Builder, stmts []Stmt[T], level int) {
	for _, s := range stmts {
		debugStmt(b, s, level)
	}
}

func debugStmt[T any](b *strings.Builder, s Stmt[T], level int) {
	writeIndent(b, level)
	switch s := s.(type) {
	case *AssignStmt[T]:
		fmt.Fprintf(b, "Assign %s = %s%s\n", s.Name, ExprString(s.Value), annString(s.Ann))
	case *ExprStmt[T]:
		fmt.Fprintf(b, "Expr %s%s\n", ExprString(s.Expression), annString(s.Ann))
	case *ReturnStmt[T]:
		fmt.Fprintf(b, "Return %s%s\n", ExprString(s.Value), annString(s.Ann))
	case *PassStmt[T]:
		fmt.Fprintf(b, "Pass%s\n", annString(s.Ann))
	case *IfStmt[T]:
		fmt.Fprintf(b, "If %s%s\n", ExprString(s.Condition), annString(s.Ann))
		debugBlock(b, s.Then, level+1)
		writeIndent(b, level)
		b.WriteString("Else\n")
		debugBlock(b, s.Else, level+1)
	case *WhileStmt[T]:
		fmt.Fprintf(b, "While %s%s\n", ExprString(s.Condition), annString(s.Ann))
		debugBlock(b, s.Body, level+1)
	default:
		b.WriteString("<unknown stmt>\n")
	}
}

// ExprString returns a concise one-line representation of an expression.
func ExprString[T any](e Expr[T]) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *LitExpr[T]:
		return e.Value.String()
	case *IdentExpr[T]:
		return e.Name
	case *UnaryExpr[T]:
		if e.Op == Not {
			return fmt.Sprintf("(not %s)", ExprString(e.Operand))
		}
		return fmt.Sprintf("(-%s)", ExprString(e.Operand))
	case *BinaryExpr[T]:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *Builtin1Expr[T]:
		return fmt.Sprintf("%s(%s)", e.Name, ExprString(e.Arg))
	case *Builtin2Expr[T]:
		return fmt.Sprintf("%s(%s, %s)", e.Name, ExprString(e.Left), ExprString(e.Right))
	case *CallExpr[T]:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
	default:
		return "<unknown expr>"
	}
}
