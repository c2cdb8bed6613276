// Package diag defines the error value shared by the checker and the
// runtime. There are exactly two kinds: checking errors, raised before a
// program runs, and runtime errors, raised while compiled code executes.
package diag

import (
	"errors"
	"fmt"

	"pyrite/internal/ast"
)

// Kind separates static checking failures from runtime failures.
type Kind int

const (
	Checking Kind = iota
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Checking:
		return "type error"
	case Runtime:
		return "runtime error"
	default:
		return "unknown"
	}
}

// Code identifies the rule that was violated.
type Code int

const (
	// Checking codes.
	UnboundId Code = iota
	NotAssignable
	NonBoolCondition
	BranchMismatch
	ReturnMismatch
	UnsupportedOp
	UndefinedFunction
	CallMismatch
	InitMismatch
	OperandType

	// Runtime codes.
	NoneValue
	UnknownOperator
	DivisionByZero
	CorruptRecord
	OutOfMemory
	BadAccess
	UnknownImport
	StackOverflow
	Overflow
	InvalidArgument
)

var codeNames = map[Code]string{
	UnboundId:         "unbound identifier",
	NotAssignable:     "non-assignable type",
	NonBoolCondition:  "non-bool condition",
	BranchMismatch:    "branch type mismatch",
	ReturnMismatch:    "return type mismatch",
	UnsupportedOp:     "unsupported operator",
	UndefinedFunction: "undefined function",
	CallMismatch:      "call type mismatch",
	InitMismatch:      "initializer type mismatch",
	OperandType:       "operand type mismatch",
	NoneValue:         "none value",
	UnknownOperator:   "unknown operator",
	DivisionByZero:    "division by zero",
	CorruptRecord:     "corrupt integer record",
	OutOfMemory:       "out of memory",
	BadAccess:         "bad memory access",
	UnknownImport:     "unknown import",
	StackOverflow:     "stack overflow",
	Overflow:          "machine word overflow",
	InvalidArgument:   "invalid argument",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code_%d", int(c))
}

// Error is a single checking or runtime failure. Pos is only meaningful
// when HasPos is set.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Pos     ast.Position
	HasPos  bool
}

func (e *Error) Error() string {
	if e.HasPos {
		return fmt.Sprintf("line %d, col %d: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Checkf builds a checking error located at pos.
func Checkf(code Code, pos ast.Position, format string, args ...any) *Error {
	return &Error{
		Kind:    Checking,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		HasPos:  true,
	}
}

// Runtimef builds a runtime error.
func Runtimef(code Code, format string, args ...any) *Error {
	return &Error{
		Kind:    Runtime,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsCode reports whether err carries a diag.Error with the given code.
func IsCode(err error, code Code) bool {
	d, ok := As(err)
	return ok && d.Code == code
}
