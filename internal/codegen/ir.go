package codegen

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"
)

// ---------------------------------------------------------------------------
// IR: a flat three-address instruction list per function
//
// Every value is a machine word: integers are addresses of integer records
// in the runtime's memory, booleans are 0 or 1 and None is 0. Arithmetic on
// integers never happens in the IR itself; it is a call into the runtime.
// ---------------------------------------------------------------------------

// OpKind describes what an IR operand represents.
type OpKind int

const (
	OpNone      OpKind = iota // unused operand slot
	OpVirtReg                 // virtual register, numbered per function
	OpImmediate               // word literal
	OpBigLit                  // decimal integer literal, encoded at run time
	OpLocal                   // local variable slot (parameters first)
	OpGlobal                  // global variable by name
	OpLabel                   // label reference (branch target / callee / import)
)

// Operand is a single value in an IR instruction.
type Operand struct {
	Kind  OpKind
	Reg   int    // virtual register or local slot
	Imm   int64  // OpImmediate
	Text  string // OpBigLit digits
	Label string // OpLabel and OpGlobal name
}

func (o Operand) String() string {
	switch o.Kind {
	case OpNone:
		return "<none>"
	case OpVirtReg:
		return fmt.Sprintf("v%d", o.Reg)
	case OpImmediate:
		return fmt.Sprintf("$%d", o.Imm)
	case OpBigLit:
		return "#" + o.Text
	case OpLocal:
		return fmt.Sprintf("local[%d]", o.Reg)
	case OpGlobal:
		return "@" + o.Label
	case OpLabel:
		return o.Label
	default:
		return "?"
	}
}

// Convenience constructors for operands.
func VReg(n int) Operand          { return Operand{Kind: OpVirtReg, Reg: n} }
func Imm(val int64) Operand       { return Operand{Kind: OpImmediate, Imm: val} }
func BigLit(text string) Operand  { return Operand{Kind: OpBigLit, Text: text} }
func Local(slot int) Operand      { return Operand{Kind: OpLocal, Reg: slot} }
func Global(name string) Operand  { return Operand{Kind: OpGlobal, Label: name} }
func LabelOp(name string) Operand { return Operand{Kind: OpLabel, Label: name} }
func None() Operand               { return Operand{Kind: OpNone} }

// ---------------------------------------------------------------------------
// IR opcodes
// ---------------------------------------------------------------------------

// IROp is an IR instruction opcode.
type IROp int

const (
	// Data movement
	IRConstNum    IROp = iota // dst = address of a fresh record holding Src1 (OpBigLit)
	IRMov                     // dst = src1
	IRLoadGlobal              // dst = global src1
	IRStoreGlobal             // global dst = src1
	IRLoadLocal               // dst = local src1
	IRStoreLocal              // local dst = src1

	// Calls
	IRCallImport // dst = runtime import src1(args...)
	IRCall       // dst = function src1(args...)

	// Word logic
	IRNot   // dst = !src1
	IRAnd   // dst = src1 & src2
	IROr    // dst = src1 | src2
	IRCmpEq // dst = (src1 == src2)
	IRCmpNe // dst = (src1 != src2)

	// Control flow
	IRJmp    // goto dst
	IRJmpNot // if src1 == 0 goto dst
	IRLabel  // label definition
	IRRet    // return src1

	IRComment // src1 = label with comment text
)

var irOpNames = map[IROp]string{
	IRConstNum: "const_num", IRMov: "mov",
	IRLoadGlobal: "load_global", IRStoreGlobal: "store_global",
	IRLoadLocal: "load_local", IRStoreLocal: "store_local",
	IRCallImport: "call_import", IRCall: "call",
	IRNot: "not", IRAnd: "and", IROr: "or",
	IRCmpEq: "cmp_eq", IRCmpNe: "cmp_ne",
	IRJmp: "jmp", IRJmpNot: "jmp_not", IRLabel: "label", IRRet: "ret",
	IRComment: "comment",
}

func (op IROp) String() string {
	if s, ok := irOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("irop_%d", int(op))
}

// ---------------------------------------------------------------------------
// IR Instruction
// ---------------------------------------------------------------------------

// IRInstr is a single IR instruction.
type IRInstr struct {
	Op   IROp
	Dst  Operand   // destination (or label for IRLabel/IRJmp)
	Src1 Operand   // first source
	Src2 Operand   // second source
	Args []Operand // call arguments
}

func (i IRInstr) String() string {
	s := i.Op.String()
	if i.Dst.Kind != OpNone {
		s += " " + i.Dst.String()
	}
	if i.Src1.Kind != OpNone {
		s += ", " + i.Src1.String()
	}
	if i.Src2.Kind != OpNone {
		s += ", " + i.Src2.String()
	}
	for _, a := range i.Args {
		s += ", " + a.String()
	}
	return s
}

// ---------------------------------------------------------------------------
// IR Function / Module
// ---------------------------------------------------------------------------

// IRFunc represents a single function in IR form.
type IRFunc struct {
	Name       string
	ParamNames []string // parameter names (in order)
	ParamCount int
	Instrs     []IRInstr
	Locals     int // local slots, parameters included
	VRegs      int // virtual registers used
}

// Emit appends an instruction to the function.
func (f *IRFunc) Emit(instr IRInstr) {
	f.Instrs = append(f.Instrs, instr)
}

// Labels maps every label defined in f to the index of its IRLabel
// instruction.
func (f *IRFunc) Labels() map[string]int {
	labels := map[string]int{}
	for i, instr := range f.Instrs {
		if instr.Op == IRLabel {
			labels[instr.Dst.Label] = i
		}
	}
	return labels
}

// IRModule is the lowered form of one checked program.
type IRModule struct {
	Functions []*IRFunc
	Globals   []string // globals declared by this program, in order
	InitFunc  string   // stores the global initial values
	EntryFunc string   // runs the top-level statements
	Imports   *set.Set[string]
}

// Func returns the function with the given name, or nil.
func (m *IRModule) Func(name string) *IRFunc {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// ImportNames returns the runtime imports the module calls, sorted.
func (m *IRModule) ImportNames() []string {
	if m.Imports == nil {
		return nil
	}
	names := m.Imports.Slice()
	slices.Sort(names)
	return names
}

// DebugDump returns a human-readable representation of the entire IR module.
func (m *IRModule) DebugDump() string {
	var s strings.Builder
	fmt.Fprintf(&s, "=== IR Module (entry: %s, %d globals, %d functions) ===\n",
		m.EntryFunc, len(m.Globals), len(m.Functions))
	if names := m.ImportNames(); len(names) > 0 {
		fmt.Fprintf(&s, "  imports: %s\n", strings.Join(names, ", "))
	}
	for _, g := range m.Globals {
		fmt.Fprintf(&s, "  global %s\n", g)
	}
	for _, fn := range m.Functions {
		fmt.Fprintf(&s, "\nfunc %s (params=%d, locals=%d, vregs=%d):\n",
			fn.Name, fn.ParamCount, fn.Locals, fn.VRegs)
		for _, instr := range fn.Instrs {
			fmt.Fprintf(&s, "  %s\n", instr.String())
		}
	}
	return s.String()
}
