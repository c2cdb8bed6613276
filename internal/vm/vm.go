// Package vm executes lowered IR modules. It stands where a host would
// instantiate compiled code: runtime imports are resolved by name, globals
// live in the machine, and integers live in the runtime's memory.
//
// Globals and functions persist across Load calls, so a session can load
// one module per snippet and keep building on earlier definitions.
package vm

import (
	"golang.org/x/exp/maps"

	"pyrite/internal/bignum"
	"pyrite/internal/codegen"
	"pyrite/internal/diag"
	"pyrite/internal/logx"
	"pyrite/internal/runtime"
)

// DefaultMaxCallDepth bounds nested calls.
const DefaultMaxCallDepth = 1000

// Machine holds the loaded functions and global values.
type Machine struct {
	rt        *runtime.Runtime
	imports   map[string]runtime.Import
	globals   map[string]int64
	functions map[string]*loadedFunc

	maxDepth int
	depth    int
	log      *logx.Logger
}

type loadedFunc struct {
	fn     *codegen.IRFunc
	labels map[string]int
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxCallDepth sets the call depth at which execution stops with a
// stack overflow.
func WithMaxCallDepth(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

// WithLogger attaches a debug logger.
func WithLogger(l *logx.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// New returns an empty machine bound to rt.
func New(rt *runtime.Runtime, opts ...Option) *Machine {
	m := &Machine{
		rt:        rt,
		imports:   rt.Imports(),
		globals:   map[string]int64{},
		functions: map[string]*loadedFunc{},
		maxDepth:  DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Runtime returns the runtime the machine calls into.
func (m *Machine) Runtime() *runtime.Runtime { return m.rt }

// Load registers mod's functions and runs its init function. Every import
// the module calls must exist before anything runs.
func (m *Machine) Load(mod *codegen.IRModule) error {
	for _, name := range mod.ImportNames() {
		if _, ok := m.imports[name]; !ok {
			return diag.Runtimef(diag.UnknownImport, "unknown import %q", name)
		}
	}
	for _, fn := range mod.Functions {
		m.functions[fn.Name] = &loadedFunc{fn: fn, labels: fn.Labels()}
	}
	m.log.Debugf("[vm] loaded %d functions", len(mod.Functions))
	_, err := m.Call(mod.InitFunc)
	return err
}

// Run executes the module's entry function and returns its value.
func (m *Machine) Run(mod *codegen.IRModule) (int64, error) {
	return m.Call(mod.EntryFunc)
}

// Global returns the current value of a global.
func (m *Machine) Global(name string) (int64, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// Snapshot captures the machine's globals and functions.
type Snapshot struct {
	globals   map[string]int64
	functions map[string]*loadedFunc
}

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{globals: maps.Clone(m.globals), functions: maps.Clone(m.functions)}
}

// Restore resets globals and functions to a snapshot. Memory is not
// reclaimed.
func (m *Machine) Restore(s Snapshot) {
	m.globals = maps.Clone(s.globals)
	m.functions = maps.Clone(s.functions)
	m.depth = 0
}

// Call invokes a loaded function, or a runtime import of that name when no
// function is loaded under it.
func (m *Machine) Call(name string, args ...int64) (int64, error) {
	lf, ok := m.functions[name]
	if !ok {
		imp, ok := m.imports[name]
		if !ok {
			return 0, diag.Runtimef(diag.UnknownImport, "undefined function %q", name)
		}
		return m.callImport(imp, args)
	}

	if m.depth >= m.maxDepth {
		return 0, diag.Runtimef(diag.StackOverflow, "maximum call depth %d exceeded in %s", m.maxDepth, name)
	}
	m.depth++
	defer func() { m.depth-- }()

	m.log.Debugf("[vm] call %s%v", name, args)
	return m.exec(lf, args)
}

func (m *Machine) callImport(imp runtime.Import, args []int64) (int64, error) {
	if len(args) != imp.Arity {
		return 0, diag.Runtimef(diag.InvalidArgument, "%s expects %d arguments; got %d", imp.Name, imp.Arity, len(args))
	}
	return imp.Fn(args)
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

type frame struct {
	regs   []int64
	locals []int64
}

func (f *frame) value(op codegen.Operand) int64 {
	switch op.Kind {
	case codegen.OpVirtReg:
		return f.regs[op.Reg]
	case codegen.OpLocal:
		return f.locals[op.Reg]
	case codegen.OpImmediate:
		return op.Imm
	}
	return 0
}

func (f *frame) values(ops []codegen.Operand) []int64 {
	out := make([]int64, len(ops))
	for i, op := range ops {
		out[i] = f.value(op)
	}
	return out
}

func word(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) exec(lf *loadedFunc, args []int64) (int64, error) {
	fn := lf.fn
	if len(args) != fn.ParamCount {
		return 0, diag.Runtimef(diag.InvalidArgument, "%s expects %d arguments; got %d", fn.Name, fn.ParamCount, len(args))
	}
	fr := &frame{
		regs:   make([]int64, fn.VRegs),
		locals: make([]int64, max(fn.Locals, len(args))),
	}
	copy(fr.locals, args)

	jump := func(label string) (int, error) {
		pc, ok := lf.labels[label]
		if !ok {
			return 0, diag.Runtimef(diag.BadAccess, "undefined label %s in %s", label, fn.Name)
		}
		return pc, nil
	}

	for pc := 0; pc < len(fn.Instrs); pc++ {
		instr := fn.Instrs[pc]
		switch instr.Op {
		case codegen.IRLabel, codegen.IRComment:

		case codegen.IRConstNum:
			v, ok := bignum.Parse(instr.Src1.Text)
			if !ok {
				return 0, diag.Runtimef(diag.InvalidArgument, "invalid integer literal %q", instr.Src1.Text)
			}
			addr, err := bignum.Encode(m.rt.Memory(), v)
			if err != nil {
				return 0, err
			}
			fr.regs[instr.Dst.Reg] = int64(addr)

		case codegen.IRMov:
			fr.regs[instr.Dst.Reg] = fr.value(instr.Src1)

		case codegen.IRLoadGlobal:
			v, ok := m.globals[instr.Src1.Label]
			if !ok {
				return 0, diag.Runtimef(diag.BadAccess, "undefined global %q", instr.Src1.Label)
			}
			fr.regs[instr.Dst.Reg] = v

		case codegen.IRStoreGlobal:
			m.globals[instr.Dst.Label] = fr.value(instr.Src1)

		case codegen.IRLoadLocal:
			fr.regs[instr.Dst.Reg] = fr.locals[instr.Src1.Reg]

		case codegen.IRStoreLocal:
			fr.locals[instr.Dst.Reg] = fr.value(instr.Src1)

		case codegen.IRCallImport:
			imp, ok := m.imports[instr.Src1.Label]
			if !ok {
				return 0, diag.Runtimef(diag.UnknownImport, "unknown import %q", instr.Src1.Label)
			}
			v, err := m.callImport(imp, fr.values(instr.Args))
			if err != nil {
				return 0, err
			}
			fr.regs[instr.Dst.Reg] = v

		case codegen.IRCall:
			v, err := m.Call(instr.Src1.Label, fr.values(instr.Args)...)
			if err != nil {
				return 0, err
			}
			fr.regs[instr.Dst.Reg] = v

		case codegen.IRNot:
			fr.regs[instr.Dst.Reg] = word(fr.value(instr.Src1) == 0)
		case codegen.IRAnd:
			fr.regs[instr.Dst.Reg] = word(fr.value(instr.Src1) != 0 && fr.value(instr.Src2) != 0)
		case codegen.IROr:
			fr.regs[instr.Dst.Reg] = word(fr.value(instr.Src1) != 0 || fr.value(instr.Src2) != 0)
		case codegen.IRCmpEq:
			fr.regs[instr.Dst.Reg] = word(fr.value(instr.Src1) == fr.value(instr.Src2))
		case codegen.IRCmpNe:
			fr.regs[instr.Dst.Reg] = word(fr.value(instr.Src1) != fr.value(instr.Src2))

		case codegen.IRJmp:
			target, err := jump(instr.Dst.Label)
			if err != nil {
				return 0, err
			}
			pc = target
		case codegen.IRJmpNot:
			if fr.value(instr.Src1) == 0 {
				target, err := jump(instr.Dst.Label)
				if err != nil {
					return 0, err
				}
				pc = target
			}

		case codegen.IRRet:
			return fr.value(instr.Src1), nil

		default:
			return 0, diag.Runtimef(diag.UnknownOperator, "unknown instruction %s", instr.Op)
		}
	}
	return 0, nil
}
