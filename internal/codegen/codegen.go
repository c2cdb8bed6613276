package codegen

import (
	"pyrite/internal/ast"
	"pyrite/internal/logx"
)

// Options configures the codegen pipeline.
type Options struct {
	// Logger receives progress and the IR dump in debug mode. May be nil.
	Logger *logx.Logger

	// DumpIR keeps a human-readable IR dump on the result.
	DumpIR bool
}

// Result is returned by Generate.
type Result struct {
	Module *IRModule
	IRDump string // empty unless Options.DumpIR is set
}

// Generate lowers a checked program to IR.
func Generate(program *ast.Program[ast.Type], opts Options) (*Result, error) {
	log := opts.Logger
	log.Debugf("[codegen] lowering %d globals, %d functions, %d statements",
		len(program.Inits), len(program.Funs), len(program.Stmts))

	mod, err := Lower(program)
	if err != nil {
		return nil, err
	}

	result := &Result{Module: mod}
	if opts.DumpIR || log.Enabled() {
		dump := mod.DebugDump()
		log.Debugf("%s", dump)
		if opts.DumpIR {
			result.IRDump = dump
		}
	}
	return result, nil
}
