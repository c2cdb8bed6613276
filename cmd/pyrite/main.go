package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"pyrite/internal/compiler"
	"pyrite/internal/config"
	"pyrite/internal/logx"
)

const VERSION = "0.1.0"

const (
	historyFile = ".pyrite_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 && args[0] == "repl" {
		return cmdRepl(args[1:])
	}
	return cmdRun(args)
}

func usage() {
	fmt.Println("Usage: pyrite [--check] [--ir] [--debug] [--config path] <file>")
	fmt.Println("       pyrite repl [--debug] [--config path]")
}

// setup loads the configuration and applies the --debug override.
func setup(cfgPath string, debug bool) (*config.Config, *logx.Logger, error) {
	cfg, err := config.Resolve(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.Debug = true
	}
	log := logx.New(os.Stdout, cfg.Debug)
	log.Debugf("Using debug mode.")
	return cfg, log, nil
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("pyrite", flag.ContinueOnError)
	checkOnly := fs.Bool("check", false, "type-check only")
	dumpIR := fs.Bool("ir", false, "print the lowered IR")
	debug := fs.Bool("debug", false, "print debug output")
	cfgPath := fs.String("config", "", "path to "+config.DefaultFileName)
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		usage()
		return 2
	}
	filePath := fs.Arg(0)

	cfg, log, err := setup(*cfgPath, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		return 1
	}
	if *dumpIR {
		cfg.Output.DumpIR = true
	}

	log.Debugf("Building using: %s", filePath)
	content, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: Could not read file.")
		fmt.Fprintln(os.Stderr, "Error details: "+err.Error())
		return 1
	}

	session := compiler.NewSession(cfg, log)
	if *checkOnly {
		res, err := session.Check(string(content))
		if err != nil {
			printError(err)
			return 1
		}
		printDumps(res)
		fmt.Printf("%s: ok (%s)\n", filePath, res.Type)
		return 0
	}

	res, err := session.Eval(string(content))
	if res != nil {
		printDumps(res)
		fmt.Print(res.Output)
	}
	if err != nil {
		printError(err)
		return 1
	}
	log.Debugf("Program finished with value %q.", res.Value)
	return 0
}

func printDumps(res *compiler.Result) {
	if res.AST != "" {
		fmt.Println(res.AST)
	}
	if res.IRDump != "" {
		fmt.Print(res.IRDump)
	}
}

// printError prints every stage error on its own line.
func printError(err error) {
	var lexErrs compiler.LexErrors
	var parseErrs compiler.ParseErrors
	switch {
	case errors.As(err, &lexErrs):
		fmt.Fprintln(os.Stderr, "Lexing errors:")
		for _, e := range lexErrs {
			fmt.Fprintf(os.Stderr, "  %s\n", e.Error())
		}
	case errors.As(err, &parseErrs):
		fmt.Fprintln(os.Stderr, "Parse errors:")
		for _, e := range parseErrs {
			fmt.Fprintf(os.Stderr, "  %s\n", e.Error())
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	}
}

// ---------------------------------------------------------------------------
// repl
// ---------------------------------------------------------------------------

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "print debug output")
	cfgPath := fs.String("config", "", "path to "+config.DefaultFileName)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, log, err := setup(*cfgPath, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		return 1
	}

	fmt.Println("Pyrite V" + VERSION + ". Type :env to list definitions, :quit to exit.")

	histPath := cfg.REPL.HistoryFile
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	session := compiler.NewSession(cfg, log)
	for {
		src, ok := readSnippet(ln)
		if !ok {
			fmt.Println()
			break
		}
		code := strings.TrimSpace(src)
		if code == "" {
			continue
		}

		if strings.HasPrefix(code, ":") {
			switch strings.ToLower(code) {
			case ":quit":
				return 0
			case ":env":
				fmt.Print(session.Env().String())
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		ln.AppendHistory(src)
		res, err := session.Eval(src + "\n")
		if res != nil {
			printDumps(res)
			fmt.Print(res.Output)
		}
		if err != nil {
			printError(err)
			continue
		}
		if res.Echo() {
			fmt.Println(res.Value)
		}
	}
	return 0
}

// readSnippet reads one line, or a whole block when the line opens one.
// A block ends at the first empty line.
func readSnippet(ln *liner.State) (string, bool) {
	line, err := ln.Prompt(promptMain)
	if errors.Is(err, io.EOF) {
		return "", false
	}
	if err != nil {
		return "", true
	}
	if !strings.HasSuffix(strings.TrimSpace(line), ":") {
		return line, true
	}

	var b strings.Builder
	b.WriteString(line)
	for {
		next, err := ln.Prompt(promptCont)
		if err != nil || strings.TrimSpace(next) == "" {
			return b.String(), true
		}
		b.WriteByte('\n')
		b.WriteString(next)
	}
}
