// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

//go:build !js
// +build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/peterh/liner"

	"github.com/lightplayer/lpscript"
	"github.com/lightplayer/lpscript/fixed"
	"github.com/lightplayer/lpscript/token"
)

const (
	title         = "LightPlayer Script"
	promptPrefix  = ">>> "
	promptPrefix2 = "... "
)

var (
	noOptimizer bool
	traceParser bool
	disasm      bool
	outputPath  string
	limitsPath  string

	inTime float64
	inX    float64
	inY    float64
	inXPix int
	inYPix int
)

// Sentinel errors for repl.
var (
	errExit  = errors.New("exit")
	errReset = errors.New("reset")
)

var suggestions []suggest

type suggest struct {
	text        string
	description string
	typ         string
}

// builtinInputNames lists the read-only inputs scripts can reference,
// matching the checker's input table.
var builtinInputNames = []suggest{
	{"uv", "vec2, normalized position", "input"},
	{"coord", "vec2, pixel position", "input"},
	{"x", "float, normalized x (alias: xNorm)", "input"},
	{"y", "float, normalized y (alias: yNorm)", "input"},
	{"xPix", "int, pixel x (alias: xInt)", "input"},
	{"yPix", "int, pixel y (alias: yInt)", "input"},
	{"time", "float, seconds since start (alias: t)", "input"},
	{"timeNorm", "float, fractional part of time", "input"},
	{"centerDist", "float, distance from center (alias: dist)", "input"},
	{"centerAngle", "float, angle from center (alias: angle)", "input"},
}

type repl struct {
	out         io.Writer
	opts        lpscript.CompilerOptions
	limits      lpscript.VmLimits
	inputs      lpscript.Inputs
	commands    map[string]func(string) error
	script      strings.Builder
	lastProgram *lpscript.Program
	lastResult  lpscript.Value
	isMultiline bool
}

func newREPL(stdout io.Writer) *repl {
	opts := lpscript.DefaultCompilerOptions
	opts.ModuleName = "(repl)"
	opts.Optimize = !noOptimizer
	if traceParser {
		opts.Trace = stdout
	}

	if stdout == nil {
		stdout = os.Stdout
	}

	r := &repl{
		out:    stdout,
		opts:   opts,
		limits: scriptLimits(),
		inputs: scriptInputs(),
	}
	r.commands = map[string]func(string) error{
		".commands": r.cmdCommands,
		".builtins": r.cmdBuiltins,
		".keywords": r.cmdKeywords,
		".inputs":   r.cmdInputs,
		".bytecode": r.cmdBytecode,
		".limits":   r.cmdLimits,
		".return":   r.cmdReturn,
		".reset":    func(string) error { return errReset },
		".exit":     func(string) error { return errExit },
	}
	return r
}

func (r *repl) cmdCommands(_ string) error {
	suggs, pad := rangeSuggestions(
		func(s suggest) bool { return s.typ == "" },
	)
	r.printSuggestions(suggs, pad)
	return nil
}

func (r *repl) cmdBuiltins(_ string) error {
	suggs, pad := rangeSuggestions(
		func(s suggest) bool { return s.typ == "builtin" },
	)
	r.printSuggestions(suggs, pad)
	return nil
}

func (r *repl) cmdKeywords(_ string) error {
	suggs, pad := rangeSuggestions(
		func(s suggest) bool { return s.typ == "keyword" },
	)
	r.printSuggestions(suggs, pad)
	return nil
}

func (r *repl) cmdInputs(_ string) error {
	suggs, pad := rangeSuggestions(
		func(s suggest) bool { return s.typ == "input" },
	)
	r.printSuggestions(suggs, pad)
	return nil
}

func rangeSuggestions(filter func(suggest) bool) ([]suggest, int) {
	var suggs []suggest
	var maxtext int
	for _, v := range suggestions {
		if !filter(v) {
			continue
		}
		suggs = append(suggs, v)
		if maxtext < len(v.text) {
			maxtext = len(v.text)
		}
	}
	return suggs, maxtext
}

func (r *repl) printSuggestions(suggs []suggest, maxtext int) {
	const spaces = "                                                  "
	for _, cmd := range suggs {
		_, _ = fmt.Fprintf(r.out, "%s", cmd.text)
		if len(cmd.description) > 0 {
			_, _ = fmt.Fprintf(r.out, "%s", spaces[:maxtext-len(cmd.text)])
			_, _ = fmt.Fprintf(r.out, "\t%v", cmd.description)
		}
		_, _ = fmt.Fprintln(r.out)
	}
}

func (r *repl) cmdBytecode(_ string) error {
	if r.lastProgram == nil {
		_, _ = fmt.Fprintln(r.out, "<no program>")
		return nil
	}
	r.lastProgram.Fprint(r.out)
	return nil
}

func (r *repl) cmdLimits(_ string) error {
	_, _ = fmt.Fprintf(r.out, "%+v\n", r.limits)
	return nil
}

func (r *repl) cmdReturn(_ string) error {
	_, _ = fmt.Fprintf(r.out, "%s: %s\n",
		r.lastResult.Type, r.lastResult)
	return nil
}

func (r *repl) writeString(msg string) {
	_, _ = fmt.Fprint(r.out, msg)
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) execute(line string) error {
	switch {
	case !r.isMultiline && line == "":
		return nil
	case !r.isMultiline && len(line) > 0 && line[0] == '.':
		cmd := strings.Fields(line)[0]
		if fn, ok := r.commands[cmd]; ok {
			return fn(line)
		}
	case strings.HasSuffix(line, "\\"):
		r.isMultiline = true
		r.script.WriteString(line[:len(line)-1])
		r.script.WriteString("\n")
		return nil
	}

	r.script.WriteString(line)

	r.executeScript()

	r.isMultiline = false
	r.script.Reset()
	return nil
}

func (r *repl) executeScript() {
	program, err := lpscript.Compile([]byte(r.script.String()), r.opts)
	if err != nil {
		r.writeString(fmt.Sprintf("\n!   %+v", err))
		return
	}
	r.lastProgram = program

	vm := lpscript.NewVM(program)
	vm.SetLimits(r.limits)
	r.lastResult, err = vm.Run(&r.inputs)
	if err != nil {
		r.writeString(fmt.Sprintf("\n!   %+v", err))
		return
	}
	r.writeString(fmt.Sprintf("\n⇦   %s", r.lastResult))
}

func (r *repl) prefix() string {
	if r.isMultiline {
		return promptPrefix2
	}
	return promptPrefix
}

func (r *repl) printInfo() {
	_, _ = fmt.Fprintln(r.out, title)
	_, _ = fmt.Fprintln(r.out, "Write .commands to list available commands")
	_, _ = fmt.Fprintln(r.out, "Press Ctrl+D or write .exit command to exit")
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) run(history io.Reader) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetMultiLineMode(true)
	line.SetCompleter(complete)
	_, err := line.ReadHistory(history)
	if err != nil {
		return fmt.Errorf("failed history read: %w", err)
	}
	r.printInfo()

	var str string

	for err == nil {
		str, err = line.Prompt(r.prefix())
		if err != nil {
			if err == io.EOF {
				err = nil
				break
			}
			err = fmt.Errorf("prompt error: %w", err)
			break
		}
		err = r.execute(str)
		if err == nil {
			if !r.isMultiline && len(str) > 0 {
				if v := strings.TrimSpace(str); len(v) > 0 {
					line.AppendHistory(v)
				}
			}
		}
	}
	return err
}

func complete(line string) (completions []string) {
	var contains []string
	for _, v := range suggestions {
		if strings.HasPrefix(v.text, line) {
			completions = append(completions, v.text)
		} else if strings.Contains(v.text, line) {
			contains = append(contains, v.text)
		}
	}
	completions = append(completions, contains...)
	return
}

func initSuggestions() {
	suggestions = []suggest{
		// Commands
		{text: ".commands", description: "Print REPL commands"},
		{text: ".builtins", description: "Print Built-in Functions"},
		{text: ".keywords", description: "Print Keywords"},
		{text: ".inputs", description: "Print Built-in Inputs"},
		{text: ".bytecode", description: "Print Last Bytecode"},
		{text: ".limits", description: "Print VM Limits"},
		{text: ".return", description: "Print Last Return Result"},
		{text: ".reset", description: "Reset"},
		{text: ".exit", description: "Exit"},
	}

	// callable built-ins; the width-specialized vector natives all resolve
	// from the same source-level names
	names := map[string]bool{
		"length": true, "normalize": true, "dot": true,
		"distance": true, "cross": true, "mix": true,
	}
	for id := lpscript.NativeMin; id <= lpscript.NativeMod; id++ {
		names[id.String()] = true
	}
	for name := range names {
		suggestions = append(suggestions, suggest{
			text:        name,
			description: "Builtin Function",
			typ:         "builtin",
		})
	}

	suggestions = append(suggestions, builtinInputNames...)

	// add keywords to suggestions
	for tok := token.If; tok.IsKeyword(); tok++ {
		suggestions = append(suggestions, suggest{
			text: tok.String(),
			typ:  "keyword",
		})
	}
}

func parseFlags(
	flagset *flag.FlagSet,
	args []string,
) (filePath string, err error) {

	flagset.BoolVar(&traceParser, "trace", false, "Print a parse trace")
	flagset.BoolVar(&noOptimizer, "no-optimizer", false,
		"Disable the bytecode optimizer")
	flagset.BoolVar(&disasm, "disasm", false,
		"Print the disassembly instead of running")
	flagset.StringVar(&outputPath, "o", "",
		"Write the compiled program to a file instead of running")
	flagset.StringVar(&limitsPath, "limits", "",
		"TOML file with VM limits (max_call_stack_depth, max_stack_size, "+
			"max_instructions)")

	flagset.Float64Var(&inTime, "time", 0, "time input in seconds")
	flagset.Float64Var(&inX, "x", 0, "normalized x input, 0..1")
	flagset.Float64Var(&inY, "y", 0, "normalized y input, 0..1")
	flagset.IntVar(&inXPix, "xpix", 0, "pixel x input")
	flagset.IntVar(&inYPix, "ypix", 0, "pixel y input")

	flagset.Usage = func() {
		_, _ = fmt.Fprint(flagset.Output(),
			"Usage: lps [flags] [script file]\n\n",
			"If script file is not provided, REPL terminal application is started\n",
			"Use - to read from stdin\n",
			"A .lpc file is loaded as an already compiled program\n",
			"\nFlags:\n",
		)
		flagset.PrintDefaults()
	}

	if err = flagset.Parse(args); err != nil {
		return
	}
	if flagset.NArg() != 1 {
		return
	}
	filePath = flagset.Arg(0)
	if filePath == "-" {
		return
	}
	_, err = os.Stat(filePath)
	return
}

func scriptLimits() lpscript.VmLimits {
	limits := lpscript.DefaultVmLimits
	if limitsPath != "" {
		_, err := toml.DecodeFile(limitsPath, &limits)
		checkErr(err)
	}
	return limits
}

func scriptInputs() lpscript.Inputs {
	return lpscript.Inputs{
		XNorm: fixed.FromFloat(inX),
		YNorm: fixed.FromFloat(inY),
		XPix:  int32(inXPix),
		YPix:  int32(inYPix),
		Time:  fixed.FromFloat(inTime),
	}
}

func loadProgram(modulePath string, script []byte) (*lpscript.Program, error) {
	if strings.HasSuffix(modulePath, ".lpc") {
		var program lpscript.Program
		if err := program.UnmarshalBinary(script); err != nil {
			return nil, err
		}
		return &program, nil
	}
	opts := lpscript.DefaultCompilerOptions
	opts.ModuleName = modulePath
	opts.Optimize = !noOptimizer
	if traceParser {
		opts.Trace = os.Stderr
	}
	return lpscript.Compile(script, opts)
}

func executeScript(modulePath string, script []byte) error {
	program, err := loadProgram(modulePath, script)
	if err != nil {
		return err
	}

	if disasm {
		program.Fprint(os.Stdout)
		return nil
	}
	if outputPath != "" {
		data, err := program.MarshalBinary()
		if err != nil {
			return err
		}
		return os.WriteFile(outputPath, data, 0o644)
	}

	vm := lpscript.NewVM(program)
	vm.SetLimits(scriptLimits())
	inputs := scriptInputs()
	result, err := vm.Run(&inputs)
	if err != nil {
		return err
	}
	if result.Type != lpscript.Void {
		fmt.Println(result)
	}
	return nil
}

func hasMode(f *os.File, m os.FileMode) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&m == m
}

func hasInputRedirection() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeNamedPipe == os.ModeNamedPipe ||
		info.Size() > 0
}

func main() {
	filePath, err := parseFlags(flag.CommandLine, os.Args[1:])
	checkErr(err)

	if len(filePath) == 0 && hasInputRedirection() {
		filePath = "-"
	}

	if len(filePath) > 0 {
		var (
			modulePath = filePath
			script     []byte
		)
		if filePath == "-" {
			modulePath = "(stdin)"
			script, err = io.ReadAll(os.Stdin)
		} else {
			script, err = os.ReadFile(filePath)
		}
		checkErr(err)
		checkErr(executeScript(modulePath, script))
		return
	}

	if !hasMode(os.Stdout, os.ModeCharDevice) {
		_, _ = fmt.Fprintln(os.Stderr, "not a terminal")
		os.Exit(1)
	}

	initSuggestions()

	const history = "float x = 0.5;\n" +
		"return sin(time) * 0.5 + 0.5;\n" +
		"return vec3(uv, timeNorm);\n" +
		"return length(uv - vec2(0.5, 0.5));\n"

L:
	for {
		hist := strings.NewReader(history)

		err = newREPL(os.Stdout).run(hist)
		if err != nil {
			switch err {
			case errReset:
				continue
			case errExit:
				break L
			}
			checkErr(err)
		}
		break
	}
}

func checkErr(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}
