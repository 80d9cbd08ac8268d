package lox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/xirelogy/go-lox/internal/bytecode"
	"github.com/xirelogy/go-lox/internal/compiler"
	"github.com/xirelogy/go-lox/internal/config"
	"github.com/xirelogy/go-lox/internal/lexer"
	"github.com/xirelogy/go-lox/internal/vm"
)

var log = commonlog.GetLogger("lox")

type (
	// Chunk is a compiled program: bytecode, constant pool and line index.
	Chunk = bytecode.Chunk
	// OpCode is a single bytecode operation.
	OpCode = bytecode.OpCode
	// Value is a VM stack value.
	Value = vm.Value
	// InterpretResult is the coarse outcome of Interpret.
	InterpretResult = vm.InterpretResult
	// CompileError is returned for source the compiler rejects.
	CompileError = compiler.CompileError
	// RuntimeError is returned when execution halts.
	RuntimeError = vm.RuntimeError
	// TraceInfo describes one instruction dispatch.
	TraceInfo = vm.TraceInfo
	// TraceHook observes instruction dispatch.
	TraceHook = vm.TraceHook
	// Config holds interpreter settings.
	Config = config.Config
)

const (
	InterpretOK           = vm.InterpretOK
	InterpretCompileError = vm.InterpretCompileError
	InterpretRuntimeError = vm.InterpretRuntimeError
)

// Compile translates src into a chunk.
func Compile(src string) (*Chunk, error) {
	chunk, err := compiler.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return chunk, nil
}

// PrintChunk writes a disassembly of chunk to w under a "== description =="
// header.
func PrintChunk(w io.Writer, chunk *Chunk, description string) error {
	return bytecode.PrintChunk(w, chunk, description)
}

// PrintChunkStdout writes the same disassembly as PrintChunk to standard
// output.
func PrintChunkStdout(chunk *Chunk, description string) error {
	return bytecode.PrintChunkStdout(chunk, description)
}

// DumpTokens writes the token stream of src to w as YAML.
func DumpTokens(w io.Writer, src string) error {
	return lexer.Dump(w, src)
}

// EncodeChunk serializes chunk into a CBOR image.
func EncodeChunk(chunk *Chunk) ([]byte, error) {
	return bytecode.EncodeChunk(chunk)
}

// DecodeChunk restores and validates a chunk written by EncodeChunk.
func DecodeChunk(data []byte) (*Chunk, error) {
	return bytecode.DecodeChunk(data)
}

// LoadConfig reads a .toml, .yaml or .yml settings file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return config.Default()
}

// ConfigureLogging points commonlog at the backend described by cfg.
func ConfigureLogging(cfg *Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())
}

// Interpreter compiles and runs source text on a private VM. Calls are
// serialized; a single Interpreter may be shared between goroutines.
type Interpreter struct {
	core *vm.VM
	cfg  *Config
	out  io.Writer
	mu   sync.Mutex
}

// NewInterpreter builds an interpreter from cfg (nil for defaults).
func NewInterpreter(cfg *Config) (*Interpreter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	in := &Interpreter{
		core: vm.New(vm.WithMaxStack(cfg.VM.MaxStack)),
		cfg:  cfg,
		out:  os.Stderr,
	}
	if cfg.VM.Trace {
		in.core.SetTraceHook(vm.NewStackTracer(writerFunc(in.write)))
	}
	return in, nil
}

// SetOutput redirects disassembly and trace output (stderr by default).
func (in *Interpreter) SetOutput(w io.Writer) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.out = w
}

// SetTraceHook replaces the trace hook chosen by the config. A nil hook
// disables tracing.
func (in *Interpreter) SetTraceHook(h TraceHook) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.core.SetTraceHook(h)
}

// write forwards trace output; it is only called while mu is held.
func (in *Interpreter) write(p []byte) (int, error) {
	return in.out.Write(p)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}

// Interpret compiles and runs src. Compile failures report
// InterpretCompileError, execution failures InterpretRuntimeError; the
// error carries the detail in both cases.
func (in *Interpreter) Interpret(src string) (Value, InterpretResult, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	chunk, err := compiler.Compile(src)
	if err != nil {
		log.Errorf("compile: %s", err)
		return Value{}, InterpretCompileError, fmt.Errorf("compile error: %w", err)
	}
	return in.run(chunk)
}

// Run executes a chunk that was built or decoded elsewhere, with the same
// disassembly and tracing as Interpret.
func (in *Interpreter) Run(chunk *Chunk) (Value, InterpretResult, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.run(chunk)
}

func (in *Interpreter) run(chunk *Chunk) (Value, InterpretResult, error) {
	if in.cfg.Disasm.Enabled {
		if err := bytecode.PrintChunk(in.out, chunk, in.cfg.Disasm.Description); err != nil {
			return Value{}, InterpretRuntimeError, fmt.Errorf("disassemble: %w", err)
		}
	}
	val, err := in.core.Run(chunk)
	if err != nil {
		log.Errorf("runtime: %s", err)
		return Value{}, InterpretRuntimeError, fmt.Errorf("runtime error: %w", err)
	}
	return val, InterpretOK, nil
}

// Result is the outcome of an InterpretAsync call.
type Result struct {
	Value  Value
	Status InterpretResult
	Err    error
}

// Future represents an in-flight InterpretAsync call.
type Future struct {
	ch <-chan Result
}

// Await waits for completion or context cancellation.
func (f Future) Await(ctx context.Context) (Value, InterpretResult, error) {
	select {
	case <-ctx.Done():
		return Value{}, InterpretRuntimeError, ctx.Err()
	case res := <-f.ch:
		return res.Value, res.Status, res.Err
	}
}

// InterpretAsync runs Interpret on a new goroutine. A context that is done
// before the run starts cancels it.
func (in *Interpreter) InterpretAsync(ctx context.Context, src string) Future {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		select {
		case <-ctx.Done():
			ch <- Result{Status: InterpretRuntimeError, Err: ctx.Err()}
			return
		default:
		}
		val, status, err := in.Interpret(src)
		ch <- Result{Value: val, Status: status, Err: err}
	}()
	return Future{ch: ch}
}

// IsCompileError reports whether err came from the compiler.
func IsCompileError(err error) bool {
	var cerr *CompileError
	return errors.As(err, &cerr)
}

// IsRuntimeError reports whether err came from the VM.
func IsRuntimeError(err error) bool {
	var rerr *RuntimeError
	return errors.As(err, &rerr)
}
