package bytecode

import (
	"bufio"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Console wraps f for line-oriented debug output. Terminals get every
// write immediately; pipes and files are buffered until Flush.
type Console struct {
	w     io.Writer
	buf   *bufio.Writer
	isTTY bool
}

// NewConsole returns a console sink over f.
func NewConsole(f *os.File) *Console {
	c := &Console{w: f}
	c.isTTY = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	if !c.isTTY {
		c.buf = bufio.NewWriter(f)
		c.w = c.buf
	}
	return c
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Flush writes out any buffered output.
func (c *Console) Flush() error {
	if c.buf == nil {
		return nil
	}
	return c.buf.Flush()
}

// IsTerminal reports whether the sink writes straight to a terminal.
func (c *Console) IsTerminal() bool {
	return c.isTTY
}

// PrintChunk disassembles chunk into w.
func PrintChunk(w io.Writer, chunk *Chunk, description string) error {
	return NewDisassembler(w).Disassemble(chunk, description)
}

// PrintChunkStdout disassembles chunk to standard output. The bytes are
// the same as PrintChunk produces for any other writer.
func PrintChunkStdout(chunk *Chunk, description string) error {
	console := NewConsole(os.Stdout)
	err := PrintChunk(console, chunk, description)
	if flushErr := console.Flush(); err == nil {
		err = flushErr
	}
	return err
}
