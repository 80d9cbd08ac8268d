package lexer

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xirelogy/go-lox/internal/token"
)

// Entry is the serialized form of one scanned token.
type Entry struct {
	Type    token.Type `yaml:"type"`
	Lexeme  string     `yaml:"lexeme"`
	Line    int        `yaml:"line"`
	Message string     `yaml:"message,omitempty"`
}

// Entries scans src and returns its tokens with their lexemes resolved.
func Entries(src string) []Entry {
	entries := []Entry{}
	for tok := range Tokens(src) {
		entries = append(entries, Entry{
			Type:    tok.Type,
			Lexeme:  tok.Lexeme(src),
			Line:    tok.Line,
			Message: tok.Message,
		})
	}
	return entries
}

// Dump writes the token stream of src to w as a YAML sequence.
func Dump(w io.Writer, src string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Entries(src)); err != nil {
		return fmt.Errorf("dump tokens: %w", err)
	}
	return enc.Close()
}

// ParseDump reads a token stream previously written by Dump.
func ParseDump(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse token dump: %w", err)
	}
	return entries, nil
}
