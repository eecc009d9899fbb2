// Package script reads and executes the run scripts that drive a
// simulation: one command per line, whitespace-separated tokens, # comments.
package script

import (
	"bufio"
	"io"
	"strings"
)

// Command is one parsed script line: an opcode and its arguments. Commands
// are consumed immediately after parsing, never retained.
type Command struct {
	Op   string
	Args []string
	Line int
}

// Reader lazily lexes a run script one command at a time, skipping blank
// lines and comments.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	pending *Command
}

// NewReader wraps r for command-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next command, or false when the script is exhausted.
// Full-line and trailing # comments are stripped.
func (r *Reader) Next() (Command, bool) {
	if r.pending != nil {
		cmd := *r.pending
		r.pending = nil
		return cmd, true
	}

	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		return Command{Op: fields[0], Args: fields[1:], Line: r.line}, true
	}

	return Command{}, false
}

// Unread pushes cmd back so the next Next returns it again. Used when the
// caller peeks for the serial preamble.
func (r *Reader) Unread(cmd Command) {
	r.pending = &cmd
}
