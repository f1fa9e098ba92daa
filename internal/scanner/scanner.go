package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/redactyl/riskscan/internal/rules"
	"github.com/redactyl/riskscan/internal/types"
)

var (
	// ErrBinary is wrapped by ReadError when a file contains NUL bytes.
	ErrBinary = errors.New("binary content")
	// ErrNotUTF8 is wrapped by ReadError when a file is not valid UTF-8.
	ErrNotUTF8 = errors.New("invalid UTF-8")
)

// ReadError means a file could not be opened, read or decoded as text. The
// file contributes no findings; callers skip it and keep going.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// Scanner matches a rule set against files line by line. A Scanner holds no
// mutable state and may be used from many goroutines at once.
type Scanner struct {
	rules rules.Set
}

func New(set rules.Set) *Scanner {
	return &Scanner{rules: set}
}

// Rules returns the rule set the scanner evaluates.
func (s *Scanner) Rules() rules.Set { return s.rules }

// ScanFile reads realPath from fsys and scans it, reporting findings under
// displayPath.
func (s *Scanner) ScanFile(fsys afero.Fs, realPath, displayPath string) ([]types.Finding, error) {
	data, err := afero.ReadFile(fsys, realPath)
	if err != nil {
		return nil, &ReadError{Path: realPath, Err: err}
	}
	if bytes.IndexByte(data, 0x00) >= 0 {
		return nil, &ReadError{Path: realPath, Err: ErrBinary}
	}
	if !utf8.Valid(data) {
		return nil, &ReadError{Path: realPath, Err: ErrNotUTF8}
	}
	return s.Scan(displayPath, data), nil
}

// Scan evaluates every rule against every line of data. Findings come out
// by ascending line and, within a line, in rule order.
func (s *Scanner) Scan(path string, data []byte) []types.Finding {
	var out []types.Finding
	sc := bufio.NewScanner(bytes.NewReader(data))
	// A line can never be longer than the file itself.
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		t := sc.Text()
		for i := 0; i < s.rules.Len(); i++ {
			r := s.rules.At(i)
			if !r.Pattern.MatchString(t) {
				continue
			}
			out = append(out, types.Finding{
				Path:     path,
				Line:     line,
				Rule:     r.Name,
				Severity: r.Severity,
				Snippet:  strings.TrimSpace(t),
			})
		}
	}
	return out
}
