package formats

import (
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Scanner tokenizes a single line of OBJ or MTL text.
// Tokens are delimited by space, tab, slash or the end of the line.
type Scanner struct {
	line string
	pos  int
}

// NewScanner returns a scanner positioned at the start of line.
func NewScanner(line string) *Scanner {
	return &Scanner{line: line}
}

// Done reports whether the cursor has reached the end of the line.
func (s *Scanner) Done() bool {
	return s.pos >= len(s.line)
}

// Next skips leading spaces and tabs, then consumes characters up to the
// next delimiter. It returns the token and the delimiter that ended it
// (' ', '\t', '/' or 0 at end of line). The delimiter is consumed.
func (s *Scanner) Next() (string, byte) {
	for s.pos < len(s.line) && (s.line[s.pos] == ' ' || s.line[s.pos] == '\t') {
		s.pos++
	}

	start := s.pos
	for s.pos < len(s.line) {
		c := s.line[s.pos]
		if c == ' ' || c == '\t' || c == '/' {
			s.pos++
			return s.line[start : s.pos-1], c
		}
		s.pos++
	}
	return s.line[start:], 0
}

// Rest returns the remainder of the line with surrounding whitespace
// trimmed and moves the cursor to the end.
func (s *Scanner) Rest() string {
	if s.pos >= len(s.line) {
		return ""
	}
	rest := strings.TrimSpace(s.line[s.pos:])
	s.pos = len(s.line)
	return rest
}

// Float parses the next token as a float. Unparsable, NaN and infinite
// values yield 0.
func (s *Scanner) Float() float32 {
	tok, _ := s.Next()
	return ParseFloat(tok)
}

// Int parses the next token as an integer. An empty token yields -1 so
// callers can tell an absent value from an explicit zero. A non-empty
// token that fails to parse yields 0.
func (s *Scanner) Int() (int, byte) {
	tok, term := s.Next()
	return ParseInt(tok), term
}

// Vec3 parses the next three tokens as floats.
func (s *Scanner) Vec3() mgl32.Vec3 {
	x := s.Float()
	y := s.Float()
	z := s.Float()
	return mgl32.Vec3{x, y, z}
}

// ParseFloat converts tok to float32 with the permissive rules of Scanner.Float.
func ParseFloat(tok string) float32 {
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0
	}
	f := float32(v)
	if math32.IsNaN(f) || math32.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt converts tok to int with the rules of Scanner.Int.
func ParseInt(tok string) int {
	if tok == "" {
		return -1
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return v
}

// eachLine calls fn for every non-empty line of data. Both LF and CR
// terminate a line, so CRLF and classic Mac line endings are handled.
func eachLine(data []byte, fn func(line string)) {
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' || data[i] == '\r' {
			if i > start {
				fn(string(data[start:i]))
			}
			start = i + 1
		}
	}
}
