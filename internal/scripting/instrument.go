package scripting

import (
	"fmt"
	"regexp"
	"strings"
)

// commandCall matches a call to one of the command globals; group 1 is the
// callee name. Member calls such as goblin.step_up() are matched too and
// skipped by instrument.
var commandCall = regexp.MustCompile(`\b(step_up|step_down|step_left|step_right|wait)\s*\(`)

// insertion records text added to a source line.
type insertion struct {
	offset int // byte offset in the original line
	width  int
}

// instrumented is a rewritten script plus what it takes to map positions
// back to the original text.
type instrumented struct {
	code       string
	insertions map[int][]insertion
}

// Instrument rewrites every command call f(args) on line N of code as
// __line(N, f)(args). __line records N and returns f, so the call stays a
// single expression wherever it appears. Calls inside strings and comments
// are left alone. Every output line ends in "\n".
func Instrument(code string) string { return instrument(code).code }

func instrument(code string) instrumented {
	out := instrumented{insertions: make(map[int][]insertion)}
	var b strings.Builder
	b.Grow(len(code) + len(code)/4)
	var st lexState
	for i, line := range splitLines(code) {
		n := i + 1
		mask := codeMask(line, &st)
		prev := 0
		for _, loc := range commandCall.FindAllStringSubmatchIndex(line, -1) {
			start, end := loc[2], loc[3]
			if !mask[start] || !isBareCall(line[:start]) {
				continue
			}
			prefix := fmt.Sprintf("__line(%d, ", n)
			b.WriteString(line[prev:start])
			b.WriteString(prefix)
			b.WriteString(line[start:end])
			b.WriteByte(')')
			prev = end
			out.insertions[n] = append(out.insertions[n],
				insertion{offset: start, width: len(prefix)},
				insertion{offset: end, width: 1})
		}
		b.WriteString(line[prev:])
		b.WriteByte('\n')
	}
	out.code = b.String()
	return out
}

// isBareCall rejects member calls and function declarations given the text
// before a match.
func isBareCall(before string) bool {
	before = strings.TrimRight(before, " \t")
	if strings.HasSuffix(before, ".") {
		return false
	}
	if kw, ok := strings.CutSuffix(before, "function"); ok {
		return kw != "" && isIdentByte(kw[len(kw)-1])
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// lexState is what a line starts inside of.
type lexState uint8

const (
	lexCode lexState = iota
	lexBlockComment
	lexTemplate
)

// codeMask reports which bytes of line are code rather than string or
// comment text, carrying block comments and template literals over to the
// next line through st. Template substitutions count as text.
func codeMask(line string, st *lexState) []bool {
	mask := make([]bool, len(line))
	for i := 0; i < len(line); {
		c := line[i]
		switch *st {
		case lexBlockComment:
			if strings.HasPrefix(line[i:], "*/") {
				*st = lexCode
				i += 2
				continue
			}
			i++
		case lexTemplate:
			switch c {
			case '\\':
				i += 2
				continue
			case '`':
				*st = lexCode
			}
			i++
		default:
			switch {
			case strings.HasPrefix(line[i:], "//"):
				return mask
			case strings.HasPrefix(line[i:], "/*"):
				*st = lexBlockComment
				i += 2
			case c == '"' || c == '\'':
				i = skipQuoted(line, i)
			case c == '`':
				*st = lexTemplate
				i++
			default:
				mask[i] = true
				i++
			}
		}
	}
	return mask
}

// skipQuoted returns the index after the string literal opening at i, or
// len(line) when it is unterminated.
func skipQuoted(line string, i int) int {
	quote := line[i]
	for i++; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(line)
}

// splitLines splits on "\n", dropping one trailing "\r" per line and the
// empty element after a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// originalColumn maps a 1-based column of the instrumented line back to the
// user's text. Columns inside inserted text map to the character that
// follows the insertion.
func (in instrumented) originalColumn(line, col int) int {
	c, shift := col-1, 0
	for _, ins := range in.insertions[line] {
		start := ins.offset + shift
		if c < start {
			break
		}
		if c < start+ins.width {
			return ins.offset + 1
		}
		shift += ins.width
	}
	return col - shift
}
