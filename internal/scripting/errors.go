package scripting

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/dop251/goja"
)

// ErrBudgetExceeded marks a script stopped for running past its time budget.
var ErrBudgetExceeded = errors.New("scripting: time budget exceeded")

// ScriptError is a compile or run-time failure with its 1-based position in
// the user's source, or -1 when unknown.
type ScriptError struct {
	Message string
	Line    int
	Column  int
	err     error
}

func (e *ScriptError) Error() string {
	if e.Line < 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

func (e *ScriptError) Unwrap() error { return e.err }

var positionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`at line (\d+), col (\d+)`),
	regexp.MustCompile(`Line (\d+):(\d+)`),
	regexp.MustCompile(`:(\d+):(\d+)[()]`),
	regexp.MustCompile(`:(\d+):(\d+)\b`),
}

// ParsePosition extracts a line and column from an engine error message,
// returning (-1, -1) when none is present.
func ParsePosition(msg string) (line, col int) {
	for _, re := range positionPatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		l, err1 := strconv.Atoi(m[1])
		c, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return l, c
		}
	}
	return -1, -1
}

// newScriptError converts an engine error, mapping the position through the
// instrumentation of the script.
func newScriptError(err error, in instrumented) *ScriptError {
	se := &ScriptError{Message: err.Error(), err: err}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			se.err = cause
			se.Message = cause.Error()
		}
	}
	se.Line, se.Column = ParsePosition(err.Error())
	if se.Line > 0 {
		se.Column = in.originalColumn(se.Line, se.Column)
	}
	return se
}
