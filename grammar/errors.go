package grammar

import "fmt"

// Error reports a malformed grammar. Line is 1-based and zero when the error
// is not tied to a line of a textual grammar.
type Error struct {
	File    string
	Line    int
	Content string
	Msg     string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		if e.File != "" {
			return fmt.Sprintf("%s: %s", e.File, e.Msg)
		}
		return e.Msg
	}
	loc := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Content != "" {
		return fmt.Sprintf("%s: %s: %q", loc, e.Msg, e.Content)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}
