package lexer

import "fmt"

// Fault is raised when the tokenizer meets a character it cannot
// classify into any token kind, or an unterminated string literal.
type Fault struct {
	Line int
	Col  int
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("line %d:%d: %s", f.Line, f.Col, f.Msg)
}
