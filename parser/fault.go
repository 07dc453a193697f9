package parser

import "fmt"

// Fault is raised on an unexpected token or a missing keyword. The
// parser never attempts recovery: the first Fault aborts ParseProgram.
type Fault struct {
	Line int
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("line %d: %s", f.Line, f.Msg)
}
