package bytecode

// Fault is raised by the emitter on an undefined variable read, an
// unresolved label at fixup time, or an IR node it does not (yet)
// know how to emit.
type Fault struct{ Msg string }

func (f *Fault) Error() string { return f.Msg }
