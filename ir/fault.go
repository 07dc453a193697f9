package ir

// LowerFault is raised when the AST contains a node shape lowering
// does not recognize (only possible with hand-built ASTs), or a
// numeric literal that does not fit an int64 or float64.
type LowerFault struct{ Msg string }

func (f *LowerFault) Error() string { return f.Msg }
