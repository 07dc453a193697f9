// Package ir defines the flat, bytecode-shaped intermediate form that
// the AST lowers to before emission.
package ir

import "fmt"

type Node interface {
	irNode()
	String() string
}

type ValueType string

const (
	TInt    ValueType = "INT"
	TFloat  ValueType = "FLOAT"
	TString ValueType = "STRING"
	TBool   ValueType = "BOOL"
)

// Const carries a literal ready for PUSH/PUSHS emission. Value holds
// the parsed Go representation (int64, float64, string, bool).
type Const struct {
	Value interface{}
	Type  ValueType
}

func (*Const) irNode()      {}
func (c *Const) String() string { return fmt.Sprintf("Const(%v:%s)", c.Value, c.Type) }

// Var reads a named local onto the stack.
type Var struct{ Name string }

func (*Var) irNode()          {}
func (v *Var) String() string { return fmt.Sprintf("Var(%s)", v.Name) }

// Let stores the result of Value into Name's slot.
type Let struct {
	Name  string
	Value Node
}

func (*Let) irNode()          {}
func (l *Let) String() string { return fmt.Sprintf("Let(%s = %s)", l.Name, l.Value) }

// Print emits exactly one value. Multi-expression PRINT statements are
// truncated to their first expression during lowering (documented
// behavior, not a bug to fix here).
type Print struct{ Value Node }

func (*Print) irNode()          {}
func (p *Print) String() string { return fmt.Sprintf("Print(%s)", p.Value) }

// Binary carries the operator as a bare textual token so this package
// never depends on the parser's token enum.
type Binary struct {
	Op          string
	Left, Right Node
}

func (*Binary) irNode()          {}
func (b *Binary) String() string { return fmt.Sprintf("Binary(%s %s %s)", b.Left, b.Op, b.Right) }

type Unary struct {
	Op      string
	Operand Node
}

func (*Unary) irNode()          {}
func (u *Unary) String() string { return fmt.Sprintf("Unary(%s %s)", u.Op, u.Operand) }

// Call names a builtin (len/val/isnan) or user routine. The bytecode
// emitter does not implement Call; it exists so lowering has a fixed
// node to produce for builtin invocations rather than dropping them.
type Call struct {
	Name string
	Args []Node
}

func (*Call) irNode()          {}
func (c *Call) String() string { return fmt.Sprintf("Call(%s, %d args)", c.Name, len(c.Args)) }

type If struct {
	Cond       Node
	Then, Else []Node
}

func (*If) irNode() {}
func (i *If) String() string {
	return fmt.Sprintf("If(%s, then=%d, else=%d)", i.Cond, len(i.Then), len(i.Else))
}

type While struct {
	Cond Node
	Body []Node
}

func (*While) irNode()          {}
func (w *While) String() string { return fmt.Sprintf("While(%s, body=%d)", w.Cond, len(w.Body)) }

type Repeat struct {
	Body []Node
	Cond Node
}

func (*Repeat) irNode() {}
func (r *Repeat) String() string {
	return fmt.Sprintf("Repeat(body=%d, until=%s)", len(r.Body), r.Cond)
}

// For always carries a Step: when the source omitted STEP, lowering
// fills in an integer Const(1).
type For struct {
	Var            string
	From, To, Step Node
	Body           []Node
}

func (*For) irNode() {}
func (f *For) String() string {
	return fmt.Sprintf("For(%s, body=%d)", f.Var, len(f.Body))
}

type Input struct{ Names []string }

func (*Input) irNode()          {}
func (i *Input) String() string { return fmt.Sprintf("Input(%v)", i.Names) }

// Goto is an unresolved control-transfer marker. Continue/Exit lower
// to Goto("__continue__") / Goto("__break__"); the emitter reserves
// these names but does not resolve them.
type Goto struct{ Label string }

func (*Goto) irNode()          {}
func (g *Goto) String() string { return fmt.Sprintf("Goto(%s)", g.Label) }

type Index struct{ Target, Index Node }

func (*Index) irNode()          {}
func (x *Index) String() string { return fmt.Sprintf("Index(%s, %s)", x.Target, x.Index) }

type StoreIndex struct{ Target, Index, Value Node }

func (*StoreIndex) irNode() {}
func (s *StoreIndex) String() string {
	return fmt.Sprintf("StoreIndex(%s[%s] = %s)", s.Target, s.Index, s.Value)
}

// NewArray allocates a fixed-size array. ElementType is a declared
// element-type tag; the source grammar has no syntax to supply one, so
// lowering always defaults it to "any". The emitter does not encode
// it (NEWARRAY has no operand), and the VM tags every array "any".
type NewArray struct {
	Size        Node
	ElementType string
}

func (*NewArray) irNode() {}
func (n *NewArray) String() string {
	return fmt.Sprintf("NewArray(%s, %s)", n.Size, n.ElementType)
}
