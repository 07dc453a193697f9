package ast

import (
	"fmt"
	"strings"
)

type Stmt interface {
	Node
	stmtNode()
	String() string
}

// Program is the root node: an ordered sequence of statements.
type Program struct {
	S     Span
	Stmts []Stmt
}

func (p *Program) NodeKind() string { return "Program" }
func (p *Program) stmtNode()        {}
func (p *Program) GetSpan() Span    { return p.S }
func (p *Program) String() string   { return fmt.Sprintf("Program(%d stmts)", len(p.Stmts)) }

type PrintStmt struct {
	S     Span
	Exprs []Expr
}

func (p *PrintStmt) NodeKind() string { return "Print" }
func (p *PrintStmt) stmtNode()        {}
func (p *PrintStmt) GetSpan() Span    { return p.S }
func (p *PrintStmt) String() string {
	parts := make([]string, 0, len(p.Exprs))
	for _, e := range p.Exprs {
		parts = append(parts, e.String())
	}
	return fmt.Sprintf("Print(%s)", strings.Join(parts, ", "))
}

type LetStmt struct {
	S     Span
	Name  string
	Value Expr
}

func (l *LetStmt) NodeKind() string { return "Let" }
func (l *LetStmt) stmtNode()        {}
func (l *LetStmt) GetSpan() Span    { return l.S }
func (l *LetStmt) String() string   { return fmt.Sprintf("Let(%s = %s)", l.Name, l.Value.String()) }

// AssignIndexStmt is `LET id[index] = value`.
type AssignIndexStmt struct {
	S     Span
	Name  string
	Index Expr
	Value Expr
}

func (a *AssignIndexStmt) NodeKind() string { return "AssignIndex" }
func (a *AssignIndexStmt) stmtNode()        {}
func (a *AssignIndexStmt) GetSpan() Span    { return a.S }
func (a *AssignIndexStmt) String() string {
	return fmt.Sprintf("AssignIndex(%s[%s] = %s)", a.Name, a.Index.String(), a.Value.String())
}

type IfStmt struct {
	S    Span
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (i *IfStmt) NodeKind() string { return "If" }
func (i *IfStmt) stmtNode()        {}
func (i *IfStmt) GetSpan() Span    { return i.S }
func (i *IfStmt) String() string {
	return fmt.Sprintf("If(%s, then=%d, else=%d)", i.Cond.String(), len(i.Then), len(i.Else))
}

type WhileStmt struct {
	S    Span
	Cond Expr
	Body []Stmt
}

func (w *WhileStmt) NodeKind() string { return "While" }
func (w *WhileStmt) stmtNode()        {}
func (w *WhileStmt) GetSpan() Span    { return w.S }
func (w *WhileStmt) String() string {
	return fmt.Sprintf("While(%s, body=%d)", w.Cond.String(), len(w.Body))
}

// RepeatStmt is REPEAT body UNTIL cond — a post-test loop.
type RepeatStmt struct {
	S    Span
	Body []Stmt
	Cond Expr
}

func (r *RepeatStmt) NodeKind() string { return "Repeat" }
func (r *RepeatStmt) stmtNode()        {}
func (r *RepeatStmt) GetSpan() Span    { return r.S }
func (r *RepeatStmt) String() string {
	return fmt.Sprintf("Repeat(body=%d, until=%s)", len(r.Body), r.Cond.String())
}

type ForStmt struct {
	S     Span
	Var   string
	From  Expr
	To    Expr
	Step  Expr // nil means default step of integer 1
	Body  []Stmt
}

func (f *ForStmt) NodeKind() string { return "For" }
func (f *ForStmt) stmtNode()        {}
func (f *ForStmt) GetSpan() Span    { return f.S }
func (f *ForStmt) String() string {
	step := "1"
	if f.Step != nil {
		step = f.Step.String()
	}
	return fmt.Sprintf("For(%s = %s to %s step %s, body=%d)", f.Var, f.From.String(), f.To.String(), step, len(f.Body))
}

type InputStmt struct {
	S    Span
	Ids  []string
}

func (in *InputStmt) NodeKind() string { return "Input" }
func (in *InputStmt) stmtNode()        {}
func (in *InputStmt) GetSpan() Span    { return in.S }
func (in *InputStmt) String() string   { return fmt.Sprintf("Input(%s)", strings.Join(in.Ids, ", ")) }

type ContinueStmt struct{ S Span }

func (c *ContinueStmt) NodeKind() string { return "Continue" }
func (c *ContinueStmt) stmtNode()        {}
func (c *ContinueStmt) GetSpan() Span    { return c.S }
func (c *ContinueStmt) String() string   { return "Continue" }

type ExitStmt struct{ S Span }

func (e *ExitStmt) NodeKind() string { return "Exit" }
func (e *ExitStmt) stmtNode()        {}
func (e *ExitStmt) GetSpan() Span    { return e.S }
func (e *ExitStmt) String() string   { return "Exit" }
