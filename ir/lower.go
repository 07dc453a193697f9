package ir

import (
	"strconv"
	"strings"

	"github.com/cpp20120/BVM/ast"
)

// Lower runs a single pre-order traversal over a parsed program,
// producing the flat statement-level IR the emitter consumes.
func Lower(prog *ast.Program) ([]Node, error) {
	out := make([]Node, 0, len(prog.Stmts))
	for _, s := range prog.Stmts {
		n, err := lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func lowerBlock(stmts []ast.Stmt) ([]Node, error) {
	out := make([]Node, 0, len(stmts))
	for _, s := range stmts {
		n, err := lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func lowerStmt(s ast.Stmt) (Node, error) {
	switch st := s.(type) {
	case *ast.PrintStmt:
		return lowerPrint(st)
	case *ast.LetStmt:
		val, err := lowerExpr(st.Value)
		if err != nil {
			return nil, err
		}
		return &Let{Name: st.Name, Value: val}, nil
	case *ast.AssignIndexStmt:
		target, err := lowerExpr(&ast.Var{Name: st.Name})
		if err != nil {
			return nil, err
		}
		idx, err := lowerExpr(st.Index)
		if err != nil {
			return nil, err
		}
		val, err := lowerExpr(st.Value)
		if err != nil {
			return nil, err
		}
		return &StoreIndex{Target: target, Index: idx, Value: val}, nil
	case *ast.IfStmt:
		return lowerIf(st)
	case *ast.WhileStmt:
		return lowerWhile(st)
	case *ast.RepeatStmt:
		return lowerRepeat(st)
	case *ast.ForStmt:
		return lowerFor(st)
	case *ast.InputStmt:
		return &Input{Names: st.Ids}, nil
	case *ast.ContinueStmt:
		return &Goto{Label: "__continue__"}, nil
	case *ast.ExitStmt:
		return &Goto{Label: "__break__"}, nil
	default:
		return nil, &LowerFault{Msg: "unsupported statement node"}
	}
}

// lowerPrint lowers only the first parsed expression into a Print;
// further comma-separated expressions are dropped (the documented
// multi-arg truncation). A bare PRINT prints the empty string.
func lowerPrint(st *ast.PrintStmt) (Node, error) {
	if len(st.Exprs) == 0 {
		return &Print{Value: &Const{Value: "", Type: TString}}, nil
	}
	v, err := lowerExpr(st.Exprs[0])
	if err != nil {
		return nil, err
	}
	return &Print{Value: v}, nil
}

func lowerIf(st *ast.IfStmt) (Node, error) {
	cond, err := lowerExpr(st.Cond)
	if err != nil {
		return nil, err
	}
	then, err := lowerBlock(st.Then)
	if err != nil {
		return nil, err
	}
	els, err := lowerBlock(st.Else)
	if err != nil {
		return nil, err
	}
	return &If{Cond: cond, Then: then, Else: els}, nil
}

func lowerWhile(st *ast.WhileStmt) (Node, error) {
	cond, err := lowerExpr(st.Cond)
	if err != nil {
		return nil, err
	}
	body, err := lowerBlock(st.Body)
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body}, nil
}

func lowerRepeat(st *ast.RepeatStmt) (Node, error) {
	body, err := lowerBlock(st.Body)
	if err != nil {
		return nil, err
	}
	cond, err := lowerExpr(st.Cond)
	if err != nil {
		return nil, err
	}
	return &Repeat{Body: body, Cond: cond}, nil
}

func lowerFor(st *ast.ForStmt) (Node, error) {
	from, err := lowerExpr(st.From)
	if err != nil {
		return nil, err
	}
	to, err := lowerExpr(st.To)
	if err != nil {
		return nil, err
	}
	var step Node
	if st.Step != nil {
		step, err = lowerExpr(st.Step)
		if err != nil {
			return nil, err
		}
	} else {
		step = &Const{Value: int64(1), Type: TInt}
	}
	body, err := lowerBlock(st.Body)
	if err != nil {
		return nil, err
	}
	return &For{Var: st.Var, From: from, To: to, Step: step, Body: body}, nil
}

func lowerExpr(e ast.Expr) (Node, error) {
	switch ex := e.(type) {
	case *ast.NumberLiteral:
		return lowerNumber(ex.Lexeme)
	case *ast.StringLiteral:
		return &Const{Value: ex.Value, Type: TString}, nil
	case *ast.Var:
		return &Var{Name: ex.Name}, nil
	case *ast.BinaryExpr:
		l, err := lowerExpr(ex.Left)
		if err != nil {
			return nil, err
		}
		r, err := lowerExpr(ex.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: ex.Op, Left: l, Right: r}, nil
	case *ast.UnaryExpr:
		operand, err := lowerExpr(ex.Operand)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: ex.Op, Operand: operand}, nil
	case *ast.FuncCall:
		args := make([]Node, 0, len(ex.Args))
		for _, a := range ex.Args {
			n, err := lowerExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, n)
		}
		return &Call{Name: strings.ToLower(ex.Builtin), Args: args}, nil
	case *ast.CustomCall:
		args := make([]Node, 0, len(ex.Args))
		for _, a := range ex.Args {
			n, err := lowerExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, n)
		}
		return &Call{Name: ex.Name, Args: args}, nil
	case *ast.Index:
		target, err := lowerExpr(ex.Target)
		if err != nil {
			return nil, err
		}
		idx, err := lowerExpr(ex.Index)
		if err != nil {
			return nil, err
		}
		return &Index{Target: target, Index: idx}, nil
	case *ast.NewArray:
		size, err := lowerExpr(ex.Size)
		if err != nil {
			return nil, err
		}
		return &NewArray{Size: size, ElementType: "any"}, nil
	default:
		return nil, &LowerFault{Msg: "unsupported expression node"}
	}
}

func lowerNumber(lexeme string) (Node, error) {
	if strings.Contains(lexeme, ".") {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, &LowerFault{Msg: "invalid float literal " + lexeme}
		}
		return &Const{Value: f, Type: TFloat}, nil
	}
	i, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return nil, &LowerFault{Msg: "invalid integer literal " + lexeme}
	}
	return &Const{Value: i, Type: TInt}, nil
}
