package astwalk

import (
	"iter"

	"github.com/podhmo/lox/ast"
)

// Nodes returns an iterator over every node of the given statements,
// parents before children, in source order.
// This function is designed to be used with Go 1.23's range-over-function feature.
// Example:
//
//	for node := range Nodes(stmts) {
//		// use node
//	}
func Nodes(stmts []ast.Stmt) iter.Seq[ast.Node] {
	return func(yield func(ast.Node) bool) {
		for _, s := range stmts {
			if !walk(s, yield) {
				return // Stop iteration if yield returns false
			}
		}
	}
}

// Refs returns an iterator over the binding references (variables,
// assignments, this and super) of the given statements, in source order.
func Refs(stmts []ast.Stmt) iter.Seq[ast.Ref] {
	return func(yield func(ast.Ref) bool) {
		for n := range Nodes(stmts) {
			if ref, ok := n.(ast.Ref); ok {
				if !yield(ref) {
					return
				}
			}
		}
	}
}

func walk(n ast.Node, yield func(ast.Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	switch n := n.(type) {
	case *ast.Expression:
		return walk(n.Expr, yield)
	case *ast.Print:
		return walk(n.Expr, yield)
	case *ast.Var:
		if n.Init == nil {
			return true
		}
		return walk(n.Init, yield)
	case *ast.Block:
		return walkAll(n.Stmts, yield)
	case *ast.If:
		if !walk(n.Cond, yield) || !walk(n.Then, yield) {
			return false
		}
		if n.Else == nil {
			return true
		}
		return walk(n.Else, yield)
	case *ast.While:
		return walk(n.Cond, yield) && walk(n.Body, yield)
	case *ast.Function:
		return walkAll(n.Body, yield)
	case *ast.Return:
		if n.Value == nil {
			return true
		}
		return walk(n.Value, yield)
	case *ast.Class:
		if n.Superclass != nil && !walk(n.Superclass, yield) {
			return false
		}
		for _, m := range n.Methods {
			if !walk(m, yield) {
				return false
			}
		}
		return true

	case *ast.Assign:
		return walk(n.Value, yield)
	case *ast.Unary:
		return walk(n.Right, yield)
	case *ast.Binary:
		return walk(n.Left, yield) && walk(n.Right, yield)
	case *ast.Logical:
		return walk(n.Left, yield) && walk(n.Right, yield)
	case *ast.Grouping:
		return walk(n.Expr, yield)
	case *ast.Call:
		if !walk(n.Callee, yield) {
			return false
		}
		for _, a := range n.Args {
			if !walk(a, yield) {
				return false
			}
		}
		return true
	case *ast.Get:
		return walk(n.Object, yield)
	case *ast.Set:
		return walk(n.Object, yield) && walk(n.Value, yield)
	case *ast.FunctionExpr:
		return walk(n.Func, yield)
	}
	return true
}

func walkAll(stmts []ast.Stmt, yield func(ast.Node) bool) bool {
	for _, s := range stmts {
		if !walk(s, yield) {
			return false
		}
	}
	return true
}
