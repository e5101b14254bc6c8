// Package ast defines the typed representation of dply pipeline scripts.
//
// Every node is a variant in a closed sum type: there is no open
// polymorphism here, only a fixed set of structs implementing the sealed
// Expr interface. Signature checking, compilation, and diagnostics all
// drive off a single type switch over these variants.
package ast

import "dply/internal/lexer"

// Expr is the sealed interface implemented by every expression node.
// The unexported exprNode method prevents external packages from adding
// variants outside this file.
type Expr interface {
	exprNode()
	Span() lexer.Span
}

// LitKind distinguishes the literal variants folded into a single Literal
// struct (IntLit | FloatLit | StrLit | BoolLit in the grammar).
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
)

// Literal is a constant value: integer, float, string, or boolean.
type Literal struct {
	Kind  LitKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	SpanV lexer.Span
}

func (l *Literal) exprNode()        {}
func (l *Literal) Span() lexer.Span { return l.SpanV }

// Ident is a column identifier, bare or back-tick quoted. Quoted identifiers
// may contain spaces or punctuation that bare identifiers cannot.
type Ident struct {
	Name   string
	Quoted bool
	SpanV  lexer.Span
}

func (i *Ident) exprNode()        {}
func (i *Ident) Span() lexer.Span { return i.SpanV }

// Call is a function invocation: a name followed by a parenthesized,
// comma-separated argument list. Args may themselves be any Expr variant,
// including nested Calls and Assigns (named options are Assigns too).
type Call struct {
	Name  string
	Args  []Expr
	SpanV lexer.Span
}

func (c *Call) exprNode()        {}
func (c *Call) Span() lexer.Span { return c.SpanV }

// Assign is `target = value`, used by rename/select/mutate/summarize to
// introduce or alias a column.
type Assign struct {
	Target string
	Value  Expr
	SpanV  lexer.Span
}

func (a *Assign) exprNode()        {}
func (a *Assign) Span() lexer.Span { return a.SpanV }

// CmpOp enumerates the comparison operators.
type CmpOp string

const (
	CmpEq CmpOp = "=="
	CmpNe CmpOp = "!="
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
)

// Cmp is a comparison expression: `lhs OP rhs`.
type Cmp struct {
	Op    CmpOp
	Lhs   Expr
	Rhs   Expr
	SpanV lexer.Span
}

func (c *Cmp) exprNode()        {}
func (c *Cmp) Span() lexer.Span { return c.SpanV }

// LogicalOp enumerates the logical operators. And binds tighter than Or.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "&"
	LogicalOr  LogicalOp = "|"
)

// Logical is a boolean combination: `lhs & rhs` or `lhs | rhs`.
type Logical struct {
	Op    LogicalOp
	Lhs   Expr
	Rhs   Expr
	SpanV lexer.Span
}

func (l *Logical) exprNode()        {}
func (l *Logical) Span() lexer.Span { return l.SpanV }

// ArithOp enumerates the arithmetic operators usable inside mutate().
type ArithOp string

const (
	ArithAdd ArithOp = "+"
	ArithSub ArithOp = "-"
	ArithMul ArithOp = "*"
	ArithDiv ArithOp = "/"
)

// Arith is an arithmetic expression: `lhs OP rhs`.
type Arith struct {
	Op    ArithOp
	Lhs   Expr
	Rhs   Expr
	SpanV lexer.Span
}

func (a *Arith) exprNode()        {}
func (a *Arith) Span() lexer.Span { return a.SpanV }

// Not is a unary logical negation: `!inner`. Used both to invert a filter
// predicate and to negate a column selector (e.g. `!contains("x")`).
type Not struct {
	Inner Expr
	SpanV lexer.Span
}

func (n *Not) exprNode()        {}
func (n *Not) Span() lexer.Span { return n.SpanV }

// Neg is unary arithmetic negation: `-inner`.
type Neg struct {
	Inner Expr
	SpanV lexer.Span
}

func (n *Neg) exprNode()        {}
func (n *Neg) Span() lexer.Span { return n.SpanV }

// Pipeline is a non-empty ordered sequence of steps joined by `|`.
// Each step is itself an Expr: a Call, or a bare Ident naming a variable
// assignment target.
type Pipeline struct {
	Steps []Expr
	SpanV lexer.Span
}

func (p *Pipeline) Span() lexer.Span { return p.SpanV }

// Script is the root node: an ordered sequence of one or more pipelines.
type Script struct {
	Pipelines []*Pipeline
}
