// Package parser builds an ast.Script from dply source text.
//
// The grammar is a small recursive-descent design: script -> pipelines,
// pipeline -> steps joined by '|', step -> call or bare identifier, and a
// standard precedence chain (or, and, comparison, additive, multiplicative,
// unary, primary) for expressions nested inside a call's argument list.
//
// The pipe token '|' is deliberately overloaded: at the top of a pipeline it
// separates steps, while inside a call's parenthesized argument list it is
// the logical OR operator. The two never collide because the pipeline loop
// never recurses into expr() at step boundaries, and expr() is only ever
// entered from inside an already-open argument list.
package parser

import (
	"fmt"

	"dply/internal/ast"
	"dply/internal/dplyerr"
	"dply/internal/lexer"
)

// Parser turns a token stream into an *ast.Script.
type Parser struct {
	lex  *lexer.Lexer
	tok  lexer.Token
	next lexer.Token
}

// Parse tokenizes and parses a complete script.
func Parse(src string) (*ast.Script, error) {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	p.advance()
	return p.parseScript()
}

func (p *Parser) advance() {
	p.tok = p.next
	p.next = p.lex.NextToken()
}

func (p *Parser) span(start lexer.Position) lexer.Span {
	return lexer.Span{Start: start, End: p.tok.Pos}
}

func (p *Parser) errf(format string, args ...any) error {
	return dplyerr.Parse(lexer.Span{Start: p.tok.Pos, End: p.tok.Pos}, format, args...)
}

// skipSeparators consumes any run of newlines/semicolons between pipelines.
func (p *Parser) skipSeparators() {
	for p.tok.Type == lexer.NEWLINE || p.tok.Type == lexer.SEMICOLON {
		p.advance()
	}
}

func (p *Parser) parseScript() (*ast.Script, error) {
	script := &ast.Script{}
	p.skipSeparators()
	for p.tok.Type != lexer.EOF {
		pl, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		script.Pipelines = append(script.Pipelines, pl)
		p.skipSeparators()
	}
	if len(script.Pipelines) == 0 {
		return nil, p.errf("empty script")
	}
	return script, nil
}

func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	start := p.tok.Pos
	var steps []ast.Expr

	step, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, step)

	for p.tok.Type == lexer.PIPE {
		p.advance()
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return &ast.Pipeline{Steps: steps, SpanV: p.span(start)}, nil
}

// parseStep parses a single pipeline step: a function call or a bare
// variable-assignment identifier.
func (p *Parser) parseStep() (ast.Expr, error) {
	if p.tok.Type != lexer.IDENT {
		return nil, p.errf("expected a function call or variable name, found %s", p.tok)
	}
	if p.next.Type == lexer.LPAREN {
		return p.parseCall()
	}
	start := p.tok.Pos
	name := p.tok.Value
	p.advance()
	return &ast.Ident{Name: name, SpanV: p.span(start)}, nil
}

func (p *Parser) parseCall() (*ast.Call, error) {
	start := p.tok.Pos
	name := p.tok.Value
	p.advance() // consume name
	if p.tok.Type != lexer.LPAREN {
		return nil, p.errf("expected '(' after %q, found %s", name, p.tok)
	}
	p.advance() // consume '('

	var args []ast.Expr
	if p.tok.Type != lexer.RPAREN {
		for {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.Type == lexer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.tok.Type != lexer.RPAREN {
		return nil, p.errf("expected ')' to close %q, found %s", name, p.tok)
	}
	p.advance() // consume ')'

	return &ast.Call{Name: name, Args: args, SpanV: p.span(start)}, nil
}

// parseArg parses one argument: `ident = expr` (assignment or named option,
// disambiguated later against the callee's schema) or a bare expr.
func (p *Parser) parseArg() (ast.Expr, error) {
	if p.tok.Type == lexer.IDENT && p.next.Type == lexer.ASSIGN {
		start := p.tok.Pos
		target := p.tok.Value
		p.advance() // ident
		p.advance() // '='
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Target: target, Value: value, SpanV: p.span(start)}, nil
	}
	return p.parseExpr()
}

// parseExpr is the entry point for the precedence chain: or binds loosest.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

// parseOr implements `and_expr ('|' or_expr)?` — right-associative.
func (p *Parser) parseOr() (ast.Expr, error) {
	start := p.tok.Pos
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.PIPE {
		p.advance()
		rhs, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return &ast.Logical{Op: ast.LogicalOr, Lhs: lhs, Rhs: rhs, SpanV: p.span(start)}, nil
	}
	return lhs, nil
}

// parseAnd implements `cmp ('&' and_expr)?` — right-associative, tighter
// than or.
func (p *Parser) parseAnd() (ast.Expr, error) {
	start := p.tok.Pos
	lhs, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.AMP {
		p.advance()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		return &ast.Logical{Op: ast.LogicalAnd, Lhs: lhs, Rhs: rhs, SpanV: p.span(start)}, nil
	}
	return lhs, nil
}

var cmpOps = map[lexer.TokenType]ast.CmpOp{
	lexer.EQ: ast.CmpEq,
	lexer.NE: ast.CmpNe,
	lexer.LT: ast.CmpLt,
	lexer.LE: ast.CmpLe,
	lexer.GT: ast.CmpGt,
	lexer.GE: ast.CmpGe,
}

// parseCmp implements `add (cmp_op add)?`; comparisons do not chain.
func (p *Parser) parseCmp() (ast.Expr, error) {
	start := p.tok.Pos
	lhs, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.tok.Type]; ok {
		p.advance()
		rhs, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.Cmp{Op: op, Lhs: lhs, Rhs: rhs, SpanV: p.span(start)}, nil
	}
	return lhs, nil
}

// parseAdd implements `mul (('+'|'-') add)?` — right-associative.
func (p *Parser) parseAdd() (ast.Expr, error) {
	start := p.tok.Pos
	lhs, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.PLUS || p.tok.Type == lexer.MINUS {
		op := ast.ArithAdd
		if p.tok.Type == lexer.MINUS {
			op = ast.ArithSub
		}
		p.advance()
		rhs, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.Arith{Op: op, Lhs: lhs, Rhs: rhs, SpanV: p.span(start)}, nil
	}
	return lhs, nil
}

// parseMul implements `unary (('*'|'/') mul)?` — right-associative.
func (p *Parser) parseMul() (ast.Expr, error) {
	start := p.tok.Pos
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.STAR || p.tok.Type == lexer.SLASH {
		op := ast.ArithMul
		if p.tok.Type == lexer.SLASH {
			op = ast.ArithDiv
		}
		p.advance()
		rhs, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		return &ast.Arith{Op: op, Lhs: lhs, Rhs: rhs, SpanV: p.span(start)}, nil
	}
	return lhs, nil
}

// parseUnary implements `'!'? primary`. A leading '-' on a primary is also
// accepted here so numeric/duration arithmetic in mutate() can negate a
// column or literal.
func (p *Parser) parseUnary() (ast.Expr, error) {
	start := p.tok.Pos
	switch p.tok.Type {
	case lexer.BANG:
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Inner: inner, SpanV: p.span(start)}, nil
	case lexer.MINUS:
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Neg{Inner: inner, SpanV: p.span(start)}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	start := p.tok.Pos
	switch p.tok.Type {
	case lexer.INT:
		v := p.tok.Value
		p.advance()
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return nil, dplyerr.Parse(p.span(start), "invalid integer literal %q", v)
		}
		return &ast.Literal{Kind: ast.LitInt, Int: n, SpanV: p.span(start)}, nil
	case lexer.FLOAT:
		v := p.tok.Value
		p.advance()
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return nil, dplyerr.Parse(p.span(start), "invalid float literal %q", v)
		}
		return &ast.Literal{Kind: ast.LitFloat, Float: f, SpanV: p.span(start)}, nil
	case lexer.STRING:
		v := p.tok.Value
		p.advance()
		return &ast.Literal{Kind: ast.LitString, Str: v, SpanV: p.span(start)}, nil
	case lexer.BOOL:
		v := p.tok.Value == "true"
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Bool: v, SpanV: p.span(start)}, nil
	case lexer.BACKTICK_IDENT:
		v := p.tok.Value
		p.advance()
		return &ast.Ident{Name: v, Quoted: true, SpanV: p.span(start)}, nil
	case lexer.IDENT:
		if p.next.Type == lexer.LPAREN {
			return p.parseCall()
		}
		v := p.tok.Value
		p.advance()
		return &ast.Ident{Name: v, SpanV: p.span(start)}, nil
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.Type != lexer.RPAREN {
			return nil, p.errf("expected ')' to close parenthesized expression, found %s", p.tok)
		}
		p.advance()
		return inner, nil
	default:
		return nil, p.errf("unexpected token %s", p.tok)
	}
}
