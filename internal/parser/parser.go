// Package parser builds funsor terms from a small infix expression
// language: numbers, free variables (real by default, `x:bint(4)` for a
// bounded declaration), arithmetic operators, unary function calls, and
// reductions like `sum[x] expr` or `logsumexp[x:bint(8)] expr`.
//
// Terms are constructed through the interpretation stack, so the same
// expression parses to a value under Eager and to a deferred graph under
// Lazy.
package parser

import (
	"fmt"
	"strconv"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/lexer"
	"github.com/funvibe/funsor/internal/ops"
	"github.com/funvibe/funsor/internal/term"
	"github.com/funvibe/funsor/internal/token"
)

const (
	LOWEST  = iota
	SUM     // + -
	PRODUCT // * /
	POWER   // **
	PREFIX  // -x
)

var precedences = map[token.Type]int{
	token.PLUS:  SUM,
	token.MINUS: SUM,
	token.STAR:  PRODUCT,
	token.SLASH: PRODUCT,
	token.POW:   POWER,
}

var infixOps = map[token.Type]*ops.BinaryOp{
	token.PLUS:  ops.Add,
	token.MINUS: ops.Sub,
	token.STAR:  ops.Mul,
	token.SLASH: ops.Div,
	token.POW:   ops.Pow,
}

// reduceOps maps reduction keywords to their fold op.
var reduceOps = map[string]*ops.BinaryOp{
	"sum":       ops.Add,
	"prod":      ops.Mul,
	"max":       ops.Max,
	"min":       ops.Min,
	"logsumexp": ops.LogAddExp,
}

// callOps maps one-argument function-call names to unary ops.
var callOps = map[string]*ops.UnaryOp{
	"exp":  ops.Exp,
	"log":  ops.Log,
	"abs":  ops.Abs,
	"sqrt": ops.Sqrt,
	"neg":  ops.Neg,
}

type Parser struct {
	l   *lexer.Lexer
	cur token.Token
	pk  token.Token

	// decls records the domain of every variable seen with a type
	// annotation; a name carries one domain per expression.
	decls map[string]domain.Domain
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, decls: make(map[string]domain.Domain)}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses one whole expression.
func Parse(input string) (term.Funsor, error) {
	return New(lexer.New(input)).ParseExpression()
}

func (p *Parser) nextToken() {
	p.cur = p.pk
	p.pk = p.l.NextToken()
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) error {
	return fmt.Errorf("line %d:%d: %s", tok.Line, tok.Column, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t token.Type) error {
	if p.cur.Type != t {
		return p.errorf(p.cur, "expected %q, got %q", t, p.cur.Lexeme)
	}
	p.nextToken()
	return nil
}

// ParseExpression parses the full input and requires it to be consumed.
func (p *Parser) ParseExpression() (term.Funsor, error) {
	f, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.EOF {
		return nil, p.errorf(p.cur, "unexpected %q", p.cur.Lexeme)
	}
	return f, nil
}

func (p *Parser) parseExpression(precedence int) (term.Funsor, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for precedence < p.curPrecedence() {
		op := infixOps[p.cur.Type]
		opPrec := p.curPrecedence()
		p.nextToken()
		// ** is right-associative.
		if op == ops.Pow {
			opPrec--
		}
		right, err := p.parseExpression(opPrec)
		if err != nil {
			return nil, err
		}
		left, err = term.NewBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parsePrefix() (term.Funsor, error) {
	switch p.cur.Type {
	case token.NUMBER:
		return p.parseNumber()
	case token.IDENT:
		return p.parseIdent()
	case token.MINUS:
		p.nextToken()
		arg, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return term.NewUnary(ops.Neg, arg)
	case token.LPAREN:
		p.nextToken()
		f, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, p.errorf(p.cur, "unexpected %q", p.cur.Lexeme)
	}
}

func (p *Parser) parseNumber() (term.Funsor, error) {
	tok := p.cur
	data, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		return nil, p.errorf(tok, "bad number %q", tok.Lexeme)
	}
	p.nextToken()
	return term.NewNumber(data)
}

func (p *Parser) parseIdent() (term.Funsor, error) {
	tok := p.cur
	name := tok.Lexeme

	if op, ok := reduceOps[name]; ok && p.pk.Type == token.LBRACKET {
		return p.parseReduction(op)
	}
	if p.pk.Type == token.LPAREN {
		return p.parseCall(tok)
	}
	p.nextToken()
	return p.variable(tok, name)
}

// parseReduction parses `sum[x, y:bint(4)] expr`.
func (p *Parser) parseReduction(op *ops.BinaryOp) (term.Funsor, error) {
	p.nextToken() // keyword
	p.nextToken() // [
	var names []string
	for {
		if p.cur.Type != token.IDENT {
			return nil, p.errorf(p.cur, "expected variable name, got %q", p.cur.Lexeme)
		}
		name := p.cur.Lexeme
		p.nextToken()
		if p.cur.Type == token.COLON {
			if err := p.parseAnnotation(name); err != nil {
				return nil, err
			}
		}
		names = append(names, name)
		if p.cur.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return term.NewReduce(op, body, term.NewVarSet(names...))
}

// parseCall parses unary calls like exp(x) and binary calls like
// max(x, y) or logaddexp(a, b).
func (p *Parser) parseCall(tok token.Token) (term.Funsor, error) {
	name := tok.Lexeme
	p.nextToken() // name
	p.nextToken() // (
	first, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur.Type == token.COMMA {
		op, ok := ops.BinaryByName(binaryCallName(name))
		if !ok {
			return nil, p.errorf(tok, "%q is not a binary function", name)
		}
		p.nextToken()
		second, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return term.NewBinary(op, first, second)
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	op, ok := callOps[name]
	if !ok {
		return nil, p.errorf(tok, "unknown function %q", name)
	}
	return term.NewUnary(op, first)
}

func binaryCallName(name string) string {
	// logaddexp(a, b) spells the op name directly; min/max match too.
	return name
}

// parseAnnotation parses `:bint(N)` after a variable name.
func (p *Parser) parseAnnotation(name string) error {
	annot := p.cur
	p.nextToken() // :
	if p.cur.Type != token.IDENT || p.cur.Lexeme != "bint" {
		return p.errorf(p.cur, "expected bint(N) annotation, got %q", p.cur.Lexeme)
	}
	p.nextToken()
	if err := p.expect(token.LPAREN); err != nil {
		return err
	}
	if p.cur.Type != token.NUMBER {
		return p.errorf(p.cur, "expected domain size, got %q", p.cur.Lexeme)
	}
	size, err := strconv.Atoi(p.cur.Lexeme)
	if err != nil || size < 0 {
		return p.errorf(p.cur, "bad domain size %q", p.cur.Lexeme)
	}
	p.nextToken()
	if err := p.expect(token.RPAREN); err != nil {
		return err
	}
	d := domain.Bint(size)
	if prior, ok := p.decls[name]; ok && prior != d {
		return p.errorf(annot, "conflicting domains for %q: %s vs %s", name, prior, d)
	}
	p.decls[name] = d
	return nil
}

func (p *Parser) variable(tok token.Token, name string) (term.Funsor, error) {
	if p.cur.Type == token.COLON {
		if err := p.parseAnnotation(name); err != nil {
			return nil, err
		}
	}
	if d, ok := p.decls[name]; ok {
		return term.NewVariableIn(name, d)
	}
	return term.NewVariable(name)
}
