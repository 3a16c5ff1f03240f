package lexer

import (
	"testing"

	"github.com/funvibe/funsor/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `sum[x:bint(4)] x ** 2 + y_1 * 3.5 / 1e-3 - max(a, b)`

	tests := []struct {
		expectedType   token.Type
		expectedLexeme string
	}{
		{token.IDENT, "sum"},
		{token.LBRACKET, "["},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.IDENT, "bint"},
		{token.LPAREN, "("},
		{token.NUMBER, "4"},
		{token.RPAREN, ")"},
		{token.RBRACKET, "]"},
		{token.IDENT, "x"},
		{token.POW, "**"},
		{token.NUMBER, "2"},
		{token.PLUS, "+"},
		{token.IDENT, "y_1"},
		{token.STAR, "*"},
		{token.NUMBER, "3.5"},
		{token.SLASH, "/"},
		{token.NUMBER, "1e-3"},
		{token.MINUS, "-"},
		{token.IDENT, "max"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong type. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - wrong lexeme. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("x @ y")
	l.NextToken()
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL || tok.Lexeme != "@" {
		t.Fatalf("got (%q, %q), want ILLEGAL @", tok.Type, tok.Lexeme)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	l := New("x\n  yy")
	first := l.NextToken()
	if first.Line != 1 || first.Column != 1 {
		t.Errorf("x at %d:%d, want 1:1", first.Line, first.Column)
	}
	second := l.NextToken()
	if second.Line != 2 || second.Column != 3 {
		t.Errorf("yy at %d:%d, want 2:3", second.Line, second.Column)
	}
}

func TestNumberForms(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"42", "42"},
		{"3.5", "3.5"},
		{"1e3", "1e3"},
		{"1.5e+2", "1.5e+2"},
		{"2E-7", "2E-7"},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.NUMBER || tok.Lexeme != tt.want {
			t.Errorf("lex(%q) = (%q, %q), want NUMBER %q", tt.input, tok.Type, tok.Lexeme, tt.want)
		}
	}
}

func TestDotWithoutDigitsStopsNumber(t *testing.T) {
	l := New("3.x")
	num := l.NextToken()
	if num.Type != token.NUMBER || num.Lexeme != "3" {
		t.Fatalf("got (%q, %q), want NUMBER 3", num.Type, num.Lexeme)
	}
}
