package token

type Type string

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	NUMBER Type = "NUMBER"
	IDENT  Type = "IDENT"

	PLUS  Type = "+"
	MINUS Type = "-"
	STAR  Type = "*"
	SLASH Type = "/"
	POW   Type = "**"

	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACKET Type = "["
	RBRACKET Type = "]"
	COMMA    Type = ","
	COLON    Type = ":"
	EQUALS   Type = "="
)

type Token struct {
	Type   Type
	Lexeme string
	Line   int
	Column int
}
