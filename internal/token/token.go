package token

// Type identifies the category of a token.
type Type string

// Token is a lexical item. The lexeme is not copied: Start and Length
// locate it inside the source the token was scanned from.
type Token struct {
	Type   Type
	Line   int
	Start  int
	Length int
	// Message is set on Illegal tokens only.
	Message string
}

// Lexeme returns the slice of src the token covers.
func (t Token) Lexeme(src string) string {
	if t.Start < 0 || t.Start+t.Length > len(src) {
		return ""
	}
	return src[t.Start : t.Start+t.Length]
}

const (
	Illegal Type = "ILLEGAL"
	EOF     Type = "EOF"

	// identifiers and literals
	Identifier Type = "IDENTIFIER"
	Number     Type = "NUMBER"
	String     Type = "STRING"

	// keywords
	And    Type = "AND"
	Class  Type = "CLASS"
	Else   Type = "ELSE"
	False  Type = "FALSE"
	For    Type = "FOR"
	Fun    Type = "FUN"
	If     Type = "IF"
	Nil    Type = "NIL"
	Or     Type = "OR"
	Print  Type = "PRINT"
	Return Type = "RETURN"
	Super  Type = "SUPER"
	This   Type = "THIS"
	True   Type = "TRUE"
	Var    Type = "VAR"
	While  Type = "WHILE"

	// operators
	Minus        Type = "MINUS"        // -
	Plus         Type = "PLUS"         // +
	Star         Type = "STAR"         // *
	Slash        Type = "SLASH"        // /
	Bang         Type = "BANG"         // !
	BangEqual    Type = "BANGEQUAL"    // !=
	Equal        Type = "EQUAL"        // =
	EqualEqual   Type = "EQUALEQUAL"   // ==
	Less         Type = "LESS"         // <
	LessEqual    Type = "LESSEQUAL"    // <=
	Greater      Type = "GREATER"      // >
	GreaterEqual Type = "GREATEREQUAL" // >=

	// delimiters
	LParen    Type = "LPAREN"
	RParen    Type = "RPAREN"
	LBrace    Type = "LBRACE"
	RBrace    Type = "RBRACE"
	Semicolon Type = "SEMICOLON"
	Comma     Type = "COMMA"
	Dot       Type = "DOT"
)

// LookupIdent returns the keyword token type or Identifier.
// Candidates are picked by the leading characters and then confirmed
// against the whole word.
func LookupIdent(ident string) Type {
	if ident == "" {
		return Identifier
	}
	switch ident[0] {
	case 'a':
		return rest(ident, "and", And)
	case 'c':
		return rest(ident, "class", Class)
	case 'e':
		return rest(ident, "else", Else)
	case 'i':
		return rest(ident, "if", If)
	case 'n':
		return rest(ident, "nil", Nil)
	case 'o':
		return rest(ident, "or", Or)
	case 'p':
		return rest(ident, "print", Print)
	case 'r':
		return rest(ident, "return", Return)
	case 's':
		return rest(ident, "super", Super)
	case 'v':
		return rest(ident, "var", Var)
	case 'w':
		return rest(ident, "while", While)
	case 'f':
		if len(ident) < 2 {
			return Identifier
		}
		switch ident[1] {
		case 'a':
			return rest(ident, "false", False)
		case 'o':
			return rest(ident, "for", For)
		case 'u':
			return rest(ident, "fun", Fun)
		}
	case 't':
		if len(ident) < 2 {
			return Identifier
		}
		switch ident[1] {
		case 'h':
			return rest(ident, "this", This)
		case 'r':
			return rest(ident, "true", True)
		}
	}
	return Identifier
}

func rest(ident, keyword string, t Type) Type {
	if ident == keyword {
		return t
	}
	return Identifier
}
