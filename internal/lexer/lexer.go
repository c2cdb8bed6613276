package lexer

import "fmt"

const (
	// Special
	EOF     = "EOF"
	ILLEGAL = "ILLEGAL"

	// Layout
	NEWLINE = "NEWLINE"
	INDENT  = "INDENT"
	DEDENT  = "DEDENT"

	// Literals
	IDENT = "IDENT" // identifiers: x, fib, my_var, …
	INT   = "INT"   // integer literals of any length: 0, 42, 100000000000000000000

	// Keywords
	DEF    = "DEF"
	RETURN = "RETURN"
	IF     = "IF"
	ELIF   = "ELIF"
	ELSE   = "ELSE"
	WHILE  = "WHILE"
	PASS   = "PASS"
	TRUE   = "TRUE"
	FALSE  = "FALSE"
	NONE   = "NONE"
	AND    = "AND"
	OR     = "OR"
	NOT    = "NOT"
	IS     = "IS"

	// Delimiters
	LPAREN = "LPAREN" // (
	RPAREN = "RPAREN" // )
	COLON  = "COLON"  // :
	COMMA  = "COMMA"  // ,
	ARROW  = "ARROW"  // ->

	// Operators
	ASSIGN  = "ASSIGN"  // =
	PLUS    = "PLUS"    // +
	MINUS   = "MINUS"   // -
	STAR    = "STAR"    // *
	DSLASH  = "DSLASH"  // //
	PERCENT = "PERCENT" // %

	// Comparison operators
	EQ  = "EQ"  // ==
	NEQ = "NEQ" // !=
	LT  = "LT"  // <
	GT  = "GT"  // >
	LTE = "LTE" // <=
	GTE = "GTE" // >=
)

// keywords maps reserved words to their token types.
var keywords = map[string]string{
	"def":    DEF,
	"return": RETURN,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"while":  WHILE,
	"pass":   PASS,
	"True":   TRUE,
	"False":  FALSE,
	"None":   NONE,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
	"is":     IS,
}

// tabWidth is the column stop a tab advances indentation to.
const tabWidth = 8

// Token represents a single lexical token produced by the lexer.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
}

// LexError represents a recoverable error encountered during lexing.
type LexError struct {
	Message string
	Lexeme  string
	Line    int
	Column  int
}

func (e LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s (got %q)", e.Line, e.Column, e.Message, e.Lexeme)
}

// lexState carries the scanner position and the indentation stack.
type lexState struct {
	input  string
	i      int
	line   int
	col    int
	indent []int
	parens int

	tokens []Token
	errors []LexError
}

// Lex turns source text into tokens, including the NEWLINE, INDENT and
// DEDENT tokens that delimit statements and blocks. Errors are collected
// and lexing continues past them. The token slice always ends in EOF.
func Lex(input string) ([]Token, []LexError) {
	s := &lexState{input: input, line: 1, col: 1, indent: []int{0}}

	for s.i < len(input) {
		if s.col == 1 && s.parens == 0 {
			if !s.lexIndent() {
				continue
			}
		}

		ch := input[s.i]
		switch {
		case ch == '\n':
			s.newline()
			continue
		case ch == ' ' || ch == '\t' || ch == '\r':
			s.i++
			s.col++
			continue
		case ch == '#':
			s.skipComment()
			continue
		}

		if isDigit(ch) {
			s.lexNumber()
			continue
		}

		if isIdentStart(ch) {
			s.lexIdentifier()
			continue
		}

		if tok, width := lexOperatorOrDelimiter(input, s.i, s.line, s.col); width > 0 {
			switch tok.Type {
			case LPAREN:
				s.parens++
			case RPAREN:
				if s.parens > 0 {
					s.parens--
				}
			}
			s.tokens = append(s.tokens, tok)
			s.i += width
			s.col += width
			continue
		}

		// Unknown characters
		s.errors = append(s.errors, LexError{
			Message: "unexpected character",
			Lexeme:  string(ch),
			Line:    s.line,
			Column:  s.col,
		})
		s.i++
		s.col++
	}

	s.endLine()
	for len(s.indent) > 1 {
		s.indent = s.indent[:len(s.indent)-1]
		s.emit(DEDENT, "")
	}
	s.emit(EOF, "")
	return s.tokens, s.errors
}

func (s *lexState) emit(typ, value string) {
	s.tokens = append(s.tokens, Token{typ, value, s.line, s.col})
}

// lexIndent measures the indentation of the line starting at s.i and emits
// INDENT or DEDENT tokens. Blank and comment-only lines are consumed whole
// and report false.
func (s *lexState) lexIndent() bool {
	width := 0
	j := s.i
scan:
	for j < len(s.input) {
		switch s.input[j] {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		case '\r':
		default:
			break scan
		}
		j++
	}
	s.col += j - s.i
	s.i = j

	if s.i >= len(s.input) || s.input[s.i] == '\n' || s.input[s.i] == '#' {
		s.skipComment()
		if s.i < len(s.input) {
			s.i++
			s.line++
		}
		s.col = 1
		return false
	}

	top := s.indent[len(s.indent)-1]
	switch {
	case width > top:
		s.indent = append(s.indent, width)
		s.emit(INDENT, "")
	case width < top:
		for len(s.indent) > 1 && width < s.indent[len(s.indent)-1] {
			s.indent = s.indent[:len(s.indent)-1]
			s.emit(DEDENT, "")
		}
		if width != s.indent[len(s.indent)-1] {
			s.errors = append(s.errors, LexError{
				Message: "unindent does not match any outer indentation level",
				Lexeme:  s.input[s.i-(s.col-1) : s.i],
				Line:    s.line,
				Column:  s.col,
			})
		}
	}
	return true
}

// newline consumes a line break. Inside parentheses lines are joined.
func (s *lexState) newline() {
	if s.parens == 0 {
		s.endLine()
	}
	s.i++
	s.line++
	s.col = 1
}

// endLine closes a logical line that produced tokens.
func (s *lexState) endLine() {
	n := len(s.tokens)
	if n == 0 {
		return
	}
	switch s.tokens[n-1].Type {
	case NEWLINE, INDENT, DEDENT:
		return
	}
	s.emit(NEWLINE, "")
}

func (s *lexState) skipComment() {
	for s.i < len(s.input) && s.input[s.i] != '\n' {
		s.i++
		s.col++
	}
}

// lexNumber scans a decimal integer literal. Values are not bounded.
func (s *lexState) lexNumber() {
	start, startCol := s.i, s.col
	for s.i < len(s.input) && isDigit(s.input[s.i]) {
		s.i++
		s.col++
	}
	if s.i < len(s.input) && isIdentPart(s.input[s.i]) {
		end := s.i
		for end < len(s.input) && isIdentPart(s.input[end]) {
			end++
		}
		s.errors = append(s.errors, LexError{
			Message: "invalid number literal",
			Lexeme:  s.input[start:end],
			Line:    s.line,
			Column:  startCol,
		})
		s.col += end - s.i
		s.i = end
		return
	}
	s.tokens = append(s.tokens, Token{INT, s.input[start:s.i], s.line, startCol})
}

func (s *lexState) lexIdentifier() {
	start, startCol := s.i, s.col
	for s.i < len(s.input) && isIdentPart(s.input[s.i]) {
		s.i++
		s.col++
	}
	word := s.input[start:s.i]
	tokType := IDENT
	if kw, ok := keywords[word]; ok {
		tokType = kw
	}
	s.tokens = append(s.tokens, Token{tokType, word, s.line, startCol})
}

// lexOperatorOrDelimiter tries to match a 1- or 2-character operator or
// delimiter starting at input[i]. Returns the token and the number of
// characters consumed (0 if nothing matched).
func lexOperatorOrDelimiter(input string, i int, line int, col int) (Token, int) {
	ch := input[i]
	var next byte
	if i+1 < len(input) {
		next = input[i+1]
	}

	// Two-character tokens
	switch ch {
	case '-':
		if next == '>' {
			return Token{ARROW, "->", line, col}, 2
		}
		return Token{MINUS, "-", line, col}, 1
	case '=':
		if next == '=' {
			return Token{EQ, "==", line, col}, 2
		}
		return Token{ASSIGN, "=", line, col}, 1
	case '!':
		if next == '=' {
			return Token{NEQ, "!=", line, col}, 2
		}
		return Token{}, 0
	case '<':
		if next == '=' {
			return Token{LTE, "<=", line, col}, 2
		}
		return Token{LT, "<", line, col}, 1
	case '>':
		if next == '=' {
			return Token{GTE, ">=", line, col}, 2
		}
		return Token{GT, ">", line, col}, 1
	case '/':
		if next == '/' {
			return Token{DSLASH, "//", line, col}, 2
		}
		return Token{}, 0
	}

	// Single-character tokens
	switch ch {
	case '(':
		return Token{LPAREN, "(", line, col}, 1
	case ')':
		return Token{RPAREN, ")", line, col}, 1
	case ':':
		return Token{COLON, ":", line, col}, 1
	case ',':
		return Token{COMMA, ",", line, col}, 1
	case '+':
		return Token{PLUS, "+", line, col}, 1
	case '*':
		return Token{STAR, "*", line, col}, 1
	case '%':
		return Token{PERCENT, "%", line, col}, 1
	}

	return Token{}, 0
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
