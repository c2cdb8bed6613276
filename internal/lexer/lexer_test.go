package lexer

import (
	"strings"
	"testing"
)

func tokenTypes(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func expectTypes(t *testing.T, tokens []Token, expected []string) {
	t.Helper()
	types := tokenTypes(tokens)
	if len(types) != len(expected) {
		t.Fatalf("token count: got %d, want %d; types: %v", len(types), len(expected), types)
	}
	for i, exp := range expected {
		if types[i] != exp {
			t.Errorf("token[%d]: got %s, want %s (value=%q)", i, types[i], exp, tokens[i].Value)
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tokens, errs := Lex("def return if elif else while pass True False None and or not is foo _bar baz42")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expected := []struct {
		typ string
		val string
	}{
		{DEF, "def"},
		{RETURN, "return"},
		{IF, "if"},
		{ELIF, "elif"},
		{ELSE, "else"},
		{WHILE, "while"},
		{PASS, "pass"},
		{TRUE, "True"},
		{FALSE, "False"},
		{NONE, "None"},
		{AND, "and"},
		{OR, "or"},
		{NOT, "not"},
		{IS, "is"},
		{IDENT, "foo"},
		{IDENT, "_bar"},
		{IDENT, "baz42"},
		{NEWLINE, ""},
		{EOF, ""},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count: got %d, want %d", len(tokens), len(expected))
	}
	for i, exp := range expected {
		if tokens[i].Type != exp.typ || tokens[i].Value != exp.val {
			t.Errorf("token[%d]: got (%s, %q), want (%s, %q)",
				i, tokens[i].Type, tokens[i].Value, exp.typ, exp.val)
		}
	}
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	tokens, errs := Lex("true none Def")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{IDENT, IDENT, IDENT, NEWLINE, EOF})
}

func TestIntegerLiterals(t *testing.T) {
	tokens, errs := Lex("0 42 100000000000000000000000000000")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expected := []string{"0", "42", "100000000000000000000000000000"}
	for i, exp := range expected {
		if tokens[i].Type != INT || tokens[i].Value != exp {
			t.Errorf("token[%d]: got (%s, %q), want (INT, %q)",
				i, tokens[i].Type, tokens[i].Value, exp)
		}
	}
}

func TestInvalidNumberLiteral(t *testing.T) {
	tokens, errs := Lex("12abc")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Lexeme != "12abc" {
		t.Errorf("error lexeme: got %q, want %q", errs[0].Lexeme, "12abc")
	}
	expectTypes(t, tokens, []string{EOF})
}

func TestDelimitersAndOperators(t *testing.T) {
	tokens, errs := Lex("( ) : , -> = + - * // % == != < > <= >=")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{
		LPAREN, RPAREN, COLON, COMMA, ARROW, ASSIGN,
		PLUS, MINUS, STAR, DSLASH, PERCENT,
		EQ, NEQ, LT, GT, LTE, GTE,
		NEWLINE, EOF,
	})
}

func TestArrowVsMinus(t *testing.T) {
	tokens, errs := Lex("a -> b - c")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{IDENT, ARROW, IDENT, MINUS, IDENT, NEWLINE, EOF})
}

func TestSingleSlashIsError(t *testing.T) {
	_, errs := Lex("a / b")
	if len(errs) != 1 || errs[0].Lexeme != "/" {
		t.Fatalf("expected one error for '/', got %v", errs)
	}
}

func TestBangWithoutEqualsIsError(t *testing.T) {
	_, errs := Lex("!x")
	if len(errs) != 1 || errs[0].Lexeme != "!" {
		t.Fatalf("expected one error for '!', got %v", errs)
	}
}

func TestIndentedBlock(t *testing.T) {
	src := "if x:\n    y = 1\nz = 2\n"
	tokens, errs := Lex(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IDENT, ASSIGN, INT, NEWLINE,
		DEDENT, IDENT, ASSIGN, INT, NEWLINE,
		EOF,
	})
}

func TestNestedBlocksCloseAtEOF(t *testing.T) {
	src := "def f():\n  while True:\n    pass"
	tokens, errs := Lex(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{
		DEF, IDENT, LPAREN, RPAREN, COLON, NEWLINE,
		INDENT, WHILE, TRUE, COLON, NEWLINE,
		INDENT, PASS, NEWLINE,
		DEDENT, DEDENT, EOF,
	})
}

func TestMultipleDedents(t *testing.T) {
	src := "if a:\n  if b:\n    pass\nx\n"
	tokens, errs := Lex(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IF, IDENT, COLON, NEWLINE,
		INDENT, PASS, NEWLINE,
		DEDENT, DEDENT, IDENT, NEWLINE,
		EOF,
	})
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	src := "if a:\n\n    # note\n    pass\n   \n# trailing\n"
	tokens, errs := Lex(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{
		IF, IDENT, COLON, NEWLINE,
		INDENT, PASS, NEWLINE,
		DEDENT, EOF,
	})
}

func TestTrailingComment(t *testing.T) {
	tokens, errs := Lex("x = 1 # set x\ny")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{IDENT, ASSIGN, INT, NEWLINE, IDENT, NEWLINE, EOF})
	if tokens[4].Line != 2 {
		t.Errorf("'y' should be on line 2, got line %d", tokens[4].Line)
	}
}

func TestParenthesesJoinLines(t *testing.T) {
	tokens, errs := Lex("max(1,\n      2)\n")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{IDENT, LPAREN, INT, COMMA, INT, RPAREN, NEWLINE, EOF})
}

func TestInconsistentDedent(t *testing.T) {
	src := "if a:\n    pass\n  pass\n"
	_, errs := Lex(src)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "unindent") {
		t.Errorf("error message should mention 'unindent', got: %s", errs[0].Message)
	}
	if errs[0].Line != 3 {
		t.Errorf("error line: got %d, want 3", errs[0].Line)
	}
}

func TestTabIndentation(t *testing.T) {
	tokens, errs := Lex("if a:\n\tpass\n        pass\n")
	if len(errs) > 0 {
		t.Fatalf("tab and eight spaces should indent equally: %v", errs)
	}
	expectTypes(t, tokens, []string{
		IF, IDENT, COLON, NEWLINE,
		INDENT, PASS, NEWLINE, PASS, NEWLINE,
		DEDENT, EOF,
	})
}

func TestLineColumnTracking(t *testing.T) {
	tokens, errs := Lex("x : int = 5\n  ")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	cols := []int{1, 3, 5, 9, 11}
	for i, want := range cols {
		if tokens[i].Column != want {
			t.Errorf("token[%d] %q column: got %d, want %d", i, tokens[i].Value, tokens[i].Column, want)
		}
	}
}

func TestUnknownCharacter(t *testing.T) {
	tokens, errs := Lex("x $ y")
	if len(errs) == 0 {
		t.Fatal("expected error for unknown character '$'")
	}
	if errs[0].Lexeme != "$" {
		t.Errorf("error lexeme: got %q, want %q", errs[0].Lexeme, "$")
	}
	if errs[0].Column != 3 {
		t.Errorf("error column: got %d, want 3", errs[0].Column)
	}
	expectTypes(t, tokens, []string{IDENT, IDENT, NEWLINE, EOF})
}

func TestEmptyInput(t *testing.T) {
	tokens, errs := Lex("")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tokens) != 1 || tokens[0].Type != EOF {
		t.Errorf("empty input should produce only EOF, got %v", tokenTypes(tokens))
	}
}

func TestMultipleErrorRecovery(t *testing.T) {
	tokens, errs := Lex("@ ?\npass")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	found := false
	for _, tok := range tokens {
		if tok.Type == PASS {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected to find PASS token after error recovery")
	}
}

func TestLexErrorFormat(t *testing.T) {
	e := LexError{Message: "unexpected character", Lexeme: "$", Line: 2, Column: 7}
	want := `line 2, col 7: unexpected character (got "$")`
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}
}

func TestFunctionSnippet(t *testing.T) {
	src := `x : int = 5
def f(a : int) -> bool:
    y : int = 0
    return a == y
print(f(x))
`
	tokens, errs := Lex(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	expectTypes(t, tokens, []string{
		IDENT, COLON, IDENT, ASSIGN, INT, NEWLINE,
		DEF, IDENT, LPAREN, IDENT, COLON, IDENT, RPAREN, ARROW, IDENT, COLON, NEWLINE,
		INDENT, IDENT, COLON, IDENT, ASSIGN, INT, NEWLINE,
		RETURN, IDENT, EQ, IDENT, NEWLINE,
		DEDENT, IDENT, LPAREN, IDENT, LPAREN, IDENT, RPAREN, RPAREN, NEWLINE,
		EOF,
	})
}
