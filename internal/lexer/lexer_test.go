package lexer

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerBasicTokens(t *testing.T) {
	l := New([]string{"let x = 40 + 2;"})
	toks := l.Tokenize()
	want := []Kind{LET, IDENT, ASSIGN, INT, PLUS, INT, SEMI, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerOperators(t *testing.T) {
	src := "== != <= >= && || << >> .. ..= :: => -> += -= *= /= %="
	l := New([]string{src})
	toks := l.Tokenize()
	want := []Kind{EQ, NEQ, LE, GE, ANDAND, OROR, LSHIFT, RSHIFT, DOTDOT, DOTDOTEQ,
		COLONCOLON, FATARROW, ARROW, PLUS_ASSIGN, MINUS_ASSIGN, STAR_ASSIGN, SLASH_ASSIGN, PERCENT_ASSIGN, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	l := New([]string{`"a\nb\tc"`})
	tok := l.Next()
	if tok.Kind != STRING {
		t.Fatalf("expected STRING, got %v", tok.Kind)
	}
	if tok.Literal != "a\nb\tc" {
		t.Errorf("got %q", tok.Literal)
	}
}

func TestLexerMultiFragmentPositions(t *testing.T) {
	l := New([]string{"let a", " = 1;"})
	toks := l.Tokenize()
	if toks[0].Pos.Fragment != 0 {
		t.Errorf("expected first token in fragment 0, got %d", toks[0].Pos.Fragment)
	}
	var found bool
	for _, tok := range toks {
		if tok.Kind == INT {
			found = true
			if tok.Pos.Fragment != 1 {
				t.Errorf("expected INT token in fragment 1, got %d", tok.Pos.Fragment)
			}
		}
	}
	if !found {
		t.Fatalf("expected to find an INT token")
	}
}

func TestLexerMapOpenLiteral(t *testing.T) {
	l := New([]string{"#{ a: 1 }"})
	tok := l.Next()
	if tok.Kind != MAPOPEN {
		t.Fatalf("expected MAPOPEN, got %v", tok.Kind)
	}
}

func TestDisableSymbol(t *testing.T) {
	l := New([]string{"loop { break; }"})
	l.DisableSymbol("break")
	toks := l.Tokenize()
	for _, tok := range toks {
		if tok.Literal == "break" && tok.Kind != ILLEGAL {
			t.Errorf("expected disabled symbol 'break' to lex as ILLEGAL, got %v", tok.Kind)
		}
	}
}

func TestReservedWordCollision(t *testing.T) {
	l := New([]string{"unit"})
	l.AddReservedWord("unit")
	tok := l.Next()
	if tok.Kind != RESERVED {
		t.Fatalf("expected RESERVED, got %v", tok.Kind)
	}
}

func TestTokenHookRemapsReserved(t *testing.T) {
	hook := func(tok Token) Token {
		if tok.Kind == RESERVED {
			tok.Kind = IDENT
		}
		return tok
	}
	l := New([]string{"unit"}, WithTokenHook(hook))
	l.AddReservedWord("unit")
	tok := l.Next()
	if tok.Kind != IDENT {
		t.Errorf("expected hook to normalize RESERVED 'unit' back to IDENT, got %v", tok.Kind)
	}
}

func TestLexerFloatAndInt(t *testing.T) {
	l := New([]string{"1 1.5 1e3 1.5e-2"})
	toks := l.Tokenize()
	want := []Kind{INT, FLOAT, FLOAT, FLOAT, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
