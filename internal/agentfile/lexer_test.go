package agentfile

import "testing"

func TestLexerKeywords(t *testing.T) {
	cases := []struct {
		input    string
		expected TokenType
	}{
		{"INTENT", TokenINTENT},
		{"PRIORITY", TokenPRIORITY},
		{"BOUNDS", TokenBOUNDS},
		{"ALLOW", TokenALLOW},
		{"DENY", TokenDENY},
		{"STEP", TokenSTEP},
		{"DEPENDS", TokenDEPENDS},
		{"ON", TokenON},
		{"PRECONDITION", TokenPRECONDITION},
		{"POSTCONDITION", TokenPOSTCONDITION},
		{"FUNCTION", TokenFUNCTION},
		{"SUBINTENT", TokenSUBINTENT},
		{"FILE_EXISTS", TokenFILE_EXISTS},
		{"EXIT_CODE", TokenEXIT_CODE},
	}
	for _, c := range cases {
		l := NewLexer(c.input)
		tok := l.NextToken()
		if tok.Type != c.expected {
			t.Errorf("input %q: expected %s, got %s", c.input, c.expected, tok.Type)
		}
		if tok.Literal != c.input {
			t.Errorf("input %q: expected literal %q, got %q", c.input, c.input, tok.Literal)
		}
	}
}

func TestLexerIdentifiersAndNumbers(t *testing.T) {
	l := NewLexer("fetch_snapshot step-2 42")
	want := []struct {
		typ     TokenType
		literal string
	}{
		{TokenIdent, "fetch_snapshot"},
		{TokenIdent, "step-2"},
		{TokenNumber, "42"},
		{TokenEOF, ""},
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Literal != w.literal {
			t.Errorf("token %d: expected (%s, %q), got (%s, %q)", i, w.typ, w.literal, tok.Type, tok.Literal)
		}
	}
}

func TestLexerQuotedString(t *testing.T) {
	l := NewLexer(`"gather cluster health\nand report"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("expected TokenString, got %s", tok.Type)
	}
	if tok.Literal != "gather cluster health\nand report" {
		t.Errorf("unexpected literal: %q", tok.Literal)
	}
}

func TestLexerPathAfterFromKeyword(t *testing.T) {
	l := NewLexer("SUBINTENT FROM sub/escalate.swarm\n")
	tokens := []TokenType{TokenSUBINTENT, TokenFROM, TokenPathLit, TokenNewline, TokenEOF}
	for i, want := range tokens {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %s, got %s (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerRawLineAfterCommand(t *testing.T) {
	l := NewLexer("COMMAND curl -sf https://metrics.internal/snapshot -o out.json\n")
	commandTok := l.NextToken()
	if commandTok.Type != TokenCOMMAND {
		t.Fatalf("expected TokenCOMMAND, got %s", commandTok.Type)
	}
	lineTok := l.NextToken()
	if lineTok.Type != TokenLine {
		t.Fatalf("expected TokenLine, got %s", lineTok.Type)
	}
	want := "curl -sf https://metrics.internal/snapshot -o out.json"
	if lineTok.Literal != want {
		t.Errorf("expected %q, got %q", want, lineTok.Literal)
	}
}

func TestLexerSkipsCommentsAndBlankLines(t *testing.T) {
	l := NewLexer("# a comment\n\nINTENT \"x\"\n")
	// The comment line and the blank line collapse into a single NEWLINE.
	tok := l.NextToken()
	if tok.Type != TokenNewline {
		t.Fatalf("expected comments/blank lines to collapse into one NEWLINE, got %s", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != TokenINTENT {
		t.Fatalf("expected comments/blank lines to be skipped, got %s", tok.Type)
	}
}
