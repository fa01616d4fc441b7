package xpath

import "strings"

// Lexer wraps Scanner with the one piece of context the grammar needs:
// the previous token, used to demote operator keywords back to names
// in positions where they must be read as identifiers instead (e.g.
// "child::and"). The demotion rule itself (demotesAfter) is a pure
// function; Lexer only remembers enough to call it, it does not keep
// any process-wide state.
type Lexer struct {
	scan    *Scanner
	hadPrev bool
	prev    rune
}

func newLexer(src string) *Lexer {
	return &Lexer{scan: newScanner(strings.NewReader(src))}
}

// Next returns the next token, with operator-keyword demotion applied.
func (l *Lexer) Next() Token {
	tok := l.scan.Scan()
	if isDemotable(tok.Type) && demotesAfter(l.prev, l.hadPrev) {
		tok.Type = Name
	}
	l.prev = tok.Type
	l.hadPrev = true
	return tok
}
