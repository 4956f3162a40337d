package jinja2

import "bytes"

// The lexer scans template source and yields tokens for text and the three
// Jinja2 delimiter forms: variables {{ }}, statements {% %}, and comments {# #}.
// A '-' next to a delimiter ({%- or -%}) asks the parser to strip adjacent
// whitespace.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokText
	tokVarStart  // {{ or {{-
	tokVarEnd    // }} or -}}
	tokStmtStart // {% or {%-
	tokStmtEnd   // %} or -%}
	tokCommStart // {#
	tokCommEnd   // #}
	tokContent   // content inside a tag (parser requests it)
)

type token struct {
	kind tokenKind
	val  string
	pos  int  // byte offset in source
	trim bool // delimiter carried a '-'
}

type lexer struct {
	src []byte
	i   int
	n   int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, n: len(src)}
}

// line returns the 1-based line number of byte offset pos.
func (l *lexer) line(pos int) int {
	if pos > l.n {
		pos = l.n
	}
	return bytes.Count(l.src[:pos], []byte{'\n'}) + 1
}

func (l *lexer) hasPrefix(s string) bool {
	return l.i+len(s) <= l.n && string(l.src[l.i:l.i+len(s)]) == s
}

var openers = []struct {
	delim string
	kind  tokenKind
}{
	{"{{", tokVarStart},
	{"{%", tokStmtStart},
	{"{#", tokCommStart},
}

// nextTokenOutside scans in normal text context and emits either a text token
// up to the next opening delimiter, or an opening delimiter token, or EOF.
func (l *lexer) nextTokenOutside() token {
	start := l.i
	for l.i < l.n {
		for _, o := range openers {
			if !l.hasPrefix(o.delim) {
				continue
			}
			if l.i > start {
				return token{kind: tokText, val: string(l.src[start:l.i]), pos: start}
			}
			l.i += len(o.delim)
			tok := token{kind: o.kind, pos: start}
			if o.kind != tokCommStart && l.i < l.n && l.src[l.i] == '-' {
				l.i++
				tok.trim = true
			}
			return tok
		}
		l.i++
	}
	if start < l.n {
		return token{kind: tokText, val: string(l.src[start:l.n]), pos: start}
	}
	return token{kind: tokEOF, pos: l.i}
}

func closerFor(kind tokenKind) string {
	switch kind {
	case tokVarEnd:
		return "}}"
	case tokStmtEnd:
		return "%}"
	}
	return "#}"
}

// nextTokenInside scans inside a tag of the given closing kind, returning
// either tokContent chunks or the appropriate closing token.
func (l *lexer) nextTokenInside(closing tokenKind) token {
	delim := closerFor(closing)
	start := l.i
	for l.i < l.n {
		trim := closing != tokCommEnd && l.hasPrefix("-"+delim)
		if trim || l.hasPrefix(delim) {
			if l.i > start {
				return token{kind: tokContent, val: string(l.src[start:l.i]), pos: start}
			}
			l.i += len(delim)
			if trim {
				l.i++
			}
			return token{kind: closing, pos: start, trim: trim}
		}
		l.i++
	}
	// Unterminated tag; return remaining content then EOF.
	if start < l.n {
		return token{kind: tokContent, val: string(l.src[start:l.n]), pos: start}
	}
	return token{kind: tokEOF, pos: l.i}
}
