package jinja2

import (
	"fmt"
	"strings"
)

// TagFunc parses a custom statement. args is the text after the tag name;
// block tags consume their body with p.ParseUntil.
type TagFunc func(p *Parser, args string) (Extension, error)

// Tags maps statement names to their parsers.
type Tags map[string]TagFunc

// Parse parses a Jinja2 template string into a Document AST.
// It recognizes text, output expressions, comments, and a subset of block
// statements: if/elif/else/endif, for/else/endfor, set, raw/endraw,
// block/extends/include, plus any custom statements in tags.
// Expressions inside tags are preserved as raw strings.
func Parse(src string) (*Document, error) {
	return ParseWithTags(src, nil)
}

func ParseWithTags(src string, tags Tags) (*Document, error) {
	p := &Parser{l: newLexer([]byte(src)), tags: tags}
	nodes, endTag, _, err := p.ParseUntil()
	if err != nil {
		return nil, err
	}
	if endTag != "" {
		return nil, p.Errorf("unexpected {%% %s %%}", endTag)
	}
	return &Document{Nodes: nodes}, nil
}

// Parser turns lexer tokens into nodes. Custom tags receive the parser so
// they can parse their own bodies.
type Parser struct {
	l        *lexer
	tags     Tags
	trimNext bool
	lastPos  int
}

// Errorf returns an error prefixed with the line of the current statement.
func (p *Parser) Errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.l.line(p.lastPos), fmt.Sprintf(format, args...))
}

// ParseUntil parses nodes until a statement named in ends is reached, and
// returns that statement's name and arguments. With no ends it parses to EOF.
// Reaching EOF returns an empty endTag.
func (p *Parser) ParseUntil(ends ...string) (nodes NodeList, endTag, endArgs string, err error) {
	until := map[string]bool{}
	for _, e := range ends {
		until[e] = true
	}
	for {
		tok := p.l.nextTokenOutside()
		p.lastPos = tok.pos
		switch tok.kind {
		case tokEOF:
			return nodes, "", "", nil
		case tokText:
			text := tok.val
			if p.trimNext {
				text = strings.TrimLeft(text, " \t\r\n")
				p.trimNext = false
			}
			if text != "" {
				nodes = append(nodes, &TextNode{Text: text})
			}
			continue
		}
		p.trimNext = false
		if tok.trim {
			trimTrailing(nodes)
		}
		switch tok.kind {
		case tokVarStart:
			expr, err := p.readUntil(tokVarEnd)
			if err != nil {
				return nil, "", "", err
			}
			nodes = append(nodes, &OutputNode{Expr: strings.TrimSpace(expr)})
		case tokCommStart:
			if _, err := p.readUntil(tokCommEnd); err != nil {
				return nil, "", "", err
			}
		case tokStmtStart:
			stmt, err := p.readUntil(tokStmtEnd)
			if err != nil {
				return nil, "", "", err
			}
			name, args := splitNameArgs(stmt)
			if until[name] {
				return nodes, name, args, nil
			}
			n, err := p.parseStatement(name, args)
			if err != nil {
				return nil, "", "", err
			}
			if n != nil {
				nodes = append(nodes, n)
			}
		default:
			return nil, "", "", p.Errorf("unexpected token kind outside: %v", tok.kind)
		}
	}
}

func (p *Parser) parseStatement(name, args string) (Node, error) {
	if fn, ok := p.tags[name]; ok {
		ext, err := fn(p, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &ExtensionNode{Tag: name, Ext: ext}, nil
	}
	switch name {
	case "raw":
		text, err := p.readRawUntilEndraw()
		if err != nil {
			return nil, err
		}
		return &RawNode{Text: text}, nil
	case "block":
		return p.parseBlock(args)
	case "extends":
		t, ok := parseQuoted(args)
		if !ok || t == "" {
			return nil, p.Errorf("extends expects a quoted template name")
		}
		return &ExtendsNode{Template: t}, nil
	case "include":
		t, ok := parseQuoted(args)
		if !ok || t == "" {
			return nil, p.Errorf("include expects a quoted template name")
		}
		return &IncludeNode{Template: t}, nil
	case "set":
		return p.parseSet(args)
	case "if":
		return p.parseIf(args)
	case "for":
		return p.parseFor(args)
	}
	return nil, p.Errorf("unsupported statement: %q", name)
}

// readUntil collects tag content up to the closing delimiter of kind.
func (p *Parser) readUntil(closing tokenKind) (string, error) {
	var b strings.Builder
	for {
		t := p.l.nextTokenInside(closing)
		switch t.kind {
		case tokContent:
			b.WriteString(t.val)
		case closing:
			p.trimNext = t.trim
			if closing == tokStmtEnd {
				return strings.TrimSpace(b.String()), nil
			}
			return b.String(), nil
		case tokEOF:
			return "", p.Errorf("unterminated tag, expected %q", closerFor(closing))
		default:
			return "", p.Errorf("unexpected token inside tag: %v", t.kind)
		}
	}
}

func trimTrailing(nodes NodeList) {
	if len(nodes) == 0 {
		return
	}
	if tn, ok := nodes[len(nodes)-1].(*TextNode); ok {
		tn.Text = strings.TrimRight(tn.Text, " \t\r\n")
	}
}

func splitNameArgs(stmt string) (name, args string) {
	s := strings.TrimSpace(stmt)
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// readRawUntilEndraw returns the source between {% raw %} and {% endraw %}
// untouched.
func (p *Parser) readRawUntilEndraw() (string, error) {
	start := p.l.i
	for {
		tok := p.l.nextTokenOutside()
		switch tok.kind {
		case tokEOF:
			return "", p.Errorf("unterminated raw block; expected {%% endraw %%}")
		case tokStmtStart:
			stmt, err := p.readUntil(tokStmtEnd)
			if err != nil {
				return "", err
			}
			if name, _ := splitNameArgs(stmt); name == "endraw" {
				return string(p.l.src[start:tok.pos]), nil
			}
		case tokVarStart:
			if _, err := p.readUntil(tokVarEnd); err != nil {
				return "", err
			}
		case tokCommStart:
			if _, err := p.readUntil(tokCommEnd); err != nil {
				return "", err
			}
		}
	}
}

func (p *Parser) parseSet(args string) (*SetNode, error) {
	i := strings.IndexByte(args, '=')
	if i < 0 {
		return nil, p.Errorf("invalid set statement, expected '=': %q", args)
	}
	name := strings.TrimSpace(args[:i])
	expr := strings.TrimSpace(args[i+1:])
	if name == "" || expr == "" {
		return nil, p.Errorf("invalid set statement, name or expr empty")
	}
	return &SetNode{Name: name, Expr: expr}, nil
}

func (p *Parser) parseIf(cond string) (*IfNode, error) {
	n := &IfNode{Cond: strings.TrimSpace(cond)}
	body, endTag, endArgs, err := p.ParseUntil("elif", "else", "endif")
	if err != nil {
		return nil, err
	}
	n.Then = body
	for endTag == "elif" {
		branch := ElifBranch{Cond: strings.TrimSpace(endArgs)}
		branch.Body, endTag, endArgs, err = p.ParseUntil("elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		n.Elifs = append(n.Elifs, branch)
	}
	if endTag == "else" {
		n.Else, endTag, _, err = p.ParseUntil("endif")
		if err != nil {
			return nil, err
		}
	}
	if endTag != "endif" {
		return nil, p.Errorf("expected endif, got %q", endTag)
	}
	return n, nil
}

func (p *Parser) parseFor(args string) (*ForNode, error) {
	parts := strings.SplitN(args, " in ", 2)
	if len(parts) != 2 {
		return nil, p.Errorf("invalid for statement, expected 'target in iterable': %q", args)
	}
	n := &ForNode{Target: strings.TrimSpace(parts[0]), Iterable: strings.TrimSpace(parts[1])}
	if n.Target == "" || n.Iterable == "" {
		return nil, p.Errorf("invalid for statement, empty target or iterable")
	}
	body, endTag, _, err := p.ParseUntil("else", "endfor")
	if err != nil {
		return nil, err
	}
	n.Body = body
	if endTag == "else" {
		n.Else, endTag, _, err = p.ParseUntil("endfor")
		if err != nil {
			return nil, err
		}
	}
	if endTag != "endfor" {
		return nil, p.Errorf("expected endfor, got %q", endTag)
	}
	return n, nil
}

func (p *Parser) parseBlock(args string) (*BlockNode, error) {
	name := strings.TrimSpace(args)
	if name == "" {
		return nil, p.Errorf("block requires a name")
	}
	body, endTag, endArgs, err := p.ParseUntil("endblock")
	if err != nil {
		return nil, err
	}
	if endTag != "endblock" {
		return nil, p.Errorf("expected endblock for block %q, got %q", name, endTag)
	}
	if endName := strings.TrimSpace(endArgs); endName != "" && endName != name {
		return nil, p.Errorf("endblock name %q does not match block name %q", endName, name)
	}
	return &BlockNode{Name: name, Body: body}, nil
}

func parseQuoted(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '"' && q != '\'') || s[len(s)-1] != q {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// SplitContents splits tag arguments on whitespace, keeping quoted sections
// (including their quotes) together: `a="x y" b` -> [`a="x y"`, `b`].
func SplitContents(args string) []string {
	var parts []string
	var b strings.Builder
	quote := byte(0)
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case quote != 0:
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case isSpace(c):
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
