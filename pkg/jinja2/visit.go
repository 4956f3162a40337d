package jinja2

import (
	"fmt"
	"strings"
)

type Visitor interface {
	Visit(n Node) error
}

// Walk visits n and then its children depth-first. Extension nodes are
// descended into when their extension implements Parent.
func Walk(v Visitor, n Node) error {
	if err := v.Visit(n); err != nil {
		return err
	}
	for _, c := range children(n) {
		if err := Walk(v, c); err != nil {
			return err
		}
	}
	return nil
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

func children(n Node) NodeList {
	switch t := n.(type) {
	case *Document:
		return t.Nodes
	case *IfNode:
		out := append(NodeList{}, t.Then...)
		for _, e := range t.Elifs {
			out = append(out, e.Body...)
		}
		return append(out, t.Else...)
	case *ForNode:
		return append(append(NodeList{}, t.Body...), t.Else...)
	case *BlockNode:
		return t.Body
	case *ExtensionNode:
		if p, ok := t.Ext.(Parent); ok {
			return p.Children()
		}
	}
	return nil
}

// Pretty returns a line-oriented string representation of the AST.
func Pretty(doc *Document) string {
	var b strings.Builder
	ppNode(&b, 0, doc)
	return b.String()
}

func ppNode(b *strings.Builder, indent int, n Node) {
	b.WriteString(strings.Repeat(" ", indent))
	switch t := n.(type) {
	case *Document:
		b.WriteString("Document\n")
	case *TextNode:
		fmt.Fprintf(b, "Text(%q)\n", t.Text)
	case *OutputNode:
		fmt.Fprintf(b, "Output(%q)\n", t.Expr)
	case *SetNode:
		fmt.Fprintf(b, "Set(%s = %q)\n", t.Name, t.Expr)
	case *IfNode:
		fmt.Fprintf(b, "If(%q)\n", t.Cond)
	case *ForNode:
		fmt.Fprintf(b, "For(%s in %q)\n", t.Target, t.Iterable)
	case *RawNode:
		fmt.Fprintf(b, "Raw(%q)\n", t.Text)
	case *BlockNode:
		fmt.Fprintf(b, "Block(%s)\n", t.Name)
	case *ExtendsNode:
		fmt.Fprintf(b, "Extends(%q)\n", t.Template)
	case *IncludeNode:
		fmt.Fprintf(b, "Include(%q)\n", t.Template)
	case *ExtensionNode:
		if s, ok := t.Ext.(fmt.Stringer); ok {
			fmt.Fprintf(b, "Tag(%s %s)\n", t.Tag, s.String())
		} else {
			fmt.Fprintf(b, "Tag(%s)\n", t.Tag)
		}
	}
	for _, c := range children(n) {
		ppNode(b, indent+2, c)
	}
}
