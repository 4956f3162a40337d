package jinja2

import (
	"fmt"
	"strings"
)

type Renderer struct {
	Loader    Loader
	Evaluator *Evaluator
	Tags      Tags
}

func NewRenderer(loader Loader) *Renderer {
	return &Renderer{Loader: loader, Evaluator: NewEvaluator(), Tags: Tags{}}
}

// Parse parses src with the renderer's custom tags.
func (r *Renderer) Parse(src string) (*Document, error) {
	return ParseWithTags(src, r.Tags)
}

// Template is a parsed template bound to the renderer that loaded it.
type Template struct {
	Name string
	Doc  *Document

	renderer *Renderer
}

func (t *Template) Render(s *Scope) (string, error) {
	out, err := t.renderer.RenderScope(t.Doc, s)
	if err != nil && t.Name != "" {
		return "", fmt.Errorf("rendering %s: %w", t.Name, err)
	}
	return out, err
}

// GetTemplate loads and parses the named template.
func (r *Renderer) GetTemplate(name string) (*Template, error) {
	if r.Loader == nil {
		return nil, fmt.Errorf("loading %q requires a loader", name)
	}
	src, err := r.Loader.Load(name)
	if err != nil {
		return nil, err
	}
	doc, err := r.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &Template{Name: name, Doc: doc, renderer: r}, nil
}

// Render renders doc as a new top-level render with ctx as the base scope.
func (r *Renderer) Render(doc *Document, ctx Context) (string, error) {
	return r.RenderScope(doc, NewScope(r, ctx))
}

// RenderScope renders doc against an existing scope, resolving {% extends %}.
func (r *Renderer) RenderScope(doc *Document, s *Scope) (string, error) {
	var parent *Document
	overrides := map[string]*BlockNode{}
	for _, n := range doc.Nodes {
		switch t := n.(type) {
		case *ExtendsNode:
			tpl, err := r.GetTemplate(t.Template)
			if err != nil {
				return "", err
			}
			parent = tpl.Doc
		case *BlockNode:
			overrides[t.Name] = t
		}
	}
	var b strings.Builder
	if parent != nil {
		if err := r.renderNodes(&b, parent.Nodes, s, overrides); err != nil {
			return "", err
		}
		return b.String(), nil
	}
	if err := r.renderNodes(&b, doc.Nodes, s, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderNodes renders a node list against s.
func (r *Renderer) RenderNodes(nodes NodeList, s *Scope) (string, error) {
	var b strings.Builder
	if err := r.renderNodes(&b, nodes, s, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Renderer) renderNodes(buf *strings.Builder, nodes NodeList, s *Scope, overrides map[string]*BlockNode) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *TextNode:
			buf.WriteString(t.Text)
		case *RawNode:
			buf.WriteString(t.Text)
		case *OutputNode:
			v, err := r.Evaluator.Eval(t.Expr, s)
			if err != nil {
				return err
			}
			buf.WriteString(v.String())
		case *SetNode:
			v, err := r.Evaluator.Eval(t.Expr, s)
			if err != nil {
				return err
			}
			s.Set(t.Name, v)
		case *IfNode:
			body, err := r.pickBranch(t, s)
			if err != nil {
				return err
			}
			if err := r.renderNodes(buf, body, s, overrides); err != nil {
				return err
			}
		case *ForNode:
			if err := r.renderFor(buf, t, s, overrides); err != nil {
				return err
			}
		case *BlockNode:
			body := t.Body
			if ov, ok := overrides[t.Name]; ok {
				body = ov.Body
			}
			if err := r.renderNodes(buf, body, s, overrides); err != nil {
				return err
			}
		case *ExtendsNode:
			// Handled at top-level.
		case *IncludeNode:
			tpl, err := r.GetTemplate(t.Template)
			if err != nil {
				return err
			}
			if err := r.renderNodes(buf, tpl.Doc.Nodes, s, overrides); err != nil {
				return err
			}
		case *ExtensionNode:
			out, err := t.Ext.Render(s)
			if err != nil {
				return err
			}
			buf.WriteString(out)
		default:
			return fmt.Errorf("unhandled node type: %T", n)
		}
	}
	return nil
}

func (r *Renderer) pickBranch(n *IfNode, s *Scope) (NodeList, error) {
	ok, err := r.Evaluator.Truthy(n.Cond, s)
	if err != nil || ok {
		return n.Then, err
	}
	for _, e := range n.Elifs {
		ok, err := r.Evaluator.Truthy(e.Cond, s)
		if err != nil || ok {
			return e.Body, err
		}
	}
	return n.Else, nil
}

func (r *Renderer) renderFor(buf *strings.Builder, n *ForNode, s *Scope, overrides map[string]*BlockNode) error {
	items, err := r.Evaluator.Eval(n.Iterable, s)
	if err != nil {
		return err
	}
	arr, err := iterateValue(items)
	if err != nil {
		return err
	}
	if len(arr) == 0 {
		return r.renderNodes(buf, n.Else, s, overrides)
	}
	// Support one or two targets "a" or "k, v"
	targets := strings.Split(n.Target, ",")
	for i := range targets {
		targets[i] = strings.TrimSpace(targets[i])
	}
	for idx, it := range arr {
		layer := Context{
			"loop": DictValue{
				"index":  IntValue(idx + 1),
				"index0": IntValue(idx),
				"first":  BoolValue(idx == 0),
				"last":   BoolValue(idx == len(arr)-1),
				"length": IntValue(len(arr)),
			},
		}
		if len(targets) == 1 {
			layer[targets[0]] = it
		} else {
			pair, _ := it.(ListValue)
			for i, name := range targets {
				if i < len(pair) {
					layer[name] = pair[i]
				} else {
					layer[name] = UndefinedValue{Name: name}
				}
			}
		}
		s.Push(layer)
		err := r.renderNodes(buf, n.Body, s, overrides)
		s.Pop()
		if err != nil {
			return err
		}
	}
	return nil
}
