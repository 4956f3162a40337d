package cotton

import (
	"fmt"
	"strings"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

type attrKind int

const (
	literalAttr attrKind = iota
	boolAttr
	templateAttr
	dynamicAttr
	spreadAttr
)

// attrSource is one declared attribute of a component tag, classified once
// at parse time (or, for spread entries, when the spread is resolved).
type attrSource struct {
	kind  attrKind
	name  string
	value jinja2.Value
	expr  string
}

const spreadKey = "attrs"

// maxSpreadDepth bounds how deeply :attrs mappings may nest spreads of their
// own. Deeper spreads are passed through as unprocessable.
const maxSpreadDepth = 16

func classifyAttr(name string, raw jinja2.Value) attrSource {
	raw = stripQuotes(raw)
	if raw == jinja2.BoolValue(true) {
		return attrSource{kind: boolAttr, name: name, value: raw}
	}
	if dyn, ok := strings.CutPrefix(name, ":"); ok {
		src := attrSource{kind: dynamicAttr, name: dyn, expr: raw.String()}
		if dyn == spreadKey {
			src.kind = spreadAttr
		}
		return src
	}
	if str, ok := raw.(jinja2.StringValue); ok && jinja2.TemplateString(str).HasMarkup() {
		return attrSource{kind: templateAttr, name: name, value: raw, expr: string(str)}
	}
	return attrSource{kind: literalAttr, name: name, value: raw}
}

func stripQuotes(v jinja2.Value) jinja2.Value {
	s, ok := v.(jinja2.StringValue)
	if !ok || len(s) < 2 {
		return v
	}
	if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
		return s[1 : len(s)-1]
	}
	return v
}

// ComponentNode renders one {% c %} tag: it resolves the declared
// attributes, captures the body and its slots, and renders the component
// template with them.
type ComponentNode struct {
	Name  string
	Only  bool
	Body  jinja2.NodeList
	attrs []attrSource

	engine *Engine
}

func (n *ComponentNode) Children() jinja2.NodeList { return n.Body }

func (n *ComponentNode) String() string {
	if n.Only {
		return n.Name + " only"
	}
	return n.Name
}

func (n *ComponentNode) Render(s *jinja2.Scope) (string, error) {
	state := StateFor(s)
	frame := newFrame(n.Name)
	state.Stack.Push(frame)
	defer state.Stack.Pop(frame)

	for _, a := range n.attrs {
		n.applyAttr(frame.Attrs, a, s, 0)
	}
	if n.Name == DynamicComponent {
		frame.Attrs.Exclude("is")
	}

	slot, err := n.Body.Render(s)
	if err != nil {
		return "", err
	}

	tpl, err := n.template(s, frame.Attrs)
	if err != nil {
		return "", err
	}

	data := jinja2.Context{}
	for k, v := range frame.Slots {
		data[k] = v
	}
	for k, v := range frame.Attrs.Accessible() {
		data[k] = v
	}
	data["attrs"] = frame.Attrs
	data["slot"] = jinja2.StringValue(slot)
	data["cotton_data"] = state

	if n.Only {
		return tpl.Render(s.Isolated(data))
	}
	s.Push(data)
	defer s.Pop()
	return tpl.Render(s)
}

func (n *ComponentNode) applyAttr(attrs *Attrs, a attrSource, s *jinja2.Scope, depth int) {
	switch a.kind {
	case literalAttr, boolAttr:
		attrs.Set(a.name, a.value)
	case templateAttr:
		out, err := jinja2.TemplateString(a.expr).RenderScope(s)
		if err != nil {
			n.engine.log.Warn("attribute template failed to render", "component", n.Name, "attr", a.name, "error", err)
			attrs.Set(a.name, a.value)
			return
		}
		attrs.Set(a.name, jinja2.StringValue(out))
	case dynamicAttr:
		res := n.engine.resolver.Resolve(a.expr, s)
		if res.Deferred {
			n.engine.log.Debug("deferring dynamic attribute", "component", n.Name, "attr", a.name, "expr", a.expr)
			attrs.MarkUnprocessable(a.name, a.expr)
			return
		}
		attrs.Set(a.name, res.Value)
	case spreadAttr:
		if depth >= maxSpreadDepth {
			n.engine.log.Warn("attribute spread nested too deeply", "component", n.Name, "expr", a.expr, "depth", depth)
			attrs.MarkUnprocessable(a.name, a.expr)
			return
		}
		res := n.engine.resolver.Resolve(a.expr, s)
		m, ok := res.Value.(jinja2.Mapping)
		if res.Deferred || !ok {
			n.engine.log.Warn("attribute spread is not a mapping", "component", n.Name, "expr", a.expr)
			attrs.MarkUnprocessable(a.name, a.expr)
			return
		}
		for _, it := range m.Items() {
			n.applyAttr(attrs, classifySpread(it.Key, it.Value), s, depth+1)
		}
	}
}

// classifySpread classifies an entry of a spread mapping. Only string values
// go through quote stripping and sigil handling; anything else is taken as
// is, with true meaning a bare attribute.
func classifySpread(name string, v jinja2.Value) attrSource {
	if _, ok := v.(jinja2.StringValue); ok {
		return classifyAttr(name, v)
	}
	if v == jinja2.BoolValue(true) {
		return attrSource{kind: boolAttr, name: name, value: v}
	}
	return attrSource{kind: literalAttr, name: name, value: v}
}

type templateCacheKey struct{ node *ComponentNode }

// template returns the component template for this invocation. Loaded
// templates are cached per node and per path for the rest of the render.
func (n *ComponentNode) template(s *jinja2.Scope, attrs *Attrs) (Template, error) {
	is := ""
	if v, ok := attrs.Get("is"); ok && !attrs.Unprocessable("is") {
		is = v.String()
	}
	path, err := n.engine.paths.Resolve(n.Name, is)
	if err != nil {
		return nil, err
	}

	rc := s.RenderContext()
	key := templateCacheKey{n}
	var cache map[string]Template
	if v, ok := rc.Get(key); ok {
		cache = v.(map[string]Template)
	} else {
		cache = map[string]Template{}
		rc.Set(key, cache)
	}
	if t, ok := cache[path]; ok {
		return t, nil
	}

	t, err := n.engine.loader.GetTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("component <c-%s>: %w", n.Name, err)
	}
	if w, ok := t.(interface{ Unwrap() Template }); ok {
		t = w.Unwrap()
	}
	cache[path] = t
	return t, nil
}

// parseComponent is the {% c name [attr=value ...] [only] %} ... {% endc %}
// tag.
func (e *Engine) parseComponent(p *jinja2.Parser, args string) (jinja2.Extension, error) {
	bits := jinja2.SplitContents(args)
	if len(bits) == 0 {
		return nil, p.Errorf("c tag requires a component name")
	}
	n := &ComponentNode{Name: bits[0], engine: e}
	for _, bit := range bits[1:] {
		if bit == "only" {
			n.Only = true
			continue
		}
		if name, value, ok := strings.Cut(bit, "="); ok {
			n.attrs = append(n.attrs, classifyAttr(name, jinja2.StringValue(value)))
		} else {
			n.attrs = append(n.attrs, classifyAttr(bit, jinja2.BoolValue(true)))
		}
	}
	body, end, _, err := p.ParseUntil("endc")
	if err != nil {
		return nil, err
	}
	if end != "endc" {
		return nil, p.Errorf("unclosed component %q: missing endc", n.Name)
	}
	n.Body = body
	return n, nil
}
