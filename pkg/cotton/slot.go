package cotton

import (
	"strings"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

// SlotNode captures its body as a named slot of the innermost rendering
// component. It produces no output of its own.
type SlotNode struct {
	Name string
	Body jinja2.NodeList

	engine *Engine
}

func (n *SlotNode) Children() jinja2.NodeList { return n.Body }

func (n *SlotNode) String() string { return n.Name }

func (n *SlotNode) Render(s *jinja2.Scope) (string, error) {
	content, err := n.Body.Render(s)
	if err != nil {
		return "", err
	}
	frame, ok := StateFor(s).Stack.Top()
	if !ok {
		n.engine.log.Warn("slot outside of a component", "slot", n.Name)
		return "", nil
	}
	frame.Slots[n.Name] = jinja2.StringValue(content)
	return "", nil
}

// parseSlot is the {% slot name %} ... {% endslot %} tag. The name may also
// be given as name="title".
func (e *Engine) parseSlot(p *jinja2.Parser, args string) (jinja2.Extension, error) {
	bits := jinja2.SplitContents(args)
	if len(bits) != 1 {
		return nil, p.Errorf("slot tag takes exactly one name, got %q", args)
	}
	name := strings.TrimPrefix(bits[0], "name=")
	name = stripQuotes(jinja2.StringValue(name)).String()
	if name == "" {
		return nil, p.Errorf("slot name must not be empty")
	}
	body, end, _, err := p.ParseUntil("endslot")
	if err != nil {
		return nil, err
	}
	if end != "endslot" {
		return nil, p.Errorf("unclosed slot %q: missing endslot", name)
	}
	return &SlotNode{Name: name, Body: body, engine: e}, nil
}
