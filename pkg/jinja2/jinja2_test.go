package jinja2

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestParseTextAndOutput(t *testing.T) {
	doc, err := Parse("Hello {{ name }}!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("want 3 nodes, got %d", len(doc.Nodes))
	}
	if tn, ok := doc.Nodes[0].(*TextNode); !ok || tn.Text != "Hello " {
		t.Fatalf("node0 not Text('Hello '): %#v", doc.Nodes[0])
	}
	if on, ok := doc.Nodes[1].(*OutputNode); !ok || on.Expr != "name" {
		t.Fatalf("node1 not Output(name): %#v", doc.Nodes[1])
	}
	if tn, ok := doc.Nodes[2].(*TextNode); !ok || tn.Text != "!" {
		t.Fatalf("node2 not Text('!'): %#v", doc.Nodes[2])
	}
}

func TestRenderSimple(t *testing.T) {
	doc, err := Parse("Hello {{ name|upper|default('Anon') }}!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	r := NewRenderer(nil)
	out, err := r.Render(doc, Context{"name": StringValue("world")})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "Hello WORLD!" {
		t.Fatalf("got %q", out)
	}
	out, err = r.Render(doc, Context{})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "Hello Anon!" {
		t.Fatalf("got %q", out)
	}
}

func TestIfElifElse(t *testing.T) {
	doc, err := Parse("{% if a %}A{% elif b %}B{% else %}C{% endif %}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	r := NewRenderer(nil)
	cases := []struct {
		ctx  Context
		want string
	}{
		{Context{"a": BoolValue(true)}, "A"},
		{Context{"b": BoolValue(true)}, "B"},
		{Context{}, "C"},
	}
	for _, tc := range cases {
		out, err := r.Render(doc, tc.ctx)
		if err != nil {
			t.Fatalf("render error: %v", err)
		}
		if out != tc.want {
			t.Fatalf("ctx %v: got %q, want %q", tc.ctx, out, tc.want)
		}
	}
}

func TestForElse(t *testing.T) {
	doc, err := Parse("{% for x in items %}-{{ x }}{% else %}empty{% endfor %}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	r := NewRenderer(nil)
	out, _ := r.Render(doc, NewContextFromAny(map[string]any{"items": []int{1, 2}}))
	if out != "-1-2" {
		t.Fatalf("got %q", out)
	}
	out, _ = r.Render(doc, NewContextFromAny(map[string]any{"items": []int{}}))
	if out != "empty" {
		t.Fatalf("empty got %q", out)
	}
}

func TestForDoesNotLeakLoopVariables(t *testing.T) {
	doc, err := Parse("{% for x in [1, 2] %}{{ loop.index }}{% endfor %}[{{ x }}{{ loop }}]")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := NewRenderer(nil).Render(doc, Context{})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "12[]" {
		t.Fatalf("got %q", out)
	}
}

func TestForPairs(t *testing.T) {
	doc, err := Parse("{% for k, v in d.items() %}{{ k }}={{ v }};{% endfor %}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ctx := Context{"d": DictValue{"b": IntValue(2), "a": IntValue(1)}}
	out, err := NewRenderer(nil).Render(doc, ctx)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "a=1;b=2;" {
		t.Fatalf("got %q", out)
	}
}

func TestSetAndUse(t *testing.T) {
	doc, err := Parse("{% set greeting = 'hi' %}{{ greeting }}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := NewRenderer(nil).Render(doc, Context{})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "hi" {
		t.Fatalf("got %q", out)
	}
}

func TestRawAndComments(t *testing.T) {
	doc, err := Parse("A{# comment #}B{% raw %} {{ not_parsed }} {% endraw %}C")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := NewRenderer(nil).Render(doc, Context{})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "AB {{ not_parsed }} C" {
		t.Fatalf("unexpected raw/comment rendering: %q", out)
	}
}

func TestWhitespaceControl(t *testing.T) {
	doc, err := Parse("<ul>\n  {%- for x in xs -%}\n  <li>{{ x }}</li>\n  {%- endfor %}\n</ul>")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := NewRenderer(nil).Render(doc, Context{"xs": ListValue{IntValue(1), IntValue(2)}})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "<ul><li>1</li><li>2</li>\n</ul>" {
		t.Fatalf("got %q", out)
	}
}

func TestInclude(t *testing.T) {
	doc, err := Parse("X[{% include 'p' %}]Y")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	r := NewRenderer(MemoryLoader{"p": "P{{ x }}"})
	out, err := r.Render(doc, Context{"x": IntValue(5)})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "X[P5]Y" {
		t.Fatalf("got %q", out)
	}
}

func TestExtendsAndBlocks(t *testing.T) {
	base := "Header-[{% block content %}Base{% endblock %}]-Footer"
	child := "{% extends 'base' %}{% block content %}Child {{ name }}{% endblock %}"
	childDoc, err := Parse(child)
	if err != nil {
		t.Fatalf("child parse error: %v", err)
	}
	r := NewRenderer(MemoryLoader{"base": base})
	out, err := r.Render(childDoc, Context{"name": StringValue("Neo")})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	want := "Header-[Child Neo]-Footer"
	if out != want {
		t.Fatalf("want %q got %q", want, out)
	}
}

type upperTag struct{ body NodeList }

func (u upperTag) Render(s *Scope) (string, error) {
	out, err := u.body.Render(s)
	return strings.ToUpper(out), err
}

func (u upperTag) Children() NodeList { return u.body }

func TestCustomTags(t *testing.T) {
	tags := Tags{
		"upper": func(p *Parser, args string) (Extension, error) {
			body, end, _, err := p.ParseUntil("endupper")
			if err != nil {
				return nil, err
			}
			if end != "endupper" {
				return nil, errors.New("missing endupper")
			}
			return upperTag{body: body}, nil
		},
	}
	r := NewRenderer(nil)
	r.Tags = tags
	doc, err := r.Parse("a{% upper %}b{{ x }}{% endupper %}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := r.Render(doc, Context{"x": StringValue("c")})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "aBC" {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(Pretty(doc), "Tag(upper)") {
		t.Fatalf("pretty printer missing tag:\n%s", Pretty(doc))
	}
}

func TestUnknownStatementReportsLine(t *testing.T) {
	_, err := Parse("a\nb\n{% frobnicate %}")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("want line 3 error, got %v", err)
	}
}

func TestSplitContents(t *testing.T) {
	got := SplitContents(`card title="Hello world" :n='a b' disabled`)
	want := []string{"card", `title="Hello world"`, `:n='a b'`, "disabled"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("part %d: got %q want %q", i, got[i], want[i])
		}
	}
}

type countingLoader struct{ calls int }

func (c *countingLoader) Load(string) (string, error) {
	c.calls++
	return "v", nil
}

func TestLoaders(t *testing.T) {
	fsys := fstest.MapFS{"cotton/a.html": {Data: []byte("from fs")}}
	chain := ChainLoader{MemoryLoader{"m": "from memory"}, FSLoader{FS: fsys}}
	if src, err := chain.Load("cotton/a.html"); err != nil || src != "from fs" {
		t.Fatalf("chain fs: %q %v", src, err)
	}
	if src, err := chain.Load("m"); err != nil || src != "from memory" {
		t.Fatalf("chain memory: %q %v", src, err)
	}
	if _, err := chain.Load("nope"); !IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}

	counting := &countingLoader{}
	cached := NewCachedLoader(counting, time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := cached.Load("x"); err != nil {
			t.Fatalf("cached load: %v", err)
		}
	}
	if counting.calls != 1 {
		t.Fatalf("want 1 underlying load, got %d", counting.calls)
	}
	cached.Flush()
	_, _ = cached.Load("x")
	if counting.calls != 2 {
		t.Fatalf("want reload after flush, got %d calls", counting.calls)
	}
}

func TestPretty(t *testing.T) {
	doc, err := Parse("A{{ x }}B")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s := Pretty(doc)
	if !strings.Contains(s, "Document") || !strings.Contains(s, "Output(") {
		t.Fatalf("pretty printer missing expected content:\n%s", s)
	}
}
