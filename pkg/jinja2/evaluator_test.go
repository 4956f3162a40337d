package jinja2

import (
	"strconv"
	"strings"
	"testing"
)

func renderHelper(t *testing.T, tpl string, ctx Context) (string, error) {
	t.Helper()
	ts := TemplateString(tpl)
	return ts.Render(ctx)
}

func TestExpressions(t *testing.T) {
	props := DictValue{
		"size":    StringValue("2.10.1"),
		"variant": StringValue("outline"),
		"labels":  DictValue{"outline": StringValue("Outlined"), "solid": StringValue("Solid")},
		"classes": StringValue("btn btn-lg wide"),
		"items":   ListValue{StringValue("a"), StringValue("b")},
		"active":  BoolValue(true),
		"muted":   BoolValue(false),
	}
	cases := []struct {
		name string
		tpl  string
		want string
	}{
		{"map int compare", "{% if props.size.split('.') | map('int') | list >= [2, 10, 0] %}new{% else %}old{% endif %}", "new"},
		{"index by variable", "{{ props.labels[props.variant] }}", "Outlined"},
		{"loop last with trim", "{% for c in props.classes.split() %}{% if not loop.last -%}{{ c }},{% else -%}{{ c }}{% endif %}{% endfor %}", "btn,btn-lg,wide"},
		{"split on list is identity", "{% for x in props.items.split() %}{{ x }}{% endfor %}", "ab"},
		{"not in tuple", "{% if props.variant not in ('solid', 'ghost') %}ok{% endif %}", "ok"},
		{"in tuple", "{% if props.variant in ('solid', 'outline') %}ok{% endif %}", "ok"},
		{"or chain", `{% if props.variant == "solid" or props.variant == "outline" %}styled{% endif %}`, "styled"},
		{"and binds tighter than or", "{% if props.muted and props.active or props.active %}T{% else %}F{% endif %}", "T"},
		{"not", "{% if not props.muted %}on{% endif %}", "on"},
		{"string methods", "{{ props.variant.upper() }} {{ props.classes.startswith('btn') }}", "OUTLINE true"},
		{"mapping get", "{{ props.labels.get('solid') }}", "Solid"},
		{"default filter", "{{ props.missing | default('none') }}", "none"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := renderHelper(t, tc.tpl, Context{"props": props})
			if err != nil {
				t.Fatalf("render error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRaiseFunction(t *testing.T) {
	if _, err := renderHelper(t, "{{ raise('boom') }}", Context{}); err == nil {
		t.Fatalf("expected error from raise, got nil")
	}
}

func TestUndefinedIsDistinguishable(t *testing.T) {
	e := NewEvaluator()
	s := NewScope(NewRenderer(nil), Context{"known": NoneValue{}})
	v, err := e.Eval("missing.deeper", s)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if IsDefined(v) {
		t.Fatalf("want undefined, got %#v", v)
	}
	v, err = e.Eval("known", s)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if !IsDefined(v) {
		t.Fatalf("none should count as defined")
	}
}

func TestDictLiteralKeepsOrder(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Eval("{'z': 1, 'a': 2, 'm': [1, 2]}", NewScope(nil, nil))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	m, ok := v.(Mapping)
	if !ok {
		t.Fatalf("want mapping, got %T", v)
	}
	var keys []string
	for _, it := range m.Items() {
		keys = append(keys, it.Key)
	}
	if strings.Join(keys, ",") != "z,a,m" {
		t.Fatalf("got keys %v", keys)
	}
}

func TestArithmeticAndConcat(t *testing.T) {
	cases := []struct {
		tpl  string
		want string
	}{
		{"{{ 1 + 2 * 3 }}", "7"},
		{"{{ (1 + 2) * 3 }}", "9"},
		{"{{ 7 / 2 }}", "3.5"},
		{"{{ 7 % 4 }}", "3"},
		{"{{ -n + 1 }}", "-4"},
		{"{{ 'a' ~ n ~ 'b' }}", "a5b"},
		{"{{ ([1] + [2]) | length }}", "2"},
		{"{{ name | default('anon') }}", "anon"},
		{"{{ 'x y z'.split() | join('-') }}", "x-y-z"},
	}
	for _, tc := range cases {
		got, err := renderHelper(t, tc.tpl, Context{"n": IntValue(5)})
		if err != nil {
			t.Fatalf("%s: render error: %v", tc.tpl, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.tpl, got, tc.want)
		}
	}
}

func TestExpressionErrors(t *testing.T) {
	for _, tpl := range []string{"{{ 1 + }}", "{{ x | nosuchfilter }}", "{{ 'unterminated }}", "{{ nope() }}"} {
		if _, err := renderHelper(t, tpl, Context{}); err == nil {
			t.Fatalf("%s: expected error", tpl)
		}
	}
}

func TestRangeIsBounded(t *testing.T) {
	if _, err := renderHelper(t, "{{ range(100000000000) }}", Context{}); err == nil {
		t.Fatalf("expected error for oversized range")
	}
	e := NewEvaluator()
	v, err := e.Eval("range(2, 100002)", NewScope(NewRenderer(nil), nil))
	if err != nil {
		t.Fatalf("range at the limit: %v", err)
	}
	if n := len(v.(ListValue)); n != maxRange {
		t.Fatalf("got %d items, want %d", n, maxRange)
	}
}

func TestParsedExpressionCacheIsBounded(t *testing.T) {
	e := NewEvaluator()
	s := NewScope(NewRenderer(nil), nil)
	for i := 0; i < parsedCacheSize+100; i++ {
		if _, err := e.Eval(strconv.Itoa(i)+" + 1", s); err != nil {
			t.Fatalf("eval %d: %v", i, err)
		}
	}
	if n := e.parsed.Len(); n != parsedCacheSize {
		t.Fatalf("cache holds %d expressions, want %d", n, parsedCacheSize)
	}
}
