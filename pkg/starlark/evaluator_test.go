package starlark

import (
	"testing"

	"go.starlark.net/starlark"

	"github.com/neurodesk/cotton/pkg/config"
	"github.com/neurodesk/cotton/pkg/cotton"
	"github.com/neurodesk/cotton/pkg/jinja2"
)

func TestConvertToStarlark(t *testing.T) {
	tests := []struct {
		name     string
		input    jinja2.Value
		expected string
	}{
		{"string value", jinja2.StringValue("hello"), `"hello"`},
		{"int value", jinja2.IntValue(42), "42"},
		{"float value", jinja2.FloatValue(3.5), "3.5"},
		{"bool value", jinja2.BoolValue(true), "True"},
		{"none value", jinja2.NoneValue{}, "None"},
		{"undefined value", jinja2.UndefinedValue{Name: "x"}, "None"},
		{"nil value", nil, "None"},
		{"list value", jinja2.ListValue{jinja2.IntValue(1), jinja2.StringValue("a")}, `[1, "a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToStarlark(tt.input)
			if result.String() != tt.expected {
				t.Errorf("ConvertToStarlark() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConvertFromStarlark(t *testing.T) {
	tests := []struct {
		name     string
		input    starlark.Value
		expected string
	}{
		{"string value", starlark.String("hello"), "hello"},
		{"int value", starlark.MakeInt64(42), "42"},
		{"float value", starlark.Float(3.14), "3.14"},
		{"bool value", starlark.Bool(false), "false"},
		{"none value", starlark.None, ""},
		{"tuple value", starlark.Tuple{starlark.String("a"), starlark.String("b")}, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertFromStarlark(tt.input)
			if result.String() != tt.expected {
				t.Errorf("ConvertFromStarlark() = %v, want %v", result.String(), tt.expected)
			}
		})
	}
}

func TestDictConversionKeepsOrder(t *testing.T) {
	dict := starlark.NewDict(2)
	dict.SetKey(starlark.String("zeta"), starlark.MakeInt64(1))
	dict.SetKey(starlark.String("alpha"), starlark.MakeInt64(2))

	m, ok := ConvertFromStarlark(dict).(jinja2.Mapping)
	if !ok {
		t.Fatalf("expected a mapping, got %T", ConvertFromStarlark(dict))
	}
	items := m.Items()
	if len(items) != 2 || items[0].Key != "zeta" || items[1].Key != "alpha" {
		t.Errorf("unexpected items: %v", items)
	}
}

func TestMappingRoundTrip(t *testing.T) {
	attrs := cotton.NewAttrs()
	attrs.Set("class", jinja2.StringValue("btn"))

	sv := ConvertToStarlark(attrs)
	if got := ConvertFromStarlark(sv); got != jinja2.Value(attrs) {
		t.Errorf("expected the original mapping back, got %T", got)
	}
}

func TestEvaluator(t *testing.T) {
	eval := NewEvaluator()
	eval.SetGlobal("site", jinja2.StringValue("docs"))

	vars := jinja2.Context{
		"user":   jinja2.DictValue{"name": jinja2.StringValue("Ada")},
		"active": jinja2.BoolValue(true),
	}
	tests := []struct {
		expr     string
		expected string
	}{
		{"2 + 3", "5"},
		{"site + '/' + user.name", "docs/Ada"},
		{`user["name"].upper()`, "ADA"},
		{"len(user)", "1"},
		{"[k for k in user]", "name"},
		{`classes("btn", active=active, hidden=False)`, "btn active"},
	}
	for _, tt := range tests {
		result, err := eval.Eval(tt.expr, vars)
		if err != nil {
			t.Fatalf("Eval(%q) error: %v", tt.expr, err)
		}
		if result.String() != tt.expected {
			t.Errorf("Eval(%q) = %q, want %q", tt.expr, result.String(), tt.expected)
		}
	}

	for _, expr := range []string{"missing", "user.age", "1 +", `classes(1)`} {
		if _, err := eval.Eval(expr, vars); err == nil {
			t.Errorf("Eval(%q) expected error", expr)
		}
	}
}

func TestResolver(t *testing.T) {
	s := jinja2.NewScope(nil, jinja2.NewContextFromAny(map[string]any{"n": 2}))
	r := NewResolver()

	res := r.Resolve("n * 21", s)
	if res.Deferred || res.Value != jinja2.Value(jinja2.IntValue(42)) {
		t.Errorf("unexpected resolution: %+v", res)
	}
	if !r.Resolve("nope", s).Deferred {
		t.Error("expected undefined name to defer")
	}
}

func TestResolverInEngine(t *testing.T) {
	e, err := cotton.New(config.Default(), jinja2.MemoryLoader{
		"cotton/btn.html": `<button class="{{ class }}">{{ slot }}</button>`,
	}, cotton.WithResolver(NewResolver()))
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.RenderString(`<c-btn :class="classes('btn', primary=kind == 'primary')">Go</c-btn>`,
		map[string]any{"kind": "primary"})
	if err != nil {
		t.Fatal(err)
	}
	if want := `<button class="btn primary">Go</button>`; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
