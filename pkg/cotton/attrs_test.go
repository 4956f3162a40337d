package cotton

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

func TestAttrsOrderAndOverwrite(t *testing.T) {
	a := NewAttrs()
	a.Set("b", jinja2.StringValue("1"))
	a.Set("a", jinja2.StringValue("2"))
	a.Set("b", jinja2.StringValue("3"))

	require.Equal(t, []string{"b", "a"}, a.Keys())
	v, ok := a.Get("b")
	require.True(t, ok)
	require.Equal(t, jinja2.StringValue("3"), v)
	require.Equal(t, `b="3" a="2"`, a.String())
}

func TestAttrsUnprocessable(t *testing.T) {
	a := NewAttrs()
	a.MarkUnprocessable("title", "user.name")
	require.True(t, a.Unprocessable("title"))
	require.Equal(t, []string{"title"}, a.UnprocessableNames())
	require.NotContains(t, a.Accessible(), "title")
	require.Equal(t, `:title="user.name"`, a.String())

	a.Set("title", jinja2.StringValue("x"))
	require.False(t, a.Unprocessable("title"))
	require.Empty(t, a.UnprocessableNames())
}

func TestAttrsString(t *testing.T) {
	a := NewAttrs()
	require.False(t, a.Truth())
	a.Set("disabled", jinja2.BoolValue(true))
	a.Set("title", jinja2.StringValue(`say "hi" & <bye>`))
	a.Set("hidden", jinja2.BoolValue(false))
	a.Set("n", jinja2.IntValue(3))
	require.True(t, a.Truth())
	require.Equal(t, `disabled title="say &quot;hi&quot; &amp; &lt;bye&gt;" hidden="false" n="3"`, a.String())

	a.Exclude("title")
	require.Equal(t, `disabled hidden="false" n="3"`, a.String())
	require.Equal(t, 4, a.Len())
}

func TestAttrsAccessible(t *testing.T) {
	a := NewAttrs()
	a.Set("data-id", jinja2.IntValue(7))
	a.Set("class", jinja2.StringValue("c"))
	ctx := a.Accessible()
	require.Equal(t, jinja2.IntValue(7), ctx["data-id"])
	require.Equal(t, jinja2.IntValue(7), ctx["data_id"])
	require.Equal(t, jinja2.StringValue("c"), ctx["class"])
}

func TestAttrsInTemplates(t *testing.T) {
	a := NewAttrs()
	a.Set("class", jinja2.StringValue("btn"))
	a.Set("id", jinja2.StringValue("go"))
	out, err := jinja2.TemplateString(`{{ attrs.class }}|{% for k, v in attrs.items() %}{{ k }}={{ v }};{% endfor %}`).
		Render(jinja2.Context{"attrs": a})
	require.NoError(t, err)
	require.Equal(t, "btn|class=btn;id=go;", out)
}
