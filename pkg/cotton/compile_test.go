package cotton

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

func TestCompile(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"no markup", `<div>{{ x }}</div>`, `<div>{{ x }}</div>`},
		{"pair", `<c-card title="Hi">x</c-card>`, `{% c card title="Hi" %}x{% endc %}`},
		{"self closing", `<c-icon name="x" />`, `{% c icon name="x" %}{% endc %}`},
		{"self closing no attrs", `<c-hr/>`, `{% c hr %}{% endc %}`},
		{"dynamic and bare", `<c-btn :user="u" disabled>y</c-btn>`, `{% c btn :user="u" disabled %}y{% endc %}`},
		{"spaces around equals", `<c-btn  a = "1"  b='2' c=3>y</c-btn >`, `{% c btn a="1" b='2' c=3 %}y{% endc %}`},
		{"multiline", "<c-btn\n  a=\"1\"\n  b=\"2\"\n>y</c-btn>", `{% c btn a="1" b="2" %}y{% endc %}`},
		{"dotted name", `<c-nav.item />`, `{% c nav.item %}{% endc %}`},
		{"slot colon", `<c-slot:title>T</c-slot:title>`, `{% slot title %}T{% endslot %}`},
		{"slot name attr", `<c-slot name="title">T</c-slot>`, `{% slot title %}T{% endslot %}`},
		{"gt in value", `<c-x a="1 > 0" />`, `{% c x a="1 > 0" %}{% endc %}`},
		{
			"raw block untouched",
			`{% raw %}<c-card />{% endraw %}<c-card />`,
			`{% raw %}<c-card />{% endraw %}{% c card %}{% endc %}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Compile(tc.in))
		})
	}
}

func TestCompilingLoader(t *testing.T) {
	l := compilingLoader{next: jinja2.MemoryLoader{"a.html": `<c-b />`}}
	src, err := l.Load("a.html")
	require.NoError(t, err)
	require.Equal(t, `{% c b %}{% endc %}`, src)

	_, err = l.Load("missing.html")
	require.True(t, jinja2.IsNotFound(err))
}
