package cotton

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/neurodesk/cotton/pkg/config"
	"github.com/neurodesk/cotton/pkg/jinja2"
)

func TestProperty_AttrsFirstPositionLastValue(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), 0, 20).Draw(rt, "names")

		a := NewAttrs()
		var order []string
		last := map[string]int{}
		for i, n := range names {
			if _, seen := last[n]; !seen {
				order = append(order, n)
			}
			last[n] = i
			a.Set(n, jinja2.IntValue(i))
		}

		require.Equal(rt, len(order), a.Len())
		if len(order) > 0 {
			require.Equal(rt, order, a.Keys())
		}
		for n, i := range last {
			v, ok := a.Get(n)
			require.True(rt, ok)
			require.Equal(rt, jinja2.IntValue(i), v)
		}
	})
}

func TestProperty_PathShape(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,6}([.-][a-z]{1,6}){0,3}`).Draw(rt, "name")
		snake := rapid.Bool().Draw(rt, "snake")

		cfg := config.Default()
		cfg.SnakeCaseNames = snake
		r := NewPathResolver(cfg)

		p, err := r.Resolve(name, "")
		require.NoError(rt, err)
		again, err := r.Resolve(name, "")
		require.NoError(rt, err)
		require.Equal(rt, p, again)

		require.True(rt, strings.HasPrefix(p, "cotton/"))
		body, ok := strings.CutSuffix(strings.TrimPrefix(p, "cotton/"), ".html")
		require.True(rt, ok)
		require.NotContains(rt, body, ".")
		require.Equal(rt, strings.Count(name, ".")+1, len(strings.Split(body, "/")))
		if snake {
			require.NotContains(rt, body, "-")
		}

		dyn, err := r.Resolve(DynamicComponent, name)
		require.NoError(rt, err)
		require.Equal(rt, p, dyn)
	})
}

func TestProperty_LiteralAttrsRoundTrip(t *testing.T) {
	e := newEngine(t, map[string]string{"cotton/x.html": `{{ attrs }}`})
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(rt, "n")
		var src, want []string
		seen := map[string]bool{}
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[a-z][a-z0-9-]{0,8}`).Draw(rt, "name")
			value := rapid.StringMatching(`[A-Za-z0-9 _.-]{1,12}`).Draw(rt, "value")
			if seen[name] {
				continue
			}
			seen[name] = true
			src = append(src, name+`="`+value+`"`)
			want = append(want, name+`="`+value+`"`)
		}

		out, err := e.RenderString("<c-x "+strings.Join(src, " ")+" />", nil)
		require.NoError(rt, err)
		require.Equal(rt, strings.Join(want, " "), out)
	})
}
