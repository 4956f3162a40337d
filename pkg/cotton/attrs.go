package cotton

import (
	"strings"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

// Attrs is the ordered attribute set of one component invocation. Names are
// unique; the first assignment fixes a name's position and the last one its
// value.
//
// Attrs is exposed to component templates as `attrs`: printing it yields an
// HTML attribute string and `attrs.name` looks up single entries.
type Attrs struct {
	keys          []string
	values        map[string]jinja2.Value
	unprocessable map[string]bool
	excluded      map[string]bool
}

func NewAttrs() *Attrs {
	return &Attrs{
		values:        map[string]jinja2.Value{},
		unprocessable: map[string]bool{},
		excluded:      map[string]bool{},
	}
}

func (a *Attrs) Set(name string, v jinja2.Value) {
	if _, ok := a.values[name]; !ok {
		a.keys = append(a.keys, name)
	}
	a.values[name] = v
	delete(a.unprocessable, name)
}

// MarkUnprocessable records that name's dynamic expression could not be
// resolved. The raw expression is kept so it can be passed through verbatim.
func (a *Attrs) MarkUnprocessable(name, raw string) {
	a.Set(name, jinja2.StringValue(raw))
	a.unprocessable[name] = true
}

func (a *Attrs) Get(name string) (jinja2.Value, bool) {
	v, ok := a.values[name]
	return v, ok
}

func (a *Attrs) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

func (a *Attrs) Unprocessable(name string) bool { return a.unprocessable[name] }

func (a *Attrs) UnprocessableNames() []string {
	var out []string
	for _, k := range a.keys {
		if a.unprocessable[k] {
			out = append(out, k)
		}
	}
	return out
}

// Keys returns attribute names in declaration order.
func (a *Attrs) Keys() []string {
	return append([]string(nil), a.keys...)
}

func (a *Attrs) Len() int { return len(a.keys) }

// Exclude hides name from String output; the value stays accessible.
func (a *Attrs) Exclude(name string) { a.excluded[name] = true }

func (a *Attrs) Items() []jinja2.Item {
	out := make([]jinja2.Item, 0, len(a.keys))
	for _, k := range a.keys {
		out = append(out, jinja2.Item{Key: k, Value: a.values[k]})
	}
	return out
}

// Accessible returns the entries as top-level template variables. Names with
// hyphens are also reachable with underscores (data-id as data_id).
// Unprocessable entries are left out: their value is not known.
func (a *Attrs) Accessible() jinja2.Context {
	ctx := jinja2.Context{}
	for _, k := range a.keys {
		if a.unprocessable[k] {
			continue
		}
		ctx[k] = a.values[k]
		if strings.Contains(k, "-") {
			ctx[strings.ReplaceAll(k, "-", "_")] = a.values[k]
		}
	}
	return ctx
}

// String renders the attributes as they would appear on an HTML element.
func (a *Attrs) String() string {
	var b strings.Builder
	for _, k := range a.keys {
		if a.excluded[k] {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		v := a.values[k]
		switch {
		case a.unprocessable[k]:
			b.WriteString(":" + k + `="` + escapeAttr(v.String()) + `"`)
		case v == jinja2.BoolValue(true):
			b.WriteString(k)
		default:
			b.WriteString(k + `="` + escapeAttr(v.String()) + `"`)
		}
	}
	return b.String()
}

func (a *Attrs) Truth() bool { return len(a.keys) > 0 }

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

var _ jinja2.Mapping = (*Attrs)(nil)
