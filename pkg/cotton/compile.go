package cotton

import (
	"regexp"
	"strings"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

var (
	openTagRe  = regexp.MustCompile(`<c-([\w.:-]+)((?:\s+[^\s=/>"']+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'>]+))?)*)\s*(/?)>`)
	closeTagRe = regexp.MustCompile(`</c-([\w.:-]+)\s*>`)
	tagAttrRe  = regexp.MustCompile(`([^\s=/>"']+)(?:\s*=\s*("[^"]*"|'[^']*'|[^\s"'>]+))?`)
	rawBlockRe = regexp.MustCompile(`(?s)\{%-?\s*raw\s*-?%\}.*?\{%-?\s*endraw\s*-?%\}`)
)

// Compile rewrites <c-...> component markup into {% c %} and {% slot %}
// statements. Text inside {% raw %} blocks is left alone.
//
//	<c-card title="Hi" :user="u">body</c-card>  {% c card title="Hi" :user="u" %}body{% endc %}
//	<c-icon name="x" />                         {% c icon name="x" %}{% endc %}
//	<c-slot:header>..</c-slot:header>           {% slot header %}..{% endslot %}
func Compile(src string) string {
	if !strings.Contains(src, "<c-") {
		return src
	}
	var b strings.Builder
	last := 0
	for _, loc := range rawBlockRe.FindAllStringIndex(src, -1) {
		b.WriteString(compileTags(src[last:loc[0]]))
		b.WriteString(src[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(compileTags(src[last:]))
	return b.String()
}

func compileTags(src string) string {
	var b strings.Builder
	last := 0
	for _, m := range openTagRe.FindAllStringSubmatchIndex(src, -1) {
		b.WriteString(src[last:m[0]])
		name := src[m[2]:m[3]]
		attrs := normalizeAttrs(src[m[4]:m[5]])
		selfClosing := m[7] > m[6]
		if slot, ok := slotName(name, attrs); ok {
			b.WriteString("{% slot " + slot + " %}")
			if selfClosing {
				b.WriteString("{% endslot %}")
			}
		} else {
			b.WriteString("{% c " + name)
			for _, a := range attrs {
				b.WriteString(" " + a)
			}
			b.WriteString(" %}")
			if selfClosing {
				b.WriteString("{% endc %}")
			}
		}
		last = m[1]
	}
	b.WriteString(src[last:])

	return closeTagRe.ReplaceAllStringFunc(b.String(), func(tag string) string {
		name := closeTagRe.FindStringSubmatch(tag)[1]
		if name == "slot" || strings.HasPrefix(name, "slot:") {
			return "{% endslot %}"
		}
		return "{% endc %}"
	})
}

// normalizeAttrs returns the attributes of a tag as name=value or bare name
// tokens, dropping whitespace around "=".
func normalizeAttrs(s string) []string {
	var out []string
	for _, m := range tagAttrRe.FindAllStringSubmatch(s, -1) {
		if m[2] == "" {
			out = append(out, m[1])
			continue
		}
		out = append(out, m[1]+"="+m[2])
	}
	return out
}

func slotName(tag string, attrs []string) (string, bool) {
	if name, ok := strings.CutPrefix(tag, "slot:"); ok {
		return name, true
	}
	if tag != "slot" {
		return "", false
	}
	for _, a := range attrs {
		if v, ok := strings.CutPrefix(a, "name="); ok {
			return stripQuotes(jinja2.StringValue(v)).String(), true
		}
	}
	return "", true
}

// compilingLoader runs Compile over every template source it loads.
type compilingLoader struct {
	next jinja2.Loader
}

func (l compilingLoader) Load(name string) (string, error) {
	src, err := l.next.Load(name)
	if err != nil {
		return "", err
	}
	return Compile(src), nil
}
