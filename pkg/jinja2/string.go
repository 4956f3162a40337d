package jinja2

import (
	"fmt"
	"strings"
)

// TemplateString is an inline template, such as an attribute value that
// contains {{ }} or {% %} markup.
type TemplateString string

// HasMarkup reports whether the string contains any template delimiters.
func (t TemplateString) HasMarkup() bool {
	s := string(t)
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

func (t TemplateString) Validate() error {
	if _, err := Parse(string(t)); err != nil {
		return fmt.Errorf("invalid jinja template: %w", err)
	}
	return nil
}

func (t TemplateString) Render(ctx Context) (string, error) {
	return t.RenderScope(NewScope(NewRenderer(nil), ctx))
}

// RenderScope renders the string against an existing scope with the scope's
// renderer, so custom tags and loaders stay available.
func (t TemplateString) RenderScope(s *Scope) (string, error) {
	r := s.Renderer()
	if r == nil {
		r = NewRenderer(nil)
	}
	doc, err := r.Parse(string(t))
	if err != nil {
		return "", fmt.Errorf("parsing jinja template: %w", err)
	}
	return r.RenderScope(doc, s)
}
