package cotton

import (
	"github.com/neurodesk/cotton/pkg/jinja2"
)

// Resolution is the outcome of resolving a dynamic attribute expression.
// A deferred resolution leaves the attribute unprocessable.
type Resolution struct {
	Value    jinja2.Value
	Deferred bool
}

func Resolved(v jinja2.Value) Resolution { return Resolution{Value: v} }

func Deferred() Resolution { return Resolution{Deferred: true} }

// Resolver turns the source of a dynamic attribute into a value, evaluated
// against the scope the component is invoked from.
type Resolver interface {
	Resolve(expr string, s *jinja2.Scope) Resolution
}

type ResolverFunc func(expr string, s *jinja2.Scope) Resolution

func (f ResolverFunc) Resolve(expr string, s *jinja2.Scope) Resolution { return f(expr, s) }

// ExprResolver evaluates attributes as template expressions. Names that do
// not resolve and expressions that fail to evaluate are deferred. Sources
// containing {{ }} or {% %} are rendered as inline templates instead.
type ExprResolver struct {
	// Evaluator defaults to the evaluator of the scope's renderer.
	Evaluator *jinja2.Evaluator
}

func (r ExprResolver) Resolve(expr string, s *jinja2.Scope) Resolution {
	ev := r.Evaluator
	if ev == nil && s.Renderer() != nil {
		ev = s.Renderer().Evaluator
	}
	if ev == nil {
		ev = jinja2.NewEvaluator()
	}
	if v, err := ev.Eval(expr, s); err == nil && jinja2.IsDefined(v) {
		return Resolved(v)
	}
	if ts := jinja2.TemplateString(expr); ts.HasMarkup() {
		if out, err := ts.RenderScope(s); err == nil {
			return Resolved(jinja2.StringValue(out))
		}
	}
	return Deferred()
}
