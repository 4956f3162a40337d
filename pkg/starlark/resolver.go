package starlark

import (
	"github.com/neurodesk/cotton/pkg/cotton"
	"github.com/neurodesk/cotton/pkg/jinja2"
)

// Resolver resolves dynamic component attributes as Starlark expressions
// against the invoking scope. Any evaluation error defers the attribute.
type Resolver struct {
	Evaluator *Evaluator
}

func NewResolver() *Resolver {
	return &Resolver{Evaluator: NewEvaluator()}
}

func (r *Resolver) Resolve(expr string, s *jinja2.Scope) cotton.Resolution {
	v, err := r.Evaluator.Eval(expr, s.Flatten())
	if err != nil {
		return cotton.Deferred()
	}
	return cotton.Resolved(v)
}

var _ cotton.Resolver = (*Resolver)(nil)
