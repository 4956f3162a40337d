package starlark

import (
	"fmt"
	"log/slog"
	"strings"

	"go.starlark.net/starlark"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

// Evaluator evaluates Starlark expressions over template values.
type Evaluator struct {
	builtins starlark.StringDict
	globals  starlark.StringDict
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		builtins: Builtins(),
		globals:  starlark.StringDict{},
	}
}

// SetGlobal makes value visible to every expression under name.
func (e *Evaluator) SetGlobal(name string, value jinja2.Value) {
	e.globals[name] = ConvertToStarlark(value)
}

// Eval evaluates expr with vars on top of the evaluator's globals. Each call
// runs on its own thread, so an Evaluator may be shared once configured.
func (e *Evaluator) Eval(expr string, vars jinja2.Context) (jinja2.Value, error) {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals)+len(vars))
	for k, v := range e.builtins {
		predeclared[k] = v
	}
	for k, v := range e.globals {
		predeclared[k] = v
	}
	for k, v := range vars {
		predeclared[k] = ConvertToStarlark(v)
	}

	thread := &starlark.Thread{
		Name: "cotton",
		Print: func(_ *starlark.Thread, msg string) {
			slog.Debug("starlark print", "msg", msg)
		},
	}
	val, err := starlark.Eval(thread, "<attr>", expr, predeclared)
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}
	return ConvertFromStarlark(val), nil
}

// Builtins returns the functions available to attribute expressions in
// addition to the Starlark universe.
//
//	classes("btn", active=is_active, disabled=False)  -> "btn active"
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"classes": starlark.NewBuiltin("classes", classes),
	}
}

func classes(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var out []string
	for _, a := range args {
		s, ok := a.(starlark.String)
		if !ok {
			return nil, fmt.Errorf("%s: positional arguments must be strings, got %s", fn.Name(), a.Type())
		}
		if s != "" {
			out = append(out, string(s))
		}
	}
	for _, kv := range kwargs {
		if kv[1].Truth() {
			out = append(out, string(kv[0].(starlark.String)))
		}
	}
	return starlark.String(strings.Join(out, " ")), nil
}
