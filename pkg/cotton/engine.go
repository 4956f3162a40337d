// Package cotton implements reusable template components on top of the
// jinja2 engine: <c-name> tags, named slots and attribute passing.
package cotton

import (
	"fmt"
	"log/slog"

	"github.com/neurodesk/cotton/pkg/config"
	"github.com/neurodesk/cotton/pkg/jinja2"
)

// Template is a loaded component template.
type Template interface {
	Render(s *jinja2.Scope) (string, error)
}

// TemplateLoader loads component templates by path. Loaders may return a
// handle wrapping the real template; it is unwrapped once through an
// Unwrap() Template method.
type TemplateLoader interface {
	GetTemplate(path string) (Template, error)
}

type rendererLoader struct {
	r *jinja2.Renderer
}

func (l rendererLoader) GetTemplate(path string) (Template, error) {
	t, err := l.r.GetTemplate(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type Engine struct {
	cfg      config.Config
	renderer *jinja2.Renderer
	paths    *PathResolver
	resolver Resolver
	loader   TemplateLoader
	log      *slog.Logger
}

type Option func(*Engine)

// WithResolver replaces the dynamic attribute resolver (ExprResolver by
// default).
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTemplateLoader overrides how component templates are loaded. By default
// they come from the engine's own renderer.
func WithTemplateLoader(l TemplateLoader) Option {
	return func(e *Engine) { e.loader = l }
}

// New builds an engine whose templates come from loader. Sources are run
// through Compile before parsing, so both <c-...> markup and {% c %} tags
// work.
func New(cfg config.Config, loader jinja2.Loader, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var src jinja2.Loader
	if loader != nil {
		src = compilingLoader{next: loader}
	}
	e := &Engine{
		cfg:      cfg,
		renderer: jinja2.NewRenderer(src),
		paths:    NewPathResolver(cfg),
		resolver: ExprResolver{},
		log:      slog.Default(),
	}
	e.renderer.Tags["c"] = e.parseComponent
	e.renderer.Tags["slot"] = e.parseSlot
	e.loader = rendererLoader{e.renderer}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() config.Config { return e.cfg }

func (e *Engine) Renderer() *jinja2.Renderer { return e.renderer }

func (e *Engine) Paths() *PathResolver { return e.paths }

// Render renders the named template as a new top-level render.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	tpl, err := e.renderer.GetTemplate(name)
	if err != nil {
		return "", err
	}
	e.log.Debug("rendering template", "template", name)
	return tpl.Render(jinja2.NewScope(e.renderer, jinja2.NewContextFromAny(data)))
}

// RenderString compiles and renders src as a new top-level render.
func (e *Engine) RenderString(src string, data map[string]any) (string, error) {
	doc, err := e.renderer.Parse(Compile(src))
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	return e.renderer.Render(doc, jinja2.NewContextFromAny(data))
}
