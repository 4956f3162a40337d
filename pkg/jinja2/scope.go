package jinja2

// RenderContext carries state shared by every node taking part in one
// top-level render. Nodes store their own data under a key they own
// (typically the node pointer or an unexported key type).
//
// A RenderContext is not safe for concurrent use; each top-level render gets
// its own.
type RenderContext struct {
	values map[any]any
}

func NewRenderContext() *RenderContext {
	return &RenderContext{values: map[any]any{}}
}

func (rc *RenderContext) Get(key any) (any, bool) {
	v, ok := rc.values[key]
	return v, ok
}

func (rc *RenderContext) Set(key, value any) {
	rc.values[key] = value
}

// Scope is the stack of variable layers a template renders against. Lookups
// search from the innermost layer outwards; assignments go to the innermost
// layer.
type Scope struct {
	layers   []Context
	render   *RenderContext
	renderer *Renderer
}

// NewScope starts a top-level render: ctx becomes the base layer and a fresh
// RenderContext is attached.
func NewScope(r *Renderer, ctx Context) *Scope {
	if ctx == nil {
		ctx = Context{}
	}
	return &Scope{
		layers:   []Context{ctx},
		render:   NewRenderContext(),
		renderer: r,
	}
}

// Isolated returns a scope that sees only ctx but shares the renderer and
// RenderContext of s.
func (s *Scope) Isolated(ctx Context) *Scope {
	if ctx == nil {
		ctx = Context{}
	}
	return &Scope{
		layers:   []Context{ctx},
		render:   s.render,
		renderer: s.renderer,
	}
}

func (s *Scope) Push(ctx Context) {
	if ctx == nil {
		ctx = Context{}
	}
	s.layers = append(s.layers, ctx)
}

// Pop removes the innermost layer. The base layer is never removed.
func (s *Scope) Pop() Context {
	if len(s.layers) <= 1 {
		panic("jinja2: pop of base scope layer")
	}
	top := s.layers[len(s.layers)-1]
	s.layers = s.layers[:len(s.layers)-1]
	return top
}

func (s *Scope) Depth() int { return len(s.layers) }

func (s *Scope) Lookup(name string) (Value, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if v, ok := s.layers[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) Set(name string, v Value) {
	s.layers[len(s.layers)-1][name] = v
}

// Flatten merges all layers into a single Context, inner layers winning.
func (s *Scope) Flatten() Context {
	out := Context{}
	for _, l := range s.layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

func (s *Scope) RenderContext() *RenderContext { return s.render }

func (s *Scope) Renderer() *Renderer { return s.renderer }
