package cotton

import (
	"github.com/neurodesk/cotton/pkg/jinja2"
)

// Frame is the bookkeeping of one component invocation while it renders.
type Frame struct {
	Key   string
	Attrs *Attrs
	Slots map[string]jinja2.Value
}

func newFrame(key string) *Frame {
	return &Frame{Key: key, Attrs: NewAttrs(), Slots: map[string]jinja2.Value{}}
}

// Stack holds the frames of the components currently rendering, innermost
// last.
type Stack struct {
	frames []*Frame
}

func (s *Stack) Push(f *Frame) { s.frames = append(s.frames, f) }

// Pop removes f, which must be the top frame. Anything else means a render
// unwound out of order and is a programming error.
func (s *Stack) Pop(f *Frame) {
	if len(s.frames) == 0 || s.frames[len(s.frames)-1] != f {
		panic("cotton: component stack popped out of order")
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *Stack) Top() (*Frame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *Stack) Depth() int { return len(s.frames) }

// State is the per-render component state. Templates see it as cotton_data.
type State struct {
	Stack Stack
	// Vars is free-form data components may share during one render.
	Vars jinja2.Context
}

type stateKey struct{}

// StateFor returns the State of the render s belongs to, creating it on first
// use.
func StateFor(s *jinja2.Scope) *State {
	rc := s.RenderContext()
	if v, ok := rc.Get(stateKey{}); ok {
		return v.(*State)
	}
	st := &State{Vars: jinja2.Context{}}
	rc.Set(stateKey{}, st)
	return st
}

func (st *State) String() string { return "<cotton_data>" }
func (st *State) Truth() bool    { return true }

func (st *State) OnLookup(key string) (jinja2.Value, bool) {
	switch key {
	case "depth":
		return jinja2.IntValue(st.Stack.Depth()), true
	case "vars":
		return jinja2.DictValue(st.Vars), true
	case "component":
		if f, ok := st.Stack.Top(); ok {
			return jinja2.StringValue(f.Key), true
		}
		return jinja2.NoneValue{}, true
	}
	return nil, false
}

var _ jinja2.LookupHook = (*State)(nil)
