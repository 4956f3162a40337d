package starlark

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"github.com/neurodesk/cotton/pkg/jinja2"
)

// ConvertToStarlark converts a template value to a Starlark value. Mappings
// become read-only objects supporting both m.key and m["key"].
func ConvertToStarlark(val jinja2.Value) starlark.Value {
	switch v := val.(type) {
	case nil, jinja2.NoneValue, jinja2.UndefinedValue:
		return starlark.None
	case jinja2.StringValue:
		return starlark.String(string(v))
	case jinja2.IntValue:
		return starlark.MakeInt64(int64(v))
	case jinja2.FloatValue:
		return starlark.Float(float64(v))
	case jinja2.BoolValue:
		return starlark.Bool(bool(v))
	case jinja2.ListValue:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case jinja2.Mapping:
		return &mapping{m: v}
	default:
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to a template value. Dicts
// keep their insertion order.
func ConvertFromStarlark(val starlark.Value) jinja2.Value {
	switch v := val.(type) {
	case nil, starlark.NoneType:
		return jinja2.NoneValue{}
	case starlark.String:
		return jinja2.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return jinja2.IntValue(i)
		}
		return jinja2.StringValue(v.String())
	case starlark.Float:
		return jinja2.FloatValue(float64(v))
	case starlark.Bool:
		return jinja2.BoolValue(bool(v))
	case *starlark.List:
		items := make(jinja2.ListValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make(jinja2.ListValue, len(v))
		for i, item := range v {
			items[i] = ConvertFromStarlark(item)
		}
		return items
	case *starlark.Dict:
		dict := jinja2.NewOrderedDict()
		for _, item := range v.Items() {
			key := item[0].String()
			if s, ok := item[0].(starlark.String); ok {
				key = string(s)
			}
			dict.Set(key, ConvertFromStarlark(item[1]))
		}
		return dict
	case *mapping:
		return v.m
	default:
		return jinja2.StringValue(val.String())
	}
}

// mapping exposes a template mapping to Starlark.
type mapping struct {
	m jinja2.Mapping
}

var (
	_ starlark.HasAttrs = (*mapping)(nil)
	_ starlark.Mapping  = (*mapping)(nil)
	_ starlark.Sequence = (*mapping)(nil)
)

func (m *mapping) String() string        { return m.m.String() }
func (m *mapping) Type() string          { return "mapping" }
func (m *mapping) Freeze()               {}
func (m *mapping) Truth() starlark.Bool  { return starlark.Bool(m.m.Truth()) }
func (m *mapping) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: mapping") }

func (m *mapping) Attr(name string) (starlark.Value, error) {
	if v, ok := m.m.Get(name); ok {
		return ConvertToStarlark(v), nil
	}
	return nil, nil
}

func (m *mapping) AttrNames() []string {
	items := m.m.Items()
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Key
	}
	sort.Strings(names)
	return names
}

func (m *mapping) Get(k starlark.Value) (starlark.Value, bool, error) {
	key, ok := k.(starlark.String)
	if !ok {
		return nil, false, fmt.Errorf("mapping keys are strings, got %s", k.Type())
	}
	if v, ok := m.m.Get(string(key)); ok {
		return ConvertToStarlark(v), true, nil
	}
	return nil, false, nil
}

func (m *mapping) Len() int { return len(m.m.Items()) }

// Iterate yields the keys, in the mapping's own order.
func (m *mapping) Iterate() starlark.Iterator {
	items := m.m.Items()
	keys := make([]starlark.Value, len(items))
	for i, it := range items {
		keys[i] = starlark.String(it.Key)
	}
	return starlark.NewList(keys).Iterate()
}
