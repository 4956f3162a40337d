package jinja2

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is an abstract value used by the Jinja evaluator, inspired by Starlark.
// It defines string conversion and truthiness semantics.
type Value interface {
	String() string
	Truth() bool
}

// LookupHook can be optionally implemented by Value containers to answer
// attribute lookups (obj.name) performed by the evaluator.
type LookupHook interface {
	OnLookup(key string) (Value, bool)
}

// Item is a single key/value pair of a Mapping.
type Item struct {
	Key   string
	Value Value
}

// Mapping is a string-keyed container with a stable iteration order.
type Mapping interface {
	Value
	Get(key string) (Value, bool)
	Items() []Item
}

// CallableValue wraps a callable function that can be invoked from templates.
// It is used to model function values and methods.
type CallableValue struct {
	Fn func(args []Value) (Value, error)
}

func (c CallableValue) String() string { return "<function>" }
func (c CallableValue) Truth() bool    { return true }

// NoneValue represents the absence of a value.
type NoneValue struct{}

func (NoneValue) String() string { return "" }
func (NoneValue) Truth() bool    { return false }

// UndefinedValue is produced when a name or attribute cannot be found.
// It renders as the empty string and is falsy.
type UndefinedValue struct{ Name string }

func (UndefinedValue) String() string { return "" }
func (UndefinedValue) Truth() bool    { return false }

// IsDefined reports whether v is a real value rather than an undefined lookup.
func IsDefined(v Value) bool {
	if v == nil {
		return false
	}
	_, undef := v.(UndefinedValue)
	return !undef
}

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Truth() bool { return bool(b) }

// IntValue wraps an integer (64-bit).
type IntValue int64

func (i IntValue) String() string { return strconv.FormatInt(int64(i), 10) }
func (i IntValue) Truth() bool    { return int64(i) != 0 }

// FloatValue wraps a float (64-bit).
type FloatValue float64

func (f FloatValue) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f FloatValue) Truth() bool    { return float64(f) != 0 }

// StringValue wraps a string.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (s StringValue) Truth() bool    { return len(string(s)) > 0 }

// ListValue wraps a list of values.
type ListValue []Value

func (l ListValue) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}
func (l ListValue) Truth() bool { return len(l) > 0 }

// DictValue wraps a string-keyed dictionary of values. Items are reported in
// key order since Go maps carry no insertion order.
type DictValue map[string]Value

func (d DictValue) String() string { return "{...}" }
func (d DictValue) Truth() bool    { return len(d) > 0 }

func (d DictValue) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

func (d DictValue) Items() []Item {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Item, len(keys))
	for i, k := range keys {
		out[i] = Item{Key: k, Value: d[k]}
	}
	return out
}

// OrderedDict is a mapping that remembers insertion order. Dict literals in
// expressions evaluate to an OrderedDict.
type OrderedDict struct {
	keys []string
	m    map[string]Value
}

func NewOrderedDict() *OrderedDict {
	return &OrderedDict{m: map[string]Value{}}
}

func (d *OrderedDict) Set(key string, v Value) {
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = v
}

func (d *OrderedDict) Get(key string) (Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

func (d *OrderedDict) Len() int { return len(d.keys) }

func (d *OrderedDict) Items() []Item {
	out := make([]Item, len(d.keys))
	for i, k := range d.keys {
		out[i] = Item{Key: k, Value: d.m[k]}
	}
	return out
}

func (d *OrderedDict) String() string { return "{...}" }
func (d *OrderedDict) Truth() bool    { return len(d.keys) > 0 }

var (
	_ Mapping = DictValue{}
	_ Mapping = (*OrderedDict)(nil)
)

// Context is one layer of named values.
type Context map[string]Value

// NewContextFromAny converts a map[string]any into a Value-based Context.
// It recursively converts nested maps/slices into DictValue/ListValue.
func NewContextFromAny(m map[string]any) Context {
	ctx := Context{}
	for k, v := range m {
		ctx[k] = FromGo(v)
	}
	return ctx
}

// FromGo converts a Go value to a Value.
func FromGo(v any) Value {
	if v == nil {
		return NoneValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return IntValue(int64(t))
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case []byte:
		return StringValue(string(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make(ListValue, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, FromGo(rv.Index(i).Interface()))
		}
		return out
	case reflect.Map:
		// Only support string keys for simplicity
		if rv.Type().Key().Kind() == reflect.String {
			out := DictValue{}
			it := rv.MapRange()
			for it.Next() {
				out[it.Key().String()] = FromGo(it.Value().Interface())
			}
			return out
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NoneValue{}
		}
		return FromGo(rv.Elem().Interface())
	}
	// Fallback: string formatting
	return StringValue(fmt.Sprintf("%v", v))
}

// ToGo converts a Value back into plain Go values, preserving types where
// possible. Unknown values are converted to their string form.
func ToGo(v Value) any {
	switch t := v.(type) {
	case nil, NoneValue, UndefinedValue:
		return nil
	case StringValue:
		return string(t)
	case IntValue:
		return int64(t)
	case FloatValue:
		return float64(t)
	case BoolValue:
		return bool(t)
	case ListValue:
		out := make([]any, 0, len(t))
		for _, it := range t {
			out = append(out, ToGo(it))
		}
		return out
	case Mapping:
		items := t.Items()
		out := make(map[string]any, len(items))
		for _, it := range items {
			out[it.Key] = ToGo(it.Value)
		}
		return out
	default:
		return v.String()
	}
}

// iterateValue converts a Value into a []Value for iteration semantics.
func iterateValue(v Value) ([]Value, error) {
	switch t := v.(type) {
	case nil, NoneValue, UndefinedValue:
		return nil, nil
	case StringValue:
		s := string(t)
		var out []Value
		for len(s) > 0 {
			r, size := utf8.DecodeRuneInString(s)
			s = s[size:]
			out = append(out, StringValue(string(r)))
		}
		return out, nil
	case ListValue:
		// Copy to avoid mutating underlying array
		out := make([]Value, len(t))
		copy(out, t)
		return out, nil
	case Mapping:
		items := t.Items()
		out := make([]Value, 0, len(items))
		for _, it := range items {
			out = append(out, StringValue(it.Key))
		}
		return out, nil
	}
	return nil, fmt.Errorf("not iterable: %T", v)
}

func isNumber(v Value) bool {
	switch v.(type) {
	case IntValue, FloatValue, BoolValue:
		return true
	}
	return false
}

func toFloat(v Value) float64 {
	switch t := v.(type) {
	case IntValue:
		return float64(t)
	case FloatValue:
		return float64(t)
	case BoolValue:
		if t {
			return 1
		}
		return 0
	case StringValue:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f
	}
	return 0
}

func toInt(v Value) int64 {
	switch t := v.(type) {
	case IntValue:
		return int64(t)
	case FloatValue:
		return int64(t)
	case BoolValue:
		if t {
			return 1
		}
		return 0
	case StringValue:
		s := strings.TrimSpace(string(t))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(s, 64)
		return int64(f)
	}
	return 0
}

// Equal reports whether two values are equal under template semantics:
// numbers compare numerically, lists element-wise, everything else by type
// and string form.
func Equal(a, b Value) bool {
	if !IsDefined(a) || !IsDefined(b) {
		_, an := a.(NoneValue)
		_, bn := b.(NoneValue)
		return (!IsDefined(a) || an) && (!IsDefined(b) || bn)
	}
	if isNumber(a) && isNumber(b) {
		return toFloat(a) == toFloat(b)
	}
	switch at := a.(type) {
	case ListValue:
		bt, ok := b.(ListValue)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !Equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a.String() == b.String()
}

// Compare orders two values: numbers numerically, strings lexically and
// lists element by element.
func Compare(a, b Value) (int, error) {
	if isNumber(a) && isNumber(b) {
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	if as, ok := a.(StringValue); ok {
		if bs, ok := b.(StringValue); ok {
			return strings.Compare(string(as), string(bs)), nil
		}
	}
	if al, ok := a.(ListValue); ok {
		if bl, ok := b.(ListValue); ok {
			for i := 0; i < len(al) && i < len(bl); i++ {
				c, err := Compare(al[i], bl[i])
				if err != nil || c != 0 {
					return c, err
				}
			}
			switch {
			case len(al) < len(bl):
				return -1, nil
			case len(al) > len(bl):
				return 1, nil
			}
			return 0, nil
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}
