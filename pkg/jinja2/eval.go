package jinja2

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Filters is a registry of filter functions.
type Filters map[string]func(val Value, args []Value) (Value, error)

// DefaultFilters provides a small set of common filters.
func DefaultFilters() Filters {
	f := Filters{
		"upper": func(val Value, _ []Value) (Value, error) { return StringValue(strings.ToUpper(val.String())), nil },
		"lower": func(val Value, _ []Value) (Value, error) { return StringValue(strings.ToLower(val.String())), nil },
		"trim":  func(val Value, _ []Value) (Value, error) { return StringValue(strings.TrimSpace(val.String())), nil },
		"string": func(val Value, _ []Value) (Value, error) {
			return StringValue(val.String()), nil
		},
		"default": func(val Value, args []Value) (Value, error) {
			if len(args) < 1 || val.Truth() {
				return val, nil
			}
			return args[0], nil
		},
		"join": func(val Value, args []Value) (Value, error) {
			sep := ""
			if len(args) > 0 {
				sep = args[0].String()
			}
			items, err := iterateValue(val)
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = it.String()
			}
			return StringValue(strings.Join(parts, sep)), nil
		},
		"length": func(val Value, _ []Value) (Value, error) {
			switch t := val.(type) {
			case StringValue:
				return IntValue(len([]rune(string(t)))), nil
			case ListValue:
				return IntValue(len(t)), nil
			case Mapping:
				return IntValue(len(t.Items())), nil
			}
			return IntValue(0), nil
		},
		"int": func(val Value, _ []Value) (Value, error) { return IntValue(toInt(val)), nil },
		"float": func(val Value, _ []Value) (Value, error) {
			return FloatValue(toFloat(val)), nil
		},
		"list": func(val Value, _ []Value) (Value, error) {
			items, err := iterateValue(val)
			if err != nil {
				return nil, err
			}
			return ListValue(items), nil
		},
		"first": func(val Value, _ []Value) (Value, error) {
			items, err := iterateValue(val)
			if err != nil || len(items) == 0 {
				return UndefinedValue{Name: "first"}, err
			}
			return items[0], nil
		},
		"last": func(val Value, _ []Value) (Value, error) {
			items, err := iterateValue(val)
			if err != nil || len(items) == 0 {
				return UndefinedValue{Name: "last"}, err
			}
			return items[len(items)-1], nil
		},
	}
	// map applies another filter to every item: xs|map('int')
	f["map"] = func(val Value, args []Value) (Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("map requires a filter name")
		}
		fn := f[args[0].String()]
		if fn == nil {
			return nil, fmt.Errorf("unknown filter: %s", args[0].String())
		}
		items, err := iterateValue(val)
		if err != nil {
			return nil, err
		}
		out := make(ListValue, 0, len(items))
		for _, it := range items {
			v, err := fn(it, args[1:])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return f
}

// maxRange is the largest list range() will build.
const maxRange = 100000

// ErrRaised is wrapped by errors produced by the raise() global.
var ErrRaised = errors.New("template raised an error")

// DefaultGlobals are the functions visible to every expression.
func DefaultGlobals() Context {
	return Context{
		"raise": CallableValue{Fn: func(args []Value) (Value, error) {
			msg := "raise() called"
			if len(args) > 0 {
				msg = args[0].String()
			}
			return nil, fmt.Errorf("%w: %s", ErrRaised, msg)
		}},
		"range": CallableValue{Fn: func(args []Value) (Value, error) {
			var start, stop int64
			switch len(args) {
			case 1:
				stop = toInt(args[0])
			case 2:
				start, stop = toInt(args[0]), toInt(args[1])
			default:
				return nil, fmt.Errorf("range takes 1 or 2 arguments")
			}
			if stop-start > maxRange {
				return nil, fmt.Errorf("range of %d items exceeds the limit of %d", stop-start, maxRange)
			}
			out := ListValue{}
			for i := start; i < stop; i++ {
				out = append(out, IntValue(i))
			}
			return out, nil
		}},
	}
}

type Evaluator struct {
	Filters Filters
	Globals Context

	once   sync.Once
	parsed *lru.Cache[string, expr]
}

// parsedCacheSize bounds how many compiled expressions an Evaluator keeps.
const parsedCacheSize = 1024

func NewEvaluator() *Evaluator {
	return &Evaluator{
		Filters: DefaultFilters(),
		Globals: DefaultGlobals(),
	}
}

// Eval evaluates an expression against the scope. Unknown names evaluate to
// UndefinedValue rather than an error.
func (e *Evaluator) Eval(src string, s *Scope) (Value, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return StringValue(""), nil
	}
	x, err := e.compile(src)
	if err != nil {
		return nil, err
	}
	return x.eval(e, s)
}

// Truthy evaluates an expression and returns its truthiness.
func (e *Evaluator) Truthy(src string, s *Scope) (bool, error) {
	if strings.TrimSpace(src) == "" {
		return false, nil
	}
	v, err := e.Eval(src, s)
	if err != nil {
		return false, err
	}
	return v.Truth(), nil
}

func (e *Evaluator) compile(src string) (expr, error) {
	e.once.Do(func() {
		c, err := lru.New[string, expr](parsedCacheSize)
		if err != nil {
			panic(err)
		}
		e.parsed = c
	})
	x, ok := e.parsed.Get(src)
	if ok {
		return x, nil
	}
	toks, err := tokenizeExpr(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks, src: src}
	x, err = p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != etEOF {
		return nil, fmt.Errorf("unexpected %q in expression %q", t.val, src)
	}
	e.parsed.Add(src, x)
	return x, nil
}

func (e *Evaluator) lookupName(name string, s *Scope) Value {
	if s != nil {
		if v, ok := s.Lookup(name); ok {
			return v
		}
	}
	if v, ok := e.Globals[name]; ok {
		return v
	}
	return UndefinedValue{Name: name}
}

// Tokenizer

type exprTokKind int

const (
	etEOF exprTokKind = iota
	etName
	etInt
	etFloat
	etString
	etOp
)

type exprToken struct {
	kind exprTokKind
	val  string
}

func tokenizeExpr(s string) ([]exprToken, error) {
	var out []exprToken
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case c == '\'' || c == '"':
			var b strings.Builder
			j := i + 1
			for ; j < len(s) && s[j] != c; j++ {
				if s[j] == '\\' && j+1 < len(s) {
					j++
					switch s[j] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(s[j])
					}
					continue
				}
				b.WriteByte(s[j])
			}
			if j >= len(s) {
				return nil, fmt.Errorf("unterminated string in expression %q", s)
			}
			out = append(out, exprToken{kind: etString, val: b.String()})
			i = j + 1
		case isDigit(c):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			kind := etInt
			if j+1 < len(s) && s[j] == '.' && isDigit(s[j+1]) {
				kind = etFloat
				j++
				for j < len(s) && isDigit(s[j]) {
					j++
				}
			}
			out = append(out, exprToken{kind: kind, val: s[i:j]})
			i = j
		case isNameStart(c):
			j := i
			for j < len(s) && (isNameStart(s[j]) || isDigit(s[j])) {
				j++
			}
			out = append(out, exprToken{kind: etName, val: s[i:j]})
			i = j
		default:
			if i+1 < len(s) {
				switch two := s[i : i+2]; two {
				case "==", "!=", "<=", ">=":
					out = append(out, exprToken{kind: etOp, val: two})
					i += 2
					continue
				}
			}
			if !strings.ContainsRune(".[](),:|{}<>+-*/%~", rune(c)) {
				return nil, fmt.Errorf("unexpected character %q in expression %q", c, s)
			}
			out = append(out, exprToken{kind: etOp, val: string(c)})
			i++
		}
	}
	return out, nil
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isNameStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// Parser: or < and < not < comparison < ~ < + - < * / % < unary - < filter < postfix

type exprParser struct {
	toks []exprToken
	i    int
	src  string
}

func (p *exprParser) peek() exprToken {
	if p.i >= len(p.toks) {
		return exprToken{kind: etEOF}
	}
	return p.toks[p.i]
}

func (p *exprParser) peekAt(n int) exprToken {
	if p.i+n >= len(p.toks) {
		return exprToken{kind: etEOF}
	}
	return p.toks[p.i+n]
}

func (p *exprParser) next() exprToken {
	t := p.peek()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

func (p *exprParser) isOp(op string) bool {
	t := p.peek()
	return t.kind == etOp && t.val == op
}

func (p *exprParser) isWord(w string) bool {
	t := p.peek()
	return t.kind == etName && t.val == w
}

func (p *exprParser) expect(op string) error {
	if !p.isOp(op) {
		return fmt.Errorf("expected %q in expression %q", op, p.src)
	}
	p.i++
	return nil
}

func (p *exprParser) parseOr() (expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isWord("or") {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "or", l: l, r: r}
	}
	return l, nil
}

func (p *exprParser) parseAnd() (expr, error) {
	l, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isWord("and") {
		p.next()
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "and", l: l, r: r}
	}
	return l, nil
}

func (p *exprParser) parseNot() (expr, error) {
	if p.isWord("not") {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: "not", x: x}, nil
	}
	return p.parseCompare()
}

func (p *exprParser) parseCompare() (expr, error) {
	l, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		t := p.peek()
		switch {
		case t.kind == etOp && (t.val == "==" || t.val == "!=" || t.val == "<" || t.val == ">" || t.val == "<=" || t.val == ">="):
			op = t.val
			p.next()
		case p.isWord("in"):
			op = "in"
			p.next()
		case p.isWord("not") && p.peekAt(1).kind == etName && p.peekAt(1).val == "in":
			op = "not in"
			p.i += 2
		default:
			return l, nil
		}
		r, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
}

func (p *exprParser) parseConcat() (expr, error) {
	l, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.isOp("~") {
		p.next()
		r, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "~", l: l, r: r}
	}
	return l, nil
}

func (p *exprParser) parseAdd() (expr, error) {
	l, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().val
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *exprParser) parseMul() (expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		op := p.next().val
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *exprParser) parseUnary() (expr, error) {
	if p.isOp("-") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: "-", x: x}, nil
	}
	return p.parseFiltered()
}

func (p *exprParser) parseFiltered() (expr, error) {
	x, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.isOp("|") {
		p.next()
		t := p.next()
		if t.kind != etName {
			return nil, fmt.Errorf("expected filter name in expression %q", p.src)
		}
		f := &filterExpr{val: x, name: t.val}
		if p.isOp("(") {
			p.next()
			if f.args, err = p.parseArgs(")"); err != nil {
				return nil, err
			}
		}
		x = f
	}
	return x, nil
}

func (p *exprParser) parsePostfix() (expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			p.next()
			t := p.next()
			if t.kind != etName && t.kind != etInt {
				return nil, fmt.Errorf("expected attribute name after '.' in expression %q", p.src)
			}
			x = &attrExpr{obj: x, name: t.val}
		case p.isOp("["):
			p.next()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &indexExpr{obj: x, idx: idx}
		case p.isOp("("):
			p.next()
			args, err := p.parseArgs(")")
			if err != nil {
				return nil, err
			}
			x = &callExpr{fn: x, args: args}
		default:
			return x, nil
		}
	}
}

// parseArgs parses a comma separated list up to and including the closing op.
func (p *exprParser) parseArgs(closing string) ([]expr, error) {
	var args []expr
	for !p.isOp(closing) {
		a, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *exprParser) parsePrimary() (expr, error) {
	t := p.next()
	switch t.kind {
	case etInt:
		i, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return nil, err
		}
		return &literalExpr{v: IntValue(i)}, nil
	case etFloat:
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, err
		}
		return &literalExpr{v: FloatValue(f)}, nil
	case etString:
		return &literalExpr{v: StringValue(t.val)}, nil
	case etName:
		switch t.val {
		case "true", "True":
			return &literalExpr{v: BoolValue(true)}, nil
		case "false", "False":
			return &literalExpr{v: BoolValue(false)}, nil
		case "none", "None", "nil", "null":
			return &literalExpr{v: NoneValue{}}, nil
		}
		return &nameExpr{name: t.val}, nil
	case etOp:
		switch t.val {
		case "(":
			items, err := p.parseArgs(")")
			if err != nil {
				return nil, err
			}
			if len(items) == 1 {
				return items[0], nil
			}
			return &listExpr{items: items}, nil
		case "[":
			items, err := p.parseArgs("]")
			if err != nil {
				return nil, err
			}
			return &listExpr{items: items}, nil
		case "{":
			return p.parseDict()
		}
	}
	return nil, fmt.Errorf("unexpected %q in expression %q", t.val, p.src)
}

func (p *exprParser) parseDict() (expr, error) {
	d := &dictExpr{}
	for !p.isOp("}") {
		k, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		d.keys = append(d.keys, k)
		d.vals = append(d.vals, v)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return d, nil
}

// Expression tree

type expr interface {
	eval(e *Evaluator, s *Scope) (Value, error)
}

type literalExpr struct{ v Value }

func (x *literalExpr) eval(*Evaluator, *Scope) (Value, error) { return x.v, nil }

type nameExpr struct{ name string }

func (x *nameExpr) eval(e *Evaluator, s *Scope) (Value, error) { return e.lookupName(x.name, s), nil }

type attrExpr struct {
	obj  expr
	name string
}

func (x *attrExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	obj, err := x.obj.eval(e, s)
	if err != nil {
		return nil, err
	}
	return getAttr(obj, x.name), nil
}

type indexExpr struct{ obj, idx expr }

func (x *indexExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	obj, err := x.obj.eval(e, s)
	if err != nil {
		return nil, err
	}
	idx, err := x.idx.eval(e, s)
	if err != nil {
		return nil, err
	}
	switch t := obj.(type) {
	case ListValue:
		i := toInt(idx)
		if i < 0 {
			i += int64(len(t))
		}
		if i < 0 || i >= int64(len(t)) {
			return UndefinedValue{Name: idx.String()}, nil
		}
		return t[i], nil
	case StringValue:
		r := []rune(string(t))
		i := toInt(idx)
		if i < 0 {
			i += int64(len(r))
		}
		if i < 0 || i >= int64(len(r)) {
			return UndefinedValue{Name: idx.String()}, nil
		}
		return StringValue(string(r[i])), nil
	}
	return getAttr(obj, idx.String()), nil
}

type callExpr struct {
	fn   expr
	args []expr
}

func (x *callExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	fn, err := x.fn.eval(e, s)
	if err != nil {
		return nil, err
	}
	c, ok := fn.(CallableValue)
	if !ok {
		if u, undef := fn.(UndefinedValue); undef {
			return nil, fmt.Errorf("%s is undefined and cannot be called", u.Name)
		}
		return nil, fmt.Errorf("%T is not callable", fn)
	}
	args, err := evalAll(e, s, x.args)
	if err != nil {
		return nil, err
	}
	return c.Fn(args)
}

type filterExpr struct {
	val  expr
	name string
	args []expr
}

func (x *filterExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	fn := e.Filters[x.name]
	if fn == nil {
		return nil, fmt.Errorf("unknown filter: %s", x.name)
	}
	v, err := x.val.eval(e, s)
	if err != nil {
		return nil, err
	}
	args, err := evalAll(e, s, x.args)
	if err != nil {
		return nil, err
	}
	return fn(v, args)
}

type listExpr struct{ items []expr }

func (x *listExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	vals, err := evalAll(e, s, x.items)
	if err != nil {
		return nil, err
	}
	return ListValue(vals), nil
}

type dictExpr struct{ keys, vals []expr }

func (x *dictExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	d := NewOrderedDict()
	for i := range x.keys {
		k, err := x.keys[i].eval(e, s)
		if err != nil {
			return nil, err
		}
		v, err := x.vals[i].eval(e, s)
		if err != nil {
			return nil, err
		}
		d.Set(k.String(), v)
	}
	return d, nil
}

type unaryExpr struct {
	op string
	x  expr
}

func (x *unaryExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	v, err := x.x.eval(e, s)
	if err != nil {
		return nil, err
	}
	if x.op == "not" {
		return BoolValue(!v.Truth()), nil
	}
	switch t := v.(type) {
	case IntValue:
		return -t, nil
	case FloatValue:
		return -t, nil
	}
	return nil, fmt.Errorf("cannot negate %T", v)
}

type binaryExpr struct {
	op   string
	l, r expr
}

func (x *binaryExpr) eval(e *Evaluator, s *Scope) (Value, error) {
	l, err := x.l.eval(e, s)
	if err != nil {
		return nil, err
	}
	switch x.op {
	case "and":
		if !l.Truth() {
			return l, nil
		}
		return x.r.eval(e, s)
	case "or":
		if l.Truth() {
			return l, nil
		}
		return x.r.eval(e, s)
	}
	r, err := x.r.eval(e, s)
	if err != nil {
		return nil, err
	}
	switch x.op {
	case "==":
		return BoolValue(Equal(l, r)), nil
	case "!=":
		return BoolValue(!Equal(l, r)), nil
	case "<", ">", "<=", ">=":
		c, err := Compare(l, r)
		if err != nil {
			return nil, err
		}
		switch x.op {
		case "<":
			return BoolValue(c < 0), nil
		case ">":
			return BoolValue(c > 0), nil
		case "<=":
			return BoolValue(c <= 0), nil
		}
		return BoolValue(c >= 0), nil
	case "in":
		return BoolValue(contains(r, l)), nil
	case "not in":
		return BoolValue(!contains(r, l)), nil
	case "~":
		return StringValue(l.String() + r.String()), nil
	}
	return arith(x.op, l, r)
}

func evalAll(e *Evaluator, s *Scope, xs []expr) ([]Value, error) {
	out := make([]Value, 0, len(xs))
	for _, x := range xs {
		v, err := x.eval(e, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func arith(op string, l, r Value) (Value, error) {
	if op == "+" {
		if ls, ok := l.(StringValue); ok {
			return ls + StringValue(r.String()), nil
		}
		if ll, ok := l.(ListValue); ok {
			if rl, ok := r.(ListValue); ok {
				return append(append(ListValue{}, ll...), rl...), nil
			}
		}
	}
	if !isNumber(l) || !isNumber(r) {
		return nil, fmt.Errorf("unsupported operand types for %s: %T and %T", op, l, r)
	}
	_, lf := l.(FloatValue)
	_, rf := r.(FloatValue)
	if !lf && !rf && op != "/" {
		a, b := toInt(l), toInt(r)
		switch op {
		case "+":
			return IntValue(a + b), nil
		case "-":
			return IntValue(a - b), nil
		case "*":
			return IntValue(a * b), nil
		case "%":
			if b == 0 {
				return nil, fmt.Errorf("integer modulo by zero")
			}
			return IntValue(a % b), nil
		}
	}
	a, b := toFloat(l), toFloat(r)
	switch op {
	case "+":
		return FloatValue(a + b), nil
	case "-":
		return FloatValue(a - b), nil
	case "*":
		return FloatValue(a * b), nil
	case "/":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return FloatValue(a / b), nil
	}
	return nil, fmt.Errorf("unsupported operator %s for floats", op)
}

func contains(container, item Value) bool {
	switch t := container.(type) {
	case ListValue:
		for _, v := range t {
			if Equal(v, item) {
				return true
			}
		}
	case StringValue:
		return strings.Contains(string(t), item.String())
	case Mapping:
		_, ok := t.Get(item.String())
		return ok
	}
	return false
}

// getAttr resolves obj.name: lookup hooks first, then mapping keys, then the
// small set of built-in methods on strings, lists and mappings.
func getAttr(obj Value, name string) Value {
	if h, ok := obj.(LookupHook); ok {
		if v, ok := h.OnLookup(name); ok {
			return v
		}
	}
	if m, ok := obj.(Mapping); ok {
		if v, ok := m.Get(name); ok {
			return v
		}
	}
	if fn, ok := method(obj, name); ok {
		return fn
	}
	return UndefinedValue{Name: name}
}

func method(obj Value, name string) (Value, bool) {
	bind := func(fn func(args []Value) (Value, error)) (Value, bool) {
		return CallableValue{Fn: fn}, true
	}
	switch t := obj.(type) {
	case StringValue:
		s := string(t)
		switch name {
		case "split":
			return bind(func(args []Value) (Value, error) {
				var parts []string
				if len(args) > 0 {
					parts = strings.Split(s, args[0].String())
				} else {
					parts = strings.Fields(s)
				}
				out := make(ListValue, len(parts))
				for i, p := range parts {
					out[i] = StringValue(p)
				}
				return out, nil
			})
		case "upper":
			return bind(func([]Value) (Value, error) { return StringValue(strings.ToUpper(s)), nil })
		case "lower":
			return bind(func([]Value) (Value, error) { return StringValue(strings.ToLower(s)), nil })
		case "strip":
			return bind(func([]Value) (Value, error) { return StringValue(strings.TrimSpace(s)), nil })
		case "startswith":
			return bind(func(args []Value) (Value, error) {
				return BoolValue(len(args) > 0 && strings.HasPrefix(s, args[0].String())), nil
			})
		case "endswith":
			return bind(func(args []Value) (Value, error) {
				return BoolValue(len(args) > 0 && strings.HasSuffix(s, args[0].String())), nil
			})
		case "replace":
			return bind(func(args []Value) (Value, error) {
				if len(args) != 2 {
					return nil, fmt.Errorf("replace takes 2 arguments")
				}
				return StringValue(strings.ReplaceAll(s, args[0].String(), args[1].String())), nil
			})
		}
	case ListValue:
		if name == "split" {
			// Calling .split() on a list returns it unchanged.
			return bind(func([]Value) (Value, error) { return t, nil })
		}
	case Mapping:
		switch name {
		case "items":
			return bind(func([]Value) (Value, error) {
				items := t.Items()
				out := make(ListValue, len(items))
				for i, it := range items {
					out[i] = ListValue{StringValue(it.Key), it.Value}
				}
				return out, nil
			})
		case "keys":
			return bind(func([]Value) (Value, error) {
				keys, err := iterateValue(t)
				return ListValue(keys), err
			})
		case "values":
			return bind(func([]Value) (Value, error) {
				items := t.Items()
				out := make(ListValue, len(items))
				for i, it := range items {
					out[i] = it.Value
				}
				return out, nil
			})
		case "get":
			return bind(func(args []Value) (Value, error) {
				if len(args) == 0 {
					return nil, fmt.Errorf("get requires a key")
				}
				if v, ok := t.Get(args[0].String()); ok {
					return v, nil
				}
				if len(args) > 1 {
					return args[1], nil
				}
				return NoneValue{}, nil
			})
		}
	}
	return nil, false
}
