package jinja2

// Node is any AST node in a parsed Jinja2 template.
type Node interface {
	node()
}

// NodeList is an ordered run of sibling nodes, such as the body of a block.
type NodeList []Node

// Render renders the nodes against s using the scope's renderer.
func (l NodeList) Render(s *Scope) (string, error) {
	return s.Renderer().RenderNodes(l, s)
}

// Document is the root node produced by Parse.
type Document struct {
	Nodes NodeList
}

func (*Document) node() {}

// TextNode represents literal text between tags.
type TextNode struct {
	Text string
}

func (*TextNode) node() {}

// OutputNode represents a variable/output expression: {{ expr }}
type OutputNode struct {
	Expr string
}

func (*OutputNode) node() {}

// SetNode represents a simple assignment: {% set name = expr %}
type SetNode struct {
	Name string
	Expr string
}

func (*SetNode) node() {}

// IfNode represents an if/elif/else block.
type IfNode struct {
	Cond  string
	Then  NodeList
	Elifs []ElifBranch
	Else  NodeList
}

func (*IfNode) node() {}

// ElifBranch is a single elif condition with its body.
type ElifBranch struct {
	Cond string
	Body NodeList
}

// ForNode represents a for loop: {% for target in iterable %}
type ForNode struct {
	Target   string
	Iterable string
	Body     NodeList
	Else     NodeList
}

func (*ForNode) node() {}

// RawNode represents a raw block where delimiters are not parsed.
// It is produced by: {% raw %}...{% endraw %}
type RawNode struct {
	Text string
}

func (*RawNode) node() {}

// BlockNode represents a named block for template inheritance.
type BlockNode struct {
	Name string
	Body NodeList
}

func (*BlockNode) node() {}

// ExtendsNode declares that this template extends a parent template.
type ExtendsNode struct {
	Template string
}

func (*ExtendsNode) node() {}

// Extension is the render side of a custom statement registered in Tags.
type Extension interface {
	Render(s *Scope) (string, error)
}

// ExtensionNode wraps a node contributed by a custom tag.
type ExtensionNode struct {
	Tag string
	Ext Extension
}

func (*ExtensionNode) node() {}

// Parent is implemented by extensions that hold child nodes, so Walk and
// Pretty can descend into them.
type Parent interface {
	Children() NodeList
}

// IncludeNode includes another template by name.
type IncludeNode struct {
	Template string
}

func (*IncludeNode) node() {}
