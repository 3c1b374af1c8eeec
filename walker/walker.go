// Package walker traverses the element tree of a schema and reports elements,
// attributes and leaves to a Sink.
package walker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds the nesting of recursive schemas.
const DefaultMaxDepth = 32

// Sink receives the events of a walk.
type Sink interface {
	// Visits is called once per node and returns how many instances to walk.
	Visits(n *Node) int
	// Attribute is called for each qualifying attribute of an instance,
	// before StartElement or Leaf.
	Attribute(n *Node, a Attribute)
	StartElement(n *Node)
	EndElement(n *Node)
	// Leaf is called for instances of SimpleContent and Atomic nodes.
	Leaf(n *Node)
	Wildcard(n *Node)
	// Choose returns the index of the branch of a choice group to walk, or -1
	// to walk every branch.
	Choose(g *xsd.ModelGroup) int
	// Leave is called after all instances of a node.
	Leave(n *Node)
	Diagnostic(d Diagnostic)
}

// Walker walks element declarations depth first.
type Walker struct {
	Schema *xsd.Schema
	Names  *Names
	Limits Limits
	// MaxDepth is the deepest element nesting walked. Zero means DefaultMaxDepth.
	MaxDepth int
	Logger   zerolog.Logger
}

// New creates a walker over schema.
func New(schema *xsd.Schema, limits Limits) *Walker {
	return &Walker{
		Schema:   schema,
		Names:    NewNames(schema.Namespaces),
		Limits:   limits,
		MaxDepth: DefaultMaxDepth,
		Logger:   zerolog.Nop(),
	}
}

// FindRoot looks up a global element by name. The name is either in Clark
// notation ({uri}local) or a local name, which prefers the target namespace.
func FindRoot(schema *xsd.Schema, name string) (*xsd.ElementDecl, error) {
	if strings.HasPrefix(name, "{") {
		if end := strings.Index(name, "}"); end > 0 {
			q := xsd.QName{Namespace: name[1:end], Local: name[end+1:]}
			if decl, ok := schema.Element(q); ok {
				return decl, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, name)
	}

	if decl, ok := schema.Element(xsd.QName{Namespace: schema.TargetNamespace, Local: name}); ok {
		return decl, nil
	}
	for _, q := range schema.Elements() {
		if q.Local == name {
			decl, _ := schema.Element(q)
			return decl, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRootNotFound, name)
}

// Walk traverses root and everything below it.
func (w *Walker) Walk(root *xsd.ElementDecl, sink Sink) {
	t := &traversal{Walker: w, sink: sink}
	t.element(root, 1, 1, "", "", 0)
}

type traversal struct {
	*Walker
	sink Sink
}

func (t *traversal) maxDepth() int {
	if t.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return t.MaxDepth
}

func (t *traversal) report(d Diagnostic) {
	t.Logger.Warn().
		Err(d.Err).
		Str("path", d.Path).
		Str("name", d.Name).
		Msg("schema diagnostic")
	t.sink.Diagnostic(d)
}

func (t *traversal) particle(p xsd.Particle, path, prefix string, depth int) {
	switch p := p.(type) {
	case *xsd.ElementDecl:
		t.element(p, p.MinOcc, p.MaxOcc, path, prefix, depth)
	case *xsd.ElementRef:
		decl, ok := t.Schema.Element(p.Ref)
		if !ok {
			t.report(Diagnostic{
				Severity: SeverityError,
				Err:      fmt.Errorf("%w: element %s", ErrUnresolvedRef, p.Ref),
				Path:     path,
				Name:     t.Names.Short(p.Ref),
			})
			return
		}
		t.element(decl, p.MinOcc, p.MaxOcc, path, prefix, depth)
	case *xsd.AnyElement:
		t.wildcard(p, path, prefix, depth)
	case *xsd.GroupRef:
		g, ok := t.Schema.Group(p.Ref)
		if !ok {
			t.report(Diagnostic{
				Severity: SeverityError,
				Err:      fmt.Errorf("%w: group %s", ErrUnresolvedRef, p.Ref),
				Path:     path,
				Name:     t.Names.Short(p.Ref),
			})
			return
		}
		t.group(g, g.Name.Local, path, prefix, depth)
	case *xsd.ModelGroup:
		t.group(p, "", path, prefix, depth)
	}
}

// group walks the particles of g. Choice groups walk the branch the sink
// picks. name labels the group in diagnostics.
func (t *traversal) group(g *xsd.ModelGroup, name, path, prefix string, depth int) {
	if g == nil || len(g.Particles) == 0 {
		if g != nil && g.Name.Local != "" {
			name = g.Name.Local
		}
		t.report(Diagnostic{
			Severity: SeverityError,
			Err:      fmt.Errorf("%w: %s", ErrEmptyGroup, name),
			Path:     path,
			Name:     name,
		})
		return
	}

	if g.Kind == xsd.ChoiceGroup {
		if i := t.sink.Choose(g); i >= 0 && i < len(g.Particles) {
			t.particle(g.Particles[i], path, prefix, depth)
			return
		}
	}
	for _, p := range g.Particles {
		t.particle(p, path, prefix, depth)
	}
}

func (t *traversal) element(decl *xsd.ElementDecl, minOcc, maxOcc int, path, prefix string, depth int) {
	local := decl.Name.Local
	path += "/" + local
	if local == t.Limits.RowTag {
		prefix = local
	}
	if t.Limits.RowTag != "" && strings.Contains(path, "/"+t.Limits.RowTag+"/") {
		prefix += "." + local
	}

	if depth > t.maxDepth() {
		t.report(Diagnostic{
			Severity: SeverityError,
			Err:      fmt.Errorf("%w: %d", ErrMaxDepth, t.maxDepth()),
			Path:     path,
			Name:     t.Names.Short(decl.Name),
		})
		return
	}

	n := &Node{
		Name:   decl.Name,
		Short:  t.Names.Short(decl.Name),
		Decl:   decl,
		Path:   path,
		Prefix: prefix,
		Range:  t.Limits.Resolve(local, minOcc, maxOcc),
		Depth:  depth,
	}
	t.classify(n)
	t.Logger.Trace().
		Str("path", path).
		Str("kind", n.Kind.String()).
		Int("min", n.Range.Min).
		Int("max", n.Range.Max).
		Msg("element")

	count := t.sink.Visits(n)
	if n.Kind == Unknown {
		name := n.TypeName
		if name == "" {
			name = n.Short
		}
		t.report(Diagnostic{Severity: SeverityError, Err: n.Err, Path: path, Name: name})
		t.sink.Leave(n)
		return
	}
	for i := 0; i < count; i++ {
		for _, a := range n.Attributes {
			t.sink.Attribute(n, a)
		}
		switch n.Kind {
		case Complex:
			t.sink.StartElement(n)
			t.group(n.Group, n.Short, path, prefix, depth+1)
			t.sink.EndElement(n)
		default:
			t.sink.Leaf(n)
		}
	}
	t.sink.Leave(n)
}

func (t *traversal) wildcard(a *xsd.AnyElement, path, prefix string, depth int) {
	n := &Node{
		Kind:   Wildcard,
		Short:  "_ANY_",
		Any:    a,
		Path:   path,
		Prefix: prefix,
		Range:  t.Limits.Resolve("", a.MinOcc, a.MaxOcc),
		Depth:  depth,
	}
	if e := t.Logger.Debug(); e.Enabled() {
		e.Str("path", path).
			Str("wildcard", a.String()).
			Int("candidates", len(t.Schema.Candidates(a))).
			Msg("wildcard")
	}

	count := t.sink.Visits(n)
	for i := 0; i < count; i++ {
		t.sink.Wildcard(n)
	}
	t.sink.Leave(n)
}

// classify sets the kind of n from its declared type, along with the content
// group or value space and the qualifying attributes.
func (t *traversal) classify(n *Node) {
	if n.Decl.Type != nil {
		n.TypeName = t.Names.Short(n.Decl.Type.Name())
	}
	typ := t.Schema.Resolve(n.Decl.Type)
	switch typ := typ.(type) {
	case nil:
		n.Kind = Atomic
		n.Simple = xsd.Atomic{Builtin: "anyType"}
	case *xsd.BuiltinType, *xsd.SimpleType:
		t.simple(n, typ)
	case *xsd.ComplexType:
		cm, err := t.Schema.ContentModel(typ)
		if err != nil {
			n.Kind = Unknown
			n.Err = t.structural(err, typ)
			return
		}
		if cm.Simple {
			t.simple(n, typ)
			if n.Kind == Unknown {
				return
			}
			n.Kind = SimpleContent
		} else {
			n.Kind = Complex
			n.Group = cm.Group
		}
		n.Attributes = t.attributes(n, typ)
	default:
		n.Kind = Unknown
		n.Err = fmt.Errorf("%w: %s", ErrUnknownType, t.Names.Short(typ.Name()))
	}
}

func (t *traversal) simple(n *Node, typ xsd.Type) {
	a, err := t.Schema.ResolveSimple(typ)
	if err != nil {
		n.Kind = Unknown
		n.Err = t.structural(err, typ)
		return
	}
	n.Kind = Atomic
	n.Simple = a
}

// structural maps a schema model error to a walker sentinel.
func (t *traversal) structural(err error, typ xsd.Type) error {
	if errors.Is(err, xsd.ErrUnresolvedGroup) {
		return fmt.Errorf("%w: %v", ErrUnresolvedRef, err)
	}
	name := typ.Name()
	if name.Local == "" {
		return fmt.Errorf("%w: %v", ErrUnknownType, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnknownType, t.Names.Short(name), err)
}

// attributes returns the attributes of ct whose type reduces to an atomic
// value space. List and union attributes are skipped.
func (t *traversal) attributes(n *Node, ct *xsd.ComplexType) []Attribute {
	var out []Attribute
	for _, decl := range t.Schema.Attributes(ct) {
		a, err := t.Schema.ResolveSimple(decl.Type)
		if err != nil || a.Variety != xsd.AtomicVariety {
			t.Logger.Debug().
				Err(err).
				Str("path", n.Path).
				Str("attribute", decl.Name.Local).
				Msg("skipping attribute")
			continue
		}
		out = append(out, Attribute{
			Decl:   decl,
			Name:   decl.Name,
			Short:  t.Names.Short(decl.Name),
			Simple: a,
		})
	}
	return out
}
