package xsd

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// List represents a list type. Item holds the item type, either a named
// reference or an anonymous simple type.
type List struct {
	ItemType QName
	Item     Type
}

// Union represents a union type. Members holds the member types in
// declaration order: memberTypes first, then anonymous members.
type Union struct {
	MemberTypes []QName
	Members     []Type
}

// Variety is the variety of a simple type.
type Variety uint8

const (
	AtomicVariety Variety = iota
	ListVariety
	UnionVariety
)

func (v Variety) String() string {
	switch v {
	case ListVariety:
		return "list"
	case UnionVariety:
		return "union"
	}
	return "atomic"
}

// Atomic is a simple type reduced to the builtin it is ultimately derived from
// and the facets collected on the way. For lists it describes the item type,
// for unions the first member.
type Atomic struct {
	// Builtin is the local name of the nearest builtin ancestor.
	Builtin string
	// Facets are ordered from the most derived restriction to the least.
	Facets  []Facet
	Variety Variety
	// Derived is set when at least one user-defined restriction was applied.
	Derived bool
}

// Enumeration returns the values of the nearest enumeration facet.
func (a Atomic) Enumeration() []string {
	for _, f := range a.Facets {
		if e, ok := f.(*EnumerationFacet); ok {
			return e.Values
		}
	}
	return nil
}

// Pattern returns the nearest pattern facet, or nil.
func (a Atomic) Pattern() *PatternFacet {
	for _, f := range a.Facets {
		if p, ok := f.(*PatternFacet); ok {
			return p
		}
	}
	return nil
}

// Patterns returns the pattern facets of every derivation step, nearest
// first. A value has to match all of them.
func (a Atomic) Patterns() []*PatternFacet {
	var out []*PatternFacet
	for _, f := range a.Facets {
		if p, ok := f.(*PatternFacet); ok {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks value against every facet. Pattern facets of different
// derivation steps must all match.
func (a Atomic) Validate(value string) error {
	for _, f := range a.Facets {
		if err := f.Validate(value); err != nil {
			return fmt.Errorf("%s: %w", f.Name(), err)
		}
	}
	return nil
}

func (s *Schema) parseList(elem xmldom.Element) *List {
	l := &List{}
	if item := attr(elem, "itemType"); item != "" {
		l.ItemType = s.parseQName(item)
		l.Item = s.typeRef(item)
	}
	eachSchemaChild(elem, func(child xmldom.Element) {
		if string(child.LocalName()) == "simpleType" {
			l.Item = s.parseSimpleType(child)
		}
	})
	return l
}

func (s *Schema) parseUnion(elem xmldom.Element) *Union {
	u := &Union{}
	for _, name := range strings.Fields(attr(elem, "memberTypes")) {
		u.MemberTypes = append(u.MemberTypes, s.parseQName(name))
		u.Members = append(u.Members, s.typeRef(name))
	}
	eachSchemaChild(elem, func(child xmldom.Element) {
		if string(child.LocalName()) == "simpleType" {
			u.Members = append(u.Members, s.parseSimpleType(child))
		}
	})
	return u
}

// ResolveSimple reduces a simple type, or a complex type with simple content,
// to its Atomic form. A nil type is anySimpleType.
func (s *Schema) ResolveSimple(t Type) (Atomic, error) {
	return s.resolveSimple(t, make(map[Type]bool))
}

func (s *Schema) resolveSimple(t Type, seen map[Type]bool) (Atomic, error) {
	t = s.Resolve(t)
	if t == nil {
		return Atomic{Builtin: "anySimpleType"}, nil
	}
	if seen[t] {
		return Atomic{}, fmt.Errorf("%w: %s", ErrDerivationCycle, t.Name())
	}
	seen[t] = true

	switch t := t.(type) {
	case *BuiltinType:
		return s.resolveBuiltin(t.QName.Local)
	case *TypeRef:
		return Atomic{}, fmt.Errorf("%w: %s", ErrUnresolvedType, t.QName)
	case *SimpleType:
		switch {
		case t.Restriction != nil:
			return s.restrict(t.Restriction, seen)
		case t.List != nil:
			if t.List.Item == nil {
				return Atomic{}, fmt.Errorf("list type %s has no item type", t.QName)
			}
			item, err := s.resolveSimple(t.List.Item, seen)
			item.Variety = ListVariety
			return item, err
		case t.Union != nil:
			if len(t.Union.Members) == 0 {
				return Atomic{}, fmt.Errorf("union type %s has no member types", t.QName)
			}
			first, err := s.resolveSimple(t.Union.Members[0], seen)
			first.Variety = UnionVariety
			return first, err
		}
		return Atomic{}, fmt.Errorf("simple type %s has no derivation", t.QName)
	case *ComplexType:
		sc, ok := t.Content.(*SimpleContent)
		if !ok {
			return Atomic{}, fmt.Errorf("complex type %s has no simple content", t.QName)
		}
		if sc.Restriction != nil {
			return s.restrict(sc.Restriction, seen)
		}
		if sc.Extension != nil {
			base, ok := s.TypeDef(sc.Extension.Base)
			if !ok {
				return Atomic{}, fmt.Errorf("%w: %s", ErrUnresolvedType, sc.Extension.Base)
			}
			return s.resolveSimple(base, seen)
		}
		return Atomic{Builtin: "anySimpleType"}, nil
	}
	return Atomic{}, fmt.Errorf("unexpected type %T", t)
}

// resolveBuiltin expands the builtin list types into their item types.
func (s *Schema) resolveBuiltin(name string) (Atomic, error) {
	if !IsBuiltinType(name) {
		return Atomic{}, fmt.Errorf("%w: %s", ErrUnresolvedType, QName{Namespace: XSDNamespace, Local: name})
	}
	switch name {
	case "NMTOKENS":
		return Atomic{Builtin: "NMTOKEN", Variety: ListVariety}, nil
	case "IDREFS":
		return Atomic{Builtin: "IDREF", Variety: ListVariety}, nil
	case "ENTITIES":
		return Atomic{Builtin: "ENTITY", Variety: ListVariety}, nil
	}
	return Atomic{Builtin: name}, nil
}

func (s *Schema) restrict(r *Restriction, seen map[Type]bool) (Atomic, error) {
	var base Type = r.Inline
	if base == nil {
		def, ok := s.TypeDef(r.Base)
		if !ok {
			return Atomic{}, fmt.Errorf("%w: %s", ErrUnresolvedType, r.Base)
		}
		base = def
	}
	a, err := s.resolveSimple(base, seen)
	if err != nil {
		return a, err
	}
	a.Facets = append(append([]Facet{}, r.Facets...), a.Facets...)
	a.Derived = true
	return a, nil
}
