package xsd

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// XSDNamespace is the XML Schema namespace
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// XMLNSNamespace is the namespace of xmlns attributes.
const XMLNSNamespace = "http://www.w3.org/2000/xmlns/"

// Unbounded is the MaxOcc value of maxOccurs="unbounded".
const Unbounded = -1

var (
	// ErrUnresolvedType is returned when a type reference names no known definition.
	ErrUnresolvedType = errors.New("unresolved type")
	// ErrUnresolvedGroup is returned when a group reference names no known group.
	ErrUnresolvedGroup = errors.New("unresolved group")
	// ErrDerivationCycle is returned when a type derives from itself.
	ErrDerivationCycle = errors.New("circular type derivation")
)

// Schema represents a parsed XSD schema, possibly merged with its imports and includes.
// It is read-only once parsing finishes.
type Schema struct {
	// Name is the base name of the schema file, empty for in-memory schemas.
	Name                   string
	TargetNamespace        string
	ElementFormQualified   bool
	AttributeFormQualified bool
	// Namespaces holds the prefix bindings of the schema root in document order.
	Namespaces      []Namespace
	ElementDecls    map[QName]*ElementDecl
	AttributeDecls  map[QName]*AttributeDecl
	TypeDefs        map[QName]Type
	AttributeGroups map[QName]*AttributeGroup
	Groups          map[QName]*ModelGroup
	Imports         []*Import
	Includes        []string
}

// Namespace is one xmlns binding. Prefix is empty for the default namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// QName represents a qualified XML name
type QName struct {
	Namespace string
	Local     string
}

// String returns the string representation of a QName
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return fmt.Sprintf("{%s}%s", q.Namespace, q.Local)
}

// ElementDecl represents an element declaration, global or local.
type ElementDecl struct {
	Name     QName
	Type     Type // nil means xs:anyType
	MinOcc   int
	MaxOcc   int // Unbounded for maxOccurs="unbounded"
	Nillable bool
	Abstract bool
	Default  string
	Fixed    string
}

// Type is the interface for all XSD types
type Type interface {
	Name() QName
}

// BuiltinType is a type from the XML Schema namespace.
type BuiltinType struct {
	QName QName
}

// TypeRef is a reference to a named type that has not been looked up yet.
// Schema.Resolve replaces it with the definition it names.
type TypeRef struct {
	QName QName
}

// SimpleType represents an XSD simple type. Exactly one of Restriction,
// List and Union is set.
type SimpleType struct {
	QName       QName
	Anonymous   bool
	Restriction *Restriction
	List        *List
	Union       *Union
}

// ComplexType represents an XSD complex type
type ComplexType struct {
	QName           QName
	Anonymous       bool
	Content         Content
	Attributes      []*AttributeDecl
	AttributeGroups []QName
	Mixed           bool
	Abstract        bool
}

// Content is the content model of a complex type: *ModelGroup, *GroupRef,
// *SimpleContent or *ComplexContent.
type Content interface {
	isContent()
}

// SimpleContent represents simple content in a complex type
type SimpleContent struct {
	Extension   *Extension
	Restriction *Restriction
}

// ComplexContent represents complex content
type ComplexContent struct {
	Mixed       bool
	Extension   *Extension
	Restriction *Restriction
}

// ModelGroup represents a group of elements
type ModelGroup struct {
	Name      QName // set for named groups only
	Kind      ModelGroupKind
	Particles []Particle
	MinOcc    int
	MaxOcc    int
}

// ModelGroupKind represents the kind of model group
type ModelGroupKind string

const (
	SequenceGroup ModelGroupKind = "sequence"
	ChoiceGroup   ModelGroupKind = "choice"
	AllGroup      ModelGroupKind = "all"
)

// Particle represents a particle in a content model
type Particle interface {
	MinOccurs() int
	MaxOccurs() int
}

// ElementRef represents a reference to a global element
type ElementRef struct {
	Ref    QName
	MinOcc int
	MaxOcc int
}

// GroupRef represents a reference to a model group
type GroupRef struct {
	Ref    QName
	MinOcc int
	MaxOcc int
}

// AttributeDecl represents an attribute declaration or reference.
type AttributeDecl struct {
	Name    QName
	Ref     QName // set for <xs:attribute ref="..."/>
	Type    Type
	Use     AttributeUse
	Default string
	Fixed   string
}

// AttributeUse represents attribute use
type AttributeUse string

const (
	OptionalUse   AttributeUse = "optional"
	RequiredUse   AttributeUse = "required"
	ProhibitedUse AttributeUse = "prohibited"
)

// AttributeGroup represents a group of attributes
type AttributeGroup struct {
	Name       QName
	Attributes []*AttributeDecl
	Refs       []QName
}

// Restriction derives a type by restricting a base. Inline holds an
// anonymous base simple type when Base is empty.
type Restriction struct {
	Base       QName
	Inline     Type
	Facets     []Facet
	Group      Content
	Attributes []*AttributeDecl
	AttrGroups []QName
}

// Extension derives a type by extending a base.
type Extension struct {
	Base       QName
	Group      Content
	Attributes []*AttributeDecl
	AttrGroups []QName
}

// Import represents an xs:import
type Import struct {
	Namespace      string
	SchemaLocation string
}

func (*ModelGroup) isContent()     {}
func (*GroupRef) isContent()       {}
func (*SimpleContent) isContent()  {}
func (*ComplexContent) isContent() {}

func (t *BuiltinType) Name() QName { return t.QName }
func (t *TypeRef) Name() QName     { return t.QName }
func (t *SimpleType) Name() QName  { return t.QName }
func (t *ComplexType) Name() QName { return t.QName }

func (e *ElementDecl) MinOccurs() int { return e.MinOcc }
func (e *ElementDecl) MaxOccurs() int { return e.MaxOcc }
func (r *ElementRef) MinOccurs() int  { return r.MinOcc }
func (r *ElementRef) MaxOccurs() int  { return r.MaxOcc }
func (r *GroupRef) MinOccurs() int    { return r.MinOcc }
func (r *GroupRef) MaxOccurs() int    { return r.MaxOcc }
func (g *ModelGroup) MinOccurs() int  { return g.MinOcc }
func (g *ModelGroup) MaxOccurs() int  { return g.MaxOcc }

// ParseBytes decodes and parses an XSD document held in memory.
func ParseBytes(data []byte) (*Schema, error) {
	doc, err := xmldom.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return Parse(doc)
}

// Parse parses an XSD schema from an XML document
func Parse(doc xmldom.Document) (*Schema, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}

	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		return nil, fmt.Errorf("not an XSD schema document")
	}

	schema := newSchema()
	schema.TargetNamespace = attr(root, "targetNamespace")
	schema.ElementFormQualified = attr(root, "elementFormDefault") == "qualified"
	schema.AttributeFormQualified = attr(root, "attributeFormDefault") == "qualified"

	attrs := root.Attributes()
	for i := uint(0); i < attrs.Length(); i++ {
		a := attrs.Item(i)
		if a == nil {
			continue
		}
		// The decoder stores xmlns:p as namespace "xmlns", local name "p".
		name := string(a.NodeName())
		switch ns := string(a.NamespaceURI()); {
		case ns == "xmlns" || ns == XMLNSNamespace:
			schema.Namespaces = append(schema.Namespaces, Namespace{
				Prefix: strings.TrimPrefix(string(a.LocalName()), "xmlns:"),
				URI:    string(a.NodeValue()),
			})
		case strings.HasPrefix(name, "xmlns:"):
			schema.Namespaces = append(schema.Namespaces, Namespace{
				Prefix: strings.TrimPrefix(name, "xmlns:"),
				URI:    string(a.NodeValue()),
			})
		case name == "xmlns":
			schema.Namespaces = append(schema.Namespaces, Namespace{URI: string(a.NodeValue())})
		}
	}

	var err error
	eachSchemaChild(root, func(child xmldom.Element) {
		if err != nil {
			return
		}
		switch string(child.LocalName()) {
		case "element":
			decl, ok := schema.parseElement(child, true).(*ElementDecl)
			if !ok {
				err = fmt.Errorf("global element without a name")
				return
			}
			schema.ElementDecls[decl.Name] = decl
		case "attribute":
			a := schema.parseAttribute(child, true)
			schema.AttributeDecls[a.Name] = a
		case "simpleType":
			st := schema.parseSimpleType(child)
			schema.TypeDefs[st.QName] = st
		case "complexType":
			ct := schema.parseComplexType(child)
			schema.TypeDefs[ct.QName] = ct
		case "attributeGroup":
			ag := schema.parseAttributeGroup(child)
			schema.AttributeGroups[ag.Name] = ag
		case "group":
			if g := schema.parseNamedGroup(child); g != nil {
				schema.Groups[g.Name] = g
			}
		case "import":
			schema.Imports = append(schema.Imports, &Import{
				Namespace:      attr(child, "namespace"),
				SchemaLocation: attr(child, "schemaLocation"),
			})
		case "include", "redefine":
			if loc := attr(child, "schemaLocation"); loc != "" {
				schema.Includes = append(schema.Includes, loc)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return schema, nil
}

func newSchema() *Schema {
	return &Schema{
		ElementDecls:    make(map[QName]*ElementDecl),
		AttributeDecls:  make(map[QName]*AttributeDecl),
		TypeDefs:        make(map[QName]Type),
		AttributeGroups: make(map[QName]*AttributeGroup),
		Groups:          make(map[QName]*ModelGroup),
	}
}

// eachSchemaChild calls fn for every child element in the XML Schema namespace.
func eachSchemaChild(elem xmldom.Element, fn func(xmldom.Element)) {
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		fn(child)
	}
}

func attr(elem xmldom.Element, name string) string {
	return string(elem.GetAttribute(xmldom.DOMString(name)))
}

// parseElement parses an element declaration. Global declarations always take
// the target namespace; local ones only when their form is qualified.
func (s *Schema) parseElement(elem xmldom.Element, global bool) Particle {
	minOcc, maxOcc := 1, 1
	if !global {
		minOcc = s.parseOccurs(elem, "minOccurs", 1)
		maxOcc = s.parseOccurs(elem, "maxOccurs", 1)
	}

	if ref := attr(elem, "ref"); ref != "" {
		return &ElementRef{Ref: s.parseQName(ref), MinOcc: minOcc, MaxOcc: maxOcc}
	}

	name := attr(elem, "name")
	if name == "" {
		return nil
	}

	decl := &ElementDecl{
		Name:     QName{Local: name},
		MinOcc:   minOcc,
		MaxOcc:   maxOcc,
		Nillable: attr(elem, "nillable") == "true",
		Abstract: attr(elem, "abstract") == "true",
		Default:  attr(elem, "default"),
		Fixed:    attr(elem, "fixed"),
	}
	if global || s.qualified(attr(elem, "form"), s.ElementFormQualified) {
		decl.Name.Namespace = s.TargetNamespace
	}

	if typeName := attr(elem, "type"); typeName != "" {
		decl.Type = s.typeRef(typeName)
	}
	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "simpleType":
			decl.Type = s.parseSimpleType(child)
		case "complexType":
			decl.Type = s.parseComplexType(child)
		}
	})

	return decl
}

func (s *Schema) qualified(form string, byDefault bool) bool {
	switch form {
	case "qualified":
		return true
	case "unqualified":
		return false
	}
	return byDefault
}

// parseSimpleType parses a named or anonymous simple type definition
func (s *Schema) parseSimpleType(elem xmldom.Element) *SimpleType {
	st := &SimpleType{}
	if name := attr(elem, "name"); name != "" {
		st.QName = QName{Namespace: s.TargetNamespace, Local: name}
	} else {
		st.Anonymous = true
	}

	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "restriction":
			st.Restriction = s.parseRestriction(child)
		case "list":
			st.List = s.parseList(child)
		case "union":
			st.Union = s.parseUnion(child)
		}
	})
	return st
}

// parseComplexType parses a named or anonymous complex type definition
func (s *Schema) parseComplexType(elem xmldom.Element) *ComplexType {
	ct := &ComplexType{
		Mixed:    attr(elem, "mixed") == "true",
		Abstract: attr(elem, "abstract") == "true",
	}
	if name := attr(elem, "name"); name != "" {
		ct.QName = QName{Namespace: s.TargetNamespace, Local: name}
	} else {
		ct.Anonymous = true
	}

	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "sequence", "choice", "all":
			ct.Content = s.parseModelGroup(child)
		case "group":
			ct.Content = s.parseGroupRef(child)
		case "simpleContent":
			sc := &SimpleContent{}
			sc.Extension, sc.Restriction = s.parseDerivation(child)
			ct.Content = sc
		case "complexContent":
			cc := &ComplexContent{Mixed: attr(child, "mixed") == "true"}
			cc.Extension, cc.Restriction = s.parseDerivation(child)
			ct.Content = cc
		case "attribute":
			ct.Attributes = append(ct.Attributes, s.parseAttribute(child, false))
		case "attributeGroup":
			if ref := attr(child, "ref"); ref != "" {
				ct.AttributeGroups = append(ct.AttributeGroups, s.parseQName(ref))
			}
		}
	})
	return ct
}

// parseDerivation parses the extension or restriction child of simpleContent
// or complexContent.
func (s *Schema) parseDerivation(elem xmldom.Element) (ext *Extension, res *Restriction) {
	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "extension":
			ext = s.parseExtension(child)
		case "restriction":
			res = s.parseRestriction(child)
		}
	})
	return ext, res
}

func (s *Schema) parseRestriction(elem xmldom.Element) *Restriction {
	r := &Restriction{}
	if base := attr(elem, "base"); base != "" {
		r.Base = s.parseQName(base)
	}

	var enum *EnumerationFacet
	var pattern *PatternFacet
	eachSchemaChild(elem, func(child xmldom.Element) {
		local := string(child.LocalName())
		value := attr(child, "value")
		switch local {
		case "simpleType":
			r.Inline = s.parseSimpleType(child)
		case "sequence", "choice", "all":
			r.Group = s.parseModelGroup(child)
		case "group":
			r.Group = s.parseGroupRef(child)
		case "attribute":
			r.Attributes = append(r.Attributes, s.parseAttribute(child, false))
		case "attributeGroup":
			if ref := attr(child, "ref"); ref != "" {
				r.AttrGroups = append(r.AttrGroups, s.parseQName(ref))
			}
		case "enumeration":
			if enum == nil {
				enum = &EnumerationFacet{}
				r.Facets = append(r.Facets, enum)
			}
			enum.Values = append(enum.Values, value)
		case "pattern":
			if pattern == nil {
				pattern = &PatternFacet{}
				r.Facets = append(r.Facets, pattern)
			}
			pattern.Patterns = append(pattern.Patterns, value)
		default:
			if f := ParseFacet(local, value); f != nil {
				r.Facets = append(r.Facets, f)
			}
		}
	})
	return r
}

func (s *Schema) parseExtension(elem xmldom.Element) *Extension {
	ext := &Extension{Base: s.parseQName(attr(elem, "base"))}
	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "sequence", "choice", "all":
			ext.Group = s.parseModelGroup(child)
		case "group":
			ext.Group = s.parseGroupRef(child)
		case "attribute":
			ext.Attributes = append(ext.Attributes, s.parseAttribute(child, false))
		case "attributeGroup":
			if ref := attr(child, "ref"); ref != "" {
				ext.AttrGroups = append(ext.AttrGroups, s.parseQName(ref))
			}
		}
	})
	return ext
}

func (s *Schema) parseModelGroup(elem xmldom.Element) *ModelGroup {
	mg := &ModelGroup{
		MinOcc: s.parseOccurs(elem, "minOccurs", 1),
		MaxOcc: s.parseOccurs(elem, "maxOccurs", 1),
	}

	switch string(elem.LocalName()) {
	case "sequence":
		mg.Kind = SequenceGroup
	case "choice":
		mg.Kind = ChoiceGroup
	case "all":
		mg.Kind = AllGroup
	}

	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "element":
			if p := s.parseElement(child, false); p != nil {
				mg.Particles = append(mg.Particles, p)
			}
		case "group":
			if ref := s.parseGroupRef(child); ref != nil {
				mg.Particles = append(mg.Particles, ref)
			}
		case "choice", "sequence", "all":
			mg.Particles = append(mg.Particles, s.parseModelGroup(child))
		case "any":
			mg.Particles = append(mg.Particles, s.parseAnyElement(child))
		}
	})

	return mg
}

func (s *Schema) parseGroupRef(elem xmldom.Element) *GroupRef {
	ref := attr(elem, "ref")
	if ref == "" {
		return nil
	}
	return &GroupRef{
		Ref:    s.parseQName(ref),
		MinOcc: s.parseOccurs(elem, "minOccurs", 1),
		MaxOcc: s.parseOccurs(elem, "maxOccurs", 1),
	}
}

// parseNamedGroup parses a top-level <xs:group name="...">.
func (s *Schema) parseNamedGroup(elem xmldom.Element) *ModelGroup {
	name := attr(elem, "name")
	if name == "" {
		return nil
	}
	var group *ModelGroup
	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "sequence", "choice", "all":
			group = s.parseModelGroup(child)
		}
	})
	if group == nil {
		group = &ModelGroup{Kind: SequenceGroup, MinOcc: 1, MaxOcc: 1}
	}
	group.Name = QName{Namespace: s.TargetNamespace, Local: name}
	return group
}

// parseOccurs parses minOccurs/maxOccurs attributes
func (s *Schema) parseOccurs(elem xmldom.Element, name string, defaultValue int) int {
	value := attr(elem, name)
	if value == "" {
		return defaultValue
	}
	if value == "unbounded" {
		return Unbounded
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 {
		return n
	}
	return defaultValue
}

func (s *Schema) parseAttribute(elem xmldom.Element, global bool) *AttributeDecl {
	a := &AttributeDecl{
		Use:     AttributeUse(attr(elem, "use")),
		Default: attr(elem, "default"),
		Fixed:   attr(elem, "fixed"),
	}
	if a.Use == "" {
		a.Use = OptionalUse
	}

	if ref := attr(elem, "ref"); ref != "" {
		a.Ref = s.parseQName(ref)
		a.Name = a.Ref
		return a
	}

	a.Name = QName{Local: attr(elem, "name")}
	if global || s.qualified(attr(elem, "form"), s.AttributeFormQualified) {
		a.Name.Namespace = s.TargetNamespace
	}
	if typeName := attr(elem, "type"); typeName != "" {
		a.Type = s.typeRef(typeName)
	}
	eachSchemaChild(elem, func(child xmldom.Element) {
		if string(child.LocalName()) == "simpleType" {
			a.Type = s.parseSimpleType(child)
		}
	})
	return a
}

func (s *Schema) parseAttributeGroup(elem xmldom.Element) *AttributeGroup {
	ag := &AttributeGroup{Name: QName{Namespace: s.TargetNamespace, Local: attr(elem, "name")}}
	eachSchemaChild(elem, func(child xmldom.Element) {
		switch string(child.LocalName()) {
		case "attribute":
			ag.Attributes = append(ag.Attributes, s.parseAttribute(child, false))
		case "attributeGroup":
			if ref := attr(child, "ref"); ref != "" {
				ag.Refs = append(ag.Refs, s.parseQName(ref))
			}
		}
	})
	return ag
}

// parseQName resolves a prefixed name against the schema's namespace bindings.
// Unknown prefixes and unprefixed names fall back to the target namespace
// unless a default namespace is bound.
func (s *Schema) parseQName(name string) QName {
	name = strings.TrimSpace(name)
	if name == "" {
		return QName{}
	}

	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		if uri, bound := s.lookupPrefix(""); bound {
			return QName{Namespace: uri, Local: name}
		}
		return QName{Namespace: s.TargetNamespace, Local: name}
	}

	if uri, bound := s.lookupPrefix(prefix); bound {
		return QName{Namespace: uri, Local: local}
	}
	if prefix == "xs" || prefix == "xsd" {
		return QName{Namespace: XSDNamespace, Local: local}
	}
	if prefix == "xml" {
		return QName{Namespace: "http://www.w3.org/XML/1998/namespace", Local: local}
	}
	return QName{Namespace: s.TargetNamespace, Local: local}
}

func (s *Schema) lookupPrefix(prefix string) (string, bool) {
	for _, ns := range s.Namespaces {
		if ns.Prefix == prefix {
			return ns.URI, true
		}
	}
	return "", false
}

// typeRef returns the builtin for names in the XML Schema namespace and a
// TypeRef placeholder for everything else.
func (s *Schema) typeRef(name string) Type {
	q := s.parseQName(name)
	if q.Namespace == XSDNamespace {
		return &BuiltinType{QName: q}
	}
	return &TypeRef{QName: q}
}

// Element returns the global element declaration named q.
func (s *Schema) Element(q QName) (*ElementDecl, bool) {
	decl, ok := s.ElementDecls[q]
	return decl, ok
}

// Group returns the named model group q.
func (s *Schema) Group(q QName) (*ModelGroup, bool) {
	g, ok := s.Groups[q]
	return g, ok
}

// TypeDef returns the named type q, including builtins.
func (s *Schema) TypeDef(q QName) (Type, bool) {
	if q.Namespace == XSDNamespace && IsBuiltinType(q.Local) {
		return &BuiltinType{QName: q}, true
	}
	t, ok := s.TypeDefs[q]
	return t, ok
}

// AttributeGroup returns the named attribute group q.
func (s *Schema) AttributeGroup(q QName) (*AttributeGroup, bool) {
	ag, ok := s.AttributeGroups[q]
	return ag, ok
}

// Elements returns the names of all global elements sorted by namespace, then local name.
func (s *Schema) Elements() []QName {
	names := make([]QName, 0, len(s.ElementDecls))
	for q := range s.ElementDecls {
		names = append(names, q)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].Namespace != names[j].Namespace {
			return names[i].Namespace < names[j].Namespace
		}
		return names[i].Local < names[j].Local
	})
	return names
}

// Resolve replaces a TypeRef with the definition it names. Other types are
// returned unchanged; a TypeRef naming nothing comes back as is.
func (s *Schema) Resolve(t Type) Type {
	ref, ok := t.(*TypeRef)
	if !ok {
		return t
	}
	if def, found := s.TypeDef(ref.QName); found {
		return def
	}
	return t
}

// ContentModel is the effective content of a complex type after its
// derivation chain has been applied.
type ContentModel struct {
	// Simple is set for types with simple content (text plus attributes).
	Simple bool
	// Group is the element content, nil when the type allows no child elements.
	Group *ModelGroup
	Mixed bool
}

// ContentModel computes the effective content of ct. Extension of complex
// content puts the base particles before the derived ones in a sequence;
// restriction takes the restricting group as is.
func (s *Schema) ContentModel(ct *ComplexType) (ContentModel, error) {
	return s.contentModel(ct, make(map[*ComplexType]bool))
}

func (s *Schema) contentModel(ct *ComplexType, seen map[*ComplexType]bool) (ContentModel, error) {
	if seen[ct] {
		return ContentModel{}, fmt.Errorf("%w: %s", ErrDerivationCycle, ct.QName)
	}
	seen[ct] = true

	cm := ContentModel{Mixed: ct.Mixed}
	switch c := ct.Content.(type) {
	case nil:
		return cm, nil
	case *SimpleContent:
		cm.Simple = true
		return cm, nil
	case *ModelGroup:
		cm.Group = c
		return cm, nil
	case *GroupRef:
		g, err := s.groupContent(c)
		cm.Group = g
		return cm, err
	case *ComplexContent:
		cm.Mixed = cm.Mixed || c.Mixed
		if c.Restriction != nil {
			g, err := s.groupOf(c.Restriction.Group)
			cm.Group = g
			return cm, err
		}
		if c.Extension == nil {
			return cm, nil
		}
		own, err := s.groupOf(c.Extension.Group)
		if err != nil {
			return cm, err
		}
		base, err := s.baseContent(c.Extension.Base, seen)
		if err != nil {
			return cm, err
		}
		if base.Simple {
			cm.Simple = true
			return cm, nil
		}
		cm.Group = concatGroups(base.Group, own)
		return cm, nil
	}
	return cm, fmt.Errorf("unexpected content %T in %s", ct.Content, ct.QName)
}

func (s *Schema) baseContent(base QName, seen map[*ComplexType]bool) (ContentModel, error) {
	t, ok := s.TypeDef(base)
	if !ok {
		return ContentModel{}, fmt.Errorf("%w: %s", ErrUnresolvedType, base)
	}
	switch t := t.(type) {
	case *ComplexType:
		return s.contentModel(t, seen)
	case *BuiltinType:
		if t.QName.Local == "anyType" {
			return ContentModel{}, nil
		}
	}
	return ContentModel{Simple: true}, nil
}

func (s *Schema) groupOf(c Content) (*ModelGroup, error) {
	switch c := c.(type) {
	case *ModelGroup:
		return c, nil
	case *GroupRef:
		return s.groupContent(c)
	}
	return nil, nil
}

// groupContent resolves a group reference, carrying the reference's bounds.
func (s *Schema) groupContent(ref *GroupRef) (*ModelGroup, error) {
	g, ok := s.Group(ref.Ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedGroup, ref.Ref)
	}
	cp := *g
	cp.MinOcc, cp.MaxOcc = ref.MinOcc, ref.MaxOcc
	return &cp, nil
}

func concatGroups(base, own *ModelGroup) *ModelGroup {
	switch {
	case base == nil || len(base.Particles) == 0:
		return own
	case own == nil || len(own.Particles) == 0:
		return base
	}
	return &ModelGroup{
		Kind:      SequenceGroup,
		Particles: []Particle{base, own},
		MinOcc:    1,
		MaxOcc:    1,
	}
}

// Attributes returns the effective attribute declarations of ct: inherited
// ones first, then its own, then those of referenced attribute groups.
// Prohibited attributes are dropped and references are replaced by the
// global declaration they name.
func (s *Schema) Attributes(ct *ComplexType) []*AttributeDecl {
	var out attributeSet
	s.collectAttributes(ct, &out, make(map[*ComplexType]bool))
	return out.list()
}

type attributeSet struct {
	order []QName
	decls map[QName]*AttributeDecl
}

func (as *attributeSet) add(a *AttributeDecl) {
	if as.decls == nil {
		as.decls = make(map[QName]*AttributeDecl)
	}
	if _, ok := as.decls[a.Name]; !ok {
		as.order = append(as.order, a.Name)
	}
	as.decls[a.Name] = a
}

func (as *attributeSet) list() []*AttributeDecl {
	out := make([]*AttributeDecl, 0, len(as.order))
	for _, q := range as.order {
		if a := as.decls[q]; a.Use != ProhibitedUse {
			out = append(out, a)
		}
	}
	return out
}

func (s *Schema) collectAttributes(ct *ComplexType, out *attributeSet, seen map[*ComplexType]bool) {
	if seen[ct] {
		return
	}
	seen[ct] = true

	var own []*AttributeDecl
	var groups []QName
	var base QName
	switch c := ct.Content.(type) {
	case *SimpleContent:
		if c.Extension != nil {
			base, own, groups = c.Extension.Base, c.Extension.Attributes, c.Extension.AttrGroups
		} else if c.Restriction != nil {
			base, own, groups = c.Restriction.Base, c.Restriction.Attributes, c.Restriction.AttrGroups
		}
	case *ComplexContent:
		if c.Extension != nil {
			base, own, groups = c.Extension.Base, c.Extension.Attributes, c.Extension.AttrGroups
		} else if c.Restriction != nil {
			base, own, groups = c.Restriction.Base, c.Restriction.Attributes, c.Restriction.AttrGroups
		}
	}

	if t, ok := s.TypeDef(base); ok {
		if bt, ok := t.(*ComplexType); ok {
			s.collectAttributes(bt, out, seen)
		}
	}
	for _, a := range own {
		out.add(s.attributeDecl(a))
	}
	for _, g := range groups {
		s.collectGroupAttributes(g, out, make(map[QName]bool))
	}
	for _, a := range ct.Attributes {
		out.add(s.attributeDecl(a))
	}
	for _, g := range ct.AttributeGroups {
		s.collectGroupAttributes(g, out, make(map[QName]bool))
	}
}

func (s *Schema) collectGroupAttributes(name QName, out *attributeSet, seen map[QName]bool) {
	if seen[name] {
		return
	}
	seen[name] = true
	ag, ok := s.AttributeGroup(name)
	if !ok {
		return
	}
	for _, a := range ag.Attributes {
		out.add(s.attributeDecl(a))
	}
	for _, ref := range ag.Refs {
		s.collectGroupAttributes(ref, out, seen)
	}
}

// attributeDecl replaces an attribute reference with its global declaration,
// keeping the use and value constraints of the reference.
func (s *Schema) attributeDecl(a *AttributeDecl) *AttributeDecl {
	if a.Ref == (QName{}) {
		return a
	}
	global, ok := s.AttributeDecls[a.Ref]
	if !ok {
		return a
	}
	cp := *global
	cp.Use = a.Use
	if a.Fixed != "" {
		cp.Fixed = a.Fixed
	}
	if a.Default != "" {
		cp.Default = a.Default
	}
	return &cp
}
