package walker

import (
	"github.com/agentflare-ai/go-xsdgen"
)

// Kind is the content classification of a Node.
type Kind int

const (
	Unknown Kind = iota
	Wildcard
	Complex
	SimpleContent
	Atomic
)

func (k Kind) String() string {
	switch k {
	case Wildcard:
		return "wildcard"
	case Complex:
		return "complex"
	case SimpleContent:
		return "simpleContent"
	case Atomic:
		return "atomic"
	}
	return "unknown"
}

// Node is an element or wildcard as seen at one position of the tree.
type Node struct {
	Kind Kind
	Name xsd.QName
	// Short is the prefixed name used for tags.
	Short string
	Decl  *xsd.ElementDecl
	Any   *xsd.AnyElement
	// TypeName is the prefixed name of the declared type, empty for
	// anonymous types.
	TypeName string
	// Path is the '/'-joined chain of local names from the root.
	Path string
	// Prefix is the dotted column prefix, empty outside the row tag.
	Prefix string
	Range  Range
	Depth  int
	// Group is the element content of Complex nodes.
	Group *xsd.ModelGroup
	// Simple is the value space of SimpleContent and Atomic nodes.
	Simple     xsd.Atomic
	Attributes []Attribute
	// Err explains why a node is Unknown.
	Err error
}

// Local returns the local name, "_ANY_" for wildcards.
func (n *Node) Local() string {
	if n.Kind == Wildcard {
		return "_ANY_"
	}
	return n.Name.Local
}

// Fixed returns the fixed value of the declaration, if any.
func (n *Node) Fixed() (string, bool) {
	if n.Decl == nil || n.Decl.Fixed == "" {
		return "", false
	}
	return n.Decl.Fixed, true
}

// Attribute is an attribute of a Node with an atomic type.
type Attribute struct {
	Decl   *xsd.AttributeDecl
	Name   xsd.QName
	Short  string
	Simple xsd.Atomic
}

// Fixed returns the fixed value of the declaration, if any.
func (a Attribute) Fixed() (string, bool) {
	if a.Decl == nil || a.Decl.Fixed == "" {
		return "", false
	}
	return a.Decl.Fixed, true
}
