package walker

import (
	"github.com/agentflare-ai/go-xsdgen"
)

// Names shortens qualified names using the prefix bindings of a schema.
type Names struct {
	bindings []xsd.Namespace
}

// NewNames returns a resolver over bindings, which are searched in order.
func NewNames(bindings []xsd.Namespace) *Names {
	return &Names{bindings: bindings}
}

// Prefix returns the first non-default prefix bound to uri, or "".
func (n *Names) Prefix(uri string) string {
	if uri == "" {
		return ""
	}
	for _, b := range n.bindings {
		if b.Prefix != "" && b.URI == uri {
			return b.Prefix
		}
	}
	return ""
}

// Short returns prefix:local, or just the local name when the namespace has
// no prefix.
func (n *Names) Short(q xsd.QName) string {
	if p := n.Prefix(q.Namespace); p != "" {
		return p + ":" + q.Local
	}
	return q.Local
}

// Local returns the local part of q.
func (n *Names) Local(q xsd.QName) string {
	return q.Local
}

// Declarations returns the bindings a document root has to declare: every
// non-default prefix once, in document order.
func (n *Names) Declarations() []xsd.Namespace {
	seen := make(map[string]bool)
	var out []xsd.Namespace
	for _, b := range n.bindings {
		if b.Prefix == "" || seen[b.Prefix] {
			continue
		}
		seen[b.Prefix] = true
		out = append(out, b)
	}
	return out
}
