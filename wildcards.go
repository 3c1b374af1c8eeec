package xsd

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// ProcessContentsMode defines how wildcard content should be processed
type ProcessContentsMode string

const (
	StrictProcess ProcessContentsMode = "strict"
	LaxProcess    ProcessContentsMode = "lax"
	SkipProcess   ProcessContentsMode = "skip"
)

// AnyElement represents xs:any
type AnyElement struct {
	Namespace       string
	ProcessContents ProcessContentsMode
	MinOcc          int
	MaxOcc          int
}

func (a *AnyElement) MinOccurs() int { return a.MinOcc }
func (a *AnyElement) MaxOccurs() int { return a.MaxOcc }

// Constraint parses the namespace attribute of the wildcard.
func (a *AnyElement) Constraint() *WildcardNamespaceConstraint {
	return ParseNamespaceConstraint(a.Namespace)
}

// String describes the wildcard for diagnostics.
func (a *AnyElement) String() string {
	mode := a.ProcessContents
	if mode == "" {
		mode = StrictProcess
	}
	return fmt.Sprintf("xs:any namespace=%q processContents=%s", a.Constraint().Mode, mode)
}

// WildcardNamespaceConstraint represents namespace constraints for wildcards
type WildcardNamespaceConstraint struct {
	Mode       string   // "##any", "##other", "##targetNamespace", "##local" or "list"
	Namespaces []string // set when Mode is "list"
}

// ParseNamespaceConstraint parses a namespace attribute value into a constraint
func ParseNamespaceConstraint(value string) *WildcardNamespaceConstraint {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "##any"
	}
	if strings.HasPrefix(value, "##") && !strings.Contains(value, " ") {
		return &WildcardNamespaceConstraint{Mode: value}
	}
	return &WildcardNamespaceConstraint{Mode: "list", Namespaces: strings.Fields(value)}
}

// Matches checks if a namespace matches this constraint
func (c *WildcardNamespaceConstraint) Matches(namespace, targetNamespace string) bool {
	switch c.Mode {
	case "##any":
		return true
	case "##other":
		return namespace != targetNamespace && namespace != ""
	case "##targetNamespace":
		return namespace == targetNamespace
	case "##local":
		return namespace == ""
	case "list":
		for _, ns := range c.Namespaces {
			switch {
			case ns == namespace:
				return true
			case ns == "##targetNamespace" && namespace == targetNamespace:
				return true
			case ns == "##local" && namespace == "":
				return true
			}
		}
	}
	return false
}

// Candidates returns the global elements of s that the wildcard admits,
// sorted like Schema.Elements.
func (s *Schema) Candidates(a *AnyElement) []QName {
	c := a.Constraint()
	var out []QName
	for _, q := range s.Elements() {
		if c.Matches(q.Namespace, s.TargetNamespace) {
			out = append(out, q)
		}
	}
	return out
}

func (s *Schema) parseAnyElement(elem xmldom.Element) *AnyElement {
	return &AnyElement{
		Namespace:       attr(elem, "namespace"),
		ProcessContents: ProcessContentsMode(attr(elem, "processContents")),
		MinOcc:          s.parseOccurs(elem, "minOccurs", 1),
		MaxOcc:          s.parseOccurs(elem, "maxOccurs", 1),
	}
}
