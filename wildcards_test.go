package xsd

import (
	"testing"
)

func TestAnyElementParsing(t *testing.T) {
	schemaXML := `<?xml version="1.0" encoding="UTF-8"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
	           targetNamespace="http://example.com"
	           xmlns:ex="http://example.com">
		<xs:element name="container">
			<xs:complexType>
				<xs:sequence>
					<xs:element name="header" type="xs:string"/>
					<xs:any namespace="##other" processContents="lax" minOccurs="0" maxOccurs="unbounded"/>
					<xs:element name="footer" type="xs:string"/>
				</xs:sequence>
				<xs:anyAttribute namespace="##any" processContents="skip"/>
			</xs:complexType>
		</xs:element>
	</xs:schema>`

	schema, err := ParseBytes([]byte(schemaXML))
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	decl, ok := schema.Element(QName{Namespace: "http://example.com", Local: "container"})
	if !ok {
		t.Fatal("container not found")
	}
	ct, ok := decl.Type.(*ComplexType)
	if !ok {
		t.Fatalf("Expected anonymous complex type, got %T", decl.Type)
	}
	group, ok := ct.Content.(*ModelGroup)
	if !ok || len(group.Particles) != 3 {
		t.Fatalf("Expected a sequence of 3 particles, got %#v", ct.Content)
	}

	wildcard, ok := group.Particles[1].(*AnyElement)
	if !ok {
		t.Fatalf("Expected *AnyElement, got %T", group.Particles[1])
	}
	if wildcard.MinOccurs() != 0 || wildcard.MaxOccurs() != Unbounded {
		t.Errorf("Expected occurs 0..unbounded, got %d..%d", wildcard.MinOccurs(), wildcard.MaxOccurs())
	}
	if wildcard.ProcessContents != LaxProcess {
		t.Errorf("Expected lax, got %s", wildcard.ProcessContents)
	}
	if got := wildcard.Constraint().Mode; got != "##other" {
		t.Errorf("Expected ##other, got %s", got)
	}
	if got := wildcard.String(); got != `xs:any namespace="##other" processContents=lax` {
		t.Errorf("Unexpected description %s", got)
	}
}

func TestWildcardCandidates(t *testing.T) {
	schemaXML := `<?xml version="1.0" encoding="UTF-8"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
	           targetNamespace="http://example.com">
		<xs:element name="known" type="xs:string"/>
		<xs:element name="alpha" type="xs:int"/>
		<xs:element name="container">
			<xs:complexType>
				<xs:sequence>
					<xs:any namespace="##targetNamespace"/>
					<xs:any namespace="##local"/>
					<xs:any/>
				</xs:sequence>
			</xs:complexType>
		</xs:element>
	</xs:schema>`

	schema, err := ParseBytes([]byte(schemaXML))
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	decl, _ := schema.Element(QName{Namespace: "http://example.com", Local: "container"})
	group := decl.Type.(*ComplexType).Content.(*ModelGroup)

	tests := []struct {
		name string
		any  *AnyElement
		want []string
	}{
		{name: "target namespace", any: group.Particles[0].(*AnyElement), want: []string{"alpha", "container", "known"}},
		{name: "local only", any: group.Particles[1].(*AnyElement), want: nil},
		{name: "default is ##any", any: group.Particles[2].(*AnyElement), want: []string{"alpha", "container", "known"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schema.Candidates(tt.any)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i, q := range got {
				if q.Local != tt.want[i] {
					t.Errorf("Candidate %d: expected %s, got %s", i, tt.want[i], q.Local)
				}
			}
		})
	}
}

func TestNamespaceConstraints(t *testing.T) {
	tests := []struct {
		name            string
		constraint      string
		elemNamespace   string
		targetNamespace string
		shouldMatch     bool
	}{
		{
			name:            "##any allows everything",
			constraint:      "##any",
			elemNamespace:   "http://any.com",
			targetNamespace: "http://target.com",
			shouldMatch:     true,
		},
		{
			name:            "##other allows different namespace",
			constraint:      "##other",
			elemNamespace:   "http://other.com",
			targetNamespace: "http://target.com",
			shouldMatch:     true,
		},
		{
			name:            "##other rejects target namespace",
			constraint:      "##other",
			elemNamespace:   "http://target.com",
			targetNamespace: "http://target.com",
			shouldMatch:     false,
		},
		{
			name:            "##other rejects no namespace",
			constraint:      "##other",
			elemNamespace:   "",
			targetNamespace: "http://target.com",
			shouldMatch:     false,
		},
		{
			name:            "##targetNamespace allows target",
			constraint:      "##targetNamespace",
			elemNamespace:   "http://target.com",
			targetNamespace: "http://target.com",
			shouldMatch:     true,
		},
		{
			name:            "##targetNamespace rejects other",
			constraint:      "##targetNamespace",
			elemNamespace:   "http://other.com",
			targetNamespace: "http://target.com",
			shouldMatch:     false,
		},
		{
			name:            "##local allows no namespace",
			constraint:      "##local",
			elemNamespace:   "",
			targetNamespace: "http://target.com",
			shouldMatch:     true,
		},
		{
			name:            "##local rejects namespace",
			constraint:      "##local",
			elemNamespace:   "http://other.com",
			targetNamespace: "http://target.com",
			shouldMatch:     false,
		},
		{
			name:            "explicit namespace list",
			constraint:      "http://ns1.com http://ns2.com",
			elemNamespace:   "http://ns1.com",
			targetNamespace: "http://target.com",
			shouldMatch:     true,
		},
		{
			name:            "explicit namespace list rejects unlisted",
			constraint:      "http://ns1.com http://ns2.com",
			elemNamespace:   "http://ns3.com",
			targetNamespace: "http://target.com",
			shouldMatch:     false,
		},
		{
			name:            "list with ##targetNamespace",
			constraint:      "http://ns1.com ##targetNamespace",
			elemNamespace:   "http://target.com",
			targetNamespace: "http://target.com",
			shouldMatch:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			constraint := ParseNamespaceConstraint(tt.constraint)
			matches := constraint.Matches(tt.elemNamespace, tt.targetNamespace)
			if matches != tt.shouldMatch {
				t.Errorf("Expected matches=%v but got %v for constraint '%s' with namespace '%s'",
					tt.shouldMatch, matches, tt.constraint, tt.elemNamespace)
			}
		})
	}
}
