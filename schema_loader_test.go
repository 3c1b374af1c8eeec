package xsd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSchemas(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestSchemaImport(t *testing.T) {
	mainSchema := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/main"
           xmlns:main="http://example.com/main"
           xmlns:types="http://example.com/types">

    <xs:import namespace="http://example.com/types"
               schemaLocation="types.xsd"/>

    <xs:element name="document">
        <xs:complexType>
            <xs:sequence>
                <xs:element name="title" type="xs:string"/>
                <xs:element name="author" type="types:personType"/>
                <xs:element name="content" type="main:contentType"/>
            </xs:sequence>
        </xs:complexType>
    </xs:element>

    <xs:complexType name="contentType">
        <xs:sequence>
            <xs:element name="paragraph" type="xs:string"
                        minOccurs="1" maxOccurs="unbounded"/>
        </xs:sequence>
    </xs:complexType>
</xs:schema>`

	typesSchema := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/types"
           xmlns:types="http://example.com/types"
           xmlns:extra="http://example.com/extra">

    <xs:complexType name="personType">
        <xs:sequence>
            <xs:element name="name" type="xs:string"/>
            <xs:element name="email" type="types:emailType"/>
        </xs:sequence>
    </xs:complexType>

    <xs:simpleType name="emailType">
        <xs:restriction base="xs:string">
            <xs:pattern value="[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}"/>
        </xs:restriction>
    </xs:simpleType>
</xs:schema>`

	dir := writeSchemas(t, map[string]string{"main.xsd": mainSchema, "types.xsd": typesSchema})
	mainFile := filepath.Join(dir, "main.xsd")

	loader := NewSchemaLoader(dir)
	schema, err := loader.LoadSchemaWithImports(mainFile)
	if err != nil {
		t.Fatalf("Failed to load schema with imports: %v", err)
	}

	if schema.Name != "main.xsd" {
		t.Errorf("Expected schema name main.xsd, got %s", schema.Name)
	}
	if schema.TargetNamespace != "http://example.com/main" {
		t.Errorf("Expected target namespace http://example.com/main, got %s", schema.TargetNamespace)
	}

	for _, q := range []QName{
		{Namespace: "http://example.com/main", Local: "contentType"},
		{Namespace: "http://example.com/types", Local: "personType"},
		{Namespace: "http://example.com/types", Local: "emailType"},
	} {
		if _, exists := schema.TypeDefs[q]; !exists {
			t.Errorf("%s not found in combined schema", q)
		}
	}

	document := QName{Namespace: "http://example.com/main", Local: "document"}
	if _, ok := schema.Element(document); !ok {
		t.Fatal("document element not found in combined schema")
	}

	// Prefix bindings of the main document come first; imported ones are appended.
	var prefixes []string
	for _, ns := range schema.Namespaces {
		prefixes = append(prefixes, ns.Prefix)
	}
	want := []string{"xs", "main", "types", "extra"}
	if len(prefixes) != len(want) {
		t.Fatalf("Expected prefixes %v, got %v", want, prefixes)
	}
	for i := range want {
		if prefixes[i] != want[i] {
			t.Errorf("Expected prefixes %v, got %v", want, prefixes)
			break
		}
	}

	// The imported pattern type resolves across documents.
	email, err := schema.ResolveSimple(&TypeRef{QName: QName{Namespace: "http://example.com/types", Local: "emailType"}})
	if err != nil {
		t.Fatalf("ResolveSimple: %v", err)
	}
	if email.Builtin != "string" || email.Pattern() == nil {
		t.Errorf("Expected string with pattern, got %+v", email)
	}
	if err := email.Validate("jane.doe@example.org"); err != nil {
		t.Errorf("Expected valid email, got %v", err)
	}
}

func TestSchemaInclude(t *testing.T) {
	mainSchema := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/app"
           xmlns:app="http://example.com/app">

    <xs:include schemaLocation="common-types.xsd"/>

    <xs:element name="application">
        <xs:complexType>
            <xs:sequence>
                <xs:element name="user" type="app:userType"/>
                <xs:element name="settings" type="app:settingsType"/>
            </xs:sequence>
        </xs:complexType>
    </xs:element>

    <xs:complexType name="userType">
        <xs:sequence>
            <xs:element name="id" type="app:idType"/>
            <xs:element name="username" type="xs:string"/>
            <xs:element name="role" type="app:roleType"/>
        </xs:sequence>
    </xs:complexType>
</xs:schema>`

	commonTypes := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/app"
           xmlns:app="http://example.com/app">

    <xs:simpleType name="idType">
        <xs:restriction base="xs:string">
            <xs:pattern value="[A-Z]{2}[0-9]{6}"/>
        </xs:restriction>
    </xs:simpleType>

    <xs:simpleType name="roleType">
        <xs:restriction base="xs:string">
            <xs:enumeration value="admin"/>
            <xs:enumeration value="user"/>
            <xs:enumeration value="guest"/>
        </xs:restriction>
    </xs:simpleType>

    <xs:complexType name="settingsType">
        <xs:sequence>
            <xs:element name="theme" type="xs:string"/>
            <xs:element name="language" type="xs:string"/>
        </xs:sequence>
    </xs:complexType>
</xs:schema>`

	dir := writeSchemas(t, map[string]string{"main.xsd": mainSchema, "common-types.xsd": commonTypes})

	schema, err := LoadSchema(filepath.Join(dir, "main.xsd"))
	if err != nil {
		t.Fatalf("Failed to load schema with includes: %v", err)
	}

	for _, local := range []string{"userType", "idType", "roleType", "settingsType"} {
		q := QName{Namespace: "http://example.com/app", Local: local}
		if _, exists := schema.TypeDefs[q]; !exists {
			t.Errorf("%s not found in combined schema", local)
		}
	}

	role, err := schema.ResolveSimple(&TypeRef{QName: QName{Namespace: "http://example.com/app", Local: "roleType"}})
	if err != nil {
		t.Fatalf("ResolveSimple: %v", err)
	}
	if got := role.Enumeration(); len(got) != 3 || got[0] != "admin" {
		t.Errorf("Expected enumeration [admin user guest], got %v", got)
	}
}

func TestCircularImports(t *testing.T) {
	schemaA := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/a"
           xmlns:a="http://example.com/a"
           xmlns:b="http://example.com/b">
    <xs:import namespace="http://example.com/b" schemaLocation="b.xsd"/>
    <xs:complexType name="typeA">
        <xs:sequence>
            <xs:element name="value" type="xs:string"/>
        </xs:sequence>
    </xs:complexType>
</xs:schema>`

	schemaB := `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/b"
           xmlns:b="http://example.com/b"
           xmlns:a="http://example.com/a">
    <xs:import namespace="http://example.com/a" schemaLocation="a.xsd"/>
    <xs:complexType name="typeB">
        <xs:sequence>
            <xs:element name="data" type="xs:string"/>
        </xs:sequence>
    </xs:complexType>
</xs:schema>`

	dir := writeSchemas(t, map[string]string{"a.xsd": schemaA, "b.xsd": schemaB})

	loader := NewSchemaLoader(dir)
	schema, err := loader.LoadSchemaWithImports(filepath.Join(dir, "a.xsd"))
	if err != nil {
		t.Fatalf("Circular imports should be tolerated, got %v", err)
	}

	typeA := QName{Namespace: "http://example.com/a", Local: "typeA"}
	if _, exists := schema.TypeDefs[typeA]; !exists {
		t.Error("TypeA not found in combined schema")
	}
	typeB := QName{Namespace: "http://example.com/b", Local: "typeB"}
	if _, exists := schema.TypeDefs[typeB]; !exists {
		t.Error("TypeB not found in combined schema")
	}
}

func TestMissingInclude(t *testing.T) {
	dir := writeSchemas(t, map[string]string{"main.xsd": `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
    <xs:include schemaLocation="missing.xsd"/>
</xs:schema>`})

	if _, err := LoadSchema(filepath.Join(dir, "main.xsd")); err == nil {
		t.Fatal("Expected an error for a missing include")
	}
}

func TestRemoteLoadingDisabled(t *testing.T) {
	loader := NewSchemaLoader("")
	if _, err := loader.LoadSchemaWithImports("http://example.com/schema.xsd"); err == nil {
		t.Fatal("Expected remote loading to be refused")
	}
}
