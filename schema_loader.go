package xsd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agentflare-ai/go-xmldom"
	"github.com/rs/zerolog"
)

// SchemaLoader handles loading schemas with import/include support
type SchemaLoader struct {
	// Base directory for resolving relative paths
	BaseDir string

	// Whether to allow remote schema loading
	AllowRemote bool

	// Logger receives warnings about imports that could not be loaded.
	Logger zerolog.Logger

	// Map of loaded schemas by location, and the order they were loaded in
	loaded map[string]*Schema
	order  []string

	// Map of schemas being loaded (for cycle detection)
	loading map[string]bool

	httpClient *http.Client

	mu sync.Mutex
}

// NewSchemaLoader creates a new schema loader
func NewSchemaLoader(baseDir string) *SchemaLoader {
	return &SchemaLoader{
		BaseDir:     baseDir,
		AllowRemote: false,
		Logger:      zerolog.Nop(),
		httpClient:  &http.Client{},
	}
}

// LoadSchemaWithImports loads a schema and all its imports/includes and
// merges them into one Schema named after the main document.
func (sl *SchemaLoader) LoadSchemaWithImports(location string) (*Schema, error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.loaded = make(map[string]*Schema)
	sl.loading = make(map[string]bool)
	sl.order = nil

	main, err := sl.loadSchemaRecursive(location)
	if err != nil {
		return nil, err
	}

	combined := newSchema()
	combined.Name = baseName(location)
	combined.TargetNamespace = main.TargetNamespace
	combined.ElementFormQualified = main.ElementFormQualified
	combined.AttributeFormQualified = main.AttributeFormQualified

	for _, loc := range sl.order {
		mergeSchema(sl.loaded[loc], combined)
	}
	return combined, nil
}

// loadSchemaRecursive loads a schema and processes its imports/includes
func (sl *SchemaLoader) loadSchemaRecursive(location string) (*Schema, error) {
	absLocation, err := sl.resolveLocation(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve location %s: %w", location, err)
	}

	if schema, ok := sl.loaded[absLocation]; ok {
		return schema, nil
	}
	if sl.loading[absLocation] {
		return nil, fmt.Errorf("circular dependency detected: %s", absLocation)
	}
	sl.loading[absLocation] = true
	defer delete(sl.loading, absLocation)

	doc, err := sl.loadDocument(absLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema from %s: %w", absLocation, err)
	}

	schema, err := Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema from %s: %w", absLocation, err)
	}
	schema.Name = baseName(absLocation)

	sl.loaded[absLocation] = schema
	sl.order = append(sl.order, absLocation)

	for _, imp := range schema.Imports {
		if imp.SchemaLocation == "" {
			continue
		}
		impLocation := sl.resolveRelative(imp.SchemaLocation, absLocation)
		if _, err := sl.loadSchemaRecursive(impLocation); err != nil {
			sl.Logger.Warn().
				Err(err).
				Str("namespace", imp.Namespace).
				Str("location", imp.SchemaLocation).
				Msg("failed to import schema")
		}
	}

	for _, include := range schema.Includes {
		incLocation := sl.resolveRelative(include, absLocation)
		if _, err := sl.loadSchemaRecursive(incLocation); err != nil {
			return nil, fmt.Errorf("failed to include %s: %w", include, err)
		}
	}

	return schema, nil
}

// resolveLocation resolves a location to an absolute path or URL
func (sl *SchemaLoader) resolveLocation(location string) (string, error) {
	if isRemote(location) {
		if !sl.AllowRemote {
			return "", fmt.Errorf("remote schema loading is disabled")
		}
		return location, nil
	}
	if filepath.IsAbs(location) {
		return location, nil
	}
	if sl.BaseDir != "" {
		return filepath.Abs(filepath.Join(sl.BaseDir, location))
	}
	return filepath.Abs(location)
}

// resolveRelative resolves a relative location based on a base location
func (sl *SchemaLoader) resolveRelative(relative, base string) string {
	if filepath.IsAbs(relative) || isRemote(relative) {
		return relative
	}

	if isRemote(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return relative
		}
		relURL, err := baseURL.Parse(relative)
		if err != nil {
			return relative
		}
		return relURL.String()
	}

	return filepath.Join(filepath.Dir(base), relative)
}

// loadDocument loads an XML document from a location
func (sl *SchemaLoader) loadDocument(location string) (xmldom.Document, error) {
	var reader io.ReadCloser

	if isRemote(location) {
		resp, err := sl.httpClient.Get(location)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, location)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location, err)
		}
		reader = file
	}
	defer reader.Close()

	doc, err := xmldom.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return doc, nil
}

// mergeSchema merges the components of source into target. The first
// definition of a name wins, and prefix bindings are appended unless the
// prefix is already bound.
func mergeSchema(source, target *Schema) {
	for qname, elem := range source.ElementDecls {
		if _, exists := target.ElementDecls[qname]; !exists {
			target.ElementDecls[qname] = elem
		}
	}
	for qname, a := range source.AttributeDecls {
		if _, exists := target.AttributeDecls[qname]; !exists {
			target.AttributeDecls[qname] = a
		}
	}
	for qname, typ := range source.TypeDefs {
		if _, exists := target.TypeDefs[qname]; !exists {
			target.TypeDefs[qname] = typ
		}
	}
	for qname, ag := range source.AttributeGroups {
		if _, exists := target.AttributeGroups[qname]; !exists {
			target.AttributeGroups[qname] = ag
		}
	}
	for qname, mg := range source.Groups {
		if _, exists := target.Groups[qname]; !exists {
			target.Groups[qname] = mg
		}
	}
	for _, ns := range source.Namespaces {
		if _, bound := target.lookupPrefix(ns.Prefix); !bound {
			target.Namespaces = append(target.Namespaces, ns)
		}
	}
	target.Imports = append(target.Imports, source.Imports...)
	target.Includes = append(target.Includes, source.Includes...)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func baseName(location string) string {
	if isRemote(location) {
		if u, err := url.Parse(location); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(location)
}

// LoadSchema loads a schema file together with everything it imports or includes.
func LoadSchema(location string) (*Schema, error) {
	if isRemote(location) {
		loader := NewSchemaLoader("")
		loader.AllowRemote = true
		return loader.LoadSchemaWithImports(location)
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve location %s: %w", location, err)
	}
	return NewSchemaLoader(filepath.Dir(abs)).LoadSchemaWithImports(abs)
}
