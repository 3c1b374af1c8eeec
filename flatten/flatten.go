// Package flatten lists the column paths of a schema: one line per value an
// instance of the row element can carry.
package flatten

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/agentflare-ai/go-xsdgen/walker"
	"github.com/rs/zerolog"
)

// ValueSuffix marks the content column of an element that also has
// attribute columns.
const ValueSuffix = ".VALUE"

// Options configures Flatten.
type Options struct {
	// RowTag is the local name of the row element. Lines are emitted only
	// below it.
	RowTag string
	// MaxDepth is passed to the walker. Zero means walker.DefaultMaxDepth.
	MaxDepth int
	Logger   zerolog.Logger
}

// Column is one flattened value.
type Column struct {
	Name  string
	XPath string
	// Attribute is the attribute name for attribute columns.
	Attribute string
}

// Repeat is a repeatable node seen while flattening.
type Repeat struct {
	Prefix string
	Path   string
	Range  walker.Range
}

// Result is the outcome of flattening one root element.
type Result struct {
	Schema      string
	Root        string
	RowTag      string
	Lines       []string
	Columns     []Column
	Repeats     []Repeat
	Diagnostics []walker.Diagnostic
}

// Flatten walks root and collects its columns. Every branch of a choice is
// listed, so the result does not depend on any random source.
func Flatten(schema *xsd.Schema, root string, opts Options) (*Result, error) {
	decl, err := walker.FindRoot(schema, root)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Schema: schema.Name,
		Root:   decl.Name.Local,
		RowTag: opts.RowTag,
	}
	res.Lines = append(res.Lines, "Flattener config for: "+schema.Name)

	// Occurrence only feeds the notes, so every node is visited once.
	w := walker.New(schema, walker.Limits{RowTag: opts.RowTag, RowCount: 1, UnboundedCount: 1})
	w.Logger = opts.Logger
	if opts.MaxDepth > 0 {
		w.MaxDepth = opts.MaxDepth
	}
	w.Walk(decl, &sink{res: res})

	opts.Logger.Debug().
		Str("root", res.Root).
		Int("columns", len(res.Columns)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("flattened")
	return res, nil
}

// WriteTo writes the lines of r, one per line.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range r.Lines {
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("failed to write flattener output: %w", err)
		}
	}
	return total, nil
}

// String returns the lines of r as WriteTo writes them.
func (r *Result) String() string {
	var b strings.Builder
	r.WriteTo(&b)
	return b.String()
}

type sink struct {
	res *Result
}

func (s *sink) line(format string, args ...any) {
	s.res.Lines = append(s.res.Lines, fmt.Sprintf(format, args...))
}

func (s *sink) column(c Column) {
	s.res.Columns = append(s.res.Columns, c)
	s.line("%s;%s", c.Name, c.XPath)
}

func (s *sink) Visits(n *walker.Node) int {
	if n.Range.Repeatable() {
		label := n.Prefix
		if label == "" {
			label = n.Path
		}
		s.res.Repeats = append(s.res.Repeats, Repeat{Prefix: label, Path: n.Path, Range: n.Range})
		s.line("")
		s.line("Note: repeatable node %s%s", label, n.Range.Bounds())
	}
	return 1
}

func (s *sink) Attribute(n *walker.Node, a walker.Attribute) {
	if n.Prefix == "" {
		return
	}
	s.column(Column{
		Name:      n.Prefix + "." + a.Name.Local + ValueSuffix,
		XPath:     n.Path,
		Attribute: a.Name.Local,
	})
}

func (s *sink) StartElement(n *walker.Node) {}

func (s *sink) EndElement(n *walker.Node) {}

func (s *sink) Leaf(n *walker.Node) {
	if n.Prefix == "" {
		return
	}
	name := n.Prefix
	if len(n.Attributes) > 0 {
		name += ValueSuffix
	}
	s.column(Column{Name: name, XPath: n.Path})
}

func (s *sink) Wildcard(n *walker.Node) {
	s.line("Warning: <_ANY_/> element found.")
}

func (s *sink) Choose(g *xsd.ModelGroup) int {
	return -1
}

func (s *sink) Leave(n *walker.Node) {
	if n.Range.Repeatable() {
		s.line("")
	}
}

func (s *sink) Diagnostic(d walker.Diagnostic) {
	s.res.Diagnostics = append(s.res.Diagnostics, d)
	switch {
	case errors.Is(d, walker.ErrEmptyGroup):
		s.line("Error: Node group %s is empty.", d.Name)
	case errors.Is(d, walker.ErrUnknownType):
		s.line("ERROR: unknown type: %s", d.Name)
	default:
		s.line("ERROR: %v", d)
	}
}
