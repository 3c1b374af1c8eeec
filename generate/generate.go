// Package generate writes a random XML instance of a schema element.
package generate

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/agentflare-ai/go-xsdgen/synth"
	"github.com/agentflare-ai/go-xsdgen/walker"
	"github.com/rs/zerolog"
)

// AnyTag is the placeholder element written for wildcards.
const AnyTag = "_ANY_"

const indent = "  "

// Options configures Generate.
type Options struct {
	Limits walker.Limits
	// Choice picks one branch of every choice group. When false all
	// branches are written.
	Choice bool
	// Seed seeds the random source. Zero seeds from the clock.
	Seed     int64
	MaxDepth int
	Logger   zerolog.Logger
	// Clock anchors the date and time windows. Nil means time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Limits: walker.Limits{
			RowTag:         "Rpt",
			RowCount:       50,
			UnboundedCount: 10,
		},
		Choice: true,
		Logger: zerolog.Nop(),
	}
}

// Stats summarizes a generated document.
type Stats struct {
	Root        string
	Elements    int
	Attributes  int
	Rows        int
	Diagnostics []walker.Diagnostic
}

// Generate writes an instance of root to w. A missing root is reported
// before anything is written.
func Generate(w io.Writer, schema *xsd.Schema, root string, opts Options) (*Stats, error) {
	decl, err := walker.FindRoot(schema, root)
	if err != nil {
		return nil, err
	}

	synthOpts := []synth.Option{synth.WithLogger(opts.Logger)}
	if opts.Clock != nil {
		synthOpts = append(synthOpts, synth.WithClock(opts.Clock))
	}
	values := synth.New(opts.Seed, synthOpts...)

	wk := walker.New(schema, opts.Limits)
	wk.Logger = opts.Logger
	if opts.MaxDepth > 0 {
		wk.MaxDepth = opts.MaxDepth
	}

	out := bufio.NewWriter(w)
	s := &sink{
		out:    out,
		enc:    xml.NewEncoder(out),
		values: values,
		names:  wk.Names,
		choice: opts.Choice,
		stats:  &Stats{Root: decl.Name.Local},
	}

	s.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)})
	wk.Walk(decl, s)
	s.raw("\n")
	if s.err == nil {
		s.err = out.Flush()
	}
	if s.err != nil {
		return s.stats, fmt.Errorf("failed to write document: %w", s.err)
	}

	opts.Logger.Debug().
		Str("root", s.stats.Root).
		Int("elements", s.stats.Elements).
		Int("rows", s.stats.Rows).
		Msg("generated")
	return s.stats, nil
}

type sink struct {
	out    *bufio.Writer
	enc    *xml.Encoder
	depth  int
	values *synth.Synthesizer
	names  *walker.Names
	choice bool
	stats  *Stats
	err    error

	started  bool
	attrs    []xml.Attr
	comments []string
}

func (s *sink) token(t xml.Token) {
	if s.err != nil {
		return
	}
	s.err = s.enc.EncodeToken(t)
}

// raw writes text that bypasses the encoder, after the encoder's buffer.
func (s *sink) raw(text string) {
	if s.err != nil {
		return
	}
	if s.err = s.enc.Flush(); s.err != nil {
		return
	}
	_, s.err = s.out.WriteString(text)
}

// newline starts a line indented to the current element depth.
func (s *sink) newline() {
	s.raw("\n" + strings.Repeat(indent, s.depth))
}

func (s *sink) comment(text string) {
	// "--" may not appear inside a comment.
	for strings.Contains(text, "--") {
		text = strings.ReplaceAll(text, "--", "- -")
	}
	if strings.HasSuffix(text, "-") {
		text += " "
	}
	s.newline()
	s.token(xml.Comment(text))
}

func (s *sink) Visits(n *walker.Node) int {
	switch {
	case n.Range.Unbounded():
		s.comment(" next is repeatable (maxOccurs == unbounded)")
	case n.Range.Repeatable():
		s.comment(fmt.Sprintf(" next element is repeatable (maxOccurs == %d)", n.Range.DeclMax))
	}
	return n.Range.Count(s.values.Rand())
}

func (s *sink) Attribute(n *walker.Node, a walker.Attribute) {
	text, ok := a.Fixed()
	if !ok {
		v := s.value(n, a.Simple, a.Short)
		text = v.Text
	}
	s.attrs = append(s.attrs, xml.Attr{Name: xml.Name{Local: a.Short}, Value: text})
	s.stats.Attributes++
}

// start writes the pending comments and the start tag carrying the pending
// attributes. The first start tag also declares the namespace prefixes.
func (s *sink) start(n *walker.Node) {
	for _, c := range s.comments {
		s.comment(c)
	}
	s.comments = s.comments[:0]

	el := xml.StartElement{Name: xml.Name{Local: n.Short}}
	if !s.started {
		s.started = true
		for _, ns := range s.names.Declarations() {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "xmlns:" + ns.Prefix}, Value: ns.URI})
		}
	}
	el.Attr = append(el.Attr, s.attrs...)
	s.attrs = s.attrs[:0]

	s.newline()
	s.token(el)
	s.depth++
	s.stats.Elements++
	if n.Range.Row {
		s.stats.Rows++
	}
}

func (s *sink) StartElement(n *walker.Node) {
	s.start(n)
}

func (s *sink) EndElement(n *walker.Node) {
	s.depth--
	s.newline()
	s.token(xml.EndElement{Name: xml.Name{Local: n.Short}})
}

func (s *sink) Leaf(n *walker.Node) {
	switch n.Simple.Variety {
	case xsd.ListVariety:
		s.comments = append(s.comments, "simpletype: list")
	case xsd.UnionVariety:
		s.comments = append(s.comments, "simpletype: union.", "default: using the 1st type")
	}

	text, ok := n.Fixed()
	if !ok {
		v := s.value(n, n.Simple, n.Short)
		if v.Hardcoded {
			s.comments = append(s.comments, " Hardcoded content value ")
		}
		text = v.Text
	}

	s.start(n)
	s.token(xml.CharData(text))
	s.token(xml.EndElement{Name: xml.Name{Local: n.Short}})
	s.depth--
}

// value synthesizes a value and turns a marker into a comment and a
// warning diagnostic.
func (s *sink) value(n *walker.Node, a xsd.Atomic, name string) synth.Value {
	v := s.values.Value(a)
	if v.Err != nil {
		s.comments = append(s.comments, " "+v.Err.Error()+" ")
		s.stats.Diagnostics = append(s.stats.Diagnostics, walker.Diagnostic{
			Severity: walker.SeverityWarning,
			Err:      v.Err,
			Path:     n.Path,
			Name:     name,
		})
	}
	return v
}

func (s *sink) Wildcard(n *walker.Node) {
	s.newline()
	s.raw("<" + AnyTag + "/>")
}

func (s *sink) Choose(g *xsd.ModelGroup) int {
	if !s.choice {
		return -1
	}
	return s.values.Rand().Intn(len(g.Particles))
}

func (s *sink) Leave(n *walker.Node) {}

func (s *sink) Diagnostic(d walker.Diagnostic) {
	s.stats.Diagnostics = append(s.stats.Diagnostics, d)
	if errors.Is(d, walker.ErrEmptyGroup) {
		s.comment("empty")
		return
	}
	s.comment(" " + d.Error() + " ")
}
