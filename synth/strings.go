package synth

import (
	"fmt"

	"github.com/agentflare-ai/go-xsdgen"
)

const (
	defaultMinLength = 1
	defaultMaxLength = 50
	patternAttempts  = 10
	sentenceWords    = 10
)

var stringTypes = map[string]bool{
	"string":           true,
	"normalizedString": true,
	"token":            true,
}

// str generates text for the string types and for every type restricted by
// a pattern. Length facets truncate the result.
func (s *Synthesizer) str(a xsd.Atomic) Value {
	minLen, maxLen := -1, -1
	truncate := false
	for _, f := range a.Facets {
		switch f := f.(type) {
		case *xsd.PatternFacet, *xsd.EnumerationFacet, *xsd.WhiteSpaceFacet:
		case *xsd.LengthFacet:
			if minLen < 0 && maxLen < 0 {
				minLen, maxLen = f.Value, f.Value
			}
			truncate = true
		case *xsd.MinLengthFacet:
			if minLen < 0 {
				minLen = f.Value
			}
		case *xsd.MaxLengthFacet:
			if maxLen < 0 {
				maxLen = f.Value
			}
			truncate = true
		default:
			if stringTypes[a.Builtin] || a.Builtin == "anySimpleType" {
				s.logger.Warn().Str("facet", f.Name()).Msg("unexpected facet")
				return Value{
					Text: UnexpectedFacetMarker,
					Err:  fmt.Errorf("%w: %s", ErrUnexpectedFacet, f.Name()),
				}
			}
		}
	}

	var v string
	if ps := a.Patterns(); len(ps) > 0 {
		v = s.patterns(ps)
	} else {
		v = s.faker.Sentence(sentenceWords)
	}

	if !truncate {
		return Value{Text: v}
	}
	if minLen < 0 {
		minLen = defaultMinLength
	}
	if maxLen < 0 {
		maxLen = defaultMaxLength
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	n := minLen + s.rng.Intn(maxLen-minLen+1)
	if r := []rune(v); len(r) > n {
		v = string(r[:n])
	}
	return Value{Text: v}
}

// patterns generates from the nearest pattern facet until the value also
// matches the facets of the base restrictions.
func (s *Synthesizer) patterns(ps []*xsd.PatternFacet) string {
	var v string
	for i := 0; i < patternAttempts; i++ {
		v = s.pattern(ps[0])
		if matchesAll(v, ps[1:]) {
			return v
		}
	}
	s.logger.Debug().Int("facets", len(ps)).Msg("no value matched every pattern")
	return v
}

func matchesAll(v string, ps []*xsd.PatternFacet) bool {
	for _, p := range ps {
		if p.Validate(v) != nil {
			return false
		}
	}
	return true
}

// pattern returns a string matching one of the alternatives of p, or one
// matching DefaultPattern when none can be generated.
func (s *Synthesizer) pattern(p *xsd.PatternFacet) string {
	if len(p.Patterns) > 0 {
		expr := p.Patterns[s.rng.Intn(len(p.Patterns))]
		if v, ok := s.regex(expr); ok {
			return v
		}
		s.logger.Debug().Str("pattern", expr).Msg("falling back to default pattern")
	}
	v, _ := s.regex(DefaultPattern)
	return v
}

// regex generates from an XSD pattern and checks the result against it.
func (s *Synthesizer) regex(expr string) (string, bool) {
	translated, err := xsd.TranslatePattern(expr)
	if err != nil {
		return "", false
	}
	re, err := xsd.CompilePattern(expr)
	if err != nil {
		return "", false
	}
	var v string
	for i := 0; i < patternAttempts; i++ {
		v = s.faker.Regex(translated)
		if re.MatchString(v) {
			return v, true
		}
	}
	return v, false
}
