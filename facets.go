package xsd

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnsupportedPattern is returned for XSD regex constructs with no RE2 equivalent.
var ErrUnsupportedPattern = errors.New("unsupported pattern")

// Facet is a constraining facet of a simple type restriction.
type Facet interface {
	Name() string
	Validate(value string) error
}

// ParseFacet builds the facet named name. Enumeration and pattern facets are
// collected by the restriction parser, so ParseFacet returns nil for them and
// for unknown names.
func ParseFacet(name, value string) Facet {
	switch name {
	case "length", "minLength", "maxLength", "totalDigits", "fractionDigits":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil
		}
		switch name {
		case "length":
			return &LengthFacet{Value: n}
		case "minLength":
			return &MinLengthFacet{Value: n}
		case "maxLength":
			return &MaxLengthFacet{Value: n}
		case "totalDigits":
			return &TotalDigitsFacet{Value: n}
		default:
			return &FractionDigitsFacet{Value: n}
		}
	case "minInclusive":
		return &MinInclusiveFacet{Value: value}
	case "maxInclusive":
		return &MaxInclusiveFacet{Value: value}
	case "minExclusive":
		return &MinExclusiveFacet{Value: value}
	case "maxExclusive":
		return &MaxExclusiveFacet{Value: value}
	case "whiteSpace":
		return &WhiteSpaceFacet{Value: value}
	}
	return nil
}

// PatternFacet holds the patterns of one restriction step. A value matches
// when it matches any of them.
type PatternFacet struct {
	Patterns []string
	compiled []*regexp.Regexp
}

func (f *PatternFacet) Name() string {
	return "pattern"
}

// Regexps compiles the patterns into anchored Go regular expressions.
func (f *PatternFacet) Regexps() ([]*regexp.Regexp, error) {
	if f.compiled != nil {
		return f.compiled, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(f.Patterns))
	for _, p := range f.Patterns {
		re, err := CompilePattern(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	f.compiled = compiled
	return compiled, nil
}

func (f *PatternFacet) Validate(value string) error {
	res, err := f.Regexps()
	if err != nil {
		return err
	}
	for _, re := range res {
		if re.MatchString(value) {
			return nil
		}
	}
	return fmt.Errorf("value '%s' does not match pattern %q", value, f.Patterns)
}

// CompilePattern compiles an XSD pattern. XSD patterns are implicitly anchored.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	translated, err := TranslatePattern(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^(?:" + translated + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

const (
	nameStartChars = `_:A-Za-z`
	nameChars      = `\-._:A-Za-z0-9`
	basicLatin     = `\x00-\x7F`
)

// TranslatePattern rewrites an XSD regular expression into RE2 syntax.
// The name escapes \i and \c become ASCII classes, ^ and $ are literals
// outside character classes, and \p{IsBasicLatin} becomes a range.
func TranslatePattern(pattern string) (string, error) {
	var b strings.Builder
	inClass := false
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			i++
			esc := runes[i]
			switch esc {
			case 'i', 'c':
				chars := nameStartChars
				if esc == 'c' {
					chars = nameChars
				}
				if inClass {
					b.WriteString(chars)
				} else {
					b.WriteString("[" + chars + "]")
				}
			case 'I', 'C':
				if inClass {
					return "", fmt.Errorf("%w: \\%c inside a character class", ErrUnsupportedPattern, esc)
				}
				chars := nameStartChars
				if esc == 'C' {
					chars = nameChars
				}
				b.WriteString("[^" + chars + "]")
			case 'p', 'P':
				block, end, err := blockEscape(runes, i)
				if err != nil {
					return "", err
				}
				raw := string(runes[i-1 : end+1])
				i = end
				switch {
				case block == "":
					// general categories such as \p{L} are understood by RE2
					b.WriteString(raw)
				case inClass && esc == 'p':
					b.WriteString(block)
				case esc == 'p':
					b.WriteString("[" + block + "]")
				case inClass:
					return "", fmt.Errorf("%w: %s inside a character class", ErrUnsupportedPattern, raw)
				default:
					b.WriteString("[^" + block + "]")
				}
			default:
				b.WriteRune('\\')
				b.WriteRune(esc)
			}
		case inClass && r == '-' && i+1 < len(runes) && runes[i+1] == '[':
			return "", fmt.Errorf("%w: character class subtraction", ErrUnsupportedPattern)
		case r == '[' && !inClass:
			inClass = true
			b.WriteRune(r)
			if i+1 < len(runes) && runes[i+1] == '^' {
				i++
				b.WriteRune('^')
			}
			if i+1 < len(runes) && runes[i+1] == ']' {
				i++
				b.WriteString(`\]`)
			}
		case r == ']' && inClass:
			inClass = false
			b.WriteRune(r)
		case (r == '^' || r == '$') && !inClass:
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// blockEscape reads \p{...} or \P{...} starting at the escape letter at i.
// It returns the class body for IsBasicLatin, an empty string for general
// categories, and the index of the closing brace.
func blockEscape(runes []rune, i int) (string, int, error) {
	if i+1 >= len(runes) || runes[i+1] != '{' {
		return "", i, fmt.Errorf("%w: malformed \\%c escape", ErrUnsupportedPattern, runes[i])
	}
	end := i + 2
	for end < len(runes) && runes[end] != '}' {
		end++
	}
	if end >= len(runes) {
		return "", i, fmt.Errorf("%w: unterminated \\%c escape", ErrUnsupportedPattern, runes[i])
	}
	name := string(runes[i+2 : end])
	switch {
	case name == "IsBasicLatin":
		return basicLatin, end, nil
	case strings.HasPrefix(name, "Is"):
		return "", i, fmt.Errorf("%w: block %s", ErrUnsupportedPattern, name)
	}
	return "", end, nil
}

// EnumerationFacet restricts values to a fixed set
type EnumerationFacet struct {
	Values []string
}

func (f *EnumerationFacet) Name() string {
	return "enumeration"
}

func (f *EnumerationFacet) Validate(value string) error {
	for _, allowed := range f.Values {
		if value == allowed {
			return nil
		}
	}
	return fmt.Errorf("value '%s' is not in enumeration %v", value, f.Values)
}

// LengthFacet validates exact length
type LengthFacet struct {
	Value int
}

func (f *LengthFacet) Name() string {
	return "length"
}

func (f *LengthFacet) Validate(value string) error {
	if n := len([]rune(value)); n != f.Value {
		return fmt.Errorf("length must be exactly %d, got %d", f.Value, n)
	}
	return nil
}

// MinLengthFacet validates minimum length
type MinLengthFacet struct {
	Value int
}

func (f *MinLengthFacet) Name() string {
	return "minLength"
}

func (f *MinLengthFacet) Validate(value string) error {
	if n := len([]rune(value)); n < f.Value {
		return fmt.Errorf("length must be at least %d, got %d", f.Value, n)
	}
	return nil
}

// MaxLengthFacet validates maximum length
type MaxLengthFacet struct {
	Value int
}

func (f *MaxLengthFacet) Name() string {
	return "maxLength"
}

func (f *MaxLengthFacet) Validate(value string) error {
	if n := len([]rune(value)); n > f.Value {
		return fmt.Errorf("length must be at most %d, got %d", f.Value, n)
	}
	return nil
}

// MinInclusiveFacet validates minimum value (inclusive)
type MinInclusiveFacet struct {
	Value string
}

func (f *MinInclusiveFacet) Name() string {
	return "minInclusive"
}

func (f *MinInclusiveFacet) Validate(value string) error {
	if compareValues(value, f.Value) < 0 {
		return fmt.Errorf("value must be >= %s, got %s", f.Value, value)
	}
	return nil
}

// MaxInclusiveFacet validates maximum value (inclusive)
type MaxInclusiveFacet struct {
	Value string
}

func (f *MaxInclusiveFacet) Name() string {
	return "maxInclusive"
}

func (f *MaxInclusiveFacet) Validate(value string) error {
	if compareValues(value, f.Value) > 0 {
		return fmt.Errorf("value must be <= %s, got %s", f.Value, value)
	}
	return nil
}

// MinExclusiveFacet validates minimum value (exclusive)
type MinExclusiveFacet struct {
	Value string
}

func (f *MinExclusiveFacet) Name() string {
	return "minExclusive"
}

func (f *MinExclusiveFacet) Validate(value string) error {
	if compareValues(value, f.Value) <= 0 {
		return fmt.Errorf("value must be > %s, got %s", f.Value, value)
	}
	return nil
}

// MaxExclusiveFacet validates maximum value (exclusive)
type MaxExclusiveFacet struct {
	Value string
}

func (f *MaxExclusiveFacet) Name() string {
	return "maxExclusive"
}

func (f *MaxExclusiveFacet) Validate(value string) error {
	if compareValues(value, f.Value) >= 0 {
		return fmt.Errorf("value must be < %s, got %s", f.Value, value)
	}
	return nil
}

// TotalDigitsFacet validates total number of digits
type TotalDigitsFacet struct {
	Value int
}

func (f *TotalDigitsFacet) Name() string {
	return "totalDigits"
}

func (f *TotalDigitsFacet) Validate(value string) error {
	digits := strings.TrimLeft(value, "+-")
	intPart, fracPart, _ := strings.Cut(digits, ".")
	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")
	n := len(intPart) + len(fracPart)
	if n == 0 {
		n = 1
	}
	if n > f.Value {
		return fmt.Errorf("total digits must be at most %d, got %d", f.Value, n)
	}
	return nil
}

// FractionDigitsFacet validates number of fraction digits
type FractionDigitsFacet struct {
	Value int
}

func (f *FractionDigitsFacet) Name() string {
	return "fractionDigits"
}

func (f *FractionDigitsFacet) Validate(value string) error {
	_, frac, ok := strings.Cut(value, ".")
	if !ok {
		return nil
	}
	if n := len(strings.TrimRight(frac, "0")); n > f.Value {
		return fmt.Errorf("fraction digits must be at most %d, got %d", f.Value, n)
	}
	return nil
}

// WhiteSpaceFacet handles whitespace normalization
type WhiteSpaceFacet struct {
	Value string // "preserve", "replace", or "collapse"
}

func (f *WhiteSpaceFacet) Name() string {
	return "whiteSpace"
}

// Validate accepts everything; whiteSpace normalizes rather than constrains.
func (f *WhiteSpaceFacet) Validate(value string) error {
	return nil
}

// compareValues compares numerically when both values are numbers and
// lexically otherwise, which orders ISO 8601 dates and times correctly.
func compareValues(v1, v2 string) int {
	f1, ok1 := new(big.Float).SetString(strings.TrimSpace(v1))
	f2, ok2 := new(big.Float).SetString(strings.TrimSpace(v2))
	if ok1 && ok2 {
		return f1.Cmp(f2)
	}
	return strings.Compare(v1, v2)
}
