package synth

import (
	"math/big"
	"strings"

	"github.com/agentflare-ai/go-xsdgen"
)

const (
	defaultTotalDigits    = 20
	defaultFractionDigits = 5
	maxRangeAttempts      = 20
)

// integerDigits caps the digit count of the bounded integer types.
var integerDigits = map[string]int{
	"long":          18,
	"int":           9,
	"short":         4,
	"byte":          2,
	"unsignedLong":  19,
	"unsignedInt":   9,
	"unsignedShort": 4,
	"unsignedByte":  2,
}

// ranged draws from gen until the value satisfies every facet of a and the
// lexical space of its builtin, falling back to a bound of the range.
func (s *Synthesizer) ranged(a xsd.Atomic, gen func(xsd.Atomic) string) Value {
	var v string
	for i := 0; i < maxRangeAttempts; i++ {
		v = gen(a)
		if a.Validate(v) == nil && xsd.ValidateBuiltin(a.Builtin, v) == nil {
			return Value{Text: v}
		}
	}
	if b, ok := bound(a); ok {
		return Value{Text: b}
	}
	s.logger.Debug().Str("type", a.Builtin).Str("value", v).Msg("value outside range facets")
	return Value{Text: v}
}

func (s *Synthesizer) digitFacets(a xsd.Atomic) (total, fraction int) {
	total, fraction = -1, -1
	for _, f := range a.Facets {
		switch f := f.(type) {
		case *xsd.TotalDigitsFacet:
			if total < 0 {
				total = f.Value
			}
		case *xsd.FractionDigitsFacet:
			if fraction < 0 {
				fraction = f.Value
			}
		}
	}
	if total < 1 {
		total = defaultTotalDigits
	}
	if fraction < 0 {
		fraction = defaultFractionDigits
	}
	return total, fraction
}

// decimal returns int.frac with d total digits of which f are fraction
// digits. The integer part never takes the digits reserved for the fraction.
func (s *Synthesizer) decimal(a xsd.Atomic) string {
	total, fraction := s.digitFacets(a)
	d := 1 + s.rng.Intn(total)
	f := s.rng.Intn(min(d-1, fraction) + 1)

	intDigits := min(d-f, max(1, total-fraction))
	v := s.digits(intDigits)
	if f == 0 {
		return v
	}
	return v + "." + s.rawDigits(f)
}

// integer returns an integer within the digit budget of the builtin and the
// totalDigits facet, signed as the builtin requires.
func (s *Synthesizer) integer(a xsd.Atomic) string {
	total, _ := s.digitFacets(a)
	for name, limit := range integerDigits {
		if xsd.DerivesFrom(a.Builtin, name) {
			total = min(total, limit)
		}
	}

	v := s.digits(1 + s.rng.Intn(total))
	switch {
	case xsd.DerivesFrom(a.Builtin, "negativeInteger"):
		return "-" + s.nonZero(v)
	case xsd.DerivesFrom(a.Builtin, "nonPositiveInteger"):
		if v == "0" {
			return v
		}
		return "-" + v
	case xsd.DerivesFrom(a.Builtin, "positiveInteger"):
		return s.nonZero(v)
	}
	return v
}

// digits returns a number of at most n digits without leading zeros.
func (s *Synthesizer) digits(n int) string {
	v := strings.TrimLeft(s.rawDigits(n), "0")
	if v == "" {
		return "0"
	}
	return v
}

func (s *Synthesizer) rawDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + s.rng.Intn(10))
	}
	return string(b)
}

func (s *Synthesizer) nonZero(v string) string {
	if v == "0" {
		return string(rune('1' + s.rng.Intn(9)))
	}
	return v
}

// bound returns the nearest inclusive bound of a's range facets, stepping
// exclusive bounds by one.
func bound(a xsd.Atomic) (string, bool) {
	for _, f := range a.Facets {
		switch f := f.(type) {
		case *xsd.MinInclusiveFacet:
			return f.Value, true
		case *xsd.MaxInclusiveFacet:
			return f.Value, true
		case *xsd.MinExclusiveFacet:
			return step(f.Value, 1)
		case *xsd.MaxExclusiveFacet:
			return step(f.Value, -1)
		}
	}
	return "", false
}

func step(value string, delta int64) (string, bool) {
	r, ok := new(big.Rat).SetString(strings.TrimPrefix(strings.TrimSpace(value), "+"))
	if !ok {
		return "", false
	}
	r.Add(r, new(big.Rat).SetInt64(delta))
	if r.IsInt() {
		return r.Num().String(), true
	}
	_, frac, _ := strings.Cut(value, ".")
	return r.FloatString(len(frac)), true
}
