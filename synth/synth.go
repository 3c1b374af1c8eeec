// Package synth produces random lexical values for XSD simple types.
package synth

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
)

const (
	// UnexpectedFacetMarker replaces string values restricted by a facet
	// the synthesizer does not model.
	UnexpectedFacetMarker = "*** Unexpected facet ***"
	// ErrorMarker is emitted for builtins without a generator or sample.
	ErrorMarker = "ERROR !"
	// DefaultPattern is used when a pattern cannot be generated from.
	DefaultPattern = `[a-zA-Z0-9 ]{20}`
)

var (
	// ErrUnexpectedFacet is reported with UnexpectedFacetMarker.
	ErrUnexpectedFacet = errors.New("unexpected facet")
	// ErrNoSample is reported with ErrorMarker.
	ErrNoSample = errors.New("no sample value")
)

// Value is a synthesized lexical value.
type Value struct {
	Text string
	// Hardcoded is set when Text comes from the sample table.
	Hardcoded bool
	// Err is set when Text is a marker instead of a real value.
	Err error
}

// Synthesizer generates values. It is not safe for concurrent use.
type Synthesizer struct {
	faker  *gofakeit.Faker
	rng    *rand.Rand
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock sets the time source of the date windows.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// New creates a Synthesizer. A zero seed is replaced by the current time.
func New(seed int64, opts ...Option) *Synthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	s := &Synthesizer{
		faker:  faker,
		rng:    faker.Rand,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rand returns the random source shared by every draw of the synthesizer.
func (s *Synthesizer) Rand() *rand.Rand {
	return s.rng
}

// Value generates a value for a. An enumeration always wins; otherwise the
// nearest builtin selects the generator.
func (s *Synthesizer) Value(a xsd.Atomic) Value {
	if enum := a.Enumeration(); len(enum) > 0 {
		return Value{Text: enum[s.rng.Intn(len(enum))]}
	}

	b := a.Builtin
	switch {
	case a.Pattern() != nil || stringTypes[b]:
		return s.str(a)
	case xsd.DerivesFrom(b, "integer"):
		return s.ranged(a, s.integer)
	case b == "decimal":
		return s.ranged(a, s.decimal)
	case b == "boolean":
		if s.rng.Intn(2) == 1 {
			return Value{Text: "true"}
		}
		return Value{Text: "false"}
	case b == "dateTime" || b == "dateTimeStamp":
		return Value{Text: s.within(1).Format("2006-01-02T15:04:05.000Z")}
	case b == "time":
		return Value{Text: s.within(1).Format("15:04:05.000Z")}
	case b == "date":
		return Value{Text: s.within(1).Format("2006-01-02")}
	case b == "gYear":
		return Value{Text: s.within(20).Format("2006")}
	}
	return s.sample(b)
}

// within returns a UTC time at most years away from now.
func (s *Synthesizer) within(years int) time.Time {
	now := s.now()
	return s.faker.DateRange(now.AddDate(-years, 0, 0), now.AddDate(years, 0, 0)).UTC()
}

func (s *Synthesizer) sample(builtin string) Value {
	if v, ok := samples[builtin]; ok {
		if err := xsd.ValidateBuiltin(builtin, v); err != nil {
			s.logger.Warn().Err(err).Str("type", builtin).Msg("sample value outside the lexical space")
		}
		return Value{Text: v, Hardcoded: true}
	}
	s.logger.Warn().Str("type", builtin).Msg("no sample value")
	return Value{Text: ErrorMarker, Hardcoded: true, Err: fmt.Errorf("%w: %s", ErrNoSample, builtin)}
}
