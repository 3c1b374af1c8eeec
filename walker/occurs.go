package walker

import (
	"fmt"
	"math/rand"

	"github.com/agentflare-ai/go-xsdgen"
)

// Limits turns declared occurrence bounds into the bounds a traversal uses.
type Limits struct {
	// RowTag is the local name of the element that represents one row.
	RowTag string
	// RowCount is the number of rows generated when the row tag repeats.
	RowCount int
	// UnboundedCount caps every other repeating element.
	UnboundedCount int
	// ForceAll emits the maximum number of occurrences everywhere.
	ForceAll bool
}

// Range is the resolved occurrence of one element or wildcard.
type Range struct {
	DeclMin int
	DeclMax int // xsd.Unbounded for maxOccurs="unbounded"
	Min     int
	Max     int
	// Row is set for the row tag, which always occurs Max times.
	Row bool
}

// Resolve computes the effective bounds of an element named local.
func (l Limits) Resolve(local string, minOcc, maxOcc int) Range {
	r := Range{DeclMin: minOcc, DeclMax: maxOcc}
	r.Row = l.RowTag != "" && local == l.RowTag

	limit := l.UnboundedCount
	if r.Row {
		limit = l.RowCount
	}
	switch {
	case maxOcc == xsd.Unbounded:
		r.Max = limit
	case maxOcc > 1:
		r.Max = maxOcc
		if limit < maxOcc {
			r.Max = limit
		}
	default:
		r.Max = maxOcc
	}
	if r.Max < 0 {
		r.Max = 0
	}

	switch {
	case l.ForceAll || r.Max <= 1:
		r.Min = r.Max
	case minOcc < 0:
		r.Min = 0
	case minOcc > r.Max:
		r.Min = r.Max
	default:
		r.Min = minOcc
	}
	return r
}

// Repeatable reports whether the declaration allows more than one occurrence.
func (r Range) Repeatable() bool {
	return r.DeclMax == xsd.Unbounded || r.DeclMax > 1
}

// Unbounded reports whether maxOccurs was "unbounded".
func (r Range) Unbounded() bool {
	return r.DeclMax == xsd.Unbounded
}

// Count picks how many times to emit the element.
func (r Range) Count(rng *rand.Rand) int {
	if r.Row || r.Min >= r.Max {
		return r.Max
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// Bounds formats the declared bounds as [min-max].
func (r Range) Bounds() string {
	if r.Unbounded() {
		return fmt.Sprintf("[%d-unbounded]", r.DeclMin)
	}
	return fmt.Sprintf("[%d-%d]", r.DeclMin, r.DeclMax)
}
