package walker

import (
	"math/rand"
	"testing"

	"github.com/agentflare-ai/go-xsdgen"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLimitsResolve(t *testing.T) {
	limits := Limits{RowTag: "Rpt", RowCount: 50, UnboundedCount: 10}

	tests := []struct {
		name       string
		limits     Limits
		local      string
		min, max   int
		wantMin    int
		wantMax    int
		repeatable bool
	}{
		{name: "single", limits: limits, local: "a", min: 1, max: 1, wantMin: 1, wantMax: 1},
		{name: "optional single", limits: limits, local: "a", min: 0, max: 1, wantMin: 1, wantMax: 1},
		{name: "prohibited", limits: limits, local: "a", min: 0, max: 0, wantMin: 0, wantMax: 0},
		{name: "unbounded", limits: limits, local: "a", min: 0, max: xsd.Unbounded, wantMin: 0, wantMax: 10, repeatable: true},
		{name: "unbounded row", limits: limits, local: "Rpt", min: 1, max: xsd.Unbounded, wantMin: 1, wantMax: 50, repeatable: true},
		{name: "finite below cap", limits: limits, local: "a", min: 2, max: 5, wantMin: 2, wantMax: 5, repeatable: true},
		{name: "finite above cap", limits: limits, local: "a", min: 0, max: 99, wantMin: 0, wantMax: 10, repeatable: true},
		{name: "row above row count", limits: limits, local: "Rpt", min: 0, max: 99, wantMin: 0, wantMax: 50, repeatable: true},
		{name: "min above cap", limits: limits, local: "a", min: 20, max: 30, wantMin: 10, wantMax: 10, repeatable: true},
		{
			name:       "force all",
			limits:     Limits{RowTag: "Rpt", RowCount: 50, UnboundedCount: 10, ForceAll: true},
			local:      "a",
			min:        0,
			max:        xsd.Unbounded,
			wantMin:    10,
			wantMax:    10,
			repeatable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.limits.Resolve(tt.local, tt.min, tt.max)
			assert.Equal(t, tt.wantMin, r.Min, "min")
			assert.Equal(t, tt.wantMax, r.Max, "max")
			assert.Equal(t, tt.repeatable, r.Repeatable(), "repeatable")
			assert.Equal(t, tt.min, r.DeclMin)
			assert.Equal(t, tt.max, r.DeclMax)
		})
	}
}

func TestRangeBounds(t *testing.T) {
	limits := Limits{UnboundedCount: 10}
	assert.Equal(t, "[0-unbounded]", limits.Resolve("a", 0, xsd.Unbounded).Bounds())
	assert.Equal(t, "[1-7]", limits.Resolve("a", 1, 7).Bounds())
}

func TestRangeCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limits := Limits{
			RowTag:         "Rpt",
			RowCount:       rapid.IntRange(1, 100).Draw(t, "rowCount"),
			UnboundedCount: rapid.IntRange(1, 100).Draw(t, "unboundedCount"),
			ForceAll:       rapid.Bool().Draw(t, "forceAll"),
		}
		local := rapid.SampledFrom([]string{"Rpt", "other"}).Draw(t, "local")
		maxOcc := rapid.IntRange(-1, 200).Draw(t, "max")
		minOcc := rapid.IntRange(0, 200).Draw(t, "min")
		if maxOcc >= 0 && minOcc > maxOcc {
			minOcc = maxOcc
		}
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))

		r := limits.Resolve(local, minOcc, maxOcc)
		n := r.Count(rng)

		if n < r.Min || n > r.Max {
			t.Fatalf("count %d outside [%d, %d]", n, r.Min, r.Max)
		}
		if maxOcc == 0 || maxOcc == 1 {
			if n != maxOcc {
				t.Fatalf("non-repeatable element counted %d times", n)
			}
		}
		if local == "Rpt" {
			want := limits.RowCount
			if maxOcc != xsd.Unbounded && maxOcc < want {
				want = maxOcc
			}
			if n != want {
				t.Fatalf("row tag counted %d times, want %d", n, want)
			}
		}
		if limits.ForceAll && n != r.Max {
			t.Fatalf("force all counted %d times, want %d", n, r.Max)
		}
	})
}
