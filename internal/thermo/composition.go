package thermo

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/enginesim/internal/dynamo"
)

// CompositionTolerance bounds |Σx − 1| for any accepted mole-fraction vector.
const CompositionTolerance = 1e-8

// ParseComposition turns a "O2:0.21, N2:0.79" string into a mole-fraction
// vector ordered like the table.
func ParseComposition(t *Table, spec string) ([]float64, error) {
	cleaned := strings.NewReplacer(",", " ", "\"", " ").Replace(spec)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return nil, dynamo.Configf("empty composition %q", spec)
	}

	x := make([]float64, t.Len())
	for _, word := range fields {
		parts := strings.Split(word, ":")
		if len(parts) != 2 {
			return nil, dynamo.Configf("composition token %q is not valid (example: \"O2:0.21, N2:0.79\")", word)
		}
		i := t.Index(parts[0])
		if i < 0 {
			return nil, dynamo.Configf("species %q was not found in table %q", parts[0], t.Name())
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, dynamo.Configf("composition token %q: %v", word, err)
		}
		x[i] = v
	}
	if err := checkMoleFractions(x, t.Len()); err != nil {
		return nil, err
	}
	return x, nil
}

func checkMoleFractions(x []float64, n int) error {
	if len(x) != n {
		return dynamo.Configf("mole fraction vector has %d entries, table has %d", len(x), n)
	}
	sum := 0.0
	for _, v := range x {
		if v < 0 || math.IsNaN(v) {
			return dynamo.Configf("mole fractions must be non-negative, got %v", x)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > CompositionTolerance {
		return dynamo.Configf("mole fractions must sum 1.0: got %.12f", sum)
	}
	return nil
}

// FormatComposition renders the non-zero entries of x in the mini-language.
func FormatComposition(t *Table, x []float64) string {
	var b strings.Builder
	for i, v := range x {
		if v == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.species[i].Name)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
