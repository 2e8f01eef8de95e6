package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "0.0000", Quantity(0).String())
	assert.Equal(t, "1.0000", NewQuantityFromInt(1).String())
	assert.Equal(t, "10.5000", NewQuantityFromFloat64(10.5).String())
	assert.Equal(t, "-3.2500", NewQuantityFromFloat64(-3.25).String())
	assert.Equal(t, "0.0001", Quantity(1).String())
	assert.Equal(t, "-0.0001", Quantity(-1).String())
}

func TestQuantityParse(t *testing.T) {
	cases := map[string]Quantity{
		"0":       0,
		"42":      NewQuantityFromInt(42),
		"10.5":    Quantity(105_000),
		"-3.25":   Quantity(-32_500),
		"0.0001":  Quantity(1),
		"+7":      NewQuantityFromInt(7),
		".5":      Quantity(5_000),
		"1.23456": Quantity(12_345), // extra digits truncate
		"1e2":     NewQuantityFromInt(100),
	}
	for in, want := range cases {
		got, err := parseQuantityString(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"", "abc", "1.2.3"} {
		_, err := parseQuantityString(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(12.75)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "12.7500", string(data))

	var back Quantity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)

	// String payloads are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`"-0.5"`), &back))
	assert.Equal(t, Quantity(-5_000), back)

	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsZero())
}

func TestQuantityArithmeticHelpers(t *testing.T) {
	q := NewQuantityFromFloat64(-2.5)

	assert.True(t, q.IsNegative())
	assert.False(t, q.IsPositive())
	assert.Equal(t, NewQuantityFromFloat64(2.5), q.Abs())
	assert.Equal(t, NewQuantityFromFloat64(2.5), q.Neg())
	assert.InDelta(t, -2.5, q.Float64(), 1e-9)
}
