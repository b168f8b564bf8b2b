package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberDecodesNumbersAndNumericStrings(t *testing.T) {
	cases := map[string]float64{
		`12.5`:    12.5,
		`"12.5"`:  12.5,
		`" 500 "`: 500,
		`0`:       0,
		`-3`:      -3,
	}
	for in, want := range cases {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.Equal(t, want, n.Float64(), in)
	}
}

func TestNumberRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{`"abc"`, `"NaN"`, `"Inf"`, `true`, `{}`} {
		var n Number
		assert.Error(t, json.Unmarshal([]byte(in), &n), in)
	}
}

func TestNumberNullLeavesPointerNil(t *testing.T) {
	var v struct {
		W *Number `json:"w"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"w":null}`), &v))
	assert.Nil(t, v.W)
}
