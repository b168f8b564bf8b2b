package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Number is a float that also decodes from a numeric JSON string.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: numberType}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: numberType}
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 { return float64(n) }

// Ptr returns a pointer to a copy of n; handy for optional fields.
func (n Number) Ptr() *Number { return &n }

var numberType = reflect.TypeOf(Number(0))
