package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate holds a latitude/longitude exactly as the client sent it.
// Clients aren't required to send numbers, so the raw JSON value is kept
// and only stringified when building links & push payloads.
type Coordinate []byte

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	if c == nil {
		return fmt.Errorf("models.Coordinate: UnmarshalJSON on nil pointer")
	}
	*c = append((*c)[0:0], data...)
	return nil
}

// String formats the value the way it reads in a URL, e.g. 40.0 -> "40",
// "40.1" -> 40.1, null -> "null".
func (c Coordinate) String() string {
	if len(c) == 0 {
		return ""
	}

	var value interface{}
	decoder := json.NewDecoder(bytes.NewReader(c))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return string(c)
	}

	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil && !math.IsInf(f, 0) {
			return v.String()
		}
		return formatNumber(f)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		compacted := bytes.Buffer{}
		if err := json.Compact(&compacted, c); err != nil {
			return string(c)
		}
		return compacted.String()
	}
}

// formatNumber prints numbers the way browsers & node do: shortest round-trip
// digits, exponent form outside [1e-6, 1e21) and no negative zero.
func formatNumber(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mantissa + "e" + exponent[:1] + strings.TrimLeft(exponent[1:], "0")
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Interface decodes the raw value, for stores that keep native types
func (c Coordinate) Interface() (interface{}, error) {
	if len(c) == 0 {
		return nil, nil
	}

	var value interface{}
	err := json.Unmarshal(c, &value)
	return value, err
}

// CoordinateOf encodes a native value back into a Coordinate
func CoordinateOf(value interface{}) (Coordinate, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return Coordinate(data), nil
}

func (Coordinate) GormDataType() string {
	return "text"
}

func (c Coordinate) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return string(c), nil
}

func (c *Coordinate) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = nil
	case []byte:
		*c = append(Coordinate(nil), v...)
	case string:
		*c = Coordinate(v)
	default:
		return fmt.Errorf("models.Coordinate: unsupported Scan type %T", value)
	}
	return nil
}
