// Package serialize is the JSON boundary every report type in this module
// crosses through: stable field names (plain exported Go fields, no
// renaming tags needed since report structs are already named the way a
// KiCad-tooling consumer would expect), enum fields as lowercase strings
// (every Severity/RiskLevel/ThermalSeverity-shaped type is already a
// string type whose constants are lowercase, so the default encoder does
// the right thing without custom MarshalJSON methods).
//
// The encoder applies no numeric rounding of its own. The analysis
// packages round their report fields with geom.Round as they build each
// report, so the values arrive here already rounded; this package's Round
// exists for callers assembling ad-hoc JSON payloads outside those
// structs, with the same convention.
package serialize

import (
	"bytes"
	"encoding/json"
	"math"
)

// Round rounds v to n decimal places, matching geom.Round's convention
// (half away from zero).
func Round(v float64, n int) float64 {
	scale := math.Pow10(n)

	return math.Round(v*scale) / scale
}

// ToJSON marshals v with two-space indentation, the shape every report in
// this module is expected to cross the process boundary as.
func ToJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// FromJSON decodes data into v, rejecting unknown fields so a caller
// notices a schema drift immediately rather than silently dropping data.
func FromJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}
