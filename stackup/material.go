// Package stackup models the physical layer stack of a board: an ordered
// sequence of copper and dielectric layers, a small material database, and
// the O(1)-amortized queries (reference-plane distance, dielectric
// constant, stripline geometry) the transmission-line solvers in tline and
// coupledline depend on.
//
// Grounded on the builder package's named-preset-constructor convention
// (impl_star.go, impl_wheel.go, …: one function per named shape, each
// returning a fully populated value) — here applied to manufacturer
// stackup presets instead of graph topologies.
package stackup

import "strings"

// Material describes a dielectric's electrical properties.
type Material struct {
	Name   string
	EpsR   float64 // relative dielectric constant
	TanD   float64 // loss tangent
}

// materialDB is the case-insensitive name -> Material lookup table.
// Presets must include FR4 (standard & high-Tg), Rogers 4350B/4003C, and
// Isola 370HR.
var materialDB = map[string]Material{
	"fr4":          {Name: "FR4", EpsR: 4.5, TanD: 0.020},
	"fr4 high-tg":  {Name: "FR4 High-Tg", EpsR: 4.6, TanD: 0.018},
	"fr4-hightg":   {Name: "FR4 High-Tg", EpsR: 4.6, TanD: 0.018},
	"rogers 4350b": {Name: "Rogers 4350B", EpsR: 3.48, TanD: 0.0037},
	"ro4350b":      {Name: "Rogers 4350B", EpsR: 3.48, TanD: 0.0037},
	"rogers 4003c": {Name: "Rogers 4003C", EpsR: 3.38, TanD: 0.0027},
	"ro4003c":      {Name: "Rogers 4003C", EpsR: 3.38, TanD: 0.0027},
	"isola 370hr":  {Name: "Isola 370HR", EpsR: 4.04, TanD: 0.0188},
	"370hr":        {Name: "Isola 370HR", EpsR: 4.04, TanD: 0.0188},
}

// defaultMaterial is the fallback used when a name is unknown: plain FR4
// at its typical dielectric constant.
var defaultMaterial = Material{Name: "FR4", EpsR: 4.5, TanD: 0.020}

// LookupMaterial returns the named material (case-insensitive), or the FR4
// fallback with ok=false if the name is not in the database.
func LookupMaterial(name string) (Material, bool) {
	m, ok := materialDB[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return defaultMaterial, false
	}

	return m, true
}

// RegisterMaterial adds or overwrites a material in the database, keyed
// case-insensitively. Used by callers who need to extend the preset list
//.
func RegisterMaterial(m Material) {
	materialDB[strings.ToLower(m.Name)] = m
}

// copperThicknessMM converts copper weight (oz) to thickness in mm
//.
func copperThicknessMM(oz float64) float64 {
	return 0.035 * oz
}
