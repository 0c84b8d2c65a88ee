// Package model defines the PCB-side input types the routing, physics and
// analysis cores consume but do not own. A loader — out of scope for this
// module — is responsible for producing these values from a KiCad board
// file; this package only declares the shape they must have and a handful
// of query helpers the core relies on.
//
// Field names follow the real KiCad-Go board-model convention observed in
// the retrieved OpenTraceJTAG pcb package (Footprint, Pad, Track, Via, Zone,
// Net, "F.Cu"/"B.Cu" layer strings) rather than an invented schema.
package model

import "github.com/katalvlaran/pcbroute/geom"

// Point is an alias for geom.Point; model re-exports it so callers can
// build PCB-side values without importing geom directly.
type Point = geom.Point

// NetID identifies a net. NetID 0 denotes "no net" and never participates
// in connectivity or routing.
type NetID int

// UnconnectedNet is the sentinel NetID meaning "no net".
const UnconnectedNet NetID = 0

// Net is an electrically connected set of pads.
type Net struct {
	ID   NetID
	Name string
}

// ConnectPadsPolicy controls how a zone connects to same-net pads it
// covers.
type ConnectPadsPolicy int

const (
	// ConnectThermal carves an antipad + spokes around the pad (default).
	ConnectThermal ConnectPadsPolicy = iota
	// ConnectSolid fills solid copper to the pad, no antipad.
	ConnectSolid
	// ConnectNone leaves a full antipad; the pad is not connected to the zone.
	ConnectNone
)

// Pad is a single footprint pad.
type Pad struct {
	Ref           string  // owning footprint reference designator, e.g. "R1"
	PinNumber     string  // pad number/name within the footprint
	Center        Point   // board-coordinate center (post rotation transform)
	Width         float64 // mm
	Height        float64 // mm
	NetID         NetID
	Layers        []string // copper (and optionally non-copper) layer names the pad appears on
	IsThroughHole bool
	Drill         float64 // mm, 0 for SMD
}

// Key returns a stable identifier for a pad within a PCB (Ref + PinNumber).
func (p Pad) Key() string { return p.Ref + ":" + p.PinNumber }

// Segment is a straight copper trace on one layer.
type Segment struct {
	Start, End Point
	Width      float64
	Layer      string
	NetID      NetID
}

// Length returns the Euclidean length of the segment in mm.
func (s Segment) Length() float64 {
	return s.Start.Dist(s.End)
}

// Via is a plated-through hole connecting copper across one or more layers.
type Via struct {
	Position       Point
	Drill          float64
	OuterDiameter  float64
	LayersSpanned  []string // ordered copper layer names this via connects
	NetID          NetID
}

// Zone is a polygonal filled copper region assigned to one net and layer.
type Zone struct {
	Polygon             []Point
	Layer               string
	NetID               NetID
	Priority            int // lower fills first
	Clearance           float64
	ThermalGap          float64
	ThermalBridgeWidth  float64
	ConnectPadsPolicy   ConnectPadsPolicy
	FilledPolygons      [][]Point // optional, pre-computed fill outlines
}

// Footprint groups the pads belonging to one placed component.
type Footprint struct {
	Ref      string
	Value    string
	Package  string // footprint library identifier, e.g. "SOT-23", "R_0603_1608Metric"
	Position Point
	Rotation float64 // degrees
	Pads     []Pad
}

// DesignRules captures clearance/width/via defaults and per-class overrides.
type DesignRules struct {
	TraceWidth    float64
	TraceClearance float64
	ViaDrill      float64
	ViaDiameter   float64
	ViaClearance  float64
	ClassOverrides map[string]ClassRule
}

// ClassRule overrides DesignRules defaults for a named net class.
type ClassRule struct {
	TraceWidth     float64
	TraceClearance float64
	ViaDrill       float64
	ViaDiameter    float64
	ViaClearance   float64
}

// RulesFor resolves the effective design rule set for a net class name,
// falling back to the board defaults for any zero-valued override field.
func (dr DesignRules) RulesFor(class string) DesignRules {
	cr, ok := dr.ClassOverrides[class]
	if !ok {
		return dr
	}
	out := dr
	if cr.TraceWidth > 0 {
		out.TraceWidth = cr.TraceWidth
	}
	if cr.TraceClearance > 0 {
		out.TraceClearance = cr.TraceClearance
	}
	if cr.ViaDrill > 0 {
		out.ViaDrill = cr.ViaDrill
	}
	if cr.ViaDiameter > 0 {
		out.ViaDiameter = cr.ViaDiameter
	}
	if cr.ViaClearance > 0 {
		out.ViaClearance = cr.ViaClearance
	}

	return out
}

