package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCBQueries(t *testing.T) {
	pcb := &PCB{
		Nets: map[NetID]Net{1: {ID: 1, Name: "GND"}, 2: {ID: 2, Name: "VCC"}},
		Segments: []Segment{
			{Start: Point{0, 0}, End: Point{1, 0}, Layer: "F.Cu", NetID: 1},
			{Start: Point{0, 0}, End: Point{1, 0}, Layer: "B.Cu", NetID: 2},
		},
		Vias: []Via{
			{Position: Point{1, 1}, NetID: 1},
		},
		Footprints: []Footprint{
			{Ref: "R1", Pads: []Pad{{Ref: "R1", PinNumber: "1", NetID: 1}, {Ref: "R1", PinNumber: "2", NetID: 2}}},
		},
	}

	net, ok := pcb.GetNetByName("GND")
	require.True(t, ok)
	assert.Equal(t, NetID(1), net.ID)

	assert.Len(t, pcb.SegmentsInNet(1), 1)
	assert.Len(t, pcb.ViasInNet(1), 1)
	assert.Len(t, pcb.SegmentsOnLayer("F.Cu"), 1)
	assert.Len(t, pcb.PadsForNet(2), 1)
	assert.Len(t, pcb.AllPads(), 2)
}

func TestTransformPadPosition(t *testing.T) {
	fp := Footprint{Position: Point{10, 10}, Rotation: 90}
	// Local (1,0) rotated +90deg -> (0,1), then translated by (10,10).
	p := TransformPadPosition(fp, Point{1, 0})
	assert.InDelta(t, 10.0, p.X, 1e-9)
	assert.InDelta(t, 11.0, p.Y, 1e-9)
}

func TestDesignRulesClassOverride(t *testing.T) {
	dr := DesignRules{
		TraceWidth:     0.2,
		TraceClearance: 0.2,
		ClassOverrides: map[string]ClassRule{
			"power": {TraceWidth: 0.5},
		},
	}
	eff := dr.RulesFor("power")
	assert.Equal(t, 0.5, eff.TraceWidth)
	assert.Equal(t, 0.2, eff.TraceClearance)

	eff2 := dr.RulesFor("signal")
	assert.Equal(t, 0.2, eff2.TraceWidth)
}
