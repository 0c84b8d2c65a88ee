package netrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/stackup"
)

func newTestGrid(t *testing.T) *grid.RoutingGrid {
	t.Helper()
	g, err := grid.New(grid.Config{
		BoardWidthMM:  20,
		BoardHeightMM: 20,
		Resolution:    0.5,
		Origin:        geom.Point{},
		Rules:         model.DesignRules{TraceWidth: 0.2, TraceClearance: 0.15},
		Stack:         stackup.Default2Layer(),
	})
	require.NoError(t, err)

	return g
}

func TestRouteNetRejectsSinglePad(t *testing.T) {
	g := newTestGrid(t)
	cfg := Config{Grid: g, Rules: model.DesignRules{TraceWidth: 0.2}}
	_, err := RouteNet(cfg, model.Net{ID: 1, Name: "N1"}, []model.Pad{
		{Ref: "R1", PinNumber: "1", Center: geom.Point{X: 1, Y: 1}, Layers: []string{"F.Cu"}},
	})
	assert.ErrorIs(t, err, ErrTooFewPads)
}

func TestRouteNetConnectsThreePads(t *testing.T) {
	g := newTestGrid(t)
	cfg := Config{Grid: g, Rules: model.DesignRules{TraceWidth: 0.2}, ZoneDiscount: 0.5}
	net := model.Net{ID: 1, Name: "NET1"}
	pads := []model.Pad{
		{Ref: "R1", PinNumber: "1", Center: geom.Point{X: 2, Y: 2}, Layers: []string{"F.Cu"}, NetID: 1},
		{Ref: "R2", PinNumber: "1", Center: geom.Point{X: 10, Y: 2}, Layers: []string{"F.Cu"}, NetID: 1},
		{Ref: "R3", PinNumber: "1", Center: geom.Point{X: 10, Y: 10}, Layers: []string{"F.Cu"}, NetID: 1},
	}

	result, err := RouteNet(cfg, net, pads)
	require.NoError(t, err)
	assert.True(t, result.FullyRouted)
	assert.Empty(t, result.UnroutedPads)
	assert.Len(t, result.Routes, 2) // MST over 3 nodes has 2 edges
}

func TestIntraICPreconnectCollapsesCloseClusterMembers(t *testing.T) {
	g := newTestGrid(t)
	cfg := Config{
		Grid:               g,
		Rules:              model.DesignRules{TraceWidth: 0.2},
		IntraICThresholdMM: 1.0,
	}
	net := model.Net{ID: 2, Name: "GND"}
	pads := []model.Pad{
		{Ref: "U1", PinNumber: "1", Center: geom.Point{X: 5, Y: 5}, Layers: []string{"F.Cu"}, NetID: 2},
		{Ref: "U1", PinNumber: "2", Center: geom.Point{X: 5.3, Y: 5}, Layers: []string{"F.Cu"}, NetID: 2},
		{Ref: "R9", PinNumber: "1", Center: geom.Point{X: 15, Y: 15}, Layers: []string{"F.Cu"}, NetID: 2},
	}

	remaining, segments := intraICPreconnect(cfg, net, pads)
	assert.Len(t, remaining, 2) // U1's two close pads collapse to 1
	assert.Len(t, segments, 1)
}

func TestManhattanMSTSpansAllNodes(t *testing.T) {
	nodes := []padNode{
		{pad: model.Pad{Center: geom.Point{X: 0, Y: 0}}},
		{pad: model.Pad{Center: geom.Point{X: 5, Y: 0}}},
		{pad: model.Pad{Center: geom.Point{X: 5, Y: 5}}},
		{pad: model.Pad{Center: geom.Point{X: 0, Y: 5}}},
	}
	mst := manhattanMST(nodes)
	assert.Len(t, mst, 3)

	seen := map[int]bool{0: true}
	for changed := true; changed; {
		changed = false
		for _, e := range mst {
			if seen[e.u] && !seen[e.v] {
				seen[e.v] = true
				changed = true
			}
			if seen[e.v] && !seen[e.u] {
				seen[e.u] = true
				changed = true
			}
		}
	}
	assert.Len(t, seen, 4)
}

func TestPriorityOrderSortsByClassThenExtent(t *testing.T) {
	nets := []NetToRoute{
		{Net: model.Net{Name: "USB_DP"}, Pads: []model.Pad{{Center: geom.Point{X: 0, Y: 0}}, {Center: geom.Point{X: 5, Y: 0}}}},
		{Net: model.Net{Name: "GND"}, Pads: []model.Pad{{Center: geom.Point{X: 0, Y: 0}}, {Center: geom.Point{X: 1, Y: 0}}}},
		{Net: model.Net{Name: "CLK"}, Pads: []model.Pad{{Center: geom.Point{X: 0, Y: 0}}, {Center: geom.Point{X: 20, Y: 0}}}},
	}
	classOf := func(name string) string {
		switch name {
		case "USB_DP":
			return "diffpair"
		case "CLK":
			return "clock"
		default:
			return "signal"
		}
	}
	priority := map[string]int{"diffpair": 0, "clock": 1, "signal": 2}

	ordered := PriorityOrder(nets, classOf, priority)
	require.Len(t, ordered, 3)
	assert.Equal(t, "USB_DP", ordered[0].Net.Name)
	assert.Equal(t, "CLK", ordered[1].Net.Name)
	assert.Equal(t, "GND", ordered[2].Net.Name)
}
