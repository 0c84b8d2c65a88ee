package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/stackup"
)

func newTestGrid(t *testing.T) *RoutingGrid {
	t.Helper()
	g, err := New(Config{
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

func TestNewAllocatesExpectedDimensions(t *testing.T) {
	g := newTestGrid(t)
	assert.Equal(t, 40, g.Cols())
	assert.Equal(t, 40, g.Rows())
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, g.Layers())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{BoardWidthMM: 10, BoardHeightMM: 10, Resolution: 0, Stack: stackup.Default2Layer()})
	assert.ErrorIs(t, err, ErrNonPositiveResolution)

	_, err = New(Config{BoardWidthMM: 0, BoardHeightMM: 10, Resolution: 0.5, Stack: stackup.Default2Layer()})
	assert.ErrorIs(t, err, ErrNonPositiveBoardSize)

	_, err = New(Config{BoardWidthMM: 10, BoardHeightMM: 10, Resolution: 0.5})
	assert.ErrorIs(t, err, ErrNoLayers)
}

func TestAddPadBlocksBoundingBoxWithClearance(t *testing.T) {
	g := newTestGrid(t)
	p := model.Pad{
		Ref: "R1", PinNumber: "1",
		Center: geom.Point{X: 10, Y: 10},
		Width:  1.0, Height: 1.0,
		NetID:  5,
		Layers: []string{"F.Cu"},
	}
	g.AddPad(p)

	col, row := g.ToCell(geom.Point{X: 10, Y: 10})
	c, err := g.CellAt(col, row, 0)
	require.NoError(t, err)
	assert.True(t, c.Blocked)
	assert.True(t, c.IsObstacle)
	assert.Equal(t, model.NetID(5), c.NetID)

	// B.Cu untouched (SMD pad only on F.Cu).
	c2, err := g.CellAt(col, row, 1)
	require.NoError(t, err)
	assert.False(t, c2.Blocked)
}

func TestAddPadThroughHoleSpansAllLayers(t *testing.T) {
	g := newTestGrid(t)
	p := model.Pad{
		Ref: "J1", PinNumber: "1",
		Center:        geom.Point{X: 5, Y: 5},
		Width:         1.0, Height: 1.0,
		NetID:         3,
		IsThroughHole: true,
	}
	g.AddPad(p)

	col, row := g.ToCell(geom.Point{X: 5, Y: 5})
	for layer := range g.Layers() {
		c, err := g.CellAt(col, row, layer)
		require.NoError(t, err)
		assert.True(t, c.Blocked)
	}
}

func TestAddObstacleUsesUnconnectedNet(t *testing.T) {
	g := newTestGrid(t)
	rect := geom.RectFromCenter(geom.Point{X: 8, Y: 8}, 2, 2)
	require.NoError(t, g.AddObstacle(rect, "F.Cu"))

	col, row := g.ToCell(geom.Point{X: 8, Y: 8})
	c, err := g.CellAt(col, row, 0)
	require.NoError(t, err)
	assert.True(t, c.Blocked)
	assert.Equal(t, model.UnconnectedNet, c.NetID)
}

func TestZoneCellsMarkedButNotBlocked(t *testing.T) {
	g := newTestGrid(t)
	poly := geom.Polygon{Points: []geom.Point{
		{X: 2, Y: 2}, {X: 6, Y: 2}, {X: 6, Y: 6}, {X: 2, Y: 6},
	}}
	cells := g.ZoneCellsForPolygon(poly)
	require.NotEmpty(t, cells)

	z := model.Zone{NetID: 7, Layer: "F.Cu"}
	require.NoError(t, g.AddZoneCells(z, cells, "F.Cu"))

	col, row := g.ToCell(geom.Point{X: 4, Y: 4})
	c, err := g.CellAt(col, row, 0)
	require.NoError(t, err)
	assert.True(t, c.IsZone)
	assert.False(t, c.Blocked)
	assert.Equal(t, model.NetID(7), c.NetID)
}

func TestGetCellCostIncludesOveruseAndHistory(t *testing.T) {
	g := newTestGrid(t)
	route := Route{NetID: 1, Segments: []model.Segment{
		{Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 5, Y: 1}, Width: 0.2, Layer: "F.Cu", NetID: 1},
	}}
	g.MarkRouteUsage(route)
	g.MarkRouteUsage(route) // second pass over the same cells -> usage_count 2

	col, row := g.ToCell(geom.Point{X: 3, Y: 1})
	cost, err := g.GetCellCost(col, row, 0, 0.5)
	require.NoError(t, err)
	assert.Greater(t, cost, baseCellCost)

	g.UpdateHistoryCosts(1.0)
	cost2, err := g.GetCellCost(col, row, 0, 0.5)
	require.NoError(t, err)
	assert.Greater(t, cost2, cost)
}

func TestOverflowCountsOnlyOverCapacityCells(t *testing.T) {
	g := newTestGrid(t)
	assert.Equal(t, 0, g.Overflow())

	route := Route{NetID: 1, Segments: []model.Segment{
		{Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 1, Y: 1}, Width: 0.2, Layer: "F.Cu", NetID: 1},
	}}
	g.MarkRouteUsage(route)
	assert.Equal(t, 0, g.Overflow())
	g.MarkRouteUsage(route)
	assert.Greater(t, g.Overflow(), 0)

	g.RipUpUsage(route)
	g.RipUpUsage(route)
	assert.Equal(t, 0, g.Overflow())
}

func TestUsageCountEqualsCommittedOccupancy(t *testing.T) {
	g := newTestGrid(t)
	routeA := Route{NetID: 1, Segments: []model.Segment{
		{Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 1, Y: 1}, Width: 0.2, Layer: "F.Cu", NetID: 1},
	}}
	routeB := Route{NetID: 2, Segments: []model.Segment{
		{Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 1, Y: 1}, Width: 0.2, Layer: "F.Cu", NetID: 2},
	}}

	col, row := g.ToCell(geom.Point{X: 1, Y: 1})
	li, _ := g.LayerIndex("F.Cu")

	g.MarkRouteUsage(routeA)
	g.MarkRouteUsage(routeB)
	c, err := g.CellAt(col, row, li)
	require.NoError(t, err)
	assert.Equal(t, 2, c.UsageCount, "usage_count must equal the number of routes occupying the cell")

	g.RipUpUsage(routeA)
	c, err = g.CellAt(col, row, li)
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount)
}

func TestMarkRouteBlocksSegmentAndViaCells(t *testing.T) {
	g := newTestGrid(t)
	route := Route{
		NetID: 9,
		Segments: []model.Segment{
			{Start: geom.Point{X: 1, Y: 1}, End: geom.Point{X: 4, Y: 1}, Width: 0.2, Layer: "F.Cu", NetID: 9},
		},
		Vias: []model.Via{
			{Position: geom.Point{X: 4, Y: 1}, Drill: 0.2, OuterDiameter: 0.5, LayersSpanned: []string{"F.Cu", "B.Cu"}, NetID: 9},
		},
	}
	g.MarkRoute(route)

	col, row := g.ToCell(geom.Point{X: 4, Y: 1})
	for layer := range g.Layers() {
		c, err := g.CellAt(col, row, layer)
		require.NoError(t, err)
		assert.True(t, c.Blocked)
		assert.Equal(t, model.NetID(9), c.NetID)
	}
}

func TestMarkRouteLastWriterOwnsACellAcrossDifferentNets(t *testing.T) {
	g := newTestGrid(t)
	first := Route{NetID: 1, Segments: []model.Segment{
		{Start: geom.Point{X: 2, Y: 2}, End: geom.Point{X: 6, Y: 2}, Width: 0.2, Layer: "F.Cu", NetID: 1},
	}}
	second := Route{NetID: 2, Segments: []model.Segment{
		{Start: geom.Point{X: 2, Y: 2}, End: geom.Point{X: 6, Y: 2}, Width: 0.2, Layer: "F.Cu", NetID: 2},
	}}
	g.MarkRoute(first)
	g.MarkRoute(second)

	col, row := g.ToCell(geom.Point{X: 4, Y: 2})
	c, err := g.CellAt(col, row, 0)
	require.NoError(t, err)
	// A committed cell carries exactly one net at a time; the most recent
	// MarkRoute call is the one whose NetID every touched cell now reports,
	// so no cell is ever left claiming two different nets at once.
	assert.Equal(t, model.NetID(2), c.NetID)
}

func TestViaLayersSpannedAlwaysReferenceExistingCopperLayers(t *testing.T) {
	g := newTestGrid(t)
	route := Route{
		NetID: 3,
		Vias: []model.Via{
			{Position: geom.Point{X: 4, Y: 1}, Drill: 0.2, OuterDiameter: 0.5, LayersSpanned: []string{"F.Cu", "B.Cu"}, NetID: 3},
		},
	}
	g.MarkRoute(route)

	for _, ln := range route.Vias[0].LayersSpanned {
		_, ok := g.LayerIndex(ln)
		assert.True(t, ok, "via layer %q must resolve to a real stackup layer", ln)
	}
	_, ok := g.LayerIndex("In3.Cu")
	assert.False(t, ok, "a layer absent from the stackup must not resolve")
}

func TestGetCongestionFraction(t *testing.T) {
	g := newTestGrid(t)
	congestion, err := g.GetCongestion(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, congestion)

	_, err = g.GetCongestion(-1, 0, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestViaCostScalesWithResolution(t *testing.T) {
	assert.InDelta(t, viaCostMultiplier*0.5, ViaCost(0.5), 1e-9)
}
