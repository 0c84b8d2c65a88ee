package pathfinder

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
		BoardWidthMM:  10,
		BoardHeightMM: 10,
		Resolution:    0.5,
		Origin:        geom.Point{},
		Rules:         model.DesignRules{TraceWidth: 0.2, TraceClearance: 0.15},
		Stack:         stackup.Default2Layer(),
	})
	require.NoError(t, err)

	return g
}

func TestFindStraightLinePath(t *testing.T) {
	g := newTestGrid(t)
	pf := New(Config{Grid: g, NetID: 1})

	start := Cell3{Col: 2, Row: 2, Layer: 0}
	goal := [][2]int{{10, 2}}
	path, found, err := pf.Find(start, goal, 0)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEmpty(t, path.Steps)
	assert.Equal(t, Cell3{Col: 10, Row: 2, Layer: 0}, path.Steps[len(path.Steps)-1].To)
	for _, s := range path.Steps {
		assert.False(t, s.IsVia)
	}
}

func TestFindFailsWhenGoalUnreachable(t *testing.T) {
	g := newTestGrid(t)
	// Wall off row 10 across both copper layers with a different net, so no
	// via detour can bypass it.
	for c := 0; c < g.Cols(); c++ {
		rect := geom.RectFromCenter(g.ToPoint(c, 10), 0.6, 0.6)
		require.NoError(t, g.AddObstacle(rect, "F.Cu"))
		require.NoError(t, g.AddObstacle(rect, "B.Cu"))
	}

	pf := New(Config{Grid: g, NetID: 1})
	start := Cell3{Col: 2, Row: 5, Layer: 0}
	goal := [][2]int{{2, 15}}
	_, found, err := pf.Find(start, goal, 0)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindUsesViaToReachOtherLayer(t *testing.T) {
	g := newTestGrid(t)
	pf := New(Config{Grid: g, NetID: 1})

	start := Cell3{Col: 2, Row: 2, Layer: 0}
	goal := [][2]int{{2, 2}}
	path, found, err := pf.Find(start, goal, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, path.Steps, 1)
	assert.True(t, path.Steps[0].IsVia)
}

func TestFindRejectsOutOfBoundsStart(t *testing.T) {
	g := newTestGrid(t)
	pf := New(Config{Grid: g, NetID: 1})
	_, _, err := pf.Find(Cell3{Col: -1, Row: 0, Layer: 0}, [][2]int{{1, 1}}, 0)
	assert.ErrorIs(t, err, ErrNoStartCell)
}

func TestFindRejectsEmptyGoal(t *testing.T) {
	g := newTestGrid(t)
	pf := New(Config{Grid: g, NetID: 1})
	_, _, err := pf.Find(Cell3{Col: 0, Row: 0, Layer: 0}, nil, 0)
	assert.ErrorIs(t, err, ErrEmptyGoal)
}

func TestSameNetZoneDiscountLowersCost(t *testing.T) {
	g := newTestGrid(t)
	poly := geom.Polygon{Points: []geom.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}}
	cells := g.ZoneCellsForPolygon(poly)
	require.NoError(t, g.AddZoneCells(model.Zone{NetID: 1}, cells, "F.Cu"))

	withZone := New(Config{Grid: g, NetID: 1, ZoneDiscount: 0.2})
	withoutDiscount := New(Config{Grid: g, NetID: 1, ZoneDiscount: 1.0})

	start := Cell3{Col: 2, Row: 2, Layer: 0}
	goal := [][2]int{{8, 2}}

	cheap, found, err := withZone.Find(start, goal, 0)
	require.NoError(t, err)
	require.True(t, found)

	expensive, found2, err := withoutDiscount.Find(start, goal, 0)
	require.NoError(t, err)
	require.True(t, found2)

	assert.Less(t, cheap.CostMM, expensive.CostMM)
}
