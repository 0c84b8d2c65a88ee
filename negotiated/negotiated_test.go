package negotiated

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/netrouter"
	"github.com/katalvlaran/pcbroute/stackup"
)

func newTestGrid(t *testing.T) *grid.RoutingGrid {
	t.Helper()
	g, err := grid.New(grid.Config{
		BoardWidthMM:  20,
		BoardHeightMM: 20,
		Resolution:    1,
		Origin:        geom.Point{},
		Rules:         model.DesignRules{TraceWidth: 0.2, TraceClearance: 0.1},
		Stack:         stackup.Default2Layer(),
	})
	require.NoError(t, err)

	return g
}

func twoPadNet(id model.NetID, name string, x0, x1, y float64) netrouter.NetToRoute {
	return netrouter.NetToRoute{
		Net: model.Net{ID: id, Name: name},
		Pads: []model.Pad{
			{Ref: name, PinNumber: "1", Center: geom.Point{X: x0, Y: y}, Layers: []string{"F.Cu"}, NetID: id},
			{Ref: name, PinNumber: "2", Center: geom.Point{X: x1, Y: y}, Layers: []string{"F.Cu"}, NetID: id},
		},
	}
}

func TestRunRejectsEmptyNetList(t *testing.T) {
	g := newTestGrid(t)
	_, err := Run(Config{Grid: g}, nil)
	assert.ErrorIs(t, err, ErrNoNets)
}

func TestRunConvergesOnNonConflictingNets(t *testing.T) {
	g := newTestGrid(t)
	nets := []netrouter.NetToRoute{
		twoPadNet(1, "NET1", 2, 10, 2),
		twoPadNet(2, "NET2", 2, 10, 12),
	}

	sol, err := Run(Config{Grid: g}, nets)
	require.NoError(t, err)
	assert.True(t, sol.Converged)
	assert.Equal(t, 0, sol.Overflow)
	assert.Equal(t, 0, sol.Iterations)
	assert.Len(t, sol.Routes, 2)
	for _, r := range sol.Routes {
		assert.True(t, r.FullyRouted)
	}
}

func TestRunReducesOverflowOnOverlappingNets(t *testing.T) {
	g := newTestGrid(t)
	// Both nets share the same row: their naive shortest paths coincide.
	nets := []netrouter.NetToRoute{
		twoPadNet(1, "NET1", 2, 16, 10),
		twoPadNet(2, "NET2", 2, 16, 10),
	}

	sol, err := Run(Config{Grid: g, MaxIterations: 10}, nets)
	require.NoError(t, err)
	assert.Len(t, sol.Routes, 2)
	assert.LessOrEqual(t, sol.Iterations, 10)
	// The grid's live overflow must match the returned best snapshot: Run
	// rolls the grid back to whatever it reports as the best solution.
	assert.Equal(t, sol.Overflow, g.Overflow())
	if sol.Overflow == 0 {
		assert.True(t, sol.Converged)
	}
}

func TestRunAppliesDefaultsWhenUnset(t *testing.T) {
	cfg := Config{}
	cfg.setDefaults()
	assert.Equal(t, 0.5, cfg.InitialPresentFactor)
	assert.Equal(t, 0.5, cfg.PresentFactorIncrement)
	assert.Equal(t, 1.0, cfg.HistoryCostIncrement)
	assert.Equal(t, 50, cfg.MaxIterations)
}
