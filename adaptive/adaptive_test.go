package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/negotiated"
	"github.com/katalvlaran/pcbroute/netrouter"
	"github.com/katalvlaran/pcbroute/stackup"
)

func buildOn(t *testing.T, stack *stackup.LayerStack) (negotiated.Config, []netrouter.NetToRoute) {
	t.Helper()
	g, err := grid.New(grid.Config{
		BoardWidthMM:  20,
		BoardHeightMM: 20,
		Resolution:    1,
		Origin:        geom.Point{},
		Rules:         model.DesignRules{TraceWidth: 0.2, TraceClearance: 0.1},
		Stack:         stack,
	})
	require.NoError(t, err)

	nets := []netrouter.NetToRoute{
		{
			Net: model.Net{ID: 1, Name: "N1"},
			Pads: []model.Pad{
				{Ref: "N1", PinNumber: "1", Center: geom.Point{X: 2, Y: 2}, Layers: []string{"F.Cu"}, NetID: 1},
				{Ref: "N1", PinNumber: "2", Center: geom.Point{X: 15, Y: 2}, Layers: []string{"F.Cu"}, NetID: 1},
			},
		},
	}

	return negotiated.Config{Grid: g}, nets
}

func TestRunRejectsNoPresets(t *testing.T) {
	_, err := Run(Config{})
	assert.ErrorIs(t, err, ErrNoPresets)
}

func TestRunStopsAtFirstConvergingStack(t *testing.T) {
	cfg := Config{
		Presets: []*stackup.LayerStack{stackup.Default2Layer(), stackup.Default6Layer()},
		Build: func(stack *stackup.LayerStack) (negotiated.Config, []netrouter.NetToRoute, error) {
			negCfg, nets := buildOn(t, stack)

			return negCfg, nets, nil
		},
	}

	result, err := Run(cfg)
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, 2, result.Chosen.LayerCount) // the 2-layer stack already routes this trivial net
	assert.Len(t, result.Attempts, 1)            // escalation stopped before trying 6-layer
}

func TestRunSkipsPresetsAboveMaxLayers(t *testing.T) {
	cfg := Config{
		Presets:   []*stackup.LayerStack{stackup.Default6Layer()},
		MaxLayers: 2,
		Build: func(stack *stackup.LayerStack) (negotiated.Config, []netrouter.NetToRoute, error) {
			negCfg, nets := buildOn(t, stack)

			return negCfg, nets, nil
		},
	}

	_, err := Run(cfg)
	assert.ErrorIs(t, err, ErrNoPresets)
}

func TestStandardLadderOrdersByLayerCount(t *testing.T) {
	ladder := StandardLadder()
	require.Len(t, ladder, 3)
	prev := 0
	for _, s := range ladder {
		n := len(s.RoutableCopperLayers())
		assert.Greater(t, n, prev)
		prev = n
	}
}
