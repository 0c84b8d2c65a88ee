package autorouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/bus"
	"github.com/katalvlaran/pcbroute/diffpair"
	"github.com/katalvlaran/pcbroute/stackup"
)

func TestRouteAllNegotiatedConverges(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 8))
	r.AddFootprint(twoPadNet(2, "R2", 2, 8))
	r.SetNetName(1, "NET1")
	r.SetNetName(2, "NET2")

	sol, err := r.RouteAllNegotiated(NegotiatedConfig{})
	require.NoError(t, err)
	assert.True(t, sol.Converged)
	assert.NotEmpty(t, r.Routes())
}

func TestRouteAllMonteCarloPicksBestTrial(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.AddFootprint(twoPadNet(2, "R2", 2, 15))
	r.SetNetName(1, "NET1")
	r.SetNetName(2, "NET2")

	result, err := r.RouteAllMonteCarlo(3, false, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RoutedNets)
	assert.NotEmpty(t, r.Routes())
}

func TestRouteAllAdaptiveStopsAtFirstConvergence(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 8))
	r.SetNetName(1, "NET1")

	ladder := []*stackup.LayerStack{stackup.Default2Layer(), stackup.JLCPCB4Layer()}
	result, err := r.RouteAllAdaptive(ladder, 0)
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, 2, result.Chosen.LayerCount)
}

func TestRouteAllWithBusesRoutesGroupFirst(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "D0", 2, 8))
	r.AddFootprint(twoPadNet(2, "D1", 2, 8))
	r.SetNetName(1, "DATA[0]")
	r.SetNetName(2, "DATA[1]")

	result, err := r.RouteAllWithBuses(bus.Config{Enabled: true, Mode: bus.ModeStacked, MinBusWidth: 2}, nil)
	require.NoError(t, err)
	assert.True(t, result.BusNetIDs[1])
	assert.True(t, result.BusNetIDs[2])
}

func TestRouteAllWithDiffPairsRoutesPairFirst(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "DP", 2, 8))
	r.AddFootprint(twoPadNet(2, "DN", 2, 8))
	r.SetNetName(1, "USB_D+")
	r.SetNetName(2, "USB_D-")

	result, err := r.RouteAllWithDiffPairs(diffpair.Config{Enabled: true}, nil)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	assert.True(t, result.PairNetIDs[1])
	assert.True(t, result.PairNetIDs[2])
}
