package autorouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/stackup"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	r, err := New(Config{
		BoardWidthMM:  20,
		BoardHeightMM: 20,
		Resolution:    0.5,
		Rules:         model.DesignRules{TraceWidth: 0.2, TraceClearance: 0.15},
		Stack:         stackup.Default2Layer(),
	})
	require.NoError(t, err)

	return r
}

func twoPadNet(netID model.NetID, name string, x1, x2 float64) model.Footprint {
	return model.Footprint{
		Ref: name,
		Pads: []model.Pad{
			{Ref: name, PinNumber: "1", Center: geom.Point{X: x1, Y: 5}, Width: 0.5, Height: 0.5, NetID: netID, Layers: []string{"F.Cu"}},
			{Ref: name, PinNumber: "2", Center: geom.Point{X: x2, Y: 5}, Width: 0.5, Height: 0.5, NetID: netID, Layers: []string{"F.Cu"}},
		},
	}
}

func TestNewRejectsMissingLayerStack(t *testing.T) {
	_, err := New(Config{BoardWidthMM: 10, BoardHeightMM: 10})
	assert.ErrorIs(t, err, ErrNoLayerStack)
}

func TestAddFootprintRegistersPadsAndNets(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.SetNetName(1, "NET1")

	pads := r.padsFor(1)
	assert.Len(t, pads, 2)
}

func TestRouteNetConnectsTwoPads(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.SetNetName(1, "NET1")

	res, err := r.RouteNet(1)
	require.NoError(t, err)
	assert.True(t, res.FullyRouted)
	assert.NotEmpty(t, r.Routes())
}

func TestRouteAllRoutesEveryNet(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.AddFootprint(twoPadNet(2, "R2", 2, 15))
	r.SetNetName(1, "NET1")
	r.SetNetName(2, "NET2")

	var progressed []string
	routes, err := r.RouteAll(nil, func(progress float64, message string, cancelable bool) bool {
		progressed = append(progressed, message)

		return true
	})
	require.NoError(t, err)
	assert.NotEmpty(t, routes)
	assert.NotEmpty(t, progressed)
}

func TestRouteAllCancelsOnFalseProgress(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.AddFootprint(twoPadNet(2, "R2", 2, 15))
	r.SetNetName(1, "NET1")
	r.SetNetName(2, "NET2")

	calls := 0
	_, err := r.RouteAll(nil, func(progress float64, message string, cancelable bool) bool {
		calls++

		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestStatisticsReflectsCommittedRoutes(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.SetNetName(1, "NET1")
	_, err := r.RouteNet(1)
	require.NoError(t, err)

	stats := r.Statistics()
	assert.Equal(t, 1, stats.NetsRouted)
	assert.Greater(t, stats.TotalLengthMM, 0.0)
}

func TestStatisticsJSONMarshalsStableFieldNames(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(twoPadNet(1, "R1", 2, 15))
	r.SetNetName(1, "NET1")
	_, err := r.RouteNet(1)
	require.NoError(t, err)

	data, err := r.StatisticsJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"NetsRouted": 1`)
}

func TestPriorityOrderSkipsSinglePadNets(t *testing.T) {
	r := newTestRouter(t)
	r.AddFootprint(model.Footprint{Pads: []model.Pad{
		{Ref: "U1", PinNumber: "1", Center: geom.Point{X: 1, Y: 1}, NetID: 1, Layers: []string{"F.Cu"}},
	}})
	r.AddFootprint(twoPadNet(2, "R2", 2, 15))

	order := r.PriorityOrder()
	require.Len(t, order, 1)
	assert.Equal(t, model.NetID(2), order[0].Net.ID)
}

func TestAddZonesFillsAndIsQueryable(t *testing.T) {
	r := newTestRouter(t)
	zone := model.Zone{
		Polygon: []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Layer:   "F.Cu",
		NetID:   5,
	}
	err := r.AddZones([]model.Zone{zone})
	require.NoError(t, err)
}
