package analysis

import (
	"testing"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

func TestAnalyzeThermalIdentifiesRegulatorAsHeatSource(t *testing.T) {
	board := BoardSample{
		Footprints: []model.Footprint{
			{Ref: "U1", Value: "AMS1117-3.3", Package: "SOT-223", Position: geom.Point{X: 10, Y: 10}},
		},
	}

	hotspots := AnalyzeThermal(board, ThermalConfig{})
	if len(hotspots) != 1 {
		t.Fatalf("expected 1 hotspot, got %d", len(hotspots))
	}
	if len(hotspots[0].Sources) != 1 || hotspots[0].Sources[0].ComponentType != "regulator" {
		t.Fatalf("expected a regulator source, got %+v", hotspots[0].Sources)
	}
}

func TestAnalyzeThermalIgnoresGenericICsWithoutRegulatorValue(t *testing.T) {
	board := BoardSample{
		Footprints: []model.Footprint{
			{Ref: "U1", Value: "ATMEGA328P", Package: "TQFP-32", Position: geom.Point{X: 10, Y: 10}},
		},
	}

	hotspots := AnalyzeThermal(board, ThermalConfig{})
	if len(hotspots) != 0 {
		t.Fatalf("expected no hotspot for a non-heat-generating IC, got %d", len(hotspots))
	}
}

func TestAnalyzeThermalClustersNearbySources(t *testing.T) {
	board := BoardSample{
		Footprints: []model.Footprint{
			{Ref: "U1", Value: "LM7805", Package: "TO-220", Position: geom.Point{X: 0, Y: 0}},
			{Ref: "Q1", Value: "IRF540", Package: "TO-220", Position: geom.Point{X: 3, Y: 0}},
		},
	}

	hotspots := AnalyzeThermal(board, ThermalConfig{ClusterRadiusMM: 10})
	if len(hotspots) != 1 {
		t.Fatalf("expected sources within 10mm to cluster into 1 hotspot, got %d", len(hotspots))
	}
	if len(hotspots[0].Sources) != 2 {
		t.Fatalf("expected 2 sources in the cluster, got %d", len(hotspots[0].Sources))
	}
}

func TestAnalyzeThermalSeparatesDistantSources(t *testing.T) {
	board := BoardSample{
		Footprints: []model.Footprint{
			{Ref: "U1", Value: "LM7805", Package: "TO-220", Position: geom.Point{X: 0, Y: 0}},
			{Ref: "U2", Value: "LM7805", Package: "TO-220", Position: geom.Point{X: 100, Y: 100}},
		},
	}

	hotspots := AnalyzeThermal(board, ThermalConfig{ClusterRadiusMM: 10})
	if len(hotspots) != 2 {
		t.Fatalf("expected 2 separate hotspots, got %d", len(hotspots))
	}
}

func TestAnalyzeThermalRegulatorWithoutCopperHasSeverity(t *testing.T) {
	board := BoardSample{
		Footprints: []model.Footprint{
			{Ref: "U1", Value: "TPS62200", Package: "QFN", Position: geom.Point{X: 0, Y: 0}},
		},
	}

	hotspots := AnalyzeThermal(board, ThermalConfig{})
	if len(hotspots) != 1 {
		t.Fatalf("expected 1 hotspot, got %d", len(hotspots))
	}
	if hotspots[0].Severity == "" {
		t.Fatalf("expected a severity classification")
	}
}

func TestAnalyzeThermalNoSourcesReturnsEmpty(t *testing.T) {
	hotspots := AnalyzeThermal(BoardSample{}, ThermalConfig{})
	if len(hotspots) != 0 {
		t.Fatalf("expected no hotspots without footprints, got %d", len(hotspots))
	}
}
