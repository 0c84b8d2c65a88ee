package pathfinder

import (
	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
)

// ObstacleKind classifies what is blocking a failed route.
type ObstacleKind string

const (
	ObstaclePad       ObstacleKind = "pad"
	ObstacleTrace     ObstacleKind = "trace"
	ObstacleZone      ObstacleKind = "zone"
	ObstacleComponent ObstacleKind = "component"
)

// BlockingObstacle is one occupied cell found along the straight-line path
// between a failed connection's endpoints.
type BlockingObstacle struct {
	Kind     ObstacleKind
	Position geom.Point
	NetID    model.NetID
	Layer    int
}

// Alternative is a suggested way around a routing failure.
type Alternative struct {
	Description   string
	ViaCount      int
	ExtraLengthMM float64
	Feasible      bool
	Reason        string // why not feasible, if Feasible is false
}

// Diagnostic explains why a connection between two cells could not be
// routed: every occupied cell sampled along the straight line between them,
// human-readable suggestions, and candidate alternatives.
type Diagnostic struct {
	NetID                  model.NetID
	Source, Target         geom.Point
	StraightLineDistanceMM float64
	BlockedAtPosition      *geom.Point
	BlockingObstacles      []BlockingObstacle
	Suggestions            []string
	Alternatives           []Alternative
}

// Diagnose samples the straight line between source and target on
// goalLayer, at grid resolution, and reports every occupied cell not
// belonging to netID, along with suggestions and alternatives. It is meant
// to be called after Find returns false, to explain the failure.
func (pf *Pathfinder) Diagnose(netID model.NetID, source, target geom.Point, goalLayer int) Diagnostic {
	g := pf.cfg.Grid

	diag := Diagnostic{
		NetID:                  netID,
		Source:                 source,
		Target:                 target,
		StraightLineDistanceMM: source.Dist(target),
	}

	c0, r0 := g.ToCell(source)
	c1, r1 := g.ToCell(target)
	dCol, dRow := c1-c0, r1-r0
	steps := maxInt(absInt(dCol), absInt(dRow))
	if steps < 1 {
		steps = 1
	}

	for step := 0; step <= steps; step++ {
		t := float64(step) / float64(steps)
		col := c0 + int(t*float64(dCol))
		row := r0 + int(t*float64(dRow))

		cell, err := g.CellAt(col, row, goalLayer)
		if err != nil {
			continue
		}
		if !cell.Blocked || cell.NetID == netID {
			continue
		}

		pos := g.ToPoint(col, row)
		if diag.BlockedAtPosition == nil {
			p := pos
			diag.BlockedAtPosition = &p
		}

		var kind ObstacleKind
		switch {
		case cell.IsZone:
			kind = ObstacleZone
		case cell.UsageCount > 0:
			kind = ObstacleTrace
		case cell.IsObstacle:
			kind = ObstacleComponent
		default:
			kind = ObstaclePad
		}

		diag.BlockingObstacles = append(diag.BlockingObstacles, BlockingObstacle{
			Kind: kind, Position: pos, NetID: cell.NetID, Layer: goalLayer,
		})
	}

	diag.Suggestions = buildSuggestions(diag, len(g.Layers()))
	diag.Alternatives = buildAlternatives(diag, len(g.Layers()))

	return diag
}

func buildSuggestions(diag Diagnostic, numLayers int) []string {
	if len(diag.BlockingObstacles) == 0 {
		return nil
	}

	var suggestions []string
	hasTrace := false
	for _, o := range diag.BlockingObstacles {
		if o.Kind == ObstacleTrace {
			hasTrace = true
		}
	}

	if numLayers > 1 {
		suggestions = append(suggestions, "try routing on a different layer using vias")
	}
	if numLayers == 2 {
		suggestions = append(suggestions, "consider a 4-layer stackup for more routing options")
	}
	if hasTrace {
		suggestions = append(suggestions, "try a different net ordering (some routes may need to be ripped up)")
	}

	return suggestions
}

func buildAlternatives(diag Diagnostic, numLayers int) []Alternative {
	var alts []Alternative
	if numLayers > 1 {
		alts = append(alts, Alternative{Description: "route on a different layer", ViaCount: 2, Feasible: true})
	}
	alts = append(alts, Alternative{
		Description:   "route around obstacles",
		ExtraLengthMM: diag.StraightLineDistanceMM * 0.5,
		Feasible:      len(diag.BlockingObstacles) < 5,
	})

	return alts
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
