// Package grid discretizes a board into a 3-D cell grid (column, row,
// layer) at a uniform resolution, and tracks per-cell routing state:
// obstacle/zone membership, net ownership, and the present/history costs
// the negotiated-congestion router iterates on.
//
// Grounded on gridgraph.GridGraph's 2-D integer grid (Width/Height,
// neighbor offsets, row-major indexing), extended to a 3rd (layer) axis
// and from an immutable int grid to a grid of mutable routing-state
// cells.
package grid

import (
	"errors"
	"math"

	"github.com/katalvlaran/pcbroute/geom"
	"github.com/katalvlaran/pcbroute/model"
	"github.com/katalvlaran/pcbroute/stackup"
)

var (
	ErrNonPositiveResolution = errors.New("grid: resolution must be positive")
	ErrNonPositiveBoardSize  = errors.New("grid: board width/height must be positive")
	ErrNoLayers              = errors.New("grid: layer stack must have at least one routable layer")
	ErrOutOfBounds           = errors.New("grid: column/row/layer out of bounds")
)

// Cell is one grid location's routing state.
type Cell struct {
	Blocked     bool
	IsObstacle  bool
	IsZone      bool
	NetID       model.NetID
	UsageCount  int
	HistoryCost float64
}

// Config parameterizes grid construction.
type Config struct {
	BoardWidthMM  float64
	BoardHeightMM float64
	Resolution    float64 // mm per cell, R
	Origin        geom.Point
	Rules         model.DesignRules
	Stack         *stackup.LayerStack
}

// RoutingGrid is the 3-D cell grid the router operates on.
type RoutingGrid struct {
	cfg    Config
	layers []string // routable copper layer names, index == layer index
	cols   int
	rows   int
	cells  [][][]Cell // [layer][row][col]
}

// New allocates a RoutingGrid per cfg: [layers][ceil(h/R)][ceil(w/R)]
// cells, all initially empty.
func New(cfg Config) (*RoutingGrid, error) {
	if cfg.Resolution <= 0 {
		return nil, ErrNonPositiveResolution
	}
	if cfg.BoardWidthMM <= 0 || cfg.BoardHeightMM <= 0 {
		return nil, ErrNonPositiveBoardSize
	}
	if cfg.Stack == nil {
		return nil, ErrNoLayers
	}
	layers := cfg.Stack.RoutableCopperLayers()
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}

	cols := int(math.Ceil(cfg.BoardWidthMM / cfg.Resolution))
	rows := int(math.Ceil(cfg.BoardHeightMM / cfg.Resolution))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][][]Cell, len(layers))
	for l := range cells {
		cells[l] = make([][]Cell, rows)
		for r := range cells[l] {
			cells[l][r] = make([]Cell, cols)
		}
	}

	return &RoutingGrid{cfg: cfg, layers: layers, cols: cols, rows: rows, cells: cells}, nil
}

// Cols returns the number of columns.
func (g *RoutingGrid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *RoutingGrid) Rows() int { return g.rows }

// Layers returns the routable copper layer names, index == layer index.
func (g *RoutingGrid) Layers() []string { return g.layers }

// LayerIndex returns the index of layerName, or (-1, false).
func (g *RoutingGrid) LayerIndex(layerName string) (int, bool) {
	for i, l := range g.layers {
		if l == layerName {
			return i, true
		}
	}

	return -1, false
}

func (g *RoutingGrid) inBounds(col, row, layer int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows && layer >= 0 && layer < len(g.layers)
}

// InBounds reports whether (col, row, layer) addresses an allocated cell.
func (g *RoutingGrid) InBounds(col, row, layer int) bool {
	return g.inBounds(col, row, layer)
}

// Resolution returns the grid's cell size R in millimeters.
func (g *RoutingGrid) Resolution() float64 { return g.cfg.Resolution }

// CellAt returns the cell at (col, row, layer).
func (g *RoutingGrid) CellAt(col, row, layer int) (Cell, error) {
	if !g.inBounds(col, row, layer) {
		return Cell{}, ErrOutOfBounds
	}

	return g.cells[layer][row][col], nil
}

// ToCell converts a board-plane point into (col, row) on this grid.
func (g *RoutingGrid) ToCell(p geom.Point) (col, row int) {
	rel := p.Sub(g.cfg.Origin)
	col = int(math.Floor(rel.X / g.cfg.Resolution))
	row = int(math.Floor(rel.Y / g.cfg.Resolution))

	return col, row
}

// ToPoint returns the board-plane center of cell (col, row).
func (g *RoutingGrid) ToPoint(col, row int) geom.Point {
	return geom.Point{
		X: g.cfg.Origin.X + (float64(col)+0.5)*g.cfg.Resolution,
		Y: g.cfg.Origin.Y + (float64(row)+0.5)*g.cfg.Resolution,
	}
}

// rectCells returns every (col, row) pair whose cell center falls inside
// r, clamped to grid bounds.
func (g *RoutingGrid) rectCells(r geom.Rect) [][2]int {
	c0, r0 := g.ToCell(r.Min)
	c1, r1 := g.ToCell(r.Max)
	if c0 > c1 {
		c0, c1 = c1, c0
	}
	if r0 > r1 {
		r0, r1 = r1, r0
	}

	out := make([][2]int, 0, (c1-c0+1)*(r1-r0+1))
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
				continue
			}
			out = append(out, [2]int{col, row})
		}
	}

	return out
}

// AddPad marks the pad's bounding box, expanded by the net class's trace
// clearance, as blocked and carrying the pad's net id. Through-hole pads
// are marked on every copper layer; SMD pads only on the layers they
// appear on.
func (g *RoutingGrid) AddPad(p model.Pad) {
	clearance := g.cfg.Rules.TraceClearance
	box := geom.RectFromCenter(p.Center, p.Width, p.Height).Expand(clearance)
	cells := g.rectCells(box)

	layerIdxs := make([]int, 0, len(p.Layers))
	if p.IsThroughHole {
		for i := range g.layers {
			layerIdxs = append(layerIdxs, i)
		}
	} else {
		for _, ln := range p.Layers {
			if idx, ok := g.LayerIndex(ln); ok {
				layerIdxs = append(layerIdxs, idx)
			}
		}
	}

	for _, li := range layerIdxs {
		for _, cr := range cells {
			c := &g.cells[li][cr[1]][cr[0]]
			c.Blocked = true
			c.IsObstacle = true
			c.NetID = p.NetID
		}
	}
}

// AddObstacle marks rect as a blocked keepout (net=0) on layerName.
func (g *RoutingGrid) AddObstacle(rect geom.Rect, layerName string) error {
	li, ok := g.LayerIndex(layerName)
	if !ok {
		return ErrOutOfBounds
	}

	for _, cr := range g.rectCells(rect) {
		c := &g.cells[li][cr[1]][cr[0]]
		c.Blocked = true
		c.IsObstacle = true
		c.NetID = model.UnconnectedNet
	}

	return nil
}

// AddZoneCells marks every cell in cells as belonging to zone z on
// layerName: is_zone is set, carrying the zone's net id, but the cell is
// not blocked for same-net routes (only for other-net routes, enforced by
// the pathfinder's transition rules).
func (g *RoutingGrid) AddZoneCells(z model.Zone, cells [][2]int, layerName string) error {
	li, ok := g.LayerIndex(layerName)
	if !ok {
		return ErrOutOfBounds
	}

	for _, cr := range cells {
		col, row := cr[0], cr[1]
		if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
			continue
		}
		c := &g.cells[li][row][col]
		c.IsZone = true
		c.NetID = z.NetID
	}

	return nil
}

// ZoneCellsForPolygon rasterizes a zone polygon (board-plane) into the set
// of (col, row) cells whose center lies inside it — the cell set callers
// typically pass to AddZoneCells.
func (g *RoutingGrid) ZoneCellsForPolygon(poly geom.Polygon) [][2]int {
	box := poly.BoundingBox()
	out := make([][2]int, 0)
	for _, cr := range g.rectCells(box) {
		p := g.ToPoint(cr[0], cr[1])
		if poly.Contains(p) {
			out = append(out, cr)
		}
	}

	return out
}

// baseCellCost is the fixed per-cell traversal cost added regardless of
// congestion state.
const baseCellCost = 1.0

// GetCellCost returns the pathfinder's per-cell cost: base + present-mode
// overuse surcharge + accumulated history cost. presentFactor is 0 in
// non-negotiated mode.
func (g *RoutingGrid) GetCellCost(col, row, layer int, presentFactor float64) (float64, error) {
	c, err := g.CellAt(col, row, layer)
	if err != nil {
		return 0, err
	}

	overuse := 0
	if c.UsageCount > 0 {
		overuse = c.UsageCount - 1
	}

	return baseCellCost + presentFactor*float64(overuse) + c.HistoryCost, nil
}

// congestionBlockSize is k in the coarse k x k congestion-sampling block.
const congestionBlockSize = 8

// GetCongestion returns the fraction (0..1) of cells within the
// congestionBlockSize x congestionBlockSize block containing (col, row)
// that are over capacity (usage_count > 1) on layer.
func (g *RoutingGrid) GetCongestion(col, row, layer int) (float64, error) {
	if !g.inBounds(col, row, layer) {
		return 0, ErrOutOfBounds
	}

	c0 := (col / congestionBlockSize) * congestionBlockSize
	r0 := (row / congestionBlockSize) * congestionBlockSize
	c1 := min(c0+congestionBlockSize, g.cols)
	r1 := min(r0+congestionBlockSize, g.rows)

	total, over := 0, 0
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			total++
			if g.cells[layer][r][c].UsageCount > routeCapacity {
				over++
			}
		}
	}
	if total == 0 {
		return 0, nil
	}

	return float64(over) / float64(total), nil
}

// routeCapacity is the per-cell usage capacity for negotiated routing.
const routeCapacity = 1

// Overflow returns the total overuse across the whole grid: the sum, over
// every cell whose usage_count exceeds capacity, of (usage_count -
// capacity).
func (g *RoutingGrid) Overflow() int {
	total := 0
	for l := range g.cells {
		for r := range g.cells[l] {
			for c := range g.cells[l][r] {
				if u := g.cells[l][r][c].UsageCount; u > routeCapacity {
					total += u - routeCapacity
				}
			}
		}
	}

	return total
}
