// Package pathfinder implements single-connection A* routing over a
// grid.RoutingGrid: finding the least-cost path between two pad regions on
// a 3-D (column, row, layer) grid, with via transitions, a turn penalty,
// and a same-net-zone cost discount.
//
// Grounded on dijkstra's lazy-decrease-key min-heap (container/heap,
// duplicate pushes ignored on pop via a visited set) and its nodeItem/nodePQ
// shape, generalized from a 2-D weighted graph search to a 3-D grid search
// with an admissible heuristic (this package's state space has implicit
// edges, not an explicit core.Graph).
package pathfinder

import (
	"container/heap"
	"errors"
	"math"

	"github.com/katalvlaran/pcbroute/grid"
	"github.com/katalvlaran/pcbroute/model"
)

var (
	ErrNoStartCell = errors.New("pathfinder: start cell out of bounds")
	ErrEmptyGoal   = errors.New("pathfinder: goal cell set is empty")
)

// direction enumerates the 8 planar headings plus "no direction yet" and
// "arrived via a via transition" — the turn penalty only compares between
// two planar directions.
type direction int8

const (
	dirNone direction = iota
	dirN
	dirNE
	dirE
	dirSE
	dirS
	dirSW
	dirW
	dirNW
	dirVia
)

// planarOffsets lists the 8 neighbor offsets in (dCol, dRow) order, paired
// with their direction tag and whether the move is diagonal.
var planarOffsets = []struct {
	d      direction
	dc, dr int
}{
	{dirN, 0, -1},
	{dirNE, 1, -1},
	{dirE, 1, 0},
	{dirSE, 1, 1},
	{dirS, 0, 1},
	{dirSW, -1, 1},
	{dirW, -1, 0},
	{dirNW, -1, -1},
}

const sqrt2 = math.Sqrt2

// Config parameterizes one pathfinder search.
type Config struct {
	Grid             *grid.RoutingGrid
	NetID            model.NetID
	TraceWidthFactor float64 // added per cell entered, proportional to trace width
	PresentFactor    float64 // 0 in non-negotiated mode
	TurnPenalty      float64
	ZoneDiscount     float64 // multiplier < 1 applied to same-net zone cells
}

// Pathfinder runs A* searches over a fixed grid/config.
type Pathfinder struct {
	cfg Config
}

// New constructs a Pathfinder over cfg. ZoneDiscount defaults to 0.5 and
// TurnPenalty to 0.1*Grid.Resolution() if left zero.
func New(cfg Config) *Pathfinder {
	if cfg.ZoneDiscount <= 0 {
		cfg.ZoneDiscount = 0.5
	}
	if cfg.TurnPenalty <= 0 && cfg.Grid != nil {
		cfg.TurnPenalty = 0.1 * cfg.Grid.Resolution()
	}

	return &Pathfinder{cfg: cfg}
}

// Cell3 addresses one (column, row, layer) grid location.
type Cell3 struct {
	Col, Row, Layer int
}

// Step is one hop of a found path: either a planar move on Layer, or a via
// transition from Layer to Layer on the same (Col, Row).
type Step struct {
	From, To Cell3
	IsVia    bool
}

// Path is an ordered sequence of hops from start to goal.
type Path struct {
	Steps  []Step
	CostMM float64
}

type searchNode struct {
	cell Cell3
	dir  direction
}

type heapItem struct {
	node searchNode
	g    float64
	f    float64
}

type itemPQ []*heapItem

func (pq itemPQ) Len() int            { return len(pq) }
func (pq itemPQ) Less(i, j int) bool  { return pq[i].f < pq[j].f }
func (pq itemPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *itemPQ) Push(x interface{}) { *pq = append(*pq, x.(*heapItem)) }
func (pq *itemPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}

// Find searches from start to any cell in goalCells on goalLayer. Returns
// the least-cost path and true if one was found, or false if the open set
// emptied without reaching the goal.
func (pf *Pathfinder) Find(start Cell3, goalCells [][2]int, goalLayer int) (Path, bool, error) {
	g := pf.cfg.Grid
	if !g.InBounds(start.Col, start.Row, start.Layer) {
		return Path{}, false, ErrNoStartCell
	}
	if len(goalCells) == 0 {
		return Path{}, false, ErrEmptyGoal
	}

	goalSet := make(map[[2]int]bool, len(goalCells))
	for _, c := range goalCells {
		goalSet[c] = true
	}
	isGoal := func(c Cell3) bool { return c.Layer == goalLayer && goalSet[[2]int{c.Col, c.Row}] }

	// Heuristic lower bound: minimum cardinal-move distance to the nearest
	// goal cell (Manhattan distance in cells, scaled by the planar cell
	// cost R — never more than the true cheapest move), plus one via's
	// worth of cost if the current layer differs from the goal layer. A
	// same-net zone cell costs ZoneDiscount times a normal move, so the sum
	// is scaled by ZoneDiscount when that is below 1. Both terms are then
	// true lower bounds, so the heuristic stays admissible.
	heuristic := func(c Cell3) float64 {
		best := math.MaxFloat64
		for gc := range goalSet {
			dc := math.Abs(float64(c.Col - gc[0]))
			dr := math.Abs(float64(c.Row - gc[1]))
			manhattan := (dc + dr) * g.Resolution()
			if manhattan < best {
				best = manhattan
			}
		}
		if best == math.MaxFloat64 {
			best = 0
		}
		if c.Layer != goalLayer {
			best += grid.ViaCost(g.Resolution())
		}
		if d := pf.cfg.ZoneDiscount; d < 1 {
			best *= d
		}

		return best
	}

	type key struct {
		c   Cell3
		dir direction
	}
	best := make(map[key]float64)
	cameFrom := make(map[key]key)
	hasCameFrom := make(map[key]bool)

	startKey := key{c: start, dir: dirNone}
	best[startKey] = 0

	pq := make(itemPQ, 0, 64)
	heap.Push(&pq, &heapItem{node: searchNode{cell: start, dir: dirNone}, g: 0, f: heuristic(start)})

	closed := make(map[key]bool)

	var goalKey key
	found := false

	for pq.Len() > 0 {
		it := heap.Pop(&pq).(*heapItem)
		k := key{c: it.node.cell, dir: it.node.dir}
		if closed[k] {
			continue
		}
		if g, ok := best[k]; ok && it.g > g+1e-9 {
			continue
		}
		closed[k] = true

		if isGoal(it.node.cell) {
			goalKey = k
			found = true

			break
		}

		for _, nk := range pf.neighbors(it.node) {
			moveCost, ok := pf.transitionCost(it.node, nk)
			if !ok {
				continue
			}
			nextG := it.g + moveCost
			nkKey := key{c: nk.cell, dir: nk.dir}
			if existing, ok := best[nkKey]; ok && nextG >= existing-1e-9 {
				continue
			}
			best[nkKey] = nextG
			cameFrom[nkKey] = k
			hasCameFrom[nkKey] = true
			heap.Push(&pq, &heapItem{node: nk, g: nextG, f: nextG + heuristic(nk.cell)})
		}
	}

	if !found {
		return Path{}, false, nil
	}

	// Reconstruct the path by walking cameFrom back to the start.
	var rev []key
	cur := goalKey
	for {
		rev = append(rev, cur)
		if cur.c == start && cur.dir == dirNone {
			break
		}
		if !hasCameFrom[cur] {
			break
		}
		cur = cameFrom[cur]
	}

	steps := make([]Step, 0, len(rev)-1)
	for i := len(rev) - 1; i > 0; i-- {
		from := rev[i].c
		to := rev[i-1].c
		steps = append(steps, Step{From: from, To: to, IsVia: from.Layer != to.Layer})
	}

	return Path{Steps: steps, CostMM: best[goalKey]}, true, nil
}

func (pf *Pathfinder) neighbors(n searchNode) []searchNode {
	out := make([]searchNode, 0, len(planarOffsets)+len(pf.cfg.Grid.Layers())-1)
	for _, off := range planarOffsets {
		out = append(out, searchNode{
			cell: Cell3{Col: n.cell.Col + off.dc, Row: n.cell.Row + off.dr, Layer: n.cell.Layer},
			dir:  off.d,
		})
	}
	for l := range pf.cfg.Grid.Layers() {
		if l == n.cell.Layer {
			continue
		}
		out = append(out, searchNode{
			cell: Cell3{Col: n.cell.Col, Row: n.cell.Row, Layer: l},
			dir:  dirVia,
		})
	}

	return out
}

// transitionCost returns the cost of moving from n.cell to next.cell, and
// whether the move is legal (in bounds, not blocked by a different net).
func (pf *Pathfinder) transitionCost(n, next searchNode) (float64, bool) {
	g := pf.cfg.Grid
	if !g.InBounds(next.cell.Col, next.cell.Row, next.cell.Layer) {
		return 0, false
	}

	c, err := g.CellAt(next.cell.Col, next.cell.Row, next.cell.Layer)
	if err != nil {
		return 0, false
	}
	if c.Blocked && c.NetID != pf.cfg.NetID {
		return 0, false
	}

	isVia := next.cell.Layer != n.cell.Layer
	var moveCost float64
	if isVia {
		moveCost = grid.ViaCost(g.Resolution())
	} else {
		dc := next.cell.Col - n.cell.Col
		dr := next.cell.Row - n.cell.Row
		if dc != 0 && dr != 0 {
			moveCost = g.Resolution() * sqrt2
		} else {
			moveCost = g.Resolution()
		}
	}

	destCost, err := g.GetCellCost(next.cell.Col, next.cell.Row, next.cell.Layer, pf.cfg.PresentFactor)
	if err != nil {
		return 0, false
	}

	totalCost := moveCost + destCost + pf.cfg.TraceWidthFactor
	if c.IsZone && c.NetID == pf.cfg.NetID {
		totalCost *= pf.cfg.ZoneDiscount
	}
	if !isVia && n.dir != dirNone && n.dir != dirVia && n.dir != next.dir {
		totalCost += pf.cfg.TurnPenalty
	}

	return totalCost, true
}
