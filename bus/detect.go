// Package bus detects and coordinates the routing of bus signals: nets
// whose names share a base and an incrementing bit index (DATA[7],
// DATA_7, DATA7), parsed with the three naming-convention regexes the
// original router's detector used, and routed together in bit order.
//
// detect.go is grounded on bfs/dfs's traversal-ordering convention (a
// deterministic visiting order over a discovered structure) applied to bus
// bit-index ordering instead of graph depth/breadth order.
package bus

import (
	"regexp"
	"sort"

	"github.com/katalvlaran/pcbroute/model"
)

// Notation records which naming convention a signal was detected under.
type Notation string

const (
	NotationBracket    Notation = "bracket"
	NotationUnderscore Notation = "underscore"
	NotationNumeric    Notation = "numeric"
)

var (
	bracketPattern    = regexp.MustCompile(`^(.+)\[(\d+)\]$`)
	underscorePattern = regexp.MustCompile(`^(.+)_(\d+)$`)
	numericPattern    = regexp.MustCompile(`^([A-Za-z][A-Za-z_]*[A-Za-z_])(\d+)$`)
)

// Signal is one net identified as a member of a bus.
type Signal struct {
	NetName  string
	NetID    model.NetID
	BusName  string
	Index    int
	Notation Notation
}

// Group is a set of bus signals sharing a base name, sorted by bit index.
type Group struct {
	Name    string
	Signals []Signal
}

// Width is the number of signals in the group.
func (g Group) Width() int { return len(g.Signals) }

// MinIndex is the lowest bit index present, or 0 if empty.
func (g Group) MinIndex() int {
	if len(g.Signals) == 0 {
		return 0
	}
	min := g.Signals[0].Index
	for _, s := range g.Signals[1:] {
		if s.Index < min {
			min = s.Index
		}
	}

	return min
}

// MaxIndex is the highest bit index present, or 0 if empty.
func (g Group) MaxIndex() int {
	max := 0
	for i, s := range g.Signals {
		if i == 0 || s.Index > max {
			max = s.Index
		}
	}

	return max
}

// IsComplete reports whether every index from MinIndex to MaxIndex is
// present, with no gaps.
func (g Group) IsComplete() bool {
	if len(g.Signals) == 0 {
		return false
	}
	seen := make(map[int]bool, len(g.Signals))
	for _, s := range g.Signals {
		seen[s.Index] = true
	}
	for i := g.MinIndex(); i <= g.MaxIndex(); i++ {
		if !seen[i] {
			return false
		}
	}

	return true
}

// NetIDs returns the group's net IDs in bit order, LSB first.
func (g Group) NetIDs() []model.NetID {
	out := make([]model.NetID, len(g.Signals))
	for i, s := range g.Signals {
		out[i] = s.NetID
	}

	return out
}

// parseSignal extracts (busName, index, notation) from a net name, trying
// bracket notation first (most explicit), then underscore, then bare
// numeric suffix (least specific, most prone to false positives).
func parseSignal(netName string) (busName string, index int, notation Notation, ok bool) {
	if m := bracketPattern.FindStringSubmatch(netName); m != nil {
		idx := atoi(m[2])

		return m[1], idx, NotationBracket, true
	}
	if m := underscorePattern.FindStringSubmatch(netName); m != nil {
		idx := atoi(m[2])

		return m[1], idx, NotationUnderscore, true
	}
	if m := numericPattern.FindStringSubmatch(netName); m != nil {
		idx := atoi(m[2])

		return m[1], idx, NotationNumeric, true
	}

	return "", 0, "", false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}

	return n
}

// DetectSignals parses every net name in netNames and returns the signals
// whose bus has at least minBusWidth members.
func DetectSignals(netNames map[model.NetID]string, minBusWidth int) []Signal {
	var potential []Signal
	counts := make(map[string]int)

	// Iterate net IDs in sorted order so output is deterministic across
	// runs regardless of map iteration order.
	ids := make([]model.NetID, 0, len(netNames))
	for id := range netNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name := netNames[id]
		busName, index, notation, ok := parseSignal(name)
		if !ok {
			continue
		}
		potential = append(potential, Signal{
			NetName: name, NetID: id, BusName: busName, Index: index, Notation: notation,
		})
		counts[busName]++
	}

	out := make([]Signal, 0, len(potential))
	for _, s := range potential {
		if counts[s.BusName] >= minBusWidth {
			out = append(out, s)
		}
	}

	return out
}

// GroupSignals groups signals by bus name into Groups meeting
// minBusWidth, sorted by bus name with signals sorted by bit index.
func GroupSignals(signals []Signal, minBusWidth int) []Group {
	byName := make(map[string][]Signal)
	for _, s := range signals {
		byName[s.BusName] = append(byName[s.BusName], s)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Group, 0, len(names))
	for _, name := range names {
		sigs := byName[name]
		if len(sigs) < minBusWidth {
			continue
		}
		sort.Slice(sigs, func(i, j int) bool { return sigs[i].Index < sigs[j].Index })
		out = append(out, Group{Name: name, Signals: sigs})
	}

	return out
}

// Summary reports detected buses and the nets left over.
type Summary struct {
	TotalSignals int
	Groups       []Group
	NonBusNets   []model.NetID
}

// Analyze detects and groups buses from netNames, reporting a summary
// including which nets were not claimed by any bus.
func Analyze(netNames map[model.NetID]string, minBusWidth int) Summary {
	signals := DetectSignals(netNames, minBusWidth)
	groups := GroupSignals(signals, minBusWidth)

	claimed := make(map[model.NetID]bool, len(signals))
	for _, s := range signals {
		claimed[s.NetID] = true
	}

	var nonBus []model.NetID
	for id := range netNames {
		if !claimed[id] {
			nonBus = append(nonBus, id)
		}
	}
	sort.Slice(nonBus, func(i, j int) bool { return nonBus[i] < nonBus[j] })

	return Summary{TotalSignals: len(signals), Groups: groups, NonBusNets: nonBus}
}
