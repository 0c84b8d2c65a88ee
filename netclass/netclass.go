// Package netclass maps net names to routing classes by pattern and looks
// up each class's routing priority (lower integer routes first).
//
// Grounded on the net-class/priority lookup netrouter.PriorityOrder and
// montecarlo.Config already take as raw classOf/classPriority parameters;
// this package gives that lookup a first-class, extensible home so callers
// needn't hand-write the matching function themselves.
package netclass

import (
	"regexp"
	"sort"
)

// Rule matches net names against Pattern (a regular expression); the first
// matching rule in a Table's ordered list determines a net's class.
type Rule struct {
	Class   string
	Pattern *regexp.Regexp
}

// Table is an ordered list of name-pattern rules plus the priority of each
// class they can produce.
type Table struct {
	rules      []Rule
	priorities map[string]int
	fallback   string
}

// NewTable builds a Table from rules (checked in order, first match wins)
// and a class->priority map. fallbackClass is used for names matching no
// rule.
func NewTable(rules []Rule, priorities map[string]int, fallbackClass string) *Table {
	return &Table{rules: rules, priorities: priorities, fallback: fallbackClass}
}

// ClassOf returns the class of netName: the class of the first rule whose
// pattern matches, or the table's fallback class.
func (t *Table) ClassOf(netName string) string {
	for _, r := range t.rules {
		if r.Pattern.MatchString(netName) {
			return r.Class
		}
	}

	return t.fallback
}

// PriorityOf returns the routing priority of class, or the lowest priority
// (math.MaxInt, routed last) if class has no entry.
func (t *Table) PriorityOf(class string) int {
	if p, ok := t.priorities[class]; ok {
		return p
	}

	return int(^uint(0) >> 1)
}

// Priorities exposes the class->priority map backing the table, for
// callers (e.g. montecarlo.Config.ClassPriority) that need it directly.
func (t *Table) Priorities() map[string]int {
	return t.priorities
}

// ClassNames returns every class name known to the table (from rules and
// priorities), sorted.
func (t *Table) ClassNames() []string {
	seen := make(map[string]bool)
	for _, r := range t.rules {
		seen[r.Class] = true
	}
	for c := range t.priorities {
		seen[c] = true
	}
	seen[t.fallback] = true

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)

	return out
}

const (
	ClassPower    = "power"
	ClassGround   = "ground"
	ClassClock    = "clock"
	ClassDiffPair = "diffpair"
	ClassSignal   = "signal"
)

// mustCompile panics on an invalid literal regex, which would be a
// programming error in this file, never in caller input.
func mustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

// DefaultTable returns the standard power/ground/clock/diffpair/signal
// classification: ground and power rails matched by common net-name
// prefixes, clock nets by a CLK substring, differential pairs by polarity
// suffix, everything else falling back to ClassSignal.
func DefaultTable() *Table {
	rules := []Rule{
		{Class: ClassGround, Pattern: mustCompile(`(?i)^(GND|AGND|DGND|PGND)([_0-9].*)?$`)},
		{Class: ClassPower, Pattern: mustCompile(`(?i)^(V[A-Z0-9_]*|\+?\d+V\d*)$`)},
		{Class: ClassClock, Pattern: mustCompile(`(?i).*CLK.*`)},
		{Class: ClassDiffPair, Pattern: mustCompile(`(?i).*(_P|_N|_POS|_NEG|[+-])$`)},
	}
	priorities := map[string]int{
		ClassGround:   0,
		ClassPower:    1,
		ClassClock:    2,
		ClassDiffPair: 3,
		ClassSignal:   10,
	}

	return NewTable(rules, priorities, ClassSignal)
}
