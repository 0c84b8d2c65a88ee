// Package diffpair detects differential pairs from net naming conventions
// (USB_D+/USB_D-, HDMI_D0_P/HDMI_D0_N, CLK_POS/CLK_NEG), classifies known
// protocols by name to select preset design rules, and coordinates routing
// the P and N nets together with a length-mismatch check.
//
// detect.go is grounded on bus/detect.go's regex-cascade parsing shape
// (try the most explicit notation first, fall back to looser ones),
// adapted from bit-index suffixes to polarity suffixes.
package diffpair

import (
	"regexp"
	"sort"
	"strings"

	"github.com/katalvlaran/pcbroute/model"
)

// Notation records which polarity-naming convention a signal was detected
// under.
type Notation string

const (
	NotationPlusMinus Notation = "plus_minus"
	NotationPNSuffix  Notation = "pn_suffix"
	NotationPosNeg    Notation = "pos_neg"
)

var (
	plusMinusPattern = regexp.MustCompile(`^(.+)([+-])$`)
	pnSuffixPattern  = regexp.MustCompile(`^(.+)_([PN])$`)
	posNegPattern    = regexp.MustCompile(`^(.+)_(POS|NEG)$`)
)

// Signal is one net identified as one side of a differential pair.
type Signal struct {
	NetName  string
	NetID    model.NetID
	BaseName string
	Polarity string // "P" or "N"
	Notation Notation
}

func parseSignal(netName string) (baseName, polarity string, notation Notation, ok bool) {
	if m := plusMinusPattern.FindStringSubmatch(netName); m != nil {
		pol := "P"
		if m[2] == "-" {
			pol = "N"
		}

		return m[1], pol, NotationPlusMinus, true
	}
	if m := pnSuffixPattern.FindStringSubmatch(netName); m != nil {
		return m[1], m[2], NotationPNSuffix, true
	}
	if m := posNegPattern.FindStringSubmatch(netName); m != nil {
		pol := "P"
		if m[2] == "NEG" {
			pol = "N"
		}

		return m[1], pol, NotationPosNeg, true
	}

	return "", "", "", false
}

// Type is a known differential-pair protocol with a preset rule set.
type Type string

const (
	TypeUSB2     Type = "usb2"
	TypeUSB3     Type = "usb3"
	TypeEthernet Type = "ethernet"
	TypeHDMI     Type = "hdmi"
	TypeLVDS     Type = "lvds"
	TypeCustom   Type = "custom"
)

// classifyKeywords maps a case-insensitive substring of a pair's base name
// to the protocol type it implies; checked in order, first match wins.
var classifyKeywords = []struct {
	substr string
	typ    Type
}{
	{"usb3", TypeUSB3},
	{"usb2", TypeUSB2},
	{"usb", TypeUSB2},
	{"eth", TypeEthernet},
	{"hdmi", TypeHDMI},
	{"lvds", TypeLVDS},
}

// ClassifyProtocol guesses a pair's protocol from its base name, defaulting
// to TypeCustom when no keyword matches.
func ClassifyProtocol(baseName string) Type {
	lower := strings.ToLower(baseName)
	for _, k := range classifyKeywords {
		if strings.Contains(lower, k.substr) {
			return k.typ
		}
	}

	return TypeCustom
}

// Rules are the design rules governing one differential pair.
type Rules struct {
	SpacingMM        float64
	MaxLengthDeltaMM float64
	TraceWidthMM     float64
	ImpedanceOhms    float64
}

// RulesForType returns the preset rules for a known protocol type.
func RulesForType(t Type) Rules {
	switch t {
	case TypeUSB2:
		return Rules{SpacingMM: 0.2, MaxLengthDeltaMM: 2.5, TraceWidthMM: 0.2, ImpedanceOhms: 90.0}
	case TypeUSB3:
		return Rules{SpacingMM: 0.15, MaxLengthDeltaMM: 0.5, TraceWidthMM: 0.2, ImpedanceOhms: 90.0}
	case TypeEthernet:
		return Rules{SpacingMM: 0.2, MaxLengthDeltaMM: 2.0, TraceWidthMM: 0.2, ImpedanceOhms: 100.0}
	case TypeHDMI:
		return Rules{SpacingMM: 0.15, MaxLengthDeltaMM: 0.5, TraceWidthMM: 0.2, ImpedanceOhms: 100.0}
	case TypeLVDS:
		return Rules{SpacingMM: 0.15, MaxLengthDeltaMM: 0.5, TraceWidthMM: 0.15, ImpedanceOhms: 100.0}
	default:
		return Rules{SpacingMM: 0.2, MaxLengthDeltaMM: 1.0, TraceWidthMM: 0.2, ImpedanceOhms: 90.0}
	}
}

// Pair is a detected P/N differential pair.
type Pair struct {
	Name          string
	Positive      Signal
	Negative      Signal
	ProtocolType  Type
	Rules         Rules
	RoutedLengthP float64
	RoutedLengthN float64
}

// LengthDelta is the absolute difference between the pair's routed P and N
// lengths.
func (p Pair) LengthDelta() float64 {
	d := p.RoutedLengthP - p.RoutedLengthN
	if d < 0 {
		d = -d
	}

	return d
}

// IsLengthMatched reports whether LengthDelta is within Rules.MaxLengthDeltaMM.
func (p Pair) IsLengthMatched() bool {
	return p.LengthDelta() <= p.Rules.MaxLengthDeltaMM
}

// NetIDs returns (positive, negative) net IDs.
func (p Pair) NetIDs() (model.NetID, model.NetID) {
	return p.Positive.NetID, p.Negative.NetID
}

// DetectPairs parses every net name in netNames, pairing up P/N signals
// that share a base name, in deterministic (sorted base-name) order.
func DetectPairs(netNames map[model.NetID]string) []Pair {
	type half struct {
		sig Signal
		has bool
	}
	bases := make(map[string]struct{ p, n half })

	ids := make([]model.NetID, 0, len(netNames))
	for id := range netNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name := netNames[id]
		base, polarity, notation, ok := parseSignal(name)
		if !ok {
			continue
		}
		sig := Signal{NetName: name, NetID: id, BaseName: base, Polarity: polarity, Notation: notation}
		entry := bases[base]
		if polarity == "P" {
			entry.p = half{sig: sig, has: true}
		} else {
			entry.n = half{sig: sig, has: true}
		}
		bases[base] = entry
	}

	names := make([]string, 0, len(bases))
	for name := range bases {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Pair, 0, len(names))
	for _, name := range names {
		entry := bases[name]
		if !entry.p.has || !entry.n.has {
			continue
		}
		typ := ClassifyProtocol(name)
		out = append(out, Pair{
			Name:         name,
			Positive:     entry.p.sig,
			Negative:     entry.n.sig,
			ProtocolType: typ,
			Rules:        RulesForType(typ),
		})
	}

	return out
}
