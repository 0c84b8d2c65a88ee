package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/model"
)

func TestParseSignalRecognizesAllNotations(t *testing.T) {
	cases := []struct {
		name     string
		busName  string
		index    int
		notation Notation
	}{
		{"DATA[7]", "DATA", 7, NotationBracket},
		{"ADDR_15", "ADDR", 15, NotationUnderscore},
		{"DATA7", "DATA", 7, NotationNumeric},
	}
	for _, c := range cases {
		busName, index, notation, ok := parseSignal(c.name)
		require.True(t, ok, c.name)
		assert.Equal(t, c.busName, busName)
		assert.Equal(t, c.index, index)
		assert.Equal(t, c.notation, notation)
	}
}

func TestParseSignalRejectsNonBusNames(t *testing.T) {
	for _, name := range []string{"GND", "VCC_3V3", "USB_D+"} {
		_, _, _, ok := parseSignal(name)
		assert.False(t, ok, name)
	}
}

func TestDetectSignalsRequiresMinimumWidth(t *testing.T) {
	netNames := map[model.NetID]string{
		1: "DATA[0]", 2: "DATA[1]", 3: "GND",
	}
	signals := DetectSignals(netNames, 3)
	assert.Empty(t, signals) // only 2 DATA members, below min width 3

	signals = DetectSignals(netNames, 2)
	assert.Len(t, signals, 2)
}

func TestGroupSignalsSortsByIndex(t *testing.T) {
	netNames := map[model.NetID]string{
		1: "DATA[2]", 2: "DATA[0]", 3: "DATA[1]",
	}
	signals := DetectSignals(netNames, 2)
	groups := GroupSignals(signals, 2)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "DATA", g.Name)
	require.Len(t, g.Signals, 3)
	assert.Equal(t, 0, g.Signals[0].Index)
	assert.Equal(t, 1, g.Signals[1].Index)
	assert.Equal(t, 2, g.Signals[2].Index)
	assert.True(t, g.IsComplete())
}

func TestGroupIsCompleteDetectsGaps(t *testing.T) {
	netNames := map[model.NetID]string{
		1: "DATA[0]", 2: "DATA[2]",
	}
	signals := DetectSignals(netNames, 2)
	groups := GroupSignals(signals, 2)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].IsComplete())
}

func TestAnalyzeReportsNonBusNets(t *testing.T) {
	netNames := map[model.NetID]string{
		1: "DATA[0]", 2: "DATA[1]", 3: "GND", 4: "VCC",
	}
	summary := Analyze(netNames, 2)
	require.Len(t, summary.Groups, 1)
	assert.ElementsMatch(t, []model.NetID{3, 4}, summary.NonBusNets)
}
