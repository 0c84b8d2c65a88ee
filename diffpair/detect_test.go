package diffpair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pcbroute/model"
)

func TestParseSignalRecognizesAllNotations(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		polarity string
		notation Notation
	}{
		{"USB_D+", "USB_D", "P", NotationPlusMinus},
		{"USB_D-", "USB_D", "N", NotationPlusMinus},
		{"HDMI_D0_P", "HDMI_D0", "P", NotationPNSuffix},
		{"HDMI_D0_N", "HDMI_D0", "N", NotationPNSuffix},
		{"CLK_POS", "CLK", "P", NotationPosNeg},
		{"CLK_NEG", "CLK", "N", NotationPosNeg},
	}
	for _, c := range cases {
		base, polarity, notation, ok := parseSignal(c.name)
		require.True(t, ok, c.name)
		assert.Equal(t, c.base, base)
		assert.Equal(t, c.polarity, polarity)
		assert.Equal(t, c.notation, notation)
	}
}

func TestParseSignalRejectsNonPairNames(t *testing.T) {
	for _, name := range []string{"GND", "VCC_3V3", "DATA[0]"} {
		_, _, _, ok := parseSignal(name)
		assert.False(t, ok, name)
	}
}

func TestClassifyProtocolMatchesKeywords(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
	}{
		{"USB3_SS", TypeUSB3},
		{"USB_D", TypeUSB2},
		{"ETH_MDI", TypeEthernet},
		{"HDMI_D0", TypeHDMI},
		{"LVDS_CH0", TypeLVDS},
		{"SPI_CLK", TypeCustom},
	}
	for _, c := range cases {
		assert.Equal(t, c.typ, ClassifyProtocol(c.name), c.name)
	}
}

func TestRulesForTypeMatchesPresets(t *testing.T) {
	r := RulesForType(TypeUSB3)
	assert.Equal(t, 0.15, r.SpacingMM)
	assert.Equal(t, 0.5, r.MaxLengthDeltaMM)
	assert.Equal(t, 0.2, r.TraceWidthMM)
	assert.Equal(t, 90.0, r.ImpedanceOhms)

	r = RulesForType(TypeCustom)
	assert.Equal(t, 0.2, r.SpacingMM)
	assert.Equal(t, 1.0, r.MaxLengthDeltaMM)
}

func TestDetectPairsMatchesPolarityHalves(t *testing.T) {
	netNames := map[model.NetID]string{
		1: "USB_D+", 2: "USB_D-", 3: "GND",
	}
	pairs := DetectPairs(netNames)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, "USB_D", p.Name)
	assert.Equal(t, model.NetID(1), p.Positive.NetID)
	assert.Equal(t, model.NetID(2), p.Negative.NetID)
	assert.Equal(t, TypeUSB2, p.ProtocolType)
}

func TestDetectPairsSkipsIncompleteHalves(t *testing.T) {
	netNames := map[model.NetID]string{
		1: "CLK_POS", 2: "GND",
	}
	pairs := DetectPairs(netNames)
	assert.Empty(t, pairs)
}

func TestPairLengthMatchedWithinTolerance(t *testing.T) {
	p := Pair{Rules: Rules{MaxLengthDeltaMM: 0.5}, RoutedLengthP: 10.0, RoutedLengthN: 10.3}
	assert.True(t, p.IsLengthMatched())
	assert.InDelta(t, 0.3, p.LengthDelta(), 1e-9)

	p.RoutedLengthN = 12.0
	assert.False(t, p.IsLengthMatched())
}
