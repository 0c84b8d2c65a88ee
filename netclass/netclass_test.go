package netclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTableClassifiesCommonNames(t *testing.T) {
	table := DefaultTable()
	cases := []struct {
		name  string
		class string
	}{
		{"GND", ClassGround},
		{"AGND_3", ClassGround},
		{"VCC_3V3", ClassPower},
		{"SYS_CLK", ClassClock},
		{"USB_D+", ClassDiffPair},
		{"HDMI_D0_N", ClassDiffPair},
		{"SPI_MOSI", ClassSignal},
	}
	for _, c := range cases {
		assert.Equal(t, c.class, table.ClassOf(c.name), c.name)
	}
}

func TestDefaultTablePriorityOrdering(t *testing.T) {
	table := DefaultTable()
	assert.Less(t, table.PriorityOf(ClassGround), table.PriorityOf(ClassPower))
	assert.Less(t, table.PriorityOf(ClassPower), table.PriorityOf(ClassClock))
	assert.Less(t, table.PriorityOf(ClassClock), table.PriorityOf(ClassDiffPair))
	assert.Less(t, table.PriorityOf(ClassDiffPair), table.PriorityOf(ClassSignal))
}

func TestPriorityOfUnknownClassIsLowest(t *testing.T) {
	table := NewTable(nil, map[string]int{ClassSignal: 10}, ClassSignal)
	assert.Greater(t, table.PriorityOf("made_up_class"), table.PriorityOf(ClassSignal))
}

func TestClassNamesIncludesFallback(t *testing.T) {
	table := NewTable(nil, nil, ClassSignal)
	assert.Contains(t, table.ClassNames(), ClassSignal)
}
