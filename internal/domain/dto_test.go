package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChartType(t *testing.T) {
	for _, ct := range ChartTypes {
		got, ok := ParseChartType(string(ct))
		assert.True(t, ok)
		assert.Equal(t, ct, got)
	}

	got, ok := ParseChartType("  RADIALBAR ")
	assert.True(t, ok)
	assert.Equal(t, ChartTypeRadialBar, got)

	for _, v := range []string{"", "histogram", "bar chart"} {
		_, ok = ParseChartType(v)
		assert.False(t, ok, v)
	}
}
