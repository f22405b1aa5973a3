package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatistics(t *testing.T) {
	stats := statistics([]int64{100, 200, 300})
	assert.Equal(t, int64(100), stats.Min)
	assert.Equal(t, int64(300), stats.Max)
	assert.Equal(t, 200.0, stats.Average)
	assert.Equal(t, 10000.0, stats.Variance)
	assert.Equal(t, 100.0, stats.StandardDeviation)
}

func TestStatistics_SingleSample(t *testing.T) {
	stats := statistics([]int64{42})
	assert.Equal(t, int64(42), stats.Min)
	assert.Equal(t, int64(42), stats.Max)
	assert.Equal(t, 42.0, stats.Average)
	assert.Equal(t, 0.0, stats.Variance)
	assert.Equal(t, 0.0, stats.StandardDeviation)
}

func TestStatistics_Empty(t *testing.T) {
	stats := statistics(nil)
	assert.Equal(t, int64(0), stats.Min)
	assert.Equal(t, int64(0), stats.Max)
	assert.Equal(t, 0.0, stats.Average)
}
