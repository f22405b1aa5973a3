package benchmark

import (
	"math"
)

// Statistics summarizes the durations of successful calls. Min, Max and
// Average are in nanoseconds.
type Statistics struct {
	Min               int64   `json:"min" yaml:"min"`
	Max               int64   `json:"max" yaml:"max"`
	Average           float64 `json:"average" yaml:"average"`
	Variance          float64 `json:"variance" yaml:"variance"`
	StandardDeviation float64 `json:"standardDeviation" yaml:"standardDeviation"`
}

func statistics(durations []int64) *Statistics {
	return &Statistics{
		Min:               minInt64(durations),
		Max:               maxInt64(durations),
		Average:           avgInt64(durations),
		Variance:          varianceInt64(durations),
		StandardDeviation: standardDeviationInt64(durations),
	}
}

func minInt64(input []int64) int64 {
	var m int64
	for i, e := range input {
		if i == 0 || e < m {
			m = e
		}
	}
	return m
}

func maxInt64(input []int64) int64 {
	var m int64
	for i, e := range input {
		if i == 0 || e > m {
			m = e
		}
	}
	return m
}

func sumInt64(input []int64) int64 {
	var sum int64
	for _, e := range input {
		sum += e
	}
	return sum
}

func avgInt64(input []int64) float64 {
	num := len(input)
	if num == 0 {
		return 0
	}
	sum := sumInt64(input)
	avg := float64(sum) / float64(num)
	return avg
}

func varianceInt64(numbers []int64) float64 {
	if len(numbers) < 2 {
		return 0
	}
	var total float64
	avg := avgInt64(numbers)
	for _, number := range numbers {
		total += math.Pow(float64(number)-avg, 2)
	}
	num := len(numbers)
	variance := total / float64(num-1)
	return variance
}

func standardDeviationInt64(numbers []int64) float64 {
	variance := varianceInt64(numbers)
	stdDev := math.Sqrt(variance)
	return stdDev
}
