package benchmark

import (
	"sort"
	"time"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/loadtest/metrics"
)

// Collector aggregates the samples sent to C by the upload, download and
// delete drivers. Samples are also forwarded to the Prometheus registry.
type Collector struct {
	C chan *Sample

	aggregates map[Operation]*aggregate
}

type aggregate struct {
	attempts  int
	failures  int
	bytes     int64
	durations []int64
	start     time.Time
	end       time.Time
}

func NewCollector() *Collector {
	return &Collector{
		C:          make(chan *Sample, 10000),
		aggregates: make(map[Operation]*aggregate),
	}
}

// Run consumes samples until ctx is cancelled, then drains whatever is still
// buffered so late samples are not lost. Report must not be called before Run
// has returned.
func (c *Collector) Run(ctx *benchcontext.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case sample := <-c.C:
					c.record(sample)
				default:
					return nil
				}
			}
		case sample := <-c.C:
			if sample == nil {
				break
			}
			c.record(sample)
		}
	}
}

func (c *Collector) record(sample *Sample) {
	metrics.RecordOperation(string(sample.Operation), sample.Failed, sample.Bytes, sample.Duration)

	agg := c.aggregates[sample.Operation]
	if agg == nil {
		agg = &aggregate{}
		c.aggregates[sample.Operation] = agg
	}
	agg.attempts++
	if sample.Failed {
		agg.failures++
		return
	}
	agg.bytes += sample.Bytes
	agg.durations = append(agg.durations, int64(sample.Duration))
	if agg.start.IsZero() || sample.Started.Before(agg.start) {
		agg.start = sample.Started
	}
	if finished := sample.Started.Add(sample.Duration); finished.After(agg.end) {
		agg.end = finished
	}
}

// Report builds the aggregated report over everything recorded so far.
func (c *Collector) Report() *Report {
	operations := make([]*OperationReport, 0, len(c.aggregates))
	for operation, agg := range c.aggregates {
		report := &OperationReport{
			Operation:  operation,
			Attempts:   agg.attempts,
			Failures:   agg.failures,
			Bytes:      agg.bytes,
			Throughput: throughput(agg.bytes, agg.window()),
		}
		if len(agg.durations) > 0 {
			report.Statistics = statistics(agg.durations)
		}
		operations = append(operations, report)
	}
	sort.Slice(operations, func(i, j int) bool {
		ri, rj := operationRank(operations[i].Operation), operationRank(operations[j].Operation)
		if ri != rj {
			return ri < rj
		}
		return operations[i].Operation < operations[j].Operation
	})
	return &Report{Operations: operations}
}

func (a *aggregate) window() time.Duration {
	if a.start.IsZero() {
		return 0
	}
	return a.end.Sub(a.start)
}

var operationOrder = map[Operation]int{
	OpTransfer:     0,
	OpBuyCredit:    1,
	OpCreateBucket: 2,
	OpPut:          3,
	OpGet:          4,
	OpDelete:       5,
	OpList:         6,
}

func operationRank(operation Operation) int {
	if rank, ok := operationOrder[operation]; ok {
		return rank
	}
	return len(operationOrder)
}
