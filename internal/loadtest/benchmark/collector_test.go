package benchmark

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
)

func TestCollector(t *testing.T) {
	collector := NewCollector()
	ctx, cancel := benchcontext.WithCancel(benchcontext.Background())
	done := make(chan error)
	go func() {
		done <- collector.Run(ctx)
	}()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	collector.C <- &Sample{Operation: OpPut, Started: base, Duration: 100 * time.Millisecond, Bytes: 10}
	collector.C <- &Sample{Operation: OpPut, Started: base.Add(100 * time.Millisecond), Duration: 300 * time.Millisecond, Bytes: 10}
	collector.C <- &Sample{Operation: OpPut, Started: base, Duration: time.Millisecond, Failed: true}
	collector.C <- &Sample{Operation: OpGet, Started: base, Duration: 50 * time.Millisecond, Bytes: 10}

	cancel()
	require.NoError(t, <-done)

	report := collector.Report()
	require.Len(t, report.Operations, 2)

	put := report.Operations[0]
	assert.Equal(t, OpPut, put.Operation)
	assert.Equal(t, 3, put.Attempts)
	assert.Equal(t, 1, put.Failures)
	assert.Equal(t, int64(20), put.Bytes)
	// Window spans first start to last finish, 400ms for 20 bytes.
	assert.Equal(t, "50 B/s", put.Throughput)
	require.NotNil(t, put.Statistics)
	assert.Equal(t, int64(100*time.Millisecond), put.Statistics.Min)
	assert.Equal(t, int64(300*time.Millisecond), put.Statistics.Max)

	get := report.Operations[1]
	assert.Equal(t, OpGet, get.Operation)
	assert.Equal(t, 1, get.Attempts)
	assert.Equal(t, 0, get.Failures)
}

func TestCollector_FailuresOnly(t *testing.T) {
	collector := NewCollector()
	collector.record(&Sample{Operation: OpList, Failed: true})
	report := collector.Report()
	require.Len(t, report.Operations, 1)
	assert.Equal(t, 1, report.Operations[0].Failures)
	assert.Nil(t, report.Operations[0].Statistics)
	assert.Empty(t, report.Operations[0].Throughput)
}

func TestReport_OperationOrder(t *testing.T) {
	collector := NewCollector()
	for _, operation := range []Operation{OpList, OpGet, OpTransfer, OpPut} {
		collector.record(&Sample{Operation: operation, Duration: time.Millisecond})
	}
	report := collector.Report()
	var order []Operation
	for _, op := range report.Operations {
		order = append(order, op.Operation)
	}
	assert.Equal(t, []Operation{OpTransfer, OpPut, OpGet, OpList}, order)
}

func TestThroughput(t *testing.T) {
	assert.Equal(t, "", throughput(0, time.Second))
	assert.Equal(t, "", throughput(100, 0))
	assert.Equal(t, "1.0 MiB/s", throughput(1048576, time.Second))
}

func TestReport_Generate(t *testing.T) {
	collector := NewCollector()
	collector.record(&Sample{Operation: OpPut, Duration: time.Millisecond, Bytes: 5})

	out, err := collector.Report().Generate(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "operations:")
	assert.Contains(t, string(out), "operation: put")

	out, err = collector.Report().Generate(JsonFormatter)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"operation": "put"`)
}

func TestReport_Print(t *testing.T) {
	collector := NewCollector()
	collector.record(&Sample{Operation: OpPut, Started: time.Now(), Duration: time.Second, Bytes: 2048})
	var buf bytes.Buffer
	collector.Report().Print(&buf)
	assert.Contains(t, buf.String(), "* put")
	assert.Contains(t, buf.String(), "attempts: 1")
	assert.Contains(t, buf.String(), "2.0 KiB")
}
