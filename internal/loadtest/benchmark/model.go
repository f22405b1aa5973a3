package benchmark

import "time"

// Operation names a timed client call.
type Operation string

const (
	OpTransfer     Operation = "transfer"
	OpBuyCredit    Operation = "buyCredit"
	OpCreateBucket Operation = "createBucket"
	OpPut          Operation = "put"
	OpGet          Operation = "get"
	OpDelete       Operation = "delete"
	OpList         Operation = "list"
)

// Sample is one timed client call.
type Sample struct {
	Operation Operation
	Started   time.Time
	Duration  time.Duration
	Bytes     int64
	Failed    bool
}

// Report aggregates every sample collected during a run.
type Report struct {
	Operations []*OperationReport `json:"operations" yaml:"operations"`
}

// OperationReport summarizes all calls of one operation. Duration statistics
// and byte counts cover successful calls only.
type OperationReport struct {
	Operation  Operation   `json:"operation" yaml:"operation"`
	Attempts   int         `json:"attempts" yaml:"attempts"`
	Failures   int         `json:"failures" yaml:"failures"`
	Bytes      int64       `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Throughput string      `json:"throughput,omitempty" yaml:"throughput,omitempty"`
	Statistics *Statistics `json:"statistics,omitempty" yaml:"statistics,omitempty"`
}
