package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"
)

// Formatter renders a report for writing to a file or terminal.
type Formatter func(report *Report) ([]byte, error)

func YamlFormatter(report *Report) ([]byte, error) {
	return yaml.Marshal(report)
}

func JsonFormatter(report *Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func (r *Report) Generate(formatter Formatter) ([]byte, error) {
	if formatter == nil {
		formatter = YamlFormatter
	}
	return formatter(r)
}

func (r *Report) Print(out io.Writer) {
	if len(r.Operations) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\nOperation statistics:\n")
	for _, op := range r.Operations {
		_, _ = fmt.Fprintf(out, "\t* %s\n", op.Operation)
		_, _ = fmt.Fprintf(out, "\t\t - attempts: %d\n", op.Attempts)
		_, _ = fmt.Fprintf(out, "\t\t - failures: %d\n", op.Failures)
		if op.Bytes > 0 {
			_, _ = fmt.Fprintf(out, "\t\t - bytes: %s\n", humanize.IBytes(uint64(op.Bytes)))
		}
		if op.Throughput != "" {
			_, _ = fmt.Fprintf(out, "\t\t - throughput: %s\n", op.Throughput)
		}
		if op.Statistics != nil {
			_, _ = fmt.Fprintf(out, "\t\t - min: %s\n", time.Duration(op.Statistics.Min))
			_, _ = fmt.Fprintf(out, "\t\t - max: %s\n", time.Duration(op.Statistics.Max))
			_, _ = fmt.Fprintf(out, "\t\t - avg: %s\n", time.Duration(int64(op.Statistics.Average)))
		}
	}
}

func throughput(numBytes int64, window time.Duration) string {
	if numBytes <= 0 || window <= 0 {
		return ""
	}
	rate := float64(numBytes) / window.Seconds()
	return humanize.IBytes(uint64(rate)) + "/s"
}
