package loadtest

import (
	"fmt"
	"io"
	"time"

	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/internal/loadtest/scenario"
)

// Report is the terminal outcome of a whole plan run.
type Report struct {
	RunID      string
	Duration   time.Duration
	Results    []*scenario.Result
	Statistics *benchmark.Report
}

// Succeeded reports whether every scenario finished within the error budget.
func (r *Report) Succeeded(maxErrorRate float64) bool {
	for _, result := range r.Results {
		if !result.Succeeded(maxErrorRate) {
			return false
		}
	}
	return true
}

func (r *Report) Print(out io.Writer, maxErrorRate float64) {
	numSuccesses := 0
	numFailures := 0
	for _, result := range r.Results {
		switch {
		case result.Succeeded(maxErrorRate):
			numSuccesses++
			_, _ = fmt.Fprintf(out, "SCENARIO SUCCEEDED: %s in %s\n", result.Name, result.Duration.Round(time.Millisecond))
		case result.State == scenario.StateDone:
			numFailures++
			failed, attempted := result.Failures()
			_, _ = fmt.Fprintf(out, "SCENARIO FAILED: %s: %d of %d operations failed\n", result.Name, failed, attempted)
		default:
			numFailures++
			_, _ = fmt.Fprintf(out, "SCENARIO FAILED: %s: %s\n", result.Name, result.Err)
		}
		printPhases(out, result)
	}

	r.Statistics.Print(out)

	_, _ = fmt.Fprintf(out, "\n======= SUMMARY =======\n")
	_, _ = fmt.Fprintf(out, "Ran %d scenario(s) in %s\n", len(r.Results), r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(out, "Successes: %d\n", numSuccesses)
	_, _ = fmt.Fprintf(out, "Failures: %d\n", numFailures)
}

// printPhases writes one line per phase the scenario ran, with the
// per-category counts, the phase duration and the first failure seen.
func printPhases(out io.Writer, result *scenario.Result) {
	if u := result.Upload; u != nil {
		line := fmt.Sprintf("  upload: %d stored, %d refused as existing, %d failed in %s",
			len(u.Keys), u.AlreadyExists, u.Failed, u.Duration.Round(time.Millisecond))
		_, _ = fmt.Fprintln(out, withFirstErr(line, u.FirstErr))
	}
	if d := result.Download; d != nil {
		line := fmt.Sprintf("  download: %d downloaded, %d not found on poll, %d size mismatched, %d failed in %s",
			d.Downloaded, d.NotFound, d.SizeMismatched, d.Failed, d.Duration.Round(time.Millisecond))
		_, _ = fmt.Fprintln(out, withFirstErr(line, d.FirstErr))
	}
	if d := result.Delete; d != nil {
		if d.Skipped {
			_, _ = fmt.Fprintf(out, "  delete: skipped, bucket could not be listed: %s\n", d.ListError)
			return
		}
		line := fmt.Sprintf("  delete: %d deleted, %d failed in %s",
			d.Deleted, d.Failed, d.Duration.Round(time.Millisecond))
		_, _ = fmt.Fprintln(out, withFirstErr(line, d.FirstErr))
	}
}

func withFirstErr(line string, err error) string {
	if err == nil {
		return line
	}
	return fmt.Sprintf("%s (first error: %s)", line, err)
}
