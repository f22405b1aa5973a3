// Package scenario runs a single scenario through its phases: resolve the
// account, optionally fund it and buy storage credit, resolve a bucket, then
// upload, download and delete blobs as the spec asks. Setup failures abort
// the scenario, per-key failures inside a phase do not.
package scenario

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/common/logging"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/internal/loadtest/deleter"
	"github.com/blobbench/blobbench/internal/loadtest/downloader"
	"github.com/blobbench/blobbench/internal/loadtest/plan"
	"github.com/blobbench/blobbench/internal/loadtest/uploader"
	"github.com/blobbench/blobbench/pkg/client"
)

// State names the phase a scenario is currently in.
type State string

const (
	StatePending         State = "Pending"
	StateFunding         State = "Funding"
	StateBuyingCredit    State = "BuyingCredit"
	StateResolvingBucket State = "ResolvingBucket"
	StateUploading       State = "Uploading"
	StateDownloading     State = "Downloading"
	StateDeleting        State = "Deleting"
	StateDone            State = "Done"
	StateAborted         State = "Aborted"
)

// Params bounds the per-phase worker pools and the download polling budget.
type Params struct {
	UploadWorkers   int
	DownloadWorkers int
	DeleteWorkers   int
	PollAttempts    uint
	PollInterval    time.Duration
}

type Runner struct {
	Spec      *plan.ScenarioSpec
	Client    client.Client
	Resolver  *Resolver
	Params    Params
	Random    io.Reader
	Collector *benchmark.Collector

	mu    sync.Mutex
	state State
}

// Result is the terminal outcome of one scenario.
type Result struct {
	Name   string
	State  State
	Err    error
	Bucket string
	// Duration covers the whole scenario including setup phases.
	Duration time.Duration
	Upload   *uploader.Result
	Download *downloader.Result
	Delete   *deleter.Result
}

// Failures returns the failed and attempted per-key operation counts across
// all phases. Blobs refused because overwriting was disabled are not
// failures, and neither is a skipped delete phase.
func (r *Result) Failures() (failed int, attempted int) {
	if r.Upload != nil {
		failed += r.Upload.Failed
		attempted += r.Upload.Attempted
	}
	if r.Download != nil {
		failed += r.Download.NotFound + r.Download.SizeMismatched + r.Download.Failed
		attempted += r.Download.Attempted
	}
	if r.Delete != nil {
		failed += r.Delete.Failed
		attempted += r.Delete.Attempted
	}
	return failed, attempted
}

// Succeeded reports whether the scenario reached Done with a per-key failure
// rate no greater than maxErrorRate.
func (r *Result) Succeeded(maxErrorRate float64) bool {
	if r.State != StateDone {
		return false
	}
	failed, attempted := r.Failures()
	if attempted == 0 {
		return true
	}
	return float64(failed)/float64(attempted) <= maxErrorRate
}

// State returns the phase the runner is currently in.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(ctx *benchcontext.Context, state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	ctx.Log.Infof("entered state %s", state)
}

// Run drives the scenario to a terminal state. It always returns a result,
// even when the context is cancelled mid-phase.
func (r *Runner) Run(ctx *benchcontext.Context) *Result {
	ctx = benchcontext.WithLogField(ctx, "scenario", r.Spec.Name)
	start := time.Now()
	result := &Result{Name: r.Spec.Name}
	defer func() {
		result.Duration = time.Since(start)
	}()

	abort := func(err error) *Result {
		r.setState(ctx, StateAborted)
		result.State = StateAborted
		result.Err = err
		logging.WithStacktrace(ctx.Log, err).Error("scenario aborted")
		return result
	}

	r.setState(ctx, StatePending)
	if r.Spec.Test == nil || r.Spec.Test.Upload == nil {
		return abort(errors.New("scenario has no upload section"))
	}
	mode, err := client.ParseBroadcastMode(r.Spec.Test.BroadcastMode)
	if err != nil {
		return abort(err)
	}
	identity, err := r.Resolver.Resolve(r.Client, r.Spec.PrivateKey)
	if err != nil {
		return abort(&AccountError{Err: err})
	}
	ctx.Log.Infof("running as account %s", identity.Address)

	if r.Spec.RequestFunds > 0 {
		r.setState(ctx, StateFunding)
		if err := r.fund(ctx, identity); err != nil {
			return abort(&AccountError{Err: err})
		}
	}

	if r.Spec.BuyCredit > 0 {
		r.setState(ctx, StateBuyingCredit)
		if err := r.buyCredit(ctx, identity); err != nil {
			return abort(&CreditError{Err: err})
		}
	}

	r.setState(ctx, StateResolvingBucket)
	bucket, err := r.resolveBucket(ctx, identity)
	if err != nil {
		return abort(&BucketError{Err: err})
	}
	result.Bucket = bucket

	r.setState(ctx, StateUploading)
	uploadResult, err := (&uploader.Service{
		Client:        r.Client,
		Identity:      identity,
		Spec:          r.Spec.Test.Upload,
		Bucket:        bucket,
		BroadcastMode: mode,
		Workers:       r.Params.UploadWorkers,
		Random:        r.Random,
		Collector:     r.Collector,
	}).Run(ctx)
	if err != nil {
		return abort(err)
	}
	result.Upload = uploadResult
	if len(uploadResult.Keys) == 0 && r.Spec.Test.Upload.BlobCount > 0 {
		return abort(errors.New("not a single blob was uploaded"))
	}

	if r.Spec.Test.Download.Enabled() {
		r.setState(ctx, StateDownloading)
		downloadResult, err := (&downloader.Service{
			Client:       r.Client,
			Identity:     identity,
			Bucket:       bucket,
			Keys:         r.Spec.Test.Download.Select(uploadResult.Keys),
			ExpectedSize: r.Spec.Test.Upload.SizeBytes(),
			PollAttempts: r.Params.PollAttempts,
			PollInterval: r.Params.PollInterval,
			Workers:      r.Params.DownloadWorkers,
			Collector:    r.Collector,
		}).Run(ctx)
		if err != nil {
			return abort(err)
		}
		result.Download = downloadResult
	}

	if r.Spec.Test.Delete {
		r.setState(ctx, StateDeleting)
		deleteResult, err := (&deleter.Service{
			Client:    r.Client,
			Identity:  identity,
			Bucket:    bucket,
			Keys:      uploadResult.Keys,
			Workers:   r.Params.DeleteWorkers,
			Collector: r.Collector,
		}).Run(ctx)
		if err != nil {
			return abort(err)
		}
		result.Delete = deleteResult
	}

	r.setState(ctx, StateDone)
	result.State = StateDone
	return result
}

func (r *Runner) fund(ctx *benchcontext.Context, identity client.Identity) error {
	funder, err := r.Resolver.Resolve(r.Client, r.Spec.FundingKey)
	if err != nil {
		return err
	}
	ctx.Log.Infof("requesting %d tokens from %s", r.Spec.RequestFunds, funder.Address)
	start := time.Now()
	err = r.Client.TransferFunds(ctx, funder, identity.Address, r.Spec.RequestFunds)
	r.Collector.C <- &benchmark.Sample{
		Operation: benchmark.OpTransfer,
		Started:   start,
		Duration:  time.Since(start),
		Failed:    err != nil,
	}
	return err
}

func (r *Runner) buyCredit(ctx *benchcontext.Context, identity client.Identity) error {
	ctx.Log.Infof("buying %d tokens of storage credit", r.Spec.BuyCredit)
	start := time.Now()
	err := r.Client.BuyCredit(ctx, identity, r.Spec.BuyCredit)
	r.Collector.C <- &benchmark.Sample{
		Operation: benchmark.OpBuyCredit,
		Started:   start,
		Duration:  time.Since(start),
		Failed:    err != nil,
	}
	return err
}

// resolveBucket reuses the bucket named in the spec or creates a fresh one.
func (r *Runner) resolveBucket(ctx *benchcontext.Context, identity client.Identity) (string, error) {
	if bucket := r.Spec.Test.Upload.Bucket; bucket != "" {
		ctx.Log.Infof("using existing bucket %s", bucket)
		return bucket, nil
	}
	start := time.Now()
	bucket, err := r.Client.CreateBucket(ctx, identity)
	r.Collector.C <- &benchmark.Sample{
		Operation: benchmark.OpCreateBucket,
		Started:   start,
		Duration:  time.Since(start),
		Failed:    err != nil,
	}
	if err != nil {
		return "", err
	}
	ctx.Log.Infof("created bucket %s", bucket)
	return bucket, nil
}
