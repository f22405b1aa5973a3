// Package downloader reads back blobs written by the upload phase and
// verifies their size.
package downloader

import (
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/internal/common/pool"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/pkg/client"
)

type Service struct {
	Client   client.Client
	Identity client.Identity
	Bucket   string
	// Keys to download, usually the keys the upload phase stored, filtered
	// by the scenario's download range.
	Keys []string
	// ExpectedSize is the payload size each downloaded blob must have.
	ExpectedSize int64
	// PollAttempts and PollInterval bound how long to wait for a blob that
	// was written with a non-commit broadcast mode to become readable.
	PollAttempts uint
	PollInterval time.Duration
	Workers      int
	Collector    *benchmark.Collector
}

// Result summarizes one download phase.
type Result struct {
	Attempted  int
	Downloaded int
	// NotFound counts keys that never became readable within the polling
	// budget.
	NotFound int
	// SizeMismatched counts blobs that came back with the wrong number of
	// bytes.
	SizeMismatched int
	// Failed counts downloads that errored for any other reason.
	Failed int
	// FirstErr is the first per-key failure encountered, exhausted polls and
	// size mismatches included.
	FirstErr error
	// Duration is the elapsed wall time of the phase, warmup included.
	Duration time.Duration
}

func (srv *Service) Validate() error {
	if srv.Client == nil {
		return errors.New("downloader: client must be provided")
	}
	if srv.Bucket == "" {
		return errors.New("downloader: bucket must be provided")
	}
	if srv.PollAttempts == 0 {
		return errors.New("downloader: poll attempts must be positive")
	}
	if srv.Workers <= 0 {
		return errors.New("downloader: workers must be positive")
	}
	if srv.Collector == nil {
		return errors.New("downloader: collector must be provided")
	}
	return nil
}

// Run downloads every key, polling for blobs that are not yet readable.
// Individual failures are recorded and do not stop the remaining downloads.
func (srv *Service) Run(ctx *benchcontext.Context) (*Result, error) {
	if err := srv.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	srv.warm(ctx)

	var mu sync.Mutex
	result := &Result{}
	pool.ProcessItemsWithThreadPool(ctx, srv.Workers, srv.Keys, func(key string) {
		data, sample, err := srv.fetchOne(ctx, key)
		srv.Collector.C <- sample

		mu.Lock()
		defer mu.Unlock()
		result.Attempted++
		switch {
		case bencherrors.IsNotFound(err):
			result.NotFound++
			if result.FirstErr == nil {
				result.FirstErr = err
			}
			ctx.Log.WithField("key", key).Warnf("blob still missing after %d poll attempts", srv.PollAttempts)
		case err != nil:
			result.Failed++
			if result.FirstErr == nil {
				result.FirstErr = err
			}
			ctx.Log.WithError(err).WithField("key", key).Warnf("failed to download blob from bucket %s", srv.Bucket)
		case int64(len(data)) != srv.ExpectedSize:
			result.SizeMismatched++
			if result.FirstErr == nil {
				result.FirstErr = errors.Errorf("blob %s has %d bytes, expected %d", key, len(data), srv.ExpectedSize)
			}
			ctx.Log.WithField("key", key).Warnf("blob has %d bytes, expected %d", len(data), srv.ExpectedSize)
		default:
			result.Downloaded++
		}
	})
	result.Duration = time.Since(start)

	ctx.Log.Infof("downloaded %d of %d blobs from bucket %s", result.Downloaded, len(srv.Keys), srv.Bucket)
	return result, ctx.Err()
}

// warm polls a handful of spread-out keys before the main download pool
// starts, so that writes still settling under sync or async broadcast modes
// do not burn every key's polling budget at once.
func (srv *Service) warm(ctx *benchcontext.Context) {
	if len(srv.Keys) <= 10 {
		return
	}
	probes := []string{
		srv.Keys[0],
		srv.Keys[len(srv.Keys)/2],
		srv.Keys[len(srv.Keys)-1],
	}
	for _, key := range probes {
		if _, _, err := srv.fetchOne(ctx, key); err != nil {
			ctx.Log.WithError(err).WithField("key", key).Debug("warmup probe failed")
		}
	}
}

// fetchOne downloads a single blob, retrying while the blob is not found.
// The returned sample times the last attempt only, so polling waits do not
// distort the download statistics.
func (srv *Service) fetchOne(ctx *benchcontext.Context, key string) ([]byte, *benchmark.Sample, error) {
	var data []byte
	var started time.Time
	var duration time.Duration
	err := retry.Do(
		func() error {
			started = time.Now()
			var err error
			data, err = srv.Client.GetBlob(ctx, srv.Identity, srv.Bucket, key)
			duration = time.Since(started)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(srv.PollAttempts),
		retry.Delay(srv.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(bencherrors.IsNotFound),
	)
	var receivedBytes int64
	if err == nil {
		receivedBytes = int64(len(data))
	}
	sample := &benchmark.Sample{
		Operation: benchmark.OpGet,
		Started:   started,
		Duration:  duration,
		Bytes:     receivedBytes,
		Failed:    err != nil,
	}
	return data, sample, err
}
