// Package deleter removes the blobs a scenario uploaded. The phase only runs
// if the bucket can be listed first, as a cheap probe that the bucket is
// still reachable before issuing a burst of deletes.
package deleter

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/common/pool"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/pkg/client"
)

type Service struct {
	Client   client.Client
	Identity client.Identity
	Bucket   string
	// Keys to delete, usually the keys the upload phase stored.
	Keys      []string
	Workers   int
	Collector *benchmark.Collector
}

// Result summarizes one delete phase.
type Result struct {
	// Skipped is true when the bucket could not be listed and no deletes
	// were attempted. ListError then holds the listing failure.
	Skipped   bool
	ListError error
	Attempted int
	Deleted   int
	Failed    int
	// FirstErr is the listing failure when the phase was skipped, otherwise
	// the first per-key delete failure.
	FirstErr error
	// Duration is the elapsed wall time of the phase, the listing included.
	Duration time.Duration
}

func (srv *Service) Validate() error {
	if srv.Client == nil {
		return errors.New("deleter: client must be provided")
	}
	if srv.Bucket == "" {
		return errors.New("deleter: bucket must be provided")
	}
	if srv.Workers <= 0 {
		return errors.New("deleter: workers must be positive")
	}
	if srv.Collector == nil {
		return errors.New("deleter: collector must be provided")
	}
	return nil
}

// Run lists the bucket and, if that succeeds, deletes every key. A listing
// failure skips the whole phase without failing the scenario.
func (srv *Service) Run(ctx *benchcontext.Context) (*Result, error) {
	if err := srv.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	start := time.Now()
	listed, err := srv.Client.ListBucket(ctx, srv.Identity, srv.Bucket)
	srv.Collector.C <- &benchmark.Sample{
		Operation: benchmark.OpList,
		Started:   start,
		Duration:  time.Since(start),
		Failed:    err != nil,
	}
	if err != nil {
		result.Skipped = true
		result.ListError = err
		result.FirstErr = err
		result.Duration = time.Since(start)
		ctx.Log.WithError(err).Warnf("failed to list bucket %s, skipping deletes", srv.Bucket)
		return result, nil
	}
	ctx.Log.Infof("bucket %s holds %d blobs, deleting %d of them", srv.Bucket, len(listed), len(srv.Keys))

	var mu sync.Mutex
	pool.ProcessItemsWithThreadPool(ctx, srv.Workers, srv.Keys, func(key string) {
		start := time.Now()
		err := srv.Client.DeleteBlob(ctx, srv.Identity, srv.Bucket, key)
		srv.Collector.C <- &benchmark.Sample{
			Operation: benchmark.OpDelete,
			Started:   start,
			Duration:  time.Since(start),
			Failed:    err != nil,
		}

		mu.Lock()
		defer mu.Unlock()
		result.Attempted++
		if err != nil {
			result.Failed++
			if result.FirstErr == nil {
				result.FirstErr = err
			}
			ctx.Log.WithError(err).WithField("key", key).Warnf("failed to delete blob from bucket %s", srv.Bucket)
			return
		}
		result.Deleted++
	})
	result.Duration = time.Since(start)

	ctx.Log.Infof("deleted %d of %d blobs from bucket %s", result.Deleted, len(srv.Keys), srv.Bucket)
	return result, ctx.Err()
}
