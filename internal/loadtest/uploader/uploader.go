// Package uploader writes the synthetic blobs of one scenario.
package uploader

import (
	"context"
	"io"
	"sync"
	"time"

	commonPool "github.com/jolestar/go-commons-pool"
	"github.com/pkg/errors"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/internal/common/pool"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/internal/loadtest/plan"
	"github.com/blobbench/blobbench/pkg/client"
)

type Service struct {
	Client   client.Client
	Identity client.Identity
	Spec     *plan.UploadSpec
	// Bucket is the bucket resolved for this scenario, which is not
	// necessarily the one named in the spec.
	Bucket        string
	BroadcastMode client.BroadcastMode
	Workers       int
	Random        io.Reader
	Collector     *benchmark.Collector
}

// Result summarizes one upload phase.
type Result struct {
	// Keys that were stored, in blob index order.
	Keys []string
	// Attempted is the number of puts made, successful or not.
	Attempted int
	// AlreadyExists counts puts refused because the key was taken and
	// overwriting was disabled.
	AlreadyExists int
	// Failed counts puts that errored for any other reason.
	Failed int
	// FirstErr is the first per-key error encountered, refused overwrites
	// included.
	FirstErr error
	// Duration is the elapsed wall time of the phase.
	Duration time.Duration
}

func (srv *Service) Validate() error {
	if srv.Client == nil {
		return errors.New("uploader: client must be provided")
	}
	if srv.Spec == nil {
		return errors.New("uploader: spec must be provided")
	}
	if srv.Bucket == "" {
		return errors.New("uploader: bucket must be provided")
	}
	if srv.Workers <= 0 {
		return errors.New("uploader: workers must be positive")
	}
	if srv.Random == nil {
		return errors.New("uploader: random source must be provided")
	}
	if srv.Collector == nil {
		return errors.New("uploader: collector must be provided")
	}
	return nil
}

// Run uploads every blob named by the spec, filling each payload with fresh
// random bytes. Individual put failures are recorded and do not stop the
// remaining uploads, but a cancelled context does.
func (srv *Service) Run(ctx *benchcontext.Context) (*Result, error) {
	if err := srv.Validate(); err != nil {
		return nil, err
	}

	keys := srv.Spec.Keys()
	size := srv.Spec.SizeBytes()

	// Payload buffers are reused across uploads, at most one per worker.
	poolConfig := commonPool.ObjectPoolConfig{
		MaxTotal:           srv.Workers,
		MaxIdle:            srv.Workers,
		BlockWhenExhausted: true,
	}
	bufferPool := commonPool.NewObjectPool(ctx, commonPool.NewPooledObjectFactorySimple(
		func(context.Context) (interface{}, error) {
			return make([]byte, size), nil
		}), &poolConfig)

	var mu sync.Mutex
	stored := make([]bool, len(keys))
	result := &Result{}

	indices := make([]int, len(keys))
	for i := range indices {
		indices[i] = i
	}
	start := time.Now()
	pool.ProcessItemsWithThreadPool(ctx, srv.Workers, indices, func(i int) {
		err := srv.uploadOne(ctx, bufferPool, keys[i])

		mu.Lock()
		defer mu.Unlock()
		result.Attempted++
		if err != nil && result.FirstErr == nil {
			result.FirstErr = err
		}
		switch {
		case err == nil:
			stored[i] = true
		case bencherrors.IsAlreadyExists(err):
			result.AlreadyExists++
			ctx.Log.WithField("key", keys[i]).Info("blob already exists, not overwriting")
		default:
			result.Failed++
			ctx.Log.WithError(err).WithField("key", keys[i]).Warnf("failed to upload blob to bucket %s", srv.Bucket)
		}
	})

	result.Duration = time.Since(start)

	for i, key := range keys {
		if stored[i] {
			result.Keys = append(result.Keys, key)
		}
	}
	ctx.Log.Infof("uploaded %d of %d blobs to bucket %s", len(result.Keys), len(keys), srv.Bucket)
	return result, ctx.Err()
}

func (srv *Service) uploadOne(ctx *benchcontext.Context, bufferPool *commonPool.ObjectPool, key string) error {
	obj, err := bufferPool.BorrowObject(ctx)
	if err != nil {
		return errors.WithMessage(err, "failed to borrow payload buffer")
	}
	defer func() {
		if err := bufferPool.ReturnObject(ctx, obj); err != nil {
			ctx.Log.WithError(err).Warn("failed to return payload buffer")
		}
	}()
	payload := obj.([]byte)
	if _, err := io.ReadFull(srv.Random, payload); err != nil {
		return errors.WithMessage(err, "failed to generate payload")
	}

	start := time.Now()
	err = srv.Client.PutBlob(ctx, srv.Identity, srv.Bucket, key, payload, client.PutOptions{
		BroadcastMode: srv.BroadcastMode,
		Overwrite:     srv.Spec.OverwriteEnabled(),
	})
	var sentBytes int64
	if err == nil {
		sentBytes = int64(len(payload))
	}
	srv.Collector.C <- &benchmark.Sample{
		Operation: benchmark.OpPut,
		Started:   start,
		Duration:  time.Since(start),
		Bytes:     sentBytes,
		Failed:    err != nil,
	}
	return err
}
