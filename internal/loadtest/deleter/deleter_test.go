package deleter

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/pkg/client"
	"github.com/blobbench/blobbench/pkg/client/fake"
)

func newService(fakeClient *fake.Client, keys []string) *Service {
	return &Service{
		Client:    fakeClient,
		Identity:  client.Identity{Address: "0xtest"},
		Bucket:    "bucket-1",
		Keys:      keys,
		Workers:   4,
		Collector: benchmark.NewCollector(),
	}
}

func TestRun_DeletesUploadedKeys(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", map[string][]byte{
		"foo/0": []byte("a"),
		"foo/1": []byte("b"),
		"keep":  []byte("c"),
	})
	srv := newService(fakeClient, []string{"foo/0", "foo/1"})

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 0, result.Failed)
	// Blobs the scenario did not upload stay put.
	assert.Equal(t, map[string][]byte{"keep": []byte("c")}, fakeClient.Blobs("bucket-1"))
}

func TestRun_SkipsWhenListingFails(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", map[string][]byte{"foo/0": []byte("a")})
	fakeClient.ListErr = func(bucket string) error {
		return errors.New("listing broke")
	}
	srv := newService(fakeClient, []string{"foo/0"})

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Error(t, result.ListError)
	assert.Equal(t, result.ListError, result.FirstErr)
	assert.Equal(t, 0, result.Attempted)
	assert.Equal(t, 0, fakeClient.DeleteCalls())
	// The blob survives because nothing was deleted.
	assert.Len(t, fakeClient.Blobs("bucket-1"), 1)
}

func TestRun_RecordsPerKeyFailures(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", map[string][]byte{
		"foo/0": []byte("a"),
		"foo/1": []byte("b"),
	})
	fakeClient.DeleteErr = func(bucket, key string) error {
		if key == "foo/1" {
			return errors.New("wire broke")
		}
		return nil
	}
	srv := newService(fakeClient, []string{"foo/0", "foo/1"})

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	require.Error(t, result.FirstErr)
	assert.Contains(t, result.FirstErr.Error(), "wire broke")
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestValidate(t *testing.T) {
	srv := newService(fake.New(), nil)
	require.NoError(t, srv.Validate())

	srv = newService(fake.New(), nil)
	srv.Client = nil
	assert.Error(t, srv.Validate())

	srv = newService(fake.New(), nil)
	srv.Bucket = ""
	assert.Error(t, srv.Validate())
}
