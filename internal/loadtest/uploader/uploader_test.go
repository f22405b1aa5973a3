package uploader

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/internal/loadtest/plan"
	"github.com/blobbench/blobbench/pkg/client"
	"github.com/blobbench/blobbench/pkg/client/fake"
)

func newService(fakeClient *fake.Client, spec *plan.UploadSpec) *Service {
	return &Service{
		Client:    fakeClient,
		Identity:  client.Identity{Address: "0xtest"},
		Spec:      spec,
		Bucket:    "bucket-1",
		Workers:   4,
		Random:    rand.Reader,
		Collector: benchmark.NewCollector(),
	}
}

func TestRun_UploadsAllBlobs(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", nil)
	spec := &plan.UploadSpec{Prefix: "foo", BlobCount: 5, BlobSizeMb: 0.001}
	srv := newService(fakeClient, spec)

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.Equal(t, spec.Keys(), result.Keys)
	assert.Equal(t, 5, result.Attempted)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.AlreadyExists)

	blobs := fakeClient.Blobs("bucket-1")
	require.Len(t, blobs, 5)
	for key, data := range blobs {
		assert.Len(t, data, int(spec.SizeBytes()), "wrong payload size for %s", key)
	}
}

func TestRun_KeysInIndexOrder(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", nil)
	spec := &plan.UploadSpec{Prefix: "foo", BlobCount: 20, BlobSizeMb: 0.0001}
	srv := newService(fakeClient, spec)

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)
	assert.Equal(t, spec.Keys(), result.Keys)
}

func TestRun_RecordsPerKeyFailures(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", nil)
	fakeClient.PutErr = func(bucket, key string) error {
		if key == "foo/2" {
			return errors.New("wire broke")
		}
		return nil
	}
	spec := &plan.UploadSpec{Prefix: "foo", BlobCount: 4, BlobSizeMb: 0.001}
	srv := newService(fakeClient, spec)

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"foo/0", "foo/1", "foo/3"}, result.Keys)
	require.Error(t, result.FirstErr)
	assert.Contains(t, result.FirstErr.Error(), "wire broke")
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestRun_AlreadyExists(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", map[string][]byte{"foo/1": []byte("old")})
	overwrite := false
	spec := &plan.UploadSpec{Prefix: "foo", BlobCount: 3, BlobSizeMb: 0.001, Overwrite: &overwrite}
	srv := newService(fakeClient, spec)

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.AlreadyExists)
	assert.Equal(t, 0, result.Failed)
	assert.True(t, bencherrors.IsAlreadyExists(result.FirstErr))
	assert.Equal(t, []string{"foo/0", "foo/2"}, result.Keys)
	// The original blob is untouched.
	assert.Equal(t, []byte("old"), fakeClient.Blobs("bucket-1")["foo/1"])
}

func TestRun_OverwriteReplacesBlobs(t *testing.T) {
	fakeClient := fake.New()
	fakeClient.AddBucket("bucket-1", map[string][]byte{"foo/0": []byte("old")})
	spec := &plan.UploadSpec{Prefix: "foo", BlobCount: 1, BlobSizeMb: 0.001}
	srv := newService(fakeClient, spec)

	result, err := srv.Run(benchcontext.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"foo/0"}, result.Keys)
	assert.Len(t, fakeClient.Blobs("bucket-1")["foo/0"], int(spec.SizeBytes()))
}

func TestValidate(t *testing.T) {
	srv := newService(fake.New(), &plan.UploadSpec{})
	require.NoError(t, srv.Validate())

	srv = newService(fake.New(), &plan.UploadSpec{})
	srv.Client = nil
	assert.Error(t, srv.Validate())

	srv = newService(fake.New(), nil)
	assert.Error(t, srv.Validate())

	srv = newService(fake.New(), &plan.UploadSpec{})
	srv.Bucket = ""
	assert.Error(t, srv.Validate())

	srv = newService(fake.New(), &plan.UploadSpec{})
	srv.Workers = 0
	assert.Error(t, srv.Validate())
}
