package client

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/internal/common/util"
)

// broadcastModeHeader tells the gateway how eagerly to confirm a write before
// acknowledging it. It travels as object user metadata.
const broadcastModeHeader = "Broadcast-Mode"

// gatewayClient drives buckets and blobs through the network's S3-compatible
// object gateway.
type gatewayClient struct {
	network Network
	mc      *minio.Client
}

func newGatewayClient(network Network, accessKey, secretKey string) (*gatewayClient, error) {
	mc, err := minio.New(network.ObjectUrl, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: network.ObjectTls,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect to object gateway %s", network.ObjectUrl)
	}
	return &gatewayClient{network: network, mc: mc}, nil
}

func (g *gatewayClient) CreateBucket(ctx context.Context, id Identity) (string, error) {
	name := "bb-" + util.NewULID()
	if err := g.mc.MakeBucket(ctx, name, minio.MakeBucketOptions{}); err != nil {
		return "", errors.WithMessagef(err, "failed to create bucket for %s", id.Address)
	}
	log.WithField("account", id.Address).Infof("created bucket %s", name)
	return name, nil
}

func (g *gatewayClient) PutBlob(ctx context.Context, id Identity, bucket, key string, data []byte, opts PutOptions) error {
	if !opts.Overwrite {
		// The gateway has no conditional put, so collisions are detected up front.
		_, err := g.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return errors.WithStack(&bencherrors.ErrAlreadyExists{
				Type:    "blob",
				Value:   key,
				Message: "overwrite disabled",
			})
		}
		if !isGatewayNotFound(err) {
			return errors.WithMessagef(err, "failed to check for existing blob %s", key)
		}
	}

	_, err := g.mc.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/octet-stream",
		UserMetadata: map[string]string{broadcastModeHeader: string(opts.BroadcastMode)},
	})
	if err != nil {
		return errors.WithMessagef(err, "failed to put blob %s", key)
	}
	return nil
}

func (g *gatewayClient) GetBlob(ctx context.Context, id Identity, bucket, key string) ([]byte, error) {
	obj, err := g.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get blob %s", key)
	}
	defer func() {
		if err := obj.Close(); err != nil {
			log.WithError(err).Warnf("failed to close reader for blob %s cleanly", key)
		}
	}()

	// The gateway reports missing keys on first read, not on open.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isGatewayNotFound(err) {
			return nil, errors.WithStack(&bencherrors.ErrNotFound{Type: "blob", Value: key})
		}
		return nil, errors.WithMessagef(err, "failed to read blob %s", key)
	}
	return data, nil
}

func (g *gatewayClient) DeleteBlob(ctx context.Context, id Identity, bucket, key string) error {
	if err := g.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.WithMessagef(err, "failed to delete blob %s", key)
	}
	return nil
}

func (g *gatewayClient) ListBucket(ctx context.Context, id Identity, bucket string) ([]string, error) {
	var keys []string
	for obj := range g.mc.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.WithMessagef(obj.Err, "failed to list bucket %s", bucket)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func isGatewayNotFound(err error) bool {
	switch minio.ToErrorResponse(errors.Cause(err)).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

// s3Client is a plain object-storage backend. The configuration surface names
// this target for benchmarking ordinary S3 endpoints with the same plans;
// chain-only operations are rejected.
type s3Client struct {
	*gatewayClient
}

func (s *s3Client) ResolveKey(secret string) (Identity, error) {
	return resolveKey(secret)
}

func (s *s3Client) TransferFunds(ctx context.Context, from Identity, to string, tokens uint64) error {
	return errors.WithStack(&bencherrors.ErrUnsupported{Operation: "transferFunds", Target: string(TargetS3)})
}

func (s *s3Client) BuyCredit(ctx context.Context, id Identity, tokens uint64) error {
	return errors.WithStack(&bencherrors.ErrUnsupported{Operation: "buyCredit", Target: string(TargetS3)})
}
