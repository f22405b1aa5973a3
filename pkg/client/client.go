// Package client talks to a content-addressed blob-storage network reachable
// through an account-based chain: funding and credit purchases are chain
// transactions, while buckets and blobs live behind the network's
// S3-compatible object gateway.
package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
)

// BroadcastMode controls how eagerly a write is confirmed by the network
// before the call returns.
type BroadcastMode string

const (
	// BroadcastModeCommit waits for full confirmation. It is the default.
	BroadcastModeCommit BroadcastMode = "commit"
	// BroadcastModeSync waits for the write to be accepted but not confirmed.
	// Reads may race writes.
	BroadcastModeSync BroadcastMode = "sync"
	// BroadcastModeAsync returns as soon as the write is submitted.
	// Reads may race writes.
	BroadcastModeAsync BroadcastMode = "async"
)

// ParseBroadcastMode maps a configuration string onto a BroadcastMode.
// The empty string selects the default, commit.
func ParseBroadcastMode(s string) (BroadcastMode, error) {
	switch BroadcastMode(s) {
	case "":
		return BroadcastModeCommit, nil
	case BroadcastModeCommit, BroadcastModeSync, BroadcastModeAsync:
		return BroadcastMode(s), nil
	}
	return "", fmt.Errorf("unknown broadcast mode %q", s)
}

// Target selects the backend a scenario runs against.
type Target string

const (
	// TargetChain is the full chain-backed network: funding, credit and
	// bucket/blob operations.
	TargetChain Target = "chain"
	// TargetS3 is a plain S3-compatible object store. Chain-only operations
	// (funding, credit) are not supported by this target.
	TargetS3 Target = "s3"
)

// ParseTarget maps a configuration string onto a Target.
// The empty string selects the default, chain.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case "":
		return TargetChain, nil
	case TargetChain, TargetS3:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown target %q", s)
}

// Identity is a resolved signing identity on the network.
type Identity struct {
	// Address is the canonical account address, e.g. "0xabc...".
	Address string
	// PrivateKey signs chain transactions. Nil for targets that never sign.
	PrivateKey *ecdsa.PrivateKey
}

// PutOptions qualify a single blob upload.
type PutOptions struct {
	BroadcastMode BroadcastMode
	// Overwrite permits replacing an existing key. When false, putting to a
	// taken key fails with bencherrors.ErrAlreadyExists.
	Overwrite bool
}

// Client is the boundary to the storage network. Implementations must be safe
// for concurrent use; they hold no per-call state, so a single client can be
// shared by many scenarios.
type Client interface {
	// ResolveKey derives the signing identity from a hex-encoded secret key.
	ResolveKey(secret string) (Identity, error)
	// TransferFunds moves whole tokens from one account to another and waits
	// for the transfer to be confirmed.
	TransferFunds(ctx context.Context, from Identity, to string, tokens uint64) error
	// BuyCredit purchases storage credit for the identity's account.
	BuyCredit(ctx context.Context, id Identity, tokens uint64) error
	// CreateBucket creates a bucket owned by the identity and returns its address.
	CreateBucket(ctx context.Context, id Identity) (string, error)
	// PutBlob stores data under key in the bucket.
	PutBlob(ctx context.Context, id Identity, bucket, key string, data []byte, opts PutOptions) error
	// GetBlob fetches the blob stored under key. It fails with
	// bencherrors.ErrNotFound while the key is not (yet) visible.
	GetBlob(ctx context.Context, id Identity, bucket, key string) ([]byte, error)
	// DeleteBlob removes the blob stored under key.
	DeleteBlob(ctx context.Context, id Identity, bucket, key string) error
	// ListBucket returns the keys currently stored in the bucket.
	ListBucket(ctx context.Context, id Identity, bucket string) ([]string, error)
}
