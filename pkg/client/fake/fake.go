// Package fake provides a deterministic in-memory client.Client used by unit
// tests. Failures can be injected per operation, and a visibility delay
// emulates the read-after-write race of non-commit broadcast modes.
package fake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/pkg/client"
)

type Client struct {
	// VisibilityDelay is how many reads of a freshly written key fail with
	// NotFound before the key becomes visible, but only for blobs written with
	// a non-commit broadcast mode.
	VisibilityDelay int

	// Per-operation failure injection. A nil hook never fails.
	PutErr      func(bucket, key string) error
	GetErr      func(bucket, key string) error
	DeleteErr   func(bucket, key string) error
	ListErr     func(bucket string) error
	CreateErr   func() error
	TransferErr func(to string, tokens uint64) error
	CreditErr   func(tokens uint64) error
	ResolveErr  func(secret string) error

	mu          sync.Mutex
	buckets     map[string]map[string][]byte
	pendingRead map[string]int
	nextBucket  int

	puts      int
	gets      int
	deletes   int
	lists     int
	creates   int
	transfers int
	credits   int
}

var _ client.Client = (*Client)(nil)

func New() *Client {
	return &Client{
		buckets:     make(map[string]map[string][]byte),
		pendingRead: make(map[string]int),
	}
}

// AddBucket pre-creates a bucket, optionally seeded with blobs.
func (c *Client) AddBucket(name string, blobs map[string][]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := make(map[string][]byte, len(blobs))
	for k, v := range blobs {
		bucket[k] = append([]byte(nil), v...)
	}
	c.buckets[name] = bucket
}

// Blobs returns a copy of the bucket's current contents.
func (c *Client) Blobs(bucket string) map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]byte, len(c.buckets[bucket]))
	for k, v := range c.buckets[bucket] {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

func (c *Client) PutCalls() int      { c.mu.Lock(); defer c.mu.Unlock(); return c.puts }
func (c *Client) GetCalls() int      { c.mu.Lock(); defer c.mu.Unlock(); return c.gets }
func (c *Client) DeleteCalls() int   { c.mu.Lock(); defer c.mu.Unlock(); return c.deletes }
func (c *Client) ListCalls() int     { c.mu.Lock(); defer c.mu.Unlock(); return c.lists }
func (c *Client) CreateCalls() int   { c.mu.Lock(); defer c.mu.Unlock(); return c.creates }
func (c *Client) TransferCalls() int { c.mu.Lock(); defer c.mu.Unlock(); return c.transfers }
func (c *Client) CreditCalls() int   { c.mu.Lock(); defer c.mu.Unlock(); return c.credits }

func (c *Client) ResolveKey(secret string) (client.Identity, error) {
	if c.ResolveErr != nil {
		if err := c.ResolveErr(secret); err != nil {
			return client.Identity{}, err
		}
	}
	if secret == "" {
		return client.Identity{}, errors.WithStack(&bencherrors.ErrInvalidArgument{
			Name:    "privateKey",
			Value:   "***",
			Message: "empty secret",
		})
	}
	sum := sha256.Sum256([]byte(secret))
	return client.Identity{Address: "0x" + hex.EncodeToString(sum[:20])}, nil
}

func (c *Client) TransferFunds(ctx context.Context, from client.Identity, to string, tokens uint64) error {
	c.mu.Lock()
	c.transfers++
	c.mu.Unlock()
	if c.TransferErr != nil {
		return c.TransferErr(to, tokens)
	}
	return ctx.Err()
}

func (c *Client) BuyCredit(ctx context.Context, id client.Identity, tokens uint64) error {
	c.mu.Lock()
	c.credits++
	c.mu.Unlock()
	if c.CreditErr != nil {
		return c.CreditErr(tokens)
	}
	return ctx.Err()
}

func (c *Client) CreateBucket(ctx context.Context, id client.Identity) (string, error) {
	if c.CreateErr != nil {
		if err := c.CreateErr(); err != nil {
			return "", err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates++
	c.nextBucket++
	name := fmt.Sprintf("bb-fake-%d", c.nextBucket)
	c.buckets[name] = make(map[string][]byte)
	return name, nil
}

func (c *Client) PutBlob(ctx context.Context, id client.Identity, bucket, key string, data []byte, opts client.PutOptions) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	if c.PutErr != nil {
		if err := c.PutErr(bucket, key); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	blobs, ok := c.buckets[bucket]
	if !ok {
		return errors.WithStack(&bencherrors.ErrNotFound{Type: "bucket", Value: bucket})
	}
	if _, taken := blobs[key]; taken && !opts.Overwrite {
		return errors.WithStack(&bencherrors.ErrAlreadyExists{Type: "blob", Value: key, Message: "overwrite disabled"})
	}
	blobs[key] = append([]byte(nil), data...)
	if opts.BroadcastMode != client.BroadcastModeCommit && c.VisibilityDelay > 0 {
		c.pendingRead[bucket+"/"+key] = c.VisibilityDelay
	}
	return nil
}

func (c *Client) GetBlob(ctx context.Context, id client.Identity, bucket, key string) ([]byte, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	if c.GetErr != nil {
		if err := c.GetErr(bucket, key); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if remaining, delayed := c.pendingRead[bucket+"/"+key]; delayed {
		if remaining > 1 {
			c.pendingRead[bucket+"/"+key] = remaining - 1
		} else {
			delete(c.pendingRead, bucket+"/"+key)
		}
		return nil, errors.WithStack(&bencherrors.ErrNotFound{Type: "blob", Value: key, Message: "not yet confirmed"})
	}
	data, ok := c.buckets[bucket][key]
	if !ok {
		return nil, errors.WithStack(&bencherrors.ErrNotFound{Type: "blob", Value: key})
	}
	return append([]byte(nil), data...), nil
}

func (c *Client) DeleteBlob(ctx context.Context, id client.Identity, bucket, key string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	if c.DeleteErr != nil {
		if err := c.DeleteErr(bucket, key); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets[bucket], key)
	return nil
}

func (c *Client) ListBucket(ctx context.Context, id client.Identity, bucket string) ([]string, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	if c.ListErr != nil {
		if err := c.ListErr(bucket); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	blobs, ok := c.buckets[bucket]
	if !ok {
		return nil, errors.WithStack(&bencherrors.ErrNotFound{Type: "bucket", Value: bucket})
	}
	keys := make([]string, 0, len(blobs))
	for k := range blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
