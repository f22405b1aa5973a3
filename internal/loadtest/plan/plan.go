// Package plan defines the declarative test plan loaded from a YAML or JSON
// file. A plan names a network and a list of scenarios, each describing which
// phases to run (funding, credit purchase, bucket resolution, upload,
// download, delete) and with what parameters.
package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/pkg/client"
)

const (
	DefaultPrefix     = "foo"
	DefaultBlobCount  = 100
	DefaultBlobSizeMb = 1.0
)

// TestPlan is the root of a plan file. Plan-level keys are defaults that
// individual scenarios may override.
type TestPlan struct {
	// PrivateKey is the default scenario key, hex encoded.
	PrivateKey string `json:"privateKey,omitempty"`
	// FunderPrivateKey is the default source of funds for scenarios that
	// request funding.
	FunderPrivateKey string `json:"funderPrivateKey,omitempty"`
	// Network overrides the network selected on the command line.
	Network string          `json:"network,omitempty"`
	Tests   []*ScenarioSpec `json:"tests"`
}

// ScenarioSpec describes one independent scenario. Any number of scenarios
// run concurrently against the same network.
type ScenarioSpec struct {
	Name       string `json:"name,omitempty"`
	PrivateKey string `json:"privateKey,omitempty"`
	FundingKey string `json:"fundingKey,omitempty"`
	// RequestFunds is the number of tokens to transfer from the funding key
	// before the test starts. Zero skips the funding phase.
	RequestFunds uint64 `json:"requestFunds,omitempty"`
	// BuyCredit is the number of tokens of storage credit to buy. Zero skips
	// the credit purchase phase.
	BuyCredit uint64 `json:"buyCredit,omitempty"`
	// Target selects the client implementation, "chain" (default) or "s3".
	Target string    `json:"target,omitempty"`
	Test   *TestSpec `json:"test"`
}

// TestSpec holds the blob phases of a scenario. Upload is mandatory,
// download and delete are optional.
type TestSpec struct {
	Upload        *UploadSpec   `json:"upload"`
	Download      *DownloadSpec `json:"download,omitempty"`
	Delete        bool          `json:"delete,omitempty"`
	BroadcastMode string        `json:"broadcastMode,omitempty"`
}

// UploadSpec describes the synthetic blobs to write.
type UploadSpec struct {
	// Bucket is an existing bucket to reuse. Empty means create a fresh one.
	Bucket     string  `json:"bucket,omitempty"`
	Prefix     string  `json:"prefix,omitempty"`
	BlobCount  int     `json:"blobCount,omitempty"`
	BlobSizeMb float64 `json:"blobSizeMb,omitempty"`
	// Overwrite permits replacing blobs that already exist under the same
	// key. Defaults to true.
	Overwrite *bool `json:"overwrite,omitempty"`
}

// DownloadSpec selects which of the uploaded blobs to read back. In a plan
// file it is either a bool (true reads all of them) or a string "a-b" naming
// the half-open index range [a, b).
type DownloadSpec struct {
	All    bool
	Start  int
	End    int
	ranged bool
}

func (d *DownloadSpec) UnmarshalJSON(data []byte) error {
	var all bool
	if err := json.Unmarshal(data, &all); err == nil {
		*d = DownloadSpec{All: all}
		return nil
	}
	var window string
	if err := json.Unmarshal(data, &window); err != nil {
		return errors.WithStack(&bencherrors.ErrInvalidArgument{
			Name:    "download",
			Value:   string(data),
			Message: "expected a bool or a range string \"a-b\"",
		})
	}
	start, end, err := parseRange(window)
	if err != nil {
		return err
	}
	*d = DownloadSpec{Start: start, End: end, ranged: true}
	return nil
}

func (d DownloadSpec) MarshalJSON() ([]byte, error) {
	if d.ranged {
		return json.Marshal(fmt.Sprintf("%d-%d", d.Start, d.End))
	}
	return json.Marshal(d.All)
}

// Enabled reports whether the download phase should run at all.
func (d *DownloadSpec) Enabled() bool {
	return d != nil && (d.All || d.ranged)
}

// Select returns the subset of keys the spec asks for, preserving order. The
// range is clamped to the available keys, so a window reaching past the end
// of a partially successful upload simply yields fewer keys.
func (d *DownloadSpec) Select(keys []string) []string {
	if !d.Enabled() {
		return nil
	}
	if d.All {
		return keys
	}
	start, end := d.Start, d.End
	if start > len(keys) {
		start = len(keys)
	}
	if end > len(keys) {
		end = len(keys)
	}
	return keys[start:end]
}

// ParseDownloadSpec parses the command line form of a download selection,
// either a bool or a range "a-b". Empty input means no download phase.
func ParseDownloadSpec(value string) (*DownloadSpec, error) {
	if value == "" {
		return nil, nil
	}
	if all, err := strconv.ParseBool(value); err == nil {
		return &DownloadSpec{All: all}, nil
	}
	start, end, err := parseRange(value)
	if err != nil {
		return nil, err
	}
	return &DownloadSpec{Start: start, End: end, ranged: true}, nil
}

func parseRange(window string) (int, int, error) {
	invalid := func(message string) error {
		return errors.WithStack(&bencherrors.ErrInvalidArgument{
			Name:    "download",
			Value:   window,
			Message: message,
		})
	}
	parts := strings.SplitN(window, "-", 2)
	if len(parts) != 2 {
		return 0, 0, invalid("expected a range string \"a-b\"")
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, invalid("range start is not an integer")
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, invalid("range end is not an integer")
	}
	if start < 0 || end < 0 {
		return 0, 0, invalid("range bounds must not be negative")
	}
	if start > end {
		return 0, 0, invalid("range start exceeds range end")
	}
	return start, end, nil
}

// OverwriteEnabled reports whether existing blobs may be replaced.
func (u *UploadSpec) OverwriteEnabled() bool {
	return u.Overwrite == nil || *u.Overwrite
}

// SizeBytes is the payload size of each synthetic blob, rounded to the
// nearest byte for fractional megabyte sizes.
func (u *UploadSpec) SizeBytes() int64 {
	return int64(math.Round(u.BlobSizeMb * 1024 * 1024))
}

// Keys lists the object keys the upload phase writes, in upload order.
func (u *UploadSpec) Keys() []string {
	keys := make([]string, u.BlobCount)
	for i := range keys {
		keys[i] = u.Prefix + "/" + strconv.Itoa(i)
	}
	return keys
}

// ApplyDefaults fills in unset fields, pushes plan-level keys down into each
// scenario and normalizes prefixes. It is idempotent and must run before
// Validate.
func (p *TestPlan) ApplyDefaults() {
	for i, scenario := range p.Tests {
		if scenario == nil {
			continue
		}
		if scenario.Name == "" {
			scenario.Name = fmt.Sprintf("scenario-%d", i+1)
		}
		if scenario.PrivateKey == "" {
			scenario.PrivateKey = p.PrivateKey
		}
		if scenario.FundingKey == "" {
			scenario.FundingKey = p.FunderPrivateKey
		}
		if scenario.Test == nil || scenario.Test.Upload == nil {
			continue
		}
		upload := scenario.Test.Upload
		if upload.Prefix == "" {
			upload.Prefix = DefaultPrefix
		}
		upload.Prefix = strings.TrimRight(upload.Prefix, "/")
		if upload.BlobCount == 0 {
			upload.BlobCount = DefaultBlobCount
		}
		if upload.BlobSizeMb == 0 {
			upload.BlobSizeMb = DefaultBlobSizeMb
		}
	}
}

// Validate checks the whole plan and returns every problem found, not just
// the first one.
func (p *TestPlan) Validate() error {
	var result *multierror.Error
	if p.Network != "" {
		if _, err := client.NetworkByName(p.Network); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if len(p.Tests) == 0 {
		result = multierror.Append(result, &bencherrors.ErrInvalidArgument{
			Name:    "tests",
			Message: "plan contains no scenarios",
		})
	}
	for i, scenario := range p.Tests {
		name := fmt.Sprintf("tests[%d]", i)
		if scenario == nil {
			result = multierror.Append(result, &bencherrors.ErrInvalidArgument{
				Name:    name,
				Message: "scenario is empty",
			})
			continue
		}
		result = multierror.Append(result, scenario.validate(name))
	}
	return result.ErrorOrNil()
}

func (s *ScenarioSpec) validate(name string) error {
	var result *multierror.Error
	invalid := func(field string, value interface{}, message string) {
		result = multierror.Append(result, &bencherrors.ErrInvalidArgument{
			Name:    name + "." + field,
			Value:   value,
			Message: message,
		})
	}

	target, err := client.ParseTarget(s.Target)
	if err != nil {
		invalid("target", s.Target, "unknown target")
	}
	if s.PrivateKey == "" {
		invalid("privateKey", nil, "no scenario key and no plan-level default")
	}
	if s.RequestFunds > 0 && s.FundingKey == "" {
		invalid("fundingKey", nil, "requestFunds needs a funding key")
	}
	if target == client.TargetS3 && s.RequestFunds > 0 {
		invalid("requestFunds", s.RequestFunds, "the s3 target cannot transfer funds")
	}
	if target == client.TargetS3 && s.BuyCredit > 0 {
		invalid("buyCredit", s.BuyCredit, "the s3 target cannot buy credit")
	}

	if s.Test == nil {
		invalid("test", nil, "scenario has no test section")
		return result.ErrorOrNil()
	}
	if _, err := client.ParseBroadcastMode(s.Test.BroadcastMode); err != nil {
		invalid("test.broadcastMode", s.Test.BroadcastMode, "unknown broadcast mode")
	}
	if s.Test.Upload == nil {
		invalid("test.upload", nil, "every scenario needs an upload section")
		return result.ErrorOrNil()
	}

	upload := s.Test.Upload
	if upload.BlobCount < 0 {
		invalid("test.upload.blobCount", upload.BlobCount, "must not be negative")
	}
	if upload.BlobSizeMb < 0 {
		invalid("test.upload.blobSizeMb", upload.BlobSizeMb, "must not be negative")
	}
	if upload.Prefix == "" {
		invalid("test.upload.prefix", upload.Prefix, "must not be empty")
	}
	return result.ErrorOrNil()
}
