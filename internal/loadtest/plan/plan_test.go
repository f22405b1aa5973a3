package plan

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobbench/blobbench/internal/common/bencherrors"
	"github.com/blobbench/blobbench/pkg/client/util"
)

func TestBindPlan_Yaml(t *testing.T) {
	testPlan := &TestPlan{}
	err := util.BindJsonOrYaml(filepath.Join("testdata", "plan.yaml"), testPlan)
	require.NoError(t, err)
	assert.Equal(t, getExpectedPlan(), testPlan)
}

func TestBindPlan_Json(t *testing.T) {
	testPlan := &TestPlan{}
	err := util.BindJsonOrYaml(filepath.Join("testdata", "plan.json"), testPlan)
	require.NoError(t, err)
	assert.Equal(t, getExpectedPlan(), testPlan)
}

func getExpectedPlan() *TestPlan {
	overwrite := false
	return &TestPlan{
		PrivateKey:       "aa11",
		FunderPrivateKey: "bb22",
		Network:          "localnet",
		Tests: []*ScenarioSpec{
			{
				Name:         "smoke",
				RequestFunds: 10,
				BuyCredit:    5,
				Test: &TestSpec{
					BroadcastMode: "async",
					Upload: &UploadSpec{
						Prefix:     "bench/",
						BlobCount:  4,
						BlobSizeMb: 0.5,
						Overwrite:  &overwrite,
					},
					Download: &DownloadSpec{Start: 1, End: 3, ranged: true},
					Delete:   true,
				},
			},
			{
				PrivateKey: "cc33",
				Target:     "s3",
				Test: &TestSpec{
					Upload:   &UploadSpec{Bucket: "existing-bucket"},
					Download: &DownloadSpec{All: true},
				},
			},
		},
	}
}

func TestDownloadSpec_UnmarshalJSON(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected DownloadSpec
		wantErr  bool
	}{
		"true":            {input: `true`, expected: DownloadSpec{All: true}},
		"false":           {input: `false`, expected: DownloadSpec{}},
		"range":           {input: `"2-8"`, expected: DownloadSpec{Start: 2, End: 8, ranged: true}},
		"empty range":     {input: `"0-0"`, expected: DownloadSpec{ranged: true}},
		"inverted range":  {input: `"8-2"`, wantErr: true},
		"malformed start": {input: `"x-2"`, wantErr: true},
		"negative start":  {input: `"-1-2"`, wantErr: true},
		"number":          {input: `5`, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var spec DownloadSpec
			err := json.Unmarshal([]byte(tc.input), &spec)
			if tc.wantErr {
				assert.Error(t, err)
				var invalid *bencherrors.ErrInvalidArgument
				assert.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, spec)
		})
	}
}

func TestDownloadSpec_MarshalRoundTrip(t *testing.T) {
	for _, spec := range []DownloadSpec{
		{All: true},
		{},
		{Start: 3, End: 9, ranged: true},
	} {
		data, err := json.Marshal(spec)
		require.NoError(t, err)
		var out DownloadSpec
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, spec, out)
	}
}

func TestDownloadSpec_Select(t *testing.T) {
	keys := []string{"foo/0", "foo/1", "foo/2", "foo/3"}

	all := &DownloadSpec{All: true}
	assert.Equal(t, keys, all.Select(keys))

	disabled := &DownloadSpec{}
	assert.Nil(t, disabled.Select(keys))

	window := &DownloadSpec{Start: 1, End: 3, ranged: true}
	assert.Equal(t, []string{"foo/1", "foo/2"}, window.Select(keys))

	clamped := &DownloadSpec{Start: 2, End: 100, ranged: true}
	assert.Equal(t, []string{"foo/2", "foo/3"}, clamped.Select(keys))

	beyond := &DownloadSpec{Start: 10, End: 20, ranged: true}
	assert.Empty(t, beyond.Select(keys))
}

func TestDownloadSpec_Enabled(t *testing.T) {
	var missing *DownloadSpec
	assert.False(t, missing.Enabled())
	assert.False(t, (&DownloadSpec{}).Enabled())
	assert.True(t, (&DownloadSpec{All: true}).Enabled())
	assert.True(t, (&DownloadSpec{Start: 0, End: 0, ranged: true}).Enabled())
}

func TestApplyDefaults(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey:       "plan-key",
		FunderPrivateKey: "plan-funder",
		Tests: []*ScenarioSpec{
			{Test: &TestSpec{Upload: &UploadSpec{}}},
			{
				Name:       "custom",
				PrivateKey: "own-key",
				FundingKey: "own-funder",
				Test: &TestSpec{
					Upload: &UploadSpec{Prefix: "data///", BlobCount: 7, BlobSizeMb: 2},
				},
			},
		},
	}
	testPlan.ApplyDefaults()

	first := testPlan.Tests[0]
	assert.Equal(t, "scenario-1", first.Name)
	assert.Equal(t, "plan-key", first.PrivateKey)
	assert.Equal(t, "plan-funder", first.FundingKey)
	assert.Equal(t, DefaultPrefix, first.Test.Upload.Prefix)
	assert.Equal(t, DefaultBlobCount, first.Test.Upload.BlobCount)
	assert.Equal(t, DefaultBlobSizeMb, first.Test.Upload.BlobSizeMb)

	second := testPlan.Tests[1]
	assert.Equal(t, "custom", second.Name)
	assert.Equal(t, "own-key", second.PrivateKey)
	assert.Equal(t, "own-funder", second.FundingKey)
	assert.Equal(t, "data", second.Test.Upload.Prefix)
	assert.Equal(t, 7, second.Test.Upload.BlobCount)
	assert.Equal(t, 2.0, second.Test.Upload.BlobSizeMb)
}

func TestValidate_ValidPlan(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey: "aa11",
		Tests: []*ScenarioSpec{
			{Test: &TestSpec{Upload: &UploadSpec{}}},
		},
	}
	testPlan.ApplyDefaults()
	assert.NoError(t, testPlan.Validate())
}

func TestValidate_EmptyPlan(t *testing.T) {
	err := (&TestPlan{}).Validate()
	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	testPlan := &TestPlan{
		Tests: []*ScenarioSpec{
			{
				RequestFunds: 5,
				Test: &TestSpec{
					BroadcastMode: "broadcast",
					Upload:        &UploadSpec{Prefix: "p", BlobCount: -1, BlobSizeMb: -2},
				},
			},
		},
	}
	err := testPlan.Validate()
	require.Error(t, err)
	// Missing key, missing funding key, bad broadcast mode, negative count,
	// negative size.
	assert.Contains(t, err.Error(), "privateKey")
	assert.Contains(t, err.Error(), "fundingKey")
	assert.Contains(t, err.Error(), "broadcastMode")
	assert.Contains(t, err.Error(), "blobCount")
	assert.Contains(t, err.Error(), "blobSizeMb")
}

func TestValidate_S3TargetRestrictions(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey: "aa11",
		Tests: []*ScenarioSpec{
			{
				Target:       "s3",
				RequestFunds: 1,
				BuyCredit:    1,
				Test:         &TestSpec{Upload: &UploadSpec{Prefix: "p", BlobCount: 1, BlobSizeMb: 1}},
			},
		},
	}
	testPlan.ApplyDefaults()
	err := testPlan.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requestFunds")
	assert.Contains(t, err.Error(), "buyCredit")
}

func TestValidate_UnknownTarget(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey: "aa11",
		Tests: []*ScenarioSpec{
			{Target: "ftp", Test: &TestSpec{Upload: &UploadSpec{Prefix: "p", BlobCount: 1, BlobSizeMb: 1}}},
		},
	}
	testPlan.ApplyDefaults()
	err := testPlan.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
}

func TestValidate_UnknownNetwork(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey: "aa11",
		Network:    "no-such-net",
		Tests: []*ScenarioSpec{
			{Test: &TestSpec{Upload: &UploadSpec{Prefix: "p", BlobCount: 1, BlobSizeMb: 1}}},
		},
	}
	testPlan.ApplyDefaults()
	err := testPlan.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "no-such-net")
}

func TestValidate_KnownNetwork(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey: "aa11",
		Network:    "localnet",
		Tests: []*ScenarioSpec{
			{Test: &TestSpec{Upload: &UploadSpec{Prefix: "p", BlobCount: 1, BlobSizeMb: 1}}},
		},
	}
	testPlan.ApplyDefaults()
	assert.NoError(t, testPlan.Validate())
}

func TestValidate_MissingUpload(t *testing.T) {
	testPlan := &TestPlan{
		PrivateKey: "aa11",
		Tests:      []*ScenarioSpec{{Test: &TestSpec{}}},
	}
	err := testPlan.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload")
}

func TestUploadSpec_Keys(t *testing.T) {
	upload := &UploadSpec{Prefix: "foo", BlobCount: 3}
	assert.Equal(t, []string{"foo/0", "foo/1", "foo/2"}, upload.Keys())

	empty := &UploadSpec{Prefix: "foo", BlobCount: 0}
	assert.Empty(t, empty.Keys())
}

func TestUploadSpec_SizeBytes(t *testing.T) {
	assert.Equal(t, int64(1048576), (&UploadSpec{BlobSizeMb: 1}).SizeBytes())
	assert.Equal(t, int64(524288), (&UploadSpec{BlobSizeMb: 0.5}).SizeBytes())
	// Fractional sizes round to the nearest byte rather than truncate.
	assert.Equal(t, int64(105), (&UploadSpec{BlobSizeMb: 0.0001}).SizeBytes())
}

func TestUploadSpec_OverwriteEnabled(t *testing.T) {
	assert.True(t, (&UploadSpec{}).OverwriteEnabled())
	yes, no := true, false
	assert.True(t, (&UploadSpec{Overwrite: &yes}).OverwriteEnabled())
	assert.False(t, (&UploadSpec{Overwrite: &no}).OverwriteEnabled())
}
