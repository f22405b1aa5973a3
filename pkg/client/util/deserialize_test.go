package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Network string `json:"network"`
	Tests   []struct {
		Name      string `json:"name"`
		BlobCount int    `json:"blobCount"`
	} `json:"tests"`
}

func TestBindJsonOrYaml_Yaml(t *testing.T) {
	doc := &document{}
	err := BindJsonOrYaml(writeFile(t, "plan.yaml", `
network: localnet
tests:
  - name: smoke
    blobCount: 4
`), doc)
	require.NoError(t, err)
	assert.Equal(t, expectedDocument(), doc)
}

func TestBindJsonOrYaml_Json(t *testing.T) {
	doc := &document{}
	err := BindJsonOrYaml(writeFile(t, "plan.json",
		`{"network": "localnet", "tests": [{"name": "smoke", "blobCount": 4}]}`), doc)
	require.NoError(t, err)
	assert.Equal(t, expectedDocument(), doc)
}

func TestBindJsonOrYaml_MissingFile(t *testing.T) {
	err := BindJsonOrYaml(filepath.Join(t.TempDir(), "nope.yaml"), &document{})
	assert.Error(t, err)
}

func TestBindJsonOrYaml_Malformed(t *testing.T) {
	err := BindJsonOrYaml(writeFile(t, "plan.yaml", "{not valid"), &document{})
	assert.Error(t, err)
}

func expectedDocument() *document {
	doc := &document{Network: "localnet"}
	doc.Tests = append(doc.Tests, struct {
		Name      string `json:"name"`
		BlobCount int    `json:"blobCount"`
	}{Name: "smoke", BlobCount: 4})
	return doc
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
