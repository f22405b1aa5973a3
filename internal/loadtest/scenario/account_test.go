package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobbench/blobbench/pkg/client/fake"
)

func TestResolver_CachesIdentities(t *testing.T) {
	fakeClient := fake.New()
	calls := 0
	fakeClient.ResolveErr = func(secret string) error {
		calls++
		return nil
	}
	resolver := NewResolver()

	first, err := resolver.Resolve(fakeClient, "aa11")
	require.NoError(t, err)
	second, err := resolver.Resolve(fakeClient, "aa11")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = resolver.Resolve(fakeClient, "bb22")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestResolver_DoesNotCacheFailures(t *testing.T) {
	resolver := NewResolver()
	_, err := resolver.Resolve(fake.New(), "")
	assert.Error(t, err)
	_, err = resolver.Resolve(fake.New(), "")
	assert.Error(t, err)
}
