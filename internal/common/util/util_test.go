package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMin(t *testing.T) {
	assert.Equal(t, 2, Min(2, 3))
	assert.Equal(t, 2, Min(3, 2))
	assert.Equal(t, 2, Min(2, 2))
}

func TestNewULID_UniqueAndLowercase(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewULID()
		assert.False(t, seen[id])
		assert.Equal(t, id, strings.ToLower(id))
		seen[id] = true
	}
}
