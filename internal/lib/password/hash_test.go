package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "supersecret", hash)

	assert.NoError(t, CompareHash(hash, "supersecret"))
	assert.Error(t, CompareHash(hash, "wrongpassword"))
}

func TestGetHashUnique(t *testing.T) {
	first, err := GetHash("samepassword")
	require.NoError(t, err)
	second, err := GetHash("samepassword")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
