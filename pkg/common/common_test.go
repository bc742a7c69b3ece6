package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.Positive(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSha256HashWithSalt(t *testing.T) {
	a := Sha256HashWithSalt("secret", "salt1")
	b := Sha256HashWithSalt("secret", "salt2")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Sha256HashWithSalt("secret", "salt1"))
	assert.Len(t, a, 64)
}

func TestReadSecretFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("  tok-123\n\n"), 0600))

	assert.Equal(t, "tok-123", ReadSecretFile(path))
	assert.Empty(t, ReadSecretFile(filepath.Join(dir, "missing")))
	assert.Empty(t, ReadSecretFile(""))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "***", MaskToken(""))
	masked := MaskToken("abcd1234efgh5678")
	assert.Equal(t, "abcd...5678", masked)
}

func TestTrimLower(t *testing.T) {
	assert.Equal(t, "connected", TrimLower("  CONNECTED \n"))
	assert.Equal(t, "", TrimLower("   "))
}
