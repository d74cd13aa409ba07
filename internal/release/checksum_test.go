package release

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChecksums(t *testing.T) {
	t.Parallel()

	digest := strings.Repeat("ab", 32)

	manifest := strings.Join([]string{
		digest + "  whistle_0.3.0_linux_amd64.tar.gz",
		digest + "  *whistle_0.3.0_darwin_arm64.tar.gz",
		"",
		"not a manifest line",
		"deadbeef  short-digest.tar.gz",
	}, "\n")

	checksums, err := ParseChecksums(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, checksums, 2)
	require.Equal(t, digest, checksums["whistle_0.3.0_linux_amd64.tar.gz"])
	require.Equal(t, digest, checksums["whistle_0.3.0_darwin_arm64.tar.gz"])
}

func TestVerifyFile(t *testing.T) {
	t.Parallel()

	payload := []byte("release payload")

	path := filepath.Join(t.TempDir(), "asset")
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	sum := sha256.Sum256(payload)
	expected := hex.EncodeToString(sum[:])

	require.NoError(t, VerifyFile(path, expected))
	require.NoError(t, VerifyFile(path, strings.ToUpper(expected)))

	err := VerifyFile(path, strings.Repeat("00", 32))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestFileSHA256MissingFile(t *testing.T) {
	t.Parallel()

	_, err := FileSHA256(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
