package release

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// sha256HexLength is the length of a hex-encoded SHA-256 digest.
const sha256HexLength = 64

// ErrChecksumMismatch is returned when a downloaded file's digest does not
// match the manifest entry for it.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ParseChecksums reads a sha256sum-format manifest and returns a map from
// filename to hex digest. Lines that do not look like manifest entries are
// skipped.
func ParseChecksums(r io.Reader) (map[string]string, error) {
	checksums := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 || len(fields[0]) != sha256HexLength {
			continue
		}

		if _, err := hex.DecodeString(fields[0]); err != nil {
			continue
		}

		// sha256sum marks binary mode with a leading asterisk on the name.
		checksums[strings.TrimPrefix(fields[1], "*")] = fields[0]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read checksum manifest: %w", err)
	}

	return checksums, nil
}

// FileSHA256 returns the hex-encoded SHA-256 digest of a file.
func FileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err = io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifyFile checks the file at path against the expected hex digest.
func VerifyFile(path, expectedHex string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expectedHex) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expectedHex, actual)
	}

	return nil
}
