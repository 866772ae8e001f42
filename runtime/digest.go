package runtime

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/justapithecus/icupack/iox"
)

// FileSHA256 returns the hex SHA-256 digest of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer iox.DiscardClose(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ManifestSHA256 returns the digest of a manifest in its on-disk form.
func ManifestSHA256(entries []string) string {
	h := sha256.New()
	for _, e := range entries {
		_, _ = io.WriteString(h, e)
		_, _ = io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}
