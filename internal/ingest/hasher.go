package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// ContentHasher computes the SHA-256 content digest used for both integrity
// reporting and dedup identity. The digest doubles as a security identifier,
// so it must stay a cryptographic hash — never swap in a fast checksum.
type ContentHasher struct{}

// Digest streams r through SHA-256 and returns the hex digest plus the number
// of bytes consumed. The byte count lets callers verify the declared size
// against what was actually readable.
func (ContentHasher) Digest(r io.Reader) (string, uint64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", uint64(n), fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), uint64(n), nil
}

// DigestBytes hashes an in-memory payload.
func (ContentHasher) DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
