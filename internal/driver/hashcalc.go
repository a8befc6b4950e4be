package driver

import (
	"crypto/sha256"
)

// Digest identifies a cache entry.
type Digest [32]byte

// combineDigest: H(content || fingerprint). The fingerprint covers every
// option that changes the messages produced for a file.
func combineDigest(content [32]byte, fingerprint string) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	_, _ = h.Write([]byte(fingerprint))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
