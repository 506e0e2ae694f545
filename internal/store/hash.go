package store

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// ComputeFileHash returns the content hash used as a File's content_hash
// (spec §3): a lowercase hex BLAKE3 digest of the raw file bytes. A file's
// hash uniquely determines its extracted rows; callers skip re-extraction
// when the stored hash for a path is unchanged.
func ComputeFileHash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
