package build

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint identifies the bytes last written to one output file.
type Fingerprint struct {
	Path string
	Hash string
}

func NewFingerprint(path string, data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint{Path: path, Hash: hex.EncodeToString(sum[:])}
}

// Matches reports whether other describes the same content at the same path.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.Path == other.Path && f.Hash != "" && f.Hash == other.Hash
}
