package core

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell inputs apart in a report
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// DatasetFingerprint identifies the exact bytes a report was computed from
type DatasetFingerprint Hash

func (h DatasetFingerprint) String() string { return Hash(h).String() }
func (h DatasetFingerprint) Short() string  { return Hash(h).Short() }

// FingerprintFile hashes the file at path without loading it whole
func FingerprintFile(path string) (DatasetFingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return DatasetFingerprint(hex.EncodeToString(h.Sum(nil))), nil
}
