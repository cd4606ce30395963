package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
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

// Short returns the first 12 hex characters, enough to tell traces apart in a report.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// TraceHash fingerprints the raw bytes of a posterior trace file.
type TraceHash Hash

func NewTraceHash(data []byte) TraceHash { return TraceHash(NewHash(data)) }
func (h TraceHash) String() string       { return Hash(h).String() }
func (h TraceHash) Short() string        { return Hash(h).Short() }

// ComputeBundleHash combines per-scenario trace hashes into one order-independent fingerprint.
func ComputeBundleHash(traces map[string]TraceHash) Hash {
	keys := make([]string, 0, len(traces))
	for k := range traces {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(traces[key].String())
	}
	return NewHash([]byte(data.String()))
}
