package spanz

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// IDLength is the length in characters of trace and span IDs.
const IDLength = 32

const idBytes = IDLength / 2

// NewID returns 16 bytes from crypto/rand encoded as 32 lowercase hex
// characters.
//
// NewID panics with an *EntropyError if the random source fails. There is
// no fallback: an identifier that is not random breaks trace integrity.
func NewID() string {
	return readID(rand.Reader)
}

// idFactory returns an ID generator reading from r.
func idFactory(r io.Reader) func() string {
	return func() string {
		return readID(r)
	}
}

func readID(r io.Reader) string {
	b := make([]byte, idBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		panic(&EntropyError{Err: err})
	}
	return hex.EncodeToString(b)
}
