package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

const HashSize = sha256.Size

// Hash is a SHA-256 digest over serialized blocks. A run is identified by the
// digest of its whole history.
type Hash [HashSize]byte

// ZeroHash is the digest of an empty history.
var ZeroHash Hash

// HashFromHex parses the full hex form printed by Hex.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.Wrapf(err, "digest %q", s)
	}
	if len(b) != HashSize {
		return h, errors.Errorf("digest %q: want %d bytes, got %d", s, HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns a copy of h.
func (h Hash) Bytes() []byte {
	return append([]byte(nil), h[:]...)
}

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func ComputeSHA256(data []byte) Hash {
	return sha256.Sum256(data)
}
