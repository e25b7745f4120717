package id

import "github.com/minio/highwayhash"

// keyLo and keyHi are the two independent highwayhash keys used to derive
// a 128-bit numeric id from a 64-bit hash primitive: each key yields one
// 64-bit lane, concatenated into the 128-bit storage key.
var (
	keyLo = []byte("0123456789ABCDEF0123456789ABCDEF")
	keyHi = []byte("FEDCBA9876543210FEDCBA9876543210")
)

// NumericID is the 128-bit numeric identity used to key storage backends.
type NumericID struct {
	Lo uint64
	Hi uint64
}

// ComputeNumericID hashes raw (an id string from Compute or ComputeSemantic)
// twice with independent keys to produce a 128-bit value.
func ComputeNumericID(raw string) (NumericID, error) {
	lo, err := hashWith(keyLo, raw)
	if err != nil {
		return NumericID{}, err
	}
	hi, err := hashWith(keyHi, raw)
	if err != nil {
		return NumericID{}, err
	}
	return NumericID{Lo: lo, Hi: hi}, nil
}

func hashWith(key []byte, data string) (uint64, error) {
	h, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write([]byte(data)); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// Bytes renders the NumericID as a 16-byte big-endian key, suitable for use
// as a storage backend key.
func (n NumericID) Bytes() [16]byte {
	var b [16]byte
	putUint64(b[0:8], n.Hi)
	putUint64(b[8:16], n.Lo)
	return b
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}
