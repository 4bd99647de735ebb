package domain

import (
	"encoding/hex"
	"errors"
	"strings"
)

// MaxBytes32Len is the capacity of a contract key (a Solidity bytes32).
const MaxBytes32Len = 32

// ErrBytes32TooLong is returned when a value does not fit into 32 bytes.
var ErrBytes32TooLong = errors.New("value exceeds 32 bytes")

// ErrBadHex is returned for a 0x-prefixed value that is not valid hex.
var ErrBadHex = errors.New("invalid hex encoding")

// Bytes32 holds the raw bytes of a contract key such as a date, a region or
// an oracle classification. Keys compare byte-for-byte; nothing is
// normalized beyond stripping bytes32 right padding.
type Bytes32 string

// ParseBytes32 decodes the wire form of a key. A "0x"-prefixed value is hex
// decoded; anything else is taken as its literal bytes. Trailing NUL bytes
// are dropped so a right-padded bytes32 equals its unpadded text.
func ParseBytes32(s string) (Bytes32, error) {
	raw := []byte(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return "", ErrBadHex
		}
		raw = b
	}
	out := Bytes32(strings.TrimRight(string(raw), "\x00"))
	if len(out) > MaxBytes32Len {
		return "", ErrBytes32TooLong
	}
	return out, nil
}

// Bytes32FromKey reverses Key. Malformed keys yield the empty value.
func Bytes32FromKey(key string) Bytes32 {
	b, err := hex.DecodeString(key)
	if err != nil {
		return ""
	}
	return Bytes32(b)
}

// Key is the storage form: lower-case hex of the raw bytes, no prefix.
func (b Bytes32) Key() string { return hex.EncodeToString([]byte(b)) }

// Hex returns the 0x-prefixed hex form used in events and API responses.
func (b Bytes32) Hex() string { return "0x" + b.Key() }

// Padded returns the value right-padded with NULs to exactly 32 bytes.
func (b Bytes32) Padded() [MaxBytes32Len]byte {
	var out [MaxBytes32Len]byte
	copy(out[:], b)
	return out
}

// IsEmpty reports whether the value holds no bytes.
func (b Bytes32) IsEmpty() bool { return len(b) == 0 }

func (b Bytes32) String() string { return string(b) }
