// Package oracle implements the request/response protocol spoken with the
// external date-classification oracle: request id derivation, callback
// selectors, the CBOR request payload and the OracleRequest log record an
// oracle node listens for.
package oracle

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// FulfillSignature is the callback the oracle answers through.
	FulfillSignature = "fulfillDateCheck(bytes32,bytes32)"
	// OracleRequestSignature is the event signature oracle nodes filter on.
	OracleRequestSignature = "OracleRequest(bytes32,address,bytes32,uint256,address,bytes4,uint256,uint256,bytes)"
	// DataVersion is the request argument encoding version.
	DataVersion = 1

	addressLen = 20
)

// Keccak256 hashes the concatenation of parts.
func Keccak256(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Selector returns the 4-byte function selector of a signature as 0x-hex.
func Selector(signature string) string {
	return "0x" + hex.EncodeToString(Keccak256([]byte(signature))[:4])
}

// Topic returns the event topic of a signature as 0x-hex.
func Topic(signature string) string {
	return "0x" + hex.EncodeToString(Keccak256([]byte(signature)))
}

// FulfillSelector is the callbackFunctionId carried in every request.
var FulfillSelector = Selector(FulfillSignature)

// OracleRequestTopic is topic[0] of the OracleRequest event.
var OracleRequestTopic = Topic(OracleRequestSignature)

// AddressBytes returns the 20-byte form of a 0x-hex address. Short values
// are left-padded, long ones keep their low 20 bytes, and non-hex input
// hashes to an address so every configured name maps to stable bytes.
func AddressBytes(addr string) []byte {
	s := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		b = Keccak256([]byte(addr))
	}
	if len(b) > addressLen {
		b = b[len(b)-addressLen:]
	}
	out := make([]byte, addressLen)
	copy(out[addressLen-len(b):], b)
	return out
}

// RequestID derives a request id the way Chainlink clients do:
// keccak256(abi.encodePacked(contract, nonce)) with nonce as uint256.
func RequestID(contract string, nonce uint64) string {
	var n [32]byte
	binary.BigEndian.PutUint64(n[24:], nonce)
	return "0x" + hex.EncodeToString(Keccak256(AddressBytes(contract), n[:]))
}

// NormalizeID lower-cases a 0x-hex id and adds the prefix when missing.
func NormalizeID(id string) string {
	s := strings.ToLower(strings.TrimSpace(id))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}
