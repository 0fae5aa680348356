package common

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"

	"golang.org/x/crypto/sha3"
)

// EthMessagePrefix is the personal_sign framing prepended to every message before hashing.
const EthMessagePrefix = "\x19Ethereum Signed Message:\n"

// Sha256 computes the plain SHA-256 digest of data.
func Sha256(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// Keccak256 is the original Keccak padding, not NIST SHA3-256.
func Keccak256(data []byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	h := hash.Sum(nil)
	return BytesToHash(h)
}

// EthSignedMessageHash frames message the way personal_sign does:
// keccak256("\x19Ethereum Signed Message:\n" + len(message) + message), with the
// byte length written in decimal ASCII.
func EthSignedMessageHash(message []byte) Hash {
	framed := make([]byte, 0, len(EthMessagePrefix)+20+len(message))
	framed = append(framed, EthMessagePrefix...)
	framed = strconv.AppendInt(framed, int64(len(message)), 10)
	framed = append(framed, message...)
	return Keccak256(framed)
}

// BytesToUint32 reads a little-endian uint32 from the first four bytes of data.
func BytesToUint32(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("BytesToUint32: need 4 bytes, got %d", len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}
