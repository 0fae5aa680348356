package common

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is r||s||v.
	SignatureLength = crypto.SignatureLength
	// RecoveryIDOffset is added to the raw recovery id by Ethereum signers (27/28).
	RecoveryIDOffset = 27
)

// EthSign signs message with the personal_sign framing using the provided private key in hex format.
// It returns the message hash and the 65-byte signature with v encoded as 27 or 28.
func EthSign(privateKeyHex string, message []byte) (Hash, []byte, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return Hash{}, nil, fmt.Errorf("error converting private key: %v", err)
	}
	return EthSignWithKey(privateKey, message)
}

// EthSignWithKey is EthSign for an already parsed key.
func EthSignWithKey(privateKey *ecdsa.PrivateKey, message []byte) (Hash, []byte, error) {
	messageHash := EthSignedMessageHash(message)

	signature, err := crypto.Sign(messageHash.Bytes(), privateKey)
	if err != nil {
		return Hash{}, nil, fmt.Errorf("error signing the hash: %v", err)
	}
	signature[SignatureLength-1] += RecoveryIDOffset

	return messageHash, signature, nil
}

// PubkeyToAddress derives the account address: last 20 bytes of keccak256 over the
// uncompressed public key without its 0x04 marker.
func PubkeyToAddress(pub *ecdsa.PublicKey) Address {
	uncompressed := crypto.FromECDSAPub(pub)
	return BytesToAddress(Keccak256(uncompressed[1:]).Bytes()[12:])
}

// PrivateKeyToAddress returns the address controlled by privateKeyHex.
func PrivateKeyToAddress(privateKeyHex string) (Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return Address{}, fmt.Errorf("error converting private key: %v", err)
	}
	return PubkeyToAddress(&privateKey.PublicKey), nil
}

// RecoverEthSigner recovers the public key that produced signature over messageHash.
// messageHash is used as-is; v must already be normalised to 0 or 1.
func RecoverEthSigner(messageHash Hash, signature []byte) (*ecdsa.PublicKey, error) {
	if len(signature) != SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(signature))
	}
	pub, err := crypto.SigToPub(messageHash.Bytes(), signature)
	if err != nil {
		return nil, fmt.Errorf("error recovering public key from signature: %w", err)
	}
	if pub == nil {
		return nil, errors.New("recovered public key is nil")
	}
	return pub, nil
}
