package verifier

import (
	"fmt"

	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/types"
)

// ParseSignature decodes a 65-byte r||s||v signature from hex (0x prefix optional) and
// maps the Ethereum recovery flag 27/28 to the raw recovery id 0/1.
func ParseSignature(signature string) ([]byte, error) {
	raw, err := common.DecodeHex(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reclaimerrors.ErrMalformedSignature, err)
	}
	if len(raw) != common.SignatureLength {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", reclaimerrors.ErrMalformedSignature, common.SignatureLength, len(raw))
	}

	v := raw[common.SignatureLength-1]
	switch v {
	case common.RecoveryIDOffset, common.RecoveryIDOffset + 1:
		raw[common.SignatureLength-1] = v - common.RecoveryIDOffset
	default:
		return nil, fmt.Errorf("%w: recovery flag %d", reclaimerrors.ErrMalformedSignature, v)
	}
	return raw, nil
}

// RecoverAddress returns the address whose key produced signature over messageHash.
func RecoverAddress(messageHash common.Hash, signature string) (common.Address, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return common.Address{}, err
	}
	pub, err := common.RecoverEthSigner(messageHash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", reclaimerrors.ErrMalformedSignature, err)
	}
	return common.PubkeyToAddress(pub), nil
}

// RecoverSigners recovers one address per signature, in input order, over the
// Ethereum-framed serialisation of the claim.
func RecoverSigners(signed *types.SignedClaim) ([]common.Address, error) {
	messageHash := common.EthSignedMessageHash(signed.Claim.Serialise())
	out := make([]common.Address, 0, len(signed.Signatures))
	for i, signature := range signed.Signatures {
		addr, err := RecoverAddress(messageHash, signature)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		out = append(out, addr)
	}
	return out, nil
}
