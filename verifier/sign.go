package verifier

import (
	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/types"
)

// SignClaim produces the witness signature over claim: 0x followed by 130 hex chars,
// r||s||v with v as 27 or 28.
func SignClaim(privateKeyHex string, claim *types.CompleteClaimData) (string, error) {
	_, signature, err := common.EthSign(privateKeyHex, claim.Serialise())
	if err != nil {
		return "", err
	}
	return common.Bytes2Hex(signature), nil
}
