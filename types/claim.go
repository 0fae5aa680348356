package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/colorfulnotion/reclaim/common"
)

// ClaimInfo describes the off-chain data a claim is about.
type ClaimInfo struct {
	Provider   string `json:"provider"`
	Parameters string `json:"parameters"`
	Context    string `json:"context"`
}

// Hash returns the claim identifier: keccak256 over provider, parameters and context
// joined by newlines, as 0x-prefixed lowercase hex.
func (c ClaimInfo) Hash() string {
	preimage := make([]byte, 0, len(c.Provider)+len(c.Parameters)+len(c.Context)+2)
	preimage = append(preimage, c.Provider...)
	preimage = append(preimage, '\n')
	preimage = append(preimage, c.Parameters...)
	preimage = append(preimage, '\n')
	preimage = append(preimage, c.Context...)
	return common.Keccak256(preimage).Hex()
}

// CompleteClaimData is the payload the witnesses sign.
type CompleteClaimData struct {
	Identifier string  `json:"identifier"`
	Owner      string  `json:"owner"`
	Epoch      EpochID `json:"epoch"`
	TimestampS uint64  `json:"timestampS"`
}

// Serialise renders "{identifier}\n{owner}\n{timestamp_s}\n{epoch}". Identifier and owner
// are used verbatim; the timestamp comes before the epoch.
func (c CompleteClaimData) Serialise() []byte {
	out := make([]byte, 0, len(c.Identifier)+len(c.Owner)+44)
	out = append(out, c.Identifier...)
	out = append(out, '\n')
	out = append(out, c.Owner...)
	out = append(out, '\n')
	out = strconv.AppendUint(out, c.TimestampS, 10)
	out = append(out, '\n')
	out = strconv.AppendUint(out, uint64(c.Epoch), 10)
	return out
}

type SignedClaim struct {
	Claim      CompleteClaimData `json:"claim"`
	Signatures []string          `json:"signatures"`
}

// Proof bundles a claim with the witness signatures over it.
type Proof struct {
	ClaimInfo   ClaimInfo   `json:"claimInfo"`
	SignedClaim SignedClaim `json:"signedClaim"`
}

func (p *Proof) String() string {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", err)
	}
	return string(jsonBytes)
}

// ProofFromJSON parses a proof in the wire JSON layout.
func ProofFromJSON(data []byte) (*Proof, error) {
	var p Proof
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid proof: %w", err)
	}
	return &p, nil
}
