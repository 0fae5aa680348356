// Package verifier decides whether a proof carries the signatures of the witness
// committee selected for its claim.
package verifier

import (
	"fmt"

	"github.com/colorfulnotion/reclaim/committee"
	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/types"
)

// Stage is the furthest point a proof reached in verification.
type Stage int

const (
	StageReceived Stage = iota
	StageHashChecked
	StageWitnessesSelected
	StageSignaturesRecovered
	StageAccepted
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageHashChecked:
		return "hash_checked"
	case StageWitnessesSelected:
		return "witnesses_selected"
	case StageSignaturesRecovered:
		return "signatures_recovered"
	case StageAccepted:
		return "accepted"
	case StageRejected:
		return "rejected"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Verifier checks a proof against the epoch whose committee should have signed it.
type Verifier interface {
	VerifyProof(proof *types.Proof, epoch *types.Epoch) error
}

// Outcome records how far a proof got. Reached is the last stage completed before the
// proof was accepted or rejected.
type Outcome struct {
	Reached   Stage
	Final     Stage
	Expected  []common.Address
	Recovered []common.Address
}

// Engine is the stateless proof verifier.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) VerifyProof(proof *types.Proof, epoch *types.Epoch) error {
	_, err := e.Evaluate(proof, epoch)
	return err
}

// Evaluate runs every stage in order and stops at the first failure. Signatures are
// recovered before the committee is drawn, and a signature count that differs from the
// committee size is rejected without drawing it.
func (e *Engine) Evaluate(proof *types.Proof, epoch *types.Epoch) (Outcome, error) {
	out := Outcome{Reached: StageReceived, Final: StageRejected}
	if proof == nil {
		return out, reclaimerrors.ErrMissingProof
	}
	claim := &proof.SignedClaim.Claim

	hash := proof.ClaimInfo.Hash()
	if hash != claim.Identifier {
		log.Debug(log.VerifierMonitoring, "identifier mismatch", "computed", hash, "identifier", claim.Identifier)
		return out, fmt.Errorf("%w: computed %s, claim carries %s", reclaimerrors.ErrHashMismatch, hash, claim.Identifier)
	}
	out.Reached = StageHashChecked

	if err := committee.CheckEpoch(epoch); err != nil {
		return out, err
	}
	recovered, err := RecoverSigners(&proof.SignedClaim)
	if err != nil {
		return out, err
	}
	out.Recovered = recovered

	// The committee size comes from the epoch record, so only draw it once the
	// signature count already matches.
	if n := epoch.MinimumWitnessForClaimCreation; uint64(len(recovered)) != n {
		log.Debug(log.VerifierMonitoring, "quorum rejected", "epoch", epoch.ID, "expected", n, "recovered", len(recovered))
		return out, fmt.Errorf("%w: expected %d, recovered %d", reclaimerrors.ErrLengthMismatch, n, len(recovered))
	}

	expected, err := committee.SelectAddresses(epoch, claim.Identifier, claim.TimestampS)
	if err != nil {
		return out, err
	}
	out.Expected = expected
	out.Reached = StageSignaturesRecovered

	if err := CheckQuorum(expected, recovered); err != nil {
		log.Debug(log.VerifierMonitoring, "quorum rejected", "epoch", epoch.ID, "expected", len(expected), "recovered", len(recovered), "err", err)
		return out, err
	}
	out.Final = StageAccepted
	log.Trace(log.VerifierMonitoring, "proof accepted", "identifier", claim.Identifier, "epoch", epoch.ID)
	return out, nil
}

// Unimplemented rejects every proof with ErrUnimplemented.
type Unimplemented struct{}

func (Unimplemented) VerifyProof(*types.Proof, *types.Epoch) error {
	return reclaimerrors.ErrUnimplemented
}
