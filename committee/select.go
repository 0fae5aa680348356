// Package committee picks the witnesses expected to attest a claim.
package committee

import (
	"fmt"
	"strconv"

	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/types"
)

const windowSize = 4

// CanonicalIdentifier renders a claim identifier as 0x-prefixed lowercase hex of
// exactly 32 bytes.
func CanonicalIdentifier(identifier string) (string, error) {
	raw, err := common.DecodeHex(identifier)
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %v", identifier, err)
	}
	if len(raw) != common.HashLength {
		return "", fmt.Errorf("invalid identifier %q: want %d bytes, got %d", identifier, common.HashLength, len(raw))
	}
	return common.BytesToHash(raw).Hex(), nil
}

// SeedDigest is sha256("{identifier}\n{minimum}\n{timestamp}\n{epoch id}").
func SeedDigest(epoch *types.Epoch, identifier string, timestamp uint64) common.Hash {
	seed := make([]byte, 0, len(identifier)+64)
	seed = append(seed, identifier...)
	seed = append(seed, '\n')
	seed = strconv.AppendUint(seed, epoch.MinimumWitnessForClaimCreation, 10)
	seed = append(seed, '\n')
	seed = strconv.AppendUint(seed, timestamp, 10)
	seed = append(seed, '\n')
	seed = strconv.AppendUint(seed, uint64(epoch.ID), 10)
	return common.Sha256(seed)
}

// CheckEpoch reports whether a committee can be drawn from epoch at all.
func CheckEpoch(epoch *types.Epoch) error {
	if epoch == nil {
		return fmt.Errorf("%w: no epoch", reclaimerrors.ErrUnknownEpoch)
	}
	if len(epoch.Witnesses) == 0 {
		return fmt.Errorf("%w: epoch %d", reclaimerrors.ErrNoWitnesses, epoch.ID)
	}
	return nil
}

// SelectWitnesses returns the MinimumWitnessForClaimCreation witnesses of epoch that must
// sign the claim. Each pick reads a little-endian uint32 window of the seed digest, moving
// four bytes per pick and wrapping after eight. The same witness may be picked more than once.
func SelectWitnesses(epoch *types.Epoch, identifier string, timestamp uint64) ([]types.Witness, error) {
	if err := CheckEpoch(epoch); err != nil {
		return nil, err
	}
	w := uint64(len(epoch.Witnesses))
	canonical, err := CanonicalIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	digest := SeedDigest(epoch, canonical, timestamp).Bytes()
	n := epoch.MinimumWitnessForClaimCreation
	selected := make([]types.Witness, 0, min(n, types.MaxWitnessesPerEpoch))
	offset := 0
	for i := uint64(0); i < n; i++ {
		seed, err := common.BytesToUint32(digest[offset : offset+windowSize])
		if err != nil {
			return nil, err
		}
		selected = append(selected, epoch.Witnesses[uint64(seed)%w])
		offset = (offset + windowSize) % len(digest)
	}
	log.Trace(log.CommitteeMonitoring, "SelectWitnesses", "epoch", epoch.ID, "identifier", canonical, "n", n, "w", w)
	return selected, nil
}

// SelectAddresses is SelectWitnesses reduced to the witness addresses.
func SelectAddresses(epoch *types.Epoch, identifier string, timestamp uint64) ([]common.Address, error) {
	witnesses, err := SelectWitnesses(epoch, identifier, timestamp)
	if err != nil {
		return nil, err
	}
	addrs := make([]common.Address, len(witnesses))
	for i, wit := range witnesses {
		addrs[i] = wit.Address
	}
	return addrs, nil
}
