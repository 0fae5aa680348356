package verifier

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
)

// CheckQuorum accepts when recovered has as many entries as expected and every recovered
// address belongs to expected. Duplicates on either side are not collapsed.
func CheckQuorum(expected, recovered []common.Address) error {
	if len(expected) != len(recovered) {
		return fmt.Errorf("%w: expected %d, recovered %d", reclaimerrors.ErrLengthMismatch, len(expected), len(recovered))
	}
	for _, addr := range recovered {
		if !slices.Contains(expected, addr) {
			return fmt.Errorf("%w: %s", reclaimerrors.ErrSignatureMismatch, addr.LowerHex())
		}
	}
	return nil
}
