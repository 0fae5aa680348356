package main

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/colorfulnotion/reclaim/types"
)

// epochTree renders the owner, then one branch per epoch with its window, minimum and
// witnesses. The current epoch is marked.
func epochTree(cfg *types.EpochConfig, epochs []types.Epoch) string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("owner %s", cfg.Owner.LowerHex()))
	for _, e := range epochs {
		label := fmt.Sprintf("epoch %d", e.ID)
		if e.ID == cfg.CurrentEpoch {
			label += " (current)"
		}
		branch := tree.AddBranch(label)
		branch.AddNode(fmt.Sprintf("window %d..%d", e.TimestampStart, e.TimestampEnd))
		branch.AddNode(fmt.Sprintf("minimum %d", e.MinimumWitnessForClaimCreation))
		witnesses := branch.AddBranch(fmt.Sprintf("witnesses (%d)", len(e.Witnesses)))
		for _, w := range e.Witnesses {
			witnesses.AddMetaNode(w.Host.String_short(), w.Address.LowerHex())
		}
	}
	return tree.String()
}
