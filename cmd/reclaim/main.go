// reclaim manages witness epochs and verifies claim proofs against a local store.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/reclaim/common"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	if Commit == "none" {
		Commit = common.GetCommitHash()
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
