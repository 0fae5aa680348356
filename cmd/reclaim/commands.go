package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/reclaim/committee"
	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/types"
	"github.com/colorfulnotion/reclaim/verifier"
)

func newRootCmd() *cobra.Command {
	cfg := types.DefaultCommandConfig()

	rootCmd := &cobra.Command{
		Use:           "reclaim",
		Short:         "Witness epoch management and claim proof verification",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return setupLogging(&cfg, cmd.ErrOrStderr())
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "LevelDB directory holding config, epochs and verified accounts")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn, error or crit")
	flags.BoolVar(&cfg.LogJson, "log-json", cfg.LogJson, "Write logs as JSON lines")
	flags.StringVar(&cfg.LogModules, "log-modules", cfg.LogModules, "Comma separated modules with trace/debug output, e.g. verifier_mod,store_mod")
	flags.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", cfg.OTLPEndpoint, "OTLP/HTTP collector host:port; empty disables tracing")
	flags.StringVar(&cfg.EpochPolicy, "epoch-policy", cfg.EpochPolicy, "Committee epoch for verify: current or claim")

	rootCmd.AddCommand(
		configCmd(&cfg),
		initCmd(&cfg),
		addEpochCmd(&cfg),
		epochsCmd(&cfg),
		epochCmd(&cfg),
		hashClaimCmd(),
		selectWitnessesCmd(&cfg),
		signCmd(),
		verifyCmd(&cfg),
		verifyUserCmd(&cfg),
	)
	return rootCmd
}

func configCmd(cfg *types.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			return err
		},
	}
}

func initCmd(cfg *types.CommandConfig) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration with the given owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := common.ParseAddress(owner)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.module.Init(addr); err != nil {
				return err
			}
			c, err := a.module.Config()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner address (0x-prefixed hex)")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func addEpochCmd(cfg *types.CommandConfig) *cobra.Command {
	var (
		caller        string
		witnessesFile string
		minimum       uint64
	)
	cmd := &cobra.Command{
		Use:   "add-epoch",
		Short: "Append a new epoch with the witnesses listed in a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := common.ParseAddress(caller)
			if err != nil {
				return err
			}
			var witnesses []types.Witness
			if err := readJSONFile(witnessesFile, &witnesses); err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.module.AddEpoch(addr, witnesses, minimum)
			if err != nil {
				return err
			}
			e, err := a.module.Epoch(id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "Caller address; must be the owner")
	cmd.Flags().StringVar(&witnessesFile, "witnesses", "", "JSON file with [{\"address\":..,\"host\":..}]")
	cmd.Flags().Uint64Var(&minimum, "minimum", 1, "Minimum witnesses for claim creation")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("witnesses")
	return cmd
}

func epochsCmd(cfg *types.CommandConfig) *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "epochs",
		Short: "List every epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			epochs, err := a.module.Epochs()
			if err != nil {
				return err
			}
			if tree {
				c, err := a.module.Config()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), epochTree(c, epochs))
				return err
			}
			return writeJSON(cmd.OutOrStdout(), epochs)
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "Render epochs and their witnesses as a tree")
	return cmd
}

func epochCmd(cfg *types.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "epoch [id]",
		Short: "Show one epoch, the current one when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var e *types.Epoch
			if len(args) == 0 {
				e, err = a.module.CurrentEpoch()
			} else {
				var id uint64
				if id, err = strconv.ParseUint(args[0], 10, 64); err != nil {
					return fmt.Errorf("invalid epoch id %q: %w", args[0], err)
				}
				e, err = a.module.Epoch(types.EpochID(id))
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e)
		},
	}
}

func hashClaimCmd() *cobra.Command {
	var info types.ClaimInfo
	cmd := &cobra.Command{
		Use:   "hash-claim",
		Short: "Print the identifier of a claim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Hash())
			return err
		},
	}
	cmd.Flags().StringVar(&info.Provider, "provider", "", "Claim provider")
	cmd.Flags().StringVar(&info.Parameters, "parameters", "", "Claim parameters (JSON string)")
	cmd.Flags().StringVar(&info.Context, "context", "", "Claim context (JSON string)")
	return cmd
}

func selectWitnessesCmd(cfg *types.CommandConfig) *cobra.Command {
	var (
		epochID    uint64
		identifier string
		timestamp  uint64
	)
	cmd := &cobra.Command{
		Use:   "select-witnesses",
		Short: "Print the witnesses expected to sign a claim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var e *types.Epoch
			if epochID == 0 {
				e, err = a.module.CurrentEpoch()
			} else {
				e, err = a.module.Epoch(types.EpochID(epochID))
			}
			if err != nil {
				return err
			}
			selected, err := committee.SelectWitnesses(e, identifier, timestamp)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), selected)
		},
	}
	cmd.Flags().Uint64Var(&epochID, "epoch", 0, "Epoch id; 0 selects the current epoch")
	cmd.Flags().StringVar(&identifier, "identifier", "", "Claim identifier (0x-prefixed hex)")
	cmd.Flags().Uint64Var(&timestamp, "timestamp", 0, "Claim timestamp in seconds")
	cmd.MarkFlagRequired("identifier")
	return cmd
}

func signCmd() *cobra.Command {
	var keyHex, claimFile string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a claim as a witness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var claim types.CompleteClaimData
			if err := readJSONFile(claimFile, &claim); err != nil {
				return err
			}
			sig, err := verifier.SignClaim(keyHex, &claim)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sig)
			return err
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "Witness private key (hex)")
	cmd.Flags().StringVar(&claimFile, "claim", "", "JSON file with the complete claim data")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("claim")
	return cmd
}

type verifyResult struct {
	Accepted bool     `json:"accepted"`
	Account  string   `json:"account,omitempty"`
	Error    string   `json:"error,omitempty"`
	Events   []string `json:"events,omitempty"`
}

func rejection(err error) verifyResult {
	res := verifyResult{Error: err.Error()}
	if kind := reclaimerrors.Kind(err); kind != nil {
		res.Error = reclaimerrors.GetErrorCodeWithName(kind)
	}
	return res
}

func verifyCmd(cfg *types.CommandConfig) *cobra.Command {
	var proofFile string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a proof against the stored epochs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var proof types.Proof
			if err := readJSONFile(proofFile, &proof); err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.module.VerifyProof(cmd.Context(), &proof); err != nil {
				if werr := writeJSON(cmd.OutOrStdout(), rejection(err)); werr != nil {
					return werr
				}
				return err
			}
			return writeJSON(cmd.OutOrStdout(), verifyResult{Accepted: true, Events: a.eventNames()})
		},
	}
	cmd.Flags().StringVar(&proofFile, "proof", "", "JSON file with the proof")
	cmd.MarkFlagRequired("proof")
	return cmd
}

func verifyUserCmd(cfg *types.CommandConfig) *cobra.Command {
	var account, proofFile string
	cmd := &cobra.Command{
		Use:   "verify-user",
		Short: "Verify a proof and mark the account as verified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := common.ParseAddress(account)
			if err != nil {
				return err
			}
			var proof types.Proof
			if err := readJSONFile(proofFile, &proof); err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.VerifyUser(cmd.Context(), who, &proof); err != nil {
				res := rejection(err)
				res.Account = who.LowerHex()
				if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
				return err
			}
			verified, err := a.registry.IsVerified(who)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), verifyResult{Accepted: verified, Account: who.LowerHex(), Events: a.eventNames()})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Account to mark as verified")
	cmd.Flags().StringVar(&proofFile, "proof", "", "JSON file with the proof")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("proof")
	return cmd
}
