package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colorfulnotion/reclaim/log"
)

// Epoch policies accepted by CommandConfig.EpochPolicy.
const (
	EpochPolicyCurrent = "current"
	EpochPolicyClaim   = "claim"
)

type CommandConfig struct {
	DataDir      string `json:"datadir"`
	LogLevel     string `json:"loglevel"`
	LogJson      bool   `json:"logjson"`
	LogModules   string `json:"logmodules"`
	OTLPEndpoint string `json:"otlpendpoint"`
	EpochPolicy  string `json:"epochpolicy"`
}

// DefaultCommandConfig is what the CLI starts from before flags are applied.
func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		DataDir:     "./reclaim-data",
		LogLevel:    "info",
		EpochPolicy: EpochPolicyCurrent,
	}
}

// Validate rejects settings the CLI cannot act on.
func (c *CommandConfig) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.EpochPolicy {
	case EpochPolicyCurrent, EpochPolicyClaim:
	default:
		return fmt.Errorf("unknown epoch policy %q (want %q or %q)", c.EpochPolicy, EpochPolicyCurrent, EpochPolicyClaim)
	}
	return nil
}

// String method returns the CommandConfig as a formatted JSON string
func (c *CommandConfig) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
