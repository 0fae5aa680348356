package types

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/reclaim/codec"
	"github.com/colorfulnotion/reclaim/common"
)

const (
	// MaxWitnessesPerEpoch bounds the committee registered for a single epoch.
	MaxWitnessesPerEpoch = 100
	// EpochDuration is added to the start timestamp to get the end of the epoch window,
	// in the units of the clock that produced the start.
	EpochDuration = 10000
)

type EpochID uint64

// AccountID identifies a caller: the contract owner or an account being verified.
type AccountID = common.Address

// Witness is an attestor registered for an epoch.
type Witness struct {
	Address common.Address `json:"address"`
	Host    common.Hash    `json:"host"`
}

type Epoch struct {
	ID                             EpochID   `json:"id"`
	TimestampStart                 uint64    `json:"timestamp_start"`
	TimestampEnd                   uint64    `json:"timestamp_end"`
	MinimumWitnessForClaimCreation uint64    `json:"minimum_witness_for_claim_creation"`
	Witnesses                      []Witness `json:"witnesses"`
}

// EpochConfig is the singleton created by init and advanced by every new epoch.
type EpochConfig struct {
	Owner        AccountID `json:"owner"`
	CurrentEpoch EpochID   `json:"current_epoch"`
}

// WitnessAddresses returns the addresses of e's committee in registration order.
func (e *Epoch) WitnessAddresses() []common.Address {
	out := make([]common.Address, len(e.Witnesses))
	for i, w := range e.Witnesses {
		out[i] = w.Address
	}
	return out
}

func (e Epoch) Bytes() []byte {
	bytes, err := codec.Encode(e)
	if err != nil {
		return nil
	}
	return bytes
}

func EpochFromBytes(data []byte) (Epoch, error) {
	var e Epoch
	if err := codec.Decode(data, &e); err != nil {
		return e, fmt.Errorf("EpochFromBytes: %w", err)
	}
	return e, nil
}

func (e *Epoch) String() string {
	jsonBytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("%v", err)
	}
	return string(jsonBytes)
}

func (c EpochConfig) Bytes() []byte {
	bytes, err := codec.Encode(c)
	if err != nil {
		return nil
	}
	return bytes
}

func EpochConfigFromBytes(data []byte) (EpochConfig, error) {
	var c EpochConfig
	if err := codec.Decode(data, &c); err != nil {
		return c, fmt.Errorf("EpochConfigFromBytes: %w", err)
	}
	return c, nil
}

func (c *EpochConfig) String() string {
	jsonBytes, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%v", err)
	}
	return string(jsonBytes)
}
