package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/types"
)

// ConfigStore holds the EpochConfig singleton.
type ConfigStore interface {
	// GetConfig returns (nil, nil) before the config is created.
	GetConfig() (*types.EpochConfig, error)
	PutConfig(cfg types.EpochConfig) error
}

// EpochStore holds epoch records by id. Records are never removed.
type EpochStore interface {
	// GetEpoch returns (nil, nil) for an unknown id.
	GetEpoch(id types.EpochID) (*types.Epoch, error)
	// Epochs lists every stored epoch in ascending id order.
	Epochs() ([]types.Epoch, error)
	// CommitEpoch stores epoch and the advanced config in one atomic write.
	CommitEpoch(epoch types.Epoch, cfg types.EpochConfig) error
}

// AccountStore holds the verified flag per account.
type AccountStore interface {
	SetVerified(who types.AccountID) error
	IsVerified(who types.AccountID) (bool, error)
}

var (
	configKey     = []byte("cfg")
	epochPrefix   = []byte("epoch/")
	accountPrefix = []byte("verified/")
)

func epochKey(id types.EpochID) []byte {
	key := make([]byte, len(epochPrefix)+8)
	copy(key, epochPrefix)
	binary.BigEndian.PutUint64(key[len(epochPrefix):], uint64(id))
	return key
}

func accountKey(who types.AccountID) []byte {
	return append(append([]byte{}, accountPrefix...), who.Bytes()...)
}

// Store keeps config, epochs and account flags in one LevelDB database.
type Store struct {
	*PersistenceStore
}

// NewStore opens a store at path, or an in-memory one when path is empty.
func NewStore(path string) (*Store, error) {
	ps, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	return &Store{ps}, nil
}

func NewMemoryStore() (*Store, error) {
	return NewStore("")
}

func (s *Store) GetConfig() (*types.EpochConfig, error) {
	data, ok, err := s.Get(configKey)
	if err != nil || !ok {
		return nil, err
	}
	cfg, err := types.EpochConfigFromBytes(data)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutConfig(cfg types.EpochConfig) error {
	data := cfg.Bytes()
	if data == nil {
		return fmt.Errorf("PutConfig: encoding failed")
	}
	log.Trace(log.StoreMonitoring, "PutConfig", "owner", cfg.Owner, "current", cfg.CurrentEpoch)
	return s.Put(configKey, data)
}

func (s *Store) GetEpoch(id types.EpochID) (*types.Epoch, error) {
	data, ok, err := s.Get(epochKey(id))
	if err != nil || !ok {
		return nil, err
	}
	e, err := types.EpochFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("epoch %d: %w", id, err)
	}
	return &e, nil
}

func (s *Store) Epochs() ([]types.Epoch, error) {
	pairs, err := s.GetWithPrefix(epochPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]types.Epoch, 0, len(pairs))
	for _, kv := range pairs {
		e, err := types.EpochFromBytes(kv[1])
		if err != nil {
			return nil, fmt.Errorf("key %x: %w", kv[0], err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) CommitEpoch(epoch types.Epoch, cfg types.EpochConfig) error {
	epochBytes := epoch.Bytes()
	cfgBytes := cfg.Bytes()
	if epochBytes == nil || cfgBytes == nil {
		return fmt.Errorf("CommitEpoch %d: encoding failed", epoch.ID)
	}
	log.Trace(log.StoreMonitoring, "CommitEpoch", "epoch", epoch.ID, "witnesses", len(epoch.Witnesses))
	return s.WriteBatch([][2][]byte{
		{epochKey(epoch.ID), epochBytes},
		{configKey, cfgBytes},
	})
}

func (s *Store) SetVerified(who types.AccountID) error {
	return s.Put(accountKey(who), []byte{1})
}

func (s *Store) IsVerified(who types.AccountID) (bool, error) {
	return s.Has(accountKey(who))
}
