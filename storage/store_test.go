package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func epochWithWitnesses(id types.EpochID, n int) types.Epoch {
	e := types.Epoch{ID: id, TimestampStart: 1000 * uint64(id), TimestampEnd: 1000*uint64(id) + types.EpochDuration, MinimumWitnessForClaimCreation: 1}
	for i := 0; i < n; i++ {
		addr, _ := common.GetEVMDevAccount(i)
		e.Witnesses = append(e.Witnesses, types.Witness{Address: addr, Host: common.BytesToHash([]byte{byte(i + 1)})})
	}
	return e
}

func TestConfigMissingThenPresent(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	owner, _ := common.GetEVMDevAccount(0)
	require.NoError(t, s.PutConfig(types.EpochConfig{Owner: owner}))

	cfg, err = s.GetConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, owner, cfg.Owner)
	assert.Equal(t, types.EpochID(0), cfg.CurrentEpoch)
}

func TestCommitEpoch(t *testing.T) {
	s := newTestStore(t)
	owner, _ := common.GetEVMDevAccount(0)

	e := epochWithWitnesses(1, 3)
	require.NoError(t, s.CommitEpoch(e, types.EpochConfig{Owner: owner, CurrentEpoch: 1}))

	got, err := s.GetEpoch(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e, *got)

	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, types.EpochID(1), cfg.CurrentEpoch)

	missing, err := s.GetEpoch(2)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEpochsOrderedById(t *testing.T) {
	s := newTestStore(t)
	owner, _ := common.GetEVMDevAccount(0)

	// 256 sorts after 2 only with big-endian keys
	for _, id := range []types.EpochID{256, 2, 1} {
		require.NoError(t, s.CommitEpoch(epochWithWitnesses(id, 1), types.EpochConfig{Owner: owner, CurrentEpoch: id}))
	}
	all, err := s.Epochs()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, types.EpochID(1), all[0].ID)
	assert.Equal(t, types.EpochID(2), all[1].ID)
	assert.Equal(t, types.EpochID(256), all[2].ID)
}

func TestAccountVerifiedFlag(t *testing.T) {
	s := newTestStore(t)
	a, _ := common.GetEVMDevAccount(1)
	b, _ := common.GetEVMDevAccount(2)

	ok, err := s.IsVerified(a)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetVerified(a))
	ok, err = s.IsVerified(a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsVerified(b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreInterfaces(t *testing.T) {
	s := newTestStore(t)
	var _ ConfigStore = s
	var _ EpochStore = s
	var _ AccountStore = s
}
