package reclaim

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/colorfulnotion/reclaim/common"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/storage"
	"github.com/colorfulnotion/reclaim/telemetry"
	"github.com/colorfulnotion/reclaim/types"
	"github.com/colorfulnotion/reclaim/verifier"
)

var steamWitness = common.HexToAddress("0x244897572368eadf65bfbc5aec98d8e5443a9072")

func loadSteamProof(t *testing.T) *types.Proof {
	t.Helper()
	data, err := os.ReadFile("testdata/proof.json")
	require.NoError(t, err)
	proof, err := types.ProofFromJSON(data)
	require.NoError(t, err)
	return proof
}

func steamWitnesses() []types.Witness {
	var host common.Hash
	for i := range host {
		host[i] = 1
	}
	return []types.Witness{{Address: steamWitness, Host: host}}
}

type fixture struct {
	module *Module
	store  *storage.Store
	clock  *ManualClock
	sink   *RecordingSink
	owner  types.AccountID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store, err := storage.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store: store,
		clock: NewManualClock(1712174155),
		sink:  NewRecordingSink(),
	}
	f.owner, _ = common.GetEVMDevAccount(0)
	opts = append([]Option{WithClock(f.clock), WithEventSink(f.sink)}, opts...)
	f.module = NewModule(store, opts...)
	return f
}

func TestSteamProofAccepted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	id, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
	require.NoError(t, err)
	assert.Equal(t, types.EpochID(1), id)

	require.NoError(t, f.module.VerifyProof(context.Background(), loadSteamProof(t)))
	assert.Equal(t, []Event{
		ContractInitialized{Owner: f.owner},
		EpochAdded{EpochID: 1},
		ProofVerified{EpochID: 1},
	}, f.sink.Events())
}

func TestSteamProofForeignWitness(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	other, _ := common.GetEVMDevAccount(3)
	_, err := f.module.AddEpoch(f.owner, []types.Witness{{Address: other}}, 1)
	require.NoError(t, err)

	err = f.module.VerifyProof(context.Background(), loadSteamProof(t))
	assert.ErrorIs(t, err, reclaimerrors.ErrSignatureMismatch)
	assert.Len(t, f.sink.Events(), 2)
}

func TestEpochPolicy(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))
	_, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
	require.NoError(t, err)
	other, _ := common.GetEVMDevAccount(3)
	_, err = f.module.AddEpoch(f.owner, []types.Witness{{Address: other}}, 1)
	require.NoError(t, err)

	// the claim declares epoch 1, but the latest epoch is 2
	proof := loadSteamProof(t)
	assert.ErrorIs(t, f.module.VerifyProof(context.Background(), proof), reclaimerrors.ErrSignatureMismatch)

	byClaim := NewModule(f.store, WithEpochPolicy(PolicyClaimEpoch))
	assert.Equal(t, PolicyClaimEpoch, byClaim.Policy())
	assert.NoError(t, byClaim.VerifyProof(context.Background(), proof))

	proof.SignedClaim.Claim.Epoch = 7
	assert.ErrorIs(t, byClaim.VerifyProof(context.Background(), proof), reclaimerrors.ErrUnknownEpoch)
}

func TestParseEpochPolicy(t *testing.T) {
	p, err := ParseEpochPolicy(types.EpochPolicyClaim)
	require.NoError(t, err)
	assert.Equal(t, PolicyClaimEpoch, p)

	p, err = ParseEpochPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyCurrentEpoch, p)
	assert.Equal(t, "current", p.String())

	_, err = ParseEpochPolicy("latest")
	assert.Error(t, err)
}

func TestInitOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	other, _ := common.GetEVMDevAccount(1)
	assert.ErrorIs(t, f.module.Init(other), reclaimerrors.ErrAlreadyInitialized)

	cfg, err := f.module.Config()
	require.NoError(t, err)
	assert.Equal(t, f.owner, cfg.Owner)
	assert.Len(t, f.sink.Events(), 1)
}

func TestNotInitialized(t *testing.T) {
	f := newFixture(t)

	_, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
	assert.ErrorIs(t, err, reclaimerrors.ErrNotInitialized)
	assert.ErrorIs(t, f.module.VerifyProof(context.Background(), loadSteamProof(t)), reclaimerrors.ErrNotInitialized)
	_, err = f.module.Config()
	assert.ErrorIs(t, err, reclaimerrors.ErrNotInitialized)
	_, err = f.module.CurrentEpoch()
	assert.ErrorIs(t, err, reclaimerrors.ErrNotInitialized)
}

func TestVerifyBeforeFirstEpoch(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))
	assert.ErrorIs(t, f.module.VerifyProof(context.Background(), loadSteamProof(t)), reclaimerrors.ErrUnknownEpoch)
}

func TestAddEpochOwnerOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	intruder, _ := common.GetEVMDevAccount(1)
	_, err := f.module.AddEpoch(intruder, steamWitnesses(), 1)
	assert.ErrorIs(t, err, reclaimerrors.ErrOnlyOwner)

	cfg, err := f.module.Config()
	require.NoError(t, err)
	assert.Equal(t, types.EpochID(0), cfg.CurrentEpoch)
	epochs, err := f.module.Epochs()
	require.NoError(t, err)
	assert.Empty(t, epochs)
}

func TestAddEpochWindowAndIds(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	f.clock.Set(5000)
	id, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
	require.NoError(t, err)

	e, err := f.module.Epoch(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), e.TimestampStart)
	assert.Equal(t, uint64(15000), e.TimestampEnd)
	assert.Equal(t, uint64(1), e.MinimumWitnessForClaimCreation)
	assert.Equal(t, steamWitnesses(), e.Witnesses)

	f.clock.Advance(20000)
	id, err = f.module.AddEpoch(f.owner, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, types.EpochID(2), id)

	cur, err := f.module.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, types.EpochID(2), cur.ID)
	assert.Equal(t, uint64(25000), cur.TimestampStart)
	assert.Equal(t, uint64(35000), cur.TimestampEnd)
	assert.Empty(t, cur.Witnesses)

	_, err = f.module.Epoch(3)
	assert.ErrorIs(t, err, reclaimerrors.ErrUnknownEpoch)
}

func TestAddEpochWitnessLimit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	witnesses := make([]types.Witness, types.MaxWitnessesPerEpoch)
	_, err := f.module.AddEpoch(f.owner, witnesses, 1)
	require.NoError(t, err)

	_, err = f.module.AddEpoch(f.owner, append(witnesses, types.Witness{}), 1)
	assert.ErrorIs(t, err, reclaimerrors.ErrTooManyWitnesses)
}

func TestConcurrentAddEpoch(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))

	const n = 16
	ids := make(chan types.EpochID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[types.EpochID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	for id := types.EpochID(1); id <= n; id++ {
		assert.True(t, seen[id], "missing id %d", id)
	}
	cur, err := f.module.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, types.EpochID(n), cur.ID)
}

func TestUnimplementedVerifier(t *testing.T) {
	f := newFixture(t, WithVerifier(verifier.Unimplemented{}))
	require.NoError(t, f.module.Init(f.owner))
	_, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
	require.NoError(t, err)

	assert.ErrorIs(t, f.module.VerifyProof(context.Background(), loadSteamProof(t)), reclaimerrors.ErrUnimplemented)
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestVerifyProofSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	client := telemetry.NewTelemetryClientWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	f := newFixture(t, WithTelemetry(client))

	require.NoError(t, f.module.Init(f.owner))
	_, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1)
	require.NoError(t, err)

	proof := loadSteamProof(t)
	require.NoError(t, f.module.VerifyProof(context.Background(), proof))
	proof.ClaimInfo.Provider = "https"
	require.ErrorIs(t, f.module.VerifyProof(context.Background(), proof), reclaimerrors.ErrHashMismatch)

	ended := recorder.Ended()
	require.Len(t, ended, 4)
	assert.Equal(t, "reclaim.Init", ended[0].Name())
	assert.Equal(t, "reclaim.AddEpoch", ended[1].Name())

	accepted := ended[2]
	assert.Equal(t, "reclaim.VerifyProof", accepted.Name())
	assert.Equal(t, codes.Ok, accepted.Status().Code)
	stage, ok := spanAttr(accepted, "stage.final")
	require.True(t, ok)
	assert.Equal(t, "accepted", stage.AsString())
	epoch, ok := spanAttr(accepted, "epoch")
	require.True(t, ok)
	assert.Equal(t, int64(1), epoch.AsInt64())

	rejected := ended[3]
	assert.Equal(t, codes.Error, rejected.Status().Code)
	assert.Equal(t, "P1_HashMismatch", rejected.Status().Description)
	stage, ok = spanAttr(rejected, "stage.reached")
	require.True(t, ok)
	assert.Equal(t, "received", stage.AsString())
	require.Len(t, rejected.Events(), 1)
	assert.Equal(t, "exception", rejected.Events()[0].Name)
}

func TestVerifyNilProof(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("reclaim-test")
	f := newFixture(t, WithTracer(tracer))
	require.NoError(t, f.module.Init(f.owner))

	assert.ErrorIs(t, f.module.VerifyProof(context.Background(), nil), reclaimerrors.ErrMissingProof)
	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "reclaim.Init", recorder.Ended()[0].Name())
}

func TestHugeCommitteeRejectedOnCount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.module.Init(f.owner))
	_, err := f.module.AddEpoch(f.owner, steamWitnesses(), 1<<40)
	require.NoError(t, err)

	err = f.module.VerifyProof(context.Background(), loadSteamProof(t))
	assert.ErrorIs(t, err, reclaimerrors.ErrLengthMismatch)
}
