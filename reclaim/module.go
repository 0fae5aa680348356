// Package reclaim manages the epoch configuration and verifies proofs against the
// witness committee of an epoch.
package reclaim

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/storage"
	"github.com/colorfulnotion/reclaim/telemetry"
	"github.com/colorfulnotion/reclaim/types"
	"github.com/colorfulnotion/reclaim/verifier"
)

// EpochPolicy picks the epoch whose committee a proof is checked against.
type EpochPolicy int

const (
	// PolicyCurrentEpoch always uses the latest epoch, whatever the claim declares.
	PolicyCurrentEpoch EpochPolicy = iota
	// PolicyClaimEpoch uses the epoch declared in the signed claim.
	PolicyClaimEpoch
)

func (p EpochPolicy) String() string {
	switch p {
	case PolicyCurrentEpoch:
		return types.EpochPolicyCurrent
	case PolicyClaimEpoch:
		return types.EpochPolicyClaim
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseEpochPolicy maps the configuration names to a policy.
func ParseEpochPolicy(s string) (EpochPolicy, error) {
	switch s {
	case types.EpochPolicyCurrent, "":
		return PolicyCurrentEpoch, nil
	case types.EpochPolicyClaim:
		return PolicyClaimEpoch, nil
	default:
		return 0, fmt.Errorf("unknown epoch policy %q", s)
	}
}

// Store is the persistence the module needs.
type Store interface {
	storage.ConfigStore
	storage.EpochStore
}

// Module holds the epoch configuration and answers verify_proof.
type Module struct {
	store    Store
	verifier verifier.Verifier
	clock    Clock
	events   EventSink
	tracer   trace.Tracer
	policy   EpochPolicy

	// serialises Init and AddEpoch; VerifyProof never takes it
	mu sync.Mutex
}

type Option func(*Module)

func WithClock(c Clock) Option {
	return func(m *Module) { m.clock = c }
}

func WithEventSink(s EventSink) Option {
	return func(m *Module) { m.events = s }
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Module) { m.tracer = t }
}

func WithTelemetry(c *telemetry.TelemetryClient) Option {
	return func(m *Module) { m.tracer = c.Tracer() }
}

func WithEpochPolicy(p EpochPolicy) Option {
	return func(m *Module) { m.policy = p }
}

func WithVerifier(v verifier.Verifier) Option {
	return func(m *Module) { m.verifier = v }
}

func NewModule(store Store, opts ...Option) *Module {
	m := &Module{
		store:    store,
		verifier: verifier.NewEngine(),
		clock:    SystemClock{},
		events:   LogSink{},
		tracer:   noop.NewTracerProvider().Tracer(telemetry.TracerName),
		policy:   PolicyCurrentEpoch,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Policy() EpochPolicy {
	return m.policy
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		status := err.Error()
		if kind := reclaimerrors.Kind(err); kind != nil {
			status = reclaimerrors.GetErrorCodeWithName(kind)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Init creates the configuration with owner as its owner. It succeeds once.
func (m *Module) Init(owner types.AccountID) (err error) {
	_, span := m.tracer.Start(context.Background(), "reclaim.Init", trace.WithAttributes(attribute.String("owner", owner.LowerHex())))
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.GetConfig()
	if err != nil {
		return err
	}
	if cfg != nil {
		return fmt.Errorf("%w: owner %s", reclaimerrors.ErrAlreadyInitialized, cfg.Owner.LowerHex())
	}
	if err = m.store.PutConfig(types.EpochConfig{Owner: owner, CurrentEpoch: 0}); err != nil {
		return err
	}
	log.Info(log.ReclaimMonitoring, "Init", "owner", owner.LowerHex())
	m.events.Emit(ContractInitialized{Owner: owner})
	return nil
}

// AddEpoch appends the next epoch with the given committee. Only the owner may call it.
// The epoch window starts at the clock reading and lasts EpochDuration.
func (m *Module) AddEpoch(caller types.AccountID, witnesses []types.Witness, minimum uint64) (id types.EpochID, err error) {
	_, span := m.tracer.Start(context.Background(), "reclaim.AddEpoch", trace.WithAttributes(
		attribute.String("caller", caller.LowerHex()),
		attribute.Int("witnesses", len(witnesses)),
		attribute.Int64("minimum", int64(minimum)),
	))
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.store.GetConfig()
	if err != nil {
		return 0, err
	}
	if cfg == nil {
		return 0, reclaimerrors.ErrNotInitialized
	}
	if caller != cfg.Owner {
		return 0, fmt.Errorf("%w: caller %s", reclaimerrors.ErrOnlyOwner, caller.LowerHex())
	}
	if len(witnesses) > types.MaxWitnessesPerEpoch {
		return 0, fmt.Errorf("%w: got %d", reclaimerrors.ErrTooManyWitnesses, len(witnesses))
	}

	start := m.clock.Now()
	epoch := types.Epoch{
		ID:                             cfg.CurrentEpoch + 1,
		TimestampStart:                 start,
		TimestampEnd:                   start + types.EpochDuration,
		MinimumWitnessForClaimCreation: minimum,
		Witnesses:                      slices.Clone(witnesses),
	}
	if epoch.Witnesses == nil {
		epoch.Witnesses = []types.Witness{}
	}
	next := types.EpochConfig{Owner: cfg.Owner, CurrentEpoch: epoch.ID}
	if err = m.store.CommitEpoch(epoch, next); err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("epoch", int64(epoch.ID)))
	log.Info(log.ReclaimMonitoring, "AddEpoch", "epoch", epoch.ID, "witnesses", len(epoch.Witnesses), "minimum", minimum, "start", start)
	m.events.Emit(EpochAdded{EpochID: epoch.ID})
	return epoch.ID, nil
}

// resolveEpoch returns the epoch the proof's committee comes from.
func (m *Module) resolveEpoch(proof *types.Proof) (*types.Epoch, error) {
	cfg, err := m.store.GetConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, reclaimerrors.ErrNotInitialized
	}

	declared := proof.SignedClaim.Claim.Epoch
	id := cfg.CurrentEpoch
	if m.policy == PolicyClaimEpoch {
		id = declared
	} else if declared != id {
		log.Warn(log.ReclaimMonitoring, "claim epoch differs from current epoch", "declared", declared, "current", id)
	}

	epoch, err := m.store.GetEpoch(id)
	if err != nil {
		return nil, err
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: %d", reclaimerrors.ErrUnknownEpoch, id)
	}
	return epoch, nil
}

// VerifyProof checks proof against the committee of the epoch picked by the module's
// policy and emits ProofVerified on success.
func (m *Module) VerifyProof(ctx context.Context, proof *types.Proof) (err error) {
	if proof == nil {
		return reclaimerrors.ErrMissingProof
	}
	_, span := m.tracer.Start(ctx, "reclaim.VerifyProof", trace.WithAttributes(
		attribute.String("identifier", proof.SignedClaim.Claim.Identifier),
		attribute.Int64("claim_epoch", int64(proof.SignedClaim.Claim.Epoch)),
		attribute.Int("signatures", len(proof.SignedClaim.Signatures)),
		attribute.String("policy", m.policy.String()),
	))
	defer func() { endSpan(span, err) }()

	epoch, err := m.resolveEpoch(proof)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int64("epoch", int64(epoch.ID)))

	if engine, ok := m.verifier.(*verifier.Engine); ok {
		var out verifier.Outcome
		out, err = engine.Evaluate(proof, epoch)
		span.SetAttributes(
			attribute.String("stage.reached", out.Reached.String()),
			attribute.String("stage.final", out.Final.String()),
		)
	} else {
		err = m.verifier.VerifyProof(proof, epoch)
	}
	if err != nil {
		log.Debug(log.ReclaimMonitoring, "VerifyProof rejected", "identifier", proof.SignedClaim.Claim.Identifier, "epoch", epoch.ID, "err", err)
		return err
	}

	log.Info(log.ReclaimMonitoring, "VerifyProof accepted", "identifier", proof.SignedClaim.Claim.Identifier, "epoch", epoch.ID)
	m.events.Emit(ProofVerified{EpochID: epoch.ID})
	return nil
}

// Config returns the configuration, or ErrNotInitialized.
func (m *Module) Config() (*types.EpochConfig, error) {
	cfg, err := m.store.GetConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, reclaimerrors.ErrNotInitialized
	}
	return cfg, nil
}

// Epoch returns the epoch with the given id, or ErrUnknownEpoch.
func (m *Module) Epoch(id types.EpochID) (*types.Epoch, error) {
	epoch, err := m.store.GetEpoch(id)
	if err != nil {
		return nil, err
	}
	if epoch == nil {
		return nil, fmt.Errorf("%w: %d", reclaimerrors.ErrUnknownEpoch, id)
	}
	return epoch, nil
}

// CurrentEpoch returns the latest epoch.
func (m *Module) CurrentEpoch() (*types.Epoch, error) {
	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}
	return m.Epoch(cfg.CurrentEpoch)
}

// Epochs lists every epoch in id order.
func (m *Module) Epochs() ([]types.Epoch, error) {
	return m.store.Epochs()
}
