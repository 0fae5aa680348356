// Package accounts marks accounts as verified once they present an accepted proof.
package accounts

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/reclaim"
	"github.com/colorfulnotion/reclaim/reclaimerrors"
	"github.com/colorfulnotion/reclaim/storage"
	"github.com/colorfulnotion/reclaim/telemetry"
	"github.com/colorfulnotion/reclaim/types"
)

// ProofVerifier is satisfied by *reclaim.Module.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, proof *types.Proof) error
}

type UserVerified struct {
	Account types.AccountID `json:"account_id"`
}

func (UserVerified) EventName() string { return "UserVerified" }

type Registry struct {
	verifier ProofVerifier
	store    storage.AccountStore
	events   reclaim.EventSink
	tracer   trace.Tracer
}

type Option func(*Registry)

func WithEventSink(s reclaim.EventSink) Option {
	return func(r *Registry) { r.events = s }
}

func WithTelemetry(c *telemetry.TelemetryClient) Option {
	return func(r *Registry) { r.tracer = c.Tracer() }
}

func NewRegistry(v ProofVerifier, store storage.AccountStore, opts ...Option) *Registry {
	r := &Registry{
		verifier: v,
		store:    store,
		events:   reclaim.LogSink{Module: log.AccountsMonitoring},
		tracer:   noop.NewTracerProvider().Tracer(telemetry.TracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// VerifyUser marks who as verified if proof is accepted. A rejected proof leaves the
// flag as it was.
func (r *Registry) VerifyUser(ctx context.Context, who types.AccountID, proof *types.Proof) (err error) {
	if proof == nil {
		return reclaimerrors.ErrMissingProof
	}
	ctx, span := r.tracer.Start(ctx, "accounts.VerifyUser", trace.WithAttributes(attribute.String("account", who.LowerHex())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err = r.verifier.VerifyProof(ctx, proof); err != nil {
		log.Debug(log.AccountsMonitoring, "VerifyUser rejected", "account", who.LowerHex(), "err", err)
		return err
	}
	if err = r.store.SetVerified(who); err != nil {
		return err
	}
	log.Info(log.AccountsMonitoring, "VerifyUser", "account", who.LowerHex())
	r.events.Emit(UserVerified{Account: who})
	return nil
}

func (r *Registry) IsVerified(who types.AccountID) (bool, error) {
	return r.store.IsVerified(who)
}
