// Package spid issues FIL-SPID-V0 credentials: stateless authorization headers proving
// that the caller controls the worker key of a Filecoin storage provider.
package spid

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/filecoin-project/go-address"
	"github.com/go-softwarelab/common/pkg/to"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/internal/logging"
)

// RetryPolicy configures retries of transient chain failures (ChainUnavailable, BeaconUnavailable).
// The zero value disables retries.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt too, values below 2 disable retries.
	MaxAttempts uint
	// MaxElapsed bounds the total time spent on a single step, zero keeps the backoff default.
	MaxElapsed time.Duration
	// InitialInterval is the first backoff interval, zero keeps the backoff default.
	InitialInterval time.Duration
}

func (p RetryPolicy) enabled() bool {
	return p.MaxAttempts > 1
}

// Options configures the issuer.
type Options struct {
	Logger *slog.Logger
	Clock  func() time.Time
	Retry  RetryPolicy
}

// WithLogger configures the issuer to use the provided logger.
func WithLogger(logger *slog.Logger) func(*Options) {
	// don't override the default
	if logger == nil {
		return func(*Options) {}
	}

	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithClock replaces the wall clock the current epoch is derived from.
func WithClock(now func() time.Time) func(*Options) {
	if now == nil {
		panic("clock must be provided")
	}

	return func(opts *Options) {
		opts.Clock = now
	}
}

// WithRetry enables retries of transient chain failures.
func WithRetry(policy RetryPolicy) func(*Options) {
	return func(opts *Options) {
		opts.Retry = policy
	}
}

// Issuer issues credentials against a chain daemon.
// It keeps no state between issuances, a single Issuer can serve concurrent callers.
type Issuer struct {
	chain chain.API
	log   *slog.Logger
	now   func() time.Time
	retry RetryPolicy
}

// NewIssuer creates an issuer backed by api.
func NewIssuer(api chain.API, opts ...func(*Options)) *Issuer {
	if api == nil {
		panic("chain API must be provided to create an issuer")
	}

	options := to.OptionsWithDefault(Options{
		Logger: slog.Default(),
		Clock:  time.Now,
	}, opts...)

	return &Issuer{
		chain: api,
		log:   logging.Child(options.Logger, "Issuer"),
		now:   options.Clock,
		retry: options.Retry,
	}
}

// Issue produces a credential for providerID, binding payload when it is not empty.
//
// The steps run strictly in order and the first failure aborts the issuance,
// no partial credential is ever returned.
func (i *Issuer) Issue(ctx context.Context, providerID string, payload []byte) (*Credential, error) {
	provider, err := ParseProviderID(providerID)
	if err != nil {
		return nil, err
	}

	if len(payload) > constants.MaxPayloadSize {
		i.log.WarnContext(ctx, "Payload exceeds the maximum size, truncating",
			slog.Int("size", len(payload)),
			slog.Int("max", constants.MaxPayloadSize),
		)
		payload = payload[:constants.MaxPayloadSize]
	}

	current, err := EpochAt(i.now())
	if err != nil {
		return nil, err
	}

	log := i.log.With(
		slog.String("provider", providerID),
		slog.Int64("epoch", int64(current)),
	)

	ts, err := retrying(ctx, i, log, "finalized tipset", func(ctx context.Context) (*chain.TipSet, error) {
		return FinalizedTipSet(ctx, i.chain, current)
	})
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "Resolved finalized tipset", slog.Int64("height", int64(ts.Height)), slog.Int("blocks", len(ts.Cids)))

	worker, err := retrying(ctx, i, log, "worker key", func(ctx context.Context) (address.Address, error) {
		return ResolveWorker(ctx, i.chain, provider, ts)
	})
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "Resolved worker key", slog.String("worker", worker.String()))

	beacon, err := retrying(ctx, i, log, "beacon entry", func(ctx context.Context) ([]byte, error) {
		return BeaconEntry(ctx, i.chain, current)
	})
	if err != nil {
		return nil, err
	}

	msg := Compose(beacon, payload)
	log.DebugContext(ctx, "Composed message", slog.Int("payload_size", len(payload)), slog.Int("message_size", len(msg)))

	sig, err := retrying(ctx, i, log, "signature", func(ctx context.Context) ([]byte, error) {
		return Sign(ctx, i.chain, worker, msg)
	})
	if err != nil {
		return nil, err
	}

	return &Credential{
		Epoch:          current,
		FinalizedEpoch: FinalizedEpoch(current),
		ProviderID:     providerID,
		Worker:         worker,
		Message:        msg,
		Signature:      sig,
		Payload:        payload,
	}, nil
}

// retrying runs step once, or under the issuer retry policy when one is configured.
// Only transient failures are retried, everything else stops the loop immediately.
func retrying[T any](ctx context.Context, i *Issuer, log *slog.Logger, step string, op func(context.Context) (T, error)) (T, error) {
	if !i.retry.enabled() {
		return op(ctx)
	}

	policy := backoff.NewExponentialBackOff()
	if i.retry.InitialInterval > 0 {
		policy.InitialInterval = i.retry.InitialInterval
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(i.retry.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WarnContext(ctx, "Transient chain failure, retrying",
				slog.String("step", step),
				slog.Duration("backoff", next),
				logging.Error(err),
			)
		}),
	}
	if i.retry.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(i.retry.MaxElapsed))
	}

	return backoff.Retry(ctx, func() (T, error) {
		result, err := op(ctx)
		if err != nil && !isTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, opts...)
}

