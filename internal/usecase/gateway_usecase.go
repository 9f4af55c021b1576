package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/infrastructure/metrics"
)

const maxNumberReissues = 3

// PersistResult reports which path a submission took.
type PersistResult struct {
	Document *domain.Document
	Offline  bool
}

// PersistenceGateway submits finalized documents remote-first. A
// transient failure is absorbed by writing the full snapshot to the
// local store and enqueueing it for reconciliation, so the user's work
// survives connectivity loss. Authoritative rejections are surfaced
// verbatim and never fall back.
type PersistenceGateway struct {
	remote  RemoteGateway
	local   LocalStore
	txm     TransactionManager
	issuer  *NumberIssuer
	retrier Retrier
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewPersistenceGateway creates a new PersistenceGateway.
func NewPersistenceGateway(
	remote RemoteGateway,
	local LocalStore,
	txm TransactionManager,
	issuer *NumberIssuer,
	retrier Retrier,
	logger zerolog.Logger,
) *PersistenceGateway {
	return &PersistenceGateway{
		remote:  remote,
		local:   local,
		txm:     txm,
		issuer:  issuer,
		retrier: retrier,
		logger:  logger,
	}
}

// WithMetrics attaches Prometheus metrics. A nil receiver field means
// metrics are simply not recorded, which tests rely on.
func (g *PersistenceGateway) WithMetrics(m *metrics.Metrics) *PersistenceGateway {
	g.metrics = m
	return g
}

// Submit persists a document, creating or updating it remotely. On a
// duplicate-number rejection of a provisional number the gateway
// re-requests a number from the remote counter instead of retrying
// blindly; the remote side is the final arbiter.
func (g *PersistenceGateway) Submit(ctx context.Context, doc *domain.Document, isNew bool) (*PersistResult, error) {
	start := time.Now()
	persisted, err := g.attempt(ctx, doc, isNew)

	if errors.Is(err, domain.ErrNumberConflict) && doc.ProvisionalNum {
		if g.metrics != nil {
			g.metrics.NumberReissues.Inc()
		}
		persisted, err = g.resubmitWithFreshNumber(ctx, doc, isNew)
	}

	if err == nil {
		doc = persisted
		doc.ProvisionalNum = false
		if cleanupErr := g.cleanupLocal(ctx, doc.Type, doc.ID); cleanupErr != nil {
			g.logger.Warn().Err(cleanupErr).Str("doc_id", doc.ID).Msg("local cleanup after remote persist failed")
		}
		g.recordSubmit(doc.Type, "remote", start)
		return &PersistResult{Document: doc}, nil
	}

	if errors.Is(err, domain.ErrRemoteRejected) || errors.Is(err, domain.ErrNumberConflict) {
		g.recordSubmit(doc.Type, "rejected", start)
		return nil, err
	}

	// Transient transport or server failure: keep the work locally.
	g.logger.Warn().
		Err(err).
		Str("doc_type", string(doc.Type)).
		Str("doc_id", doc.ID).
		Msg("remote persist failed, falling back to offline store")

	if offErr := g.saveOffline(ctx, doc); offErr != nil {
		return nil, errors.Join(err, offErr)
	}

	g.recordSubmit(doc.Type, "offline", start)
	if g.metrics != nil {
		g.metrics.OfflineSaves.Inc()
	}

	return &PersistResult{Document: doc, Offline: true}, nil
}

func (g *PersistenceGateway) recordSubmit(docType domain.DocumentType, outcome string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.SubmitsTotal.WithLabelValues(string(docType), outcome).Inc()
	g.metrics.SubmitDuration.Observe(time.Since(start).Seconds())
}

// Discard deletes a document remote-first. On transient remote failure
// the local rows are removed and the failure is acknowledged once, not
// retried.
func (g *PersistenceGateway) Discard(ctx context.Context, docType domain.DocumentType, id string) (bool, error) {
	err := g.remote.Delete(ctx, docType, id)
	if err == nil {
		if cleanupErr := g.cleanupLocal(ctx, docType, id); cleanupErr != nil {
			g.logger.Warn().Err(cleanupErr).Str("doc_id", id).Msg("local cleanup after remote delete failed")
		}
		return false, nil
	}

	if errors.Is(err, domain.ErrRemoteRejected) {
		return false, err
	}

	g.logger.Warn().
		Err(err).
		Str("doc_type", string(docType)).
		Str("doc_id", id).
		Msg("remote delete failed, removing local copy only")

	if cleanupErr := g.cleanupLocal(ctx, docType, id); cleanupErr != nil {
		return false, cleanupErr
	}
	return true, nil
}

func (g *PersistenceGateway) attempt(ctx context.Context, doc *domain.Document, isNew bool) (*domain.Document, error) {
	if isNew {
		return g.remote.Create(ctx, doc)
	}
	return g.remote.Update(ctx, doc)
}

// resubmitWithFreshNumber resolves a provisional-number collision. The
// collision proves the remote side is reachable, so there is no local
// fallback here; the reissue loop is bounded.
func (g *PersistenceGateway) resubmitWithFreshNumber(ctx context.Context, doc *domain.Document, isNew bool) (*domain.Document, error) {
	var persisted *domain.Document

	operation := func() error {
		number, err := g.issuer.Reissue(ctx, doc.Type)
		if err != nil {
			return backoff.Permanent(err)
		}

		doc.Header.Number = number
		doc.ProvisionalNum = false

		persisted, err = g.attempt(ctx, doc, isNew)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNumberConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxNumberReissues), ctx))
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

func (g *PersistenceGateway) saveOffline(ctx context.Context, doc *domain.Document) error {
	return g.retrier.Retry(ctx, func() error {
		tx, err := g.txm.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := g.local.PutTx(ctx, tx, doc); err != nil {
			return err
		}
		if err := g.local.EnqueueOfflineTx(ctx, tx, doc.Type, doc.ID); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

func (g *PersistenceGateway) cleanupLocal(ctx context.Context, docType domain.DocumentType, id string) error {
	tx, err := g.txm.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := g.local.DequeueOfflineTx(ctx, tx, docType, id); err != nil {
		return err
	}
	if err := g.local.DeleteTx(ctx, tx, docType, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
