package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/infrastructure/metrics"
)

var defaultNumberPrefixes = map[domain.DocumentType]string{
	domain.DocTypeInvoice: "INV",
	domain.DocTypeBill:    "BILL",
	domain.DocTypeReturn:  "RET",
	domain.DocTypeJournal: "JRN",
}

// NumberIssuer obtains the next document number. The remote counter is
// authoritative; when it is unreachable a provisional local number is
// derived so drafting is never blocked. Provisional numbers may
// collide across clients, and the remote create call is the final
// arbiter.
type NumberIssuer struct {
	remote   NumberSource
	idGen    IDGenerator
	prefixes map[domain.DocumentType]string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewNumberIssuer creates a new NumberIssuer.
func NewNumberIssuer(remote NumberSource, idGen IDGenerator, logger zerolog.Logger) *NumberIssuer {
	return &NumberIssuer{
		remote:   remote,
		idGen:    idGen,
		prefixes: defaultNumberPrefixes,
		logger:   logger,
	}
}

// WithPrefixes overrides the provisional number prefixes. Unknown
// types keep the built-in defaults.
func (i *NumberIssuer) WithPrefixes(prefixes map[domain.DocumentType]string) *NumberIssuer {
	if len(prefixes) == 0 {
		return i
	}

	merged := make(map[domain.DocumentType]string, len(defaultNumberPrefixes))
	for docType, prefix := range defaultNumberPrefixes {
		merged[docType] = prefix
	}
	for docType, prefix := range prefixes {
		merged[docType] = prefix
	}
	i.prefixes = merged

	return i
}

// WithMetrics attaches Prometheus metrics.
func (i *NumberIssuer) WithMetrics(m *metrics.Metrics) *NumberIssuer {
	i.metrics = m
	return i
}

// IssuedNumber is a document number plus its provenance. Provisional
// numbers came from the local fallback scheme.
type IssuedNumber struct {
	Value       string
	Provisional bool
}

// Next returns the next number for a document type. It never fails:
// the local scheme covers remote outages.
func (i *NumberIssuer) Next(ctx context.Context, docType domain.DocumentType) IssuedNumber {
	number, err := i.remote.NextNumber(ctx, docType)
	if err == nil && number != "" {
		i.recordIssued(docType, "remote")
		return IssuedNumber{Value: number}
	}

	if err != nil {
		i.logger.Warn().
			Err(err).
			Str("doc_type", string(docType)).
			Msg("remote number counter unavailable, deriving provisional number")
	}

	i.recordIssued(docType, "provisional")
	return IssuedNumber{Value: i.provisional(docType), Provisional: true}
}

func (i *NumberIssuer) recordIssued(docType domain.DocumentType, source string) {
	if i.metrics != nil {
		i.metrics.NumbersIssued.WithLabelValues(string(docType), source).Inc()
	}
}

// Reissue fetches a fresh number from the remote counter after a
// duplicate rejection. Unlike Next it does not fall back locally: a
// collision means the remote side is reachable and must arbitrate.
func (i *NumberIssuer) Reissue(ctx context.Context, docType domain.DocumentType) (string, error) {
	number, err := i.remote.NextNumber(ctx, docType)
	if err != nil {
		return "", fmt.Errorf("reissue number for %s: %w", docType, err)
	}
	return number, nil
}

// provisional derives a prefix + ULID number. ULIDs are time-ordered,
// which keeps locally issued numbers monotonic within one client.
func (i *NumberIssuer) provisional(docType domain.DocumentType) string {
	prefix, ok := i.prefixes[docType]
	if !ok {
		prefix = "DOC"
	}
	return fmt.Sprintf("%s-%s", prefix, i.idGen.Generate())
}
