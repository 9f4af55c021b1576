package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finform/finform/internal/domain"
)

// SubmitGuard implements usecase.SubmitGuard with a per-document
// SETNX lock. The TTL bounds how long a crashed submitter can block
// the document.
type SubmitGuard struct {
	client *redis.Client
	prefix string
}

// NewSubmitGuard creates a new SubmitGuard.
func NewSubmitGuard(client *redis.Client) *SubmitGuard {
	return &SubmitGuard{
		client: client,
		prefix: "submit:",
	}
}

func (g *SubmitGuard) key(docType domain.DocumentType, id string) string {
	return g.prefix + string(docType) + ":" + id
}

// Acquire takes the submit lock for one document. It reports false
// when another submit already holds it.
func (g *SubmitGuard) Acquire(ctx context.Context, docType domain.DocumentType, id string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.key(docType, id), "in-flight", ttl).Result()
}

// Release frees the submit lock.
func (g *SubmitGuard) Release(ctx context.Context, docType domain.DocumentType, id string) error {
	return g.client.Del(ctx, g.key(docType, id)).Err()
}
