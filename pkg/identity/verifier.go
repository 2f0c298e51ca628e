package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nareshthota-64/Sales-CRM/pkg/cache"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// TokenClaims is what the provider asserts about a verified token
type TokenClaims struct {
	Subject string
	Email   string
}

// Provider verifies bearer tokens against the external identity provider
type Provider interface {
	// VerifyToken checks a raw bearer token. It returns ErrTokenInvalid,
	// ErrTokenExpired or ErrTokenRevoked for rejected tokens; any other
	// error is treated as an upstream failure.
	VerifyToken(ctx context.Context, token string) (*TokenClaims, error)
}

// Directory resolves and maintains user profiles
type Directory interface {
	// GetUser fetches a profile by subject ID, returning ErrUserNotFound
	// when no record exists
	GetUser(ctx context.Context, id string) (*UserRecord, error)

	// ListUsers fetches all profiles
	ListUsers(ctx context.Context) ([]UserRecord, error)

	// CreateUser registers a new profile
	CreateUser(ctx context.Context, user NewUser) (*UserRecord, error)

	// UpdateUser applies a partial update and returns the updated record
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*UserRecord, error)

	// TouchLastSeen records activity for the subject
	TouchLastSeen(ctx context.Context, id string) error
}

// touchTimeout bounds the background last-seen write
const touchTimeout = 2 * time.Second

// Verifier authenticates bearer tokens, caching verified identities so
// repeat requests with the same token skip both upstream calls.
type Verifier struct {
	provider  Provider
	directory Directory
	cache     *cache.Client
	cacheTTL  time.Duration
	logger    *observability.Logger
	metrics   *observability.Metrics

	now func() time.Time

	// touches tracks in-flight last-seen goroutines for clean shutdown
	touches sync.WaitGroup
}

// NewVerifier creates a verifier backed by the given provider, directory
// and cache
func NewVerifier(provider Provider, directory Directory, c *cache.Client, cacheTTL time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Verifier {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Verifier{
		provider:  provider,
		directory: directory,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// TokenDigest derives the cache key digest for a raw token. The raw token
// must never be stored or logged; only this digest leaves the request path.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authenticate verifies a bearer token and resolves the caller's identity.
//
// A cached identity is returned without contacting the provider or the
// directory. On a miss the token is verified upstream, the profile is
// resolved, the identity is cached, and last-seen activity is recorded in
// the background; cache hits trigger no upstream calls at all, so last-seen
// advances only when a token is actually re-verified. Cache failures are
// logged and swallowed; provider and directory failures fail closed.
func (v *Verifier) Authenticate(ctx context.Context, token string) (*Identity, error) {
	digest := TokenDigest(token)
	tokenKey := cache.IdentityTokenKey(digest)

	var cached Identity
	if v.cache != nil && v.cache.GetJSON(ctx, tokenKey, &cached) {
		if v.metrics != nil {
			v.metrics.RecordIdentityCacheHit()
		}
		return &cached, nil
	}
	if v.metrics != nil {
		v.metrics.RecordIdentityCacheMiss()
	}

	claims, err := v.provider.VerifyToken(ctx, token)
	if err != nil {
		if IsTokenError(err) {
			return nil, err
		}
		if v.metrics != nil {
			v.metrics.RecordUpstreamError("provider")
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	rec, err := v.directory.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		if v.metrics != nil {
			v.metrics.RecordUpstreamError("directory")
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	// Inactive accounts are rejected after the token verifies, so the
	// caller sees a forbidden rather than an authentication challenge.
	if rec.Status == StatusInactive {
		return nil, ErrAccountInactive
	}

	ident := identityFromRecord(rec, v.now())
	v.storeIdentity(ctx, tokenKey, ident)
	v.recordActivity(ident.Subject)

	return ident, nil
}

// storeIdentity caches a verified identity and indexes the cache key under
// its subject so invalidation can find it later. Failures are logged only.
func (v *Verifier) storeIdentity(ctx context.Context, tokenKey string, ident *Identity) {
	if v.cache == nil {
		return
	}
	if err := v.cache.SetJSON(ctx, tokenKey, ident, v.cacheTTL); err != nil {
		v.logger.WithError(err).WithField("subject", ident.Subject).Warn("failed to cache identity")
		return
	}
	if err := v.cache.AddSetMember(ctx, cache.SubjectIndexKey(ident.Subject), tokenKey, v.cacheTTL); err != nil {
		v.logger.WithError(err).WithField("subject", ident.Subject).Warn("failed to index identity cache key")
	}
}

// recordActivity updates the subject's last-seen timestamp in the
// background; the request never waits on it.
func (v *Verifier) recordActivity(subject string) {
	v.touches.Add(1)
	go func() {
		defer v.touches.Done()
		defer observability.RecoverPanic(v.logger, "last-seen recording")

		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := v.directory.TouchLastSeen(ctx, subject); err != nil {
			v.logger.WithError(err).WithField("subject", subject).Debug("failed to record last-seen activity")
		}
	}()
}

// InvalidateSubject removes every cached identity belonging to a subject,
// plus its profile entry, by enumerating the subject's key index. It is
// called after profile updates so stale roles and statuses do not outlive
// the change.
func (v *Verifier) InvalidateSubject(ctx context.Context, subject string) error {
	if v.cache == nil {
		return nil
	}

	indexKey := cache.SubjectIndexKey(subject)
	members, err := v.cache.SetMembers(ctx, indexKey)
	if err != nil {
		return fmt.Errorf("failed to enumerate cached identities: %w", err)
	}

	keys := append(members, indexKey, cache.UserKey(subject))
	if err := v.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete cached identities: %w", err)
	}

	return nil
}

// Close waits for in-flight background activity writes to finish
func (v *Verifier) Close() {
	v.touches.Wait()
}
