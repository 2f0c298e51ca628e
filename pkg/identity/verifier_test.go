package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/Nareshthota-64/Sales-CRM/pkg/cache"
)

type stubProvider struct {
	mu     sync.Mutex
	claims *TokenClaims
	err    error
	calls  int
}

func (p *stubProvider) VerifyToken(ctx context.Context, token string) (*TokenClaims, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.claims, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubDirectory struct {
	mu         sync.Mutex
	record     *UserRecord
	err        error
	getCalls   int
	touchCalls int
}

func (d *stubDirectory) GetUser(ctx context.Context, id string) (*UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.getCalls++
	if d.err != nil {
		return nil, d.err
	}
	return d.record, nil
}

func (d *stubDirectory) ListUsers(ctx context.Context) ([]UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (d *stubDirectory) CreateUser(ctx context.Context, user NewUser) (*UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (d *stubDirectory) UpdateUser(ctx context.Context, id string, update UserUpdate) (*UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (d *stubDirectory) TouchLastSeen(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touchCalls++
	return nil
}

func (d *stubDirectory) getCallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getCalls
}

func (d *stubDirectory) touchCallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touchCalls
}

func activeRecord() *UserRecord {
	return &UserRecord{
		ID:     "u-1",
		Email:  "asha@example.com",
		Name:   "Asha Rao",
		Role:   RoleAE,
		Status: StatusActive,
	}
}

func setupVerifier(t *testing.T, p *stubProvider, d *stubDirectory) (*Verifier, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewFromClient(rdb, time.Second, nil)

	v := NewVerifier(p, d, c, time.Hour, nil, nil)

	cleanup := func() {
		v.Close()
		c.Close()
		mr.Close()
	}
	return v, mr, cleanup
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1", Email: "asha@example.com"}}
	d := &stubDirectory{record: activeRecord()}
	v, mr, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	ident, err := v.Authenticate(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if ident.Subject != "u-1" || ident.Role != RoleAE || ident.Status != StatusActive {
		t.Errorf("unexpected identity: %+v", ident)
	}

	if !mr.Exists(cache.IdentityTokenKey(TokenDigest("tok-abc"))) {
		t.Error("verified identity should be cached under the token digest")
	}
	if mr.Exists("tok-abc") {
		t.Error("raw token must never be a cache key")
	}
}

func TestAuthenticateCacheHitSkipsUpstreams(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: activeRecord()}
	v, _, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	ctx := context.Background()
	if _, err := v.Authenticate(ctx, "tok-abc"); err != nil {
		t.Fatalf("first Authenticate failed: %v", err)
	}
	if _, err := v.Authenticate(ctx, "tok-abc"); err != nil {
		t.Fatalf("second Authenticate failed: %v", err)
	}

	if got := p.callCount(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
	if got := d.getCallCount(); got != 1 {
		t.Errorf("directory called %d times, want 1", got)
	}
}

func TestAuthenticateDistinctTokensDistinctEntries(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: activeRecord()}
	v, _, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	ctx := context.Background()
	if _, err := v.Authenticate(ctx, "tok-one"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := v.Authenticate(ctx, "tok-two"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	// Same subject, different tokens: each goes upstream once
	if got := p.callCount(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}
}

func TestAuthenticateTokenErrors(t *testing.T) {
	for _, sentinel := range []error{ErrTokenInvalid, ErrTokenExpired, ErrTokenRevoked} {
		p := &stubProvider{err: sentinel}
		d := &stubDirectory{}
		v, _, cleanup := setupVerifier(t, p, d)

		_, err := v.Authenticate(context.Background(), "tok-bad")
		if !errors.Is(err, sentinel) {
			t.Errorf("got %v, want %v", err, sentinel)
		}
		if d.getCallCount() != 0 {
			t.Error("directory must not be consulted for a rejected token")
		}
		cleanup()
	}
}

func TestAuthenticateUserNotFound(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "ghost"}}
	d := &stubDirectory{err: ErrUserNotFound}
	v, mr, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	_, err := v.Authenticate(context.Background(), "tok-ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
	if len(mr.Keys()) != 0 {
		t.Error("nothing should be cached for an unknown subject")
	}
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	rec := activeRecord()
	rec.Status = StatusInactive
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: rec}
	v, mr, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	_, err := v.Authenticate(context.Background(), "tok-abc")
	if !errors.Is(err, ErrAccountInactive) {
		t.Errorf("got %v, want ErrAccountInactive", err)
	}
	if mr.Exists(cache.IdentityTokenKey(TokenDigest("tok-abc"))) {
		t.Error("inactive identity must not be cached")
	}
}

func TestAuthenticateOnLeaveAllowed(t *testing.T) {
	rec := activeRecord()
	rec.Status = StatusOnLeave
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: rec}
	v, _, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	ident, err := v.Authenticate(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if ident.Status != StatusOnLeave {
		t.Errorf("got status %s, want ON_LEAVE", ident.Status)
	}
}

func TestAuthenticateUpstreamFailureFailsClosed(t *testing.T) {
	p := &stubProvider{err: errors.New("connection refused")}
	d := &stubDirectory{}
	v, _, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	_, err := v.Authenticate(context.Background(), "tok-abc")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("got %v, want ErrUpstream", err)
	}
}

func TestAuthenticateCacheUnavailableStillSucceeds(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: activeRecord()}
	v, mr, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	mr.Close()

	ident, err := v.Authenticate(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("Authenticate must not fail when the cache is down: %v", err)
	}
	if ident.Subject != "u-1" {
		t.Errorf("unexpected identity: %+v", ident)
	}
}

func TestInvalidateSubjectForcesReverification(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: activeRecord()}
	v, mr, cleanup := setupVerifier(t, p, d)
	defer cleanup()

	ctx := context.Background()
	if _, err := v.Authenticate(ctx, "tok-one"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := v.Authenticate(ctx, "tok-two"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if err := v.InvalidateSubject(ctx, "u-1"); err != nil {
		t.Fatalf("InvalidateSubject failed: %v", err)
	}

	if mr.Exists(cache.IdentityTokenKey(TokenDigest("tok-one"))) ||
		mr.Exists(cache.IdentityTokenKey(TokenDigest("tok-two"))) {
		t.Error("cached identities should be gone after invalidation")
	}
	if mr.Exists(cache.SubjectIndexKey("u-1")) {
		t.Error("subject index should be gone after invalidation")
	}

	before := p.callCount()
	if _, err := v.Authenticate(ctx, "tok-one"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.callCount() != before+1 {
		t.Error("invalidated token should be re-verified upstream")
	}
}

func TestAuthenticateRecordsActivityOnFirstVerificationOnly(t *testing.T) {
	p := &stubProvider{claims: &TokenClaims{Subject: "u-1"}}
	d := &stubDirectory{record: activeRecord()}
	v, _, cleanup := setupVerifier(t, p, d)

	ctx := context.Background()
	if _, err := v.Authenticate(ctx, "tok-abc"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	// Cache hit: no upstream calls, including the last-seen touch
	if _, err := v.Authenticate(ctx, "tok-abc"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	cleanup() // waits for background writes

	if got := d.touchCallCount(); got != 1 {
		t.Errorf("last-seen recorded %d times, want 1 (uncached path only)", got)
	}
}
