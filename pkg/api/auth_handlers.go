package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Nareshthota-64/Sales-CRM/pkg/cache"
	"github.com/Nareshthota-64/Sales-CRM/pkg/httputil"
	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// AuthHandlers serves the public authentication routes: token verification
// for clients that want their profile up front, and first-time registration.
type AuthHandlers struct {
	verifier    *identity.Verifier
	provider    identity.Provider
	directory   identity.Directory
	cache       *cache.Client
	identityTTL time.Duration
	logger      *observability.Logger
}

// NewAuthHandlers creates the auth route handlers
func NewAuthHandlers(verifier *identity.Verifier, provider identity.Provider, directory identity.Directory, c *cache.Client, identityTTL time.Duration, logger *observability.Logger) *AuthHandlers {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &AuthHandlers{
		verifier:    verifier,
		provider:    provider,
		directory:   directory,
		cache:       c,
		identityTTL: identityTTL,
		logger:      logger,
	}
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyToken verifies a posted token and returns the caller's profile.
// The route is public: it exists so clients can exchange a fresh provider
// token for a profile before making authenticated calls. A successful
// verification warms the identity cache and refreshes the subject-keyed
// profile entry.
func (h *AuthHandlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}

	ident, err := h.verifier.Authenticate(r.Context(), req.Token)
	if err != nil {
		h.writeVerifyError(w, r, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(r.Context(), cache.UserKey(ident.Subject), ident, h.identityTTL); err != nil {
			observability.FromContext(r.Context()).WithError(err).Warn("failed to refresh profile cache entry")
		}
	}

	httputil.WriteSuccess(w, ident)
}

func (h *AuthHandlers) writeVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case identity.IsTokenError(err):
		httputil.WriteUnauthorized(w, "invalid authentication token")
	case errors.Is(err, identity.ErrUserNotFound):
		httputil.WriteUnauthorized(w, "user not found")
	case errors.Is(err, identity.ErrAccountInactive):
		httputil.WriteForbidden(w, "account is inactive")
	default:
		observability.FromContext(r.Context()).WithError(err).Error("token verification upstream failure")
		httputil.WriteUnauthorized(w, "invalid authentication token")
	}
}

type registerRequest struct {
	Token     string        `json:"token"`
	Name      string        `json:"name"`
	Role      identity.Role `json:"role,omitempty"`
	Territory string        `json:"territory,omitempty"`
}

// Register creates the directory record for a subject on first sign-in.
// The token must verify with the provider, but no directory record is
// required yet; that is the whole point of the route. Registration of an
// already-known subject is a conflict.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = identity.RoleBDE
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	claims, err := h.provider.VerifyToken(r.Context(), req.Token)
	if err != nil {
		if !identity.IsTokenError(err) {
			observability.FromContext(r.Context()).WithError(err).Error("registration upstream failure")
		}
		httputil.WriteUnauthorized(w, "invalid authentication token")
		return
	}

	rec, err := h.directory.CreateUser(r.Context(), identity.NewUser{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      req.Name,
		Role:      req.Role,
		Territory: req.Territory,
	})
	if err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			httputil.WriteConflict(w, "user already registered")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("registration directory failure")
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "user directory unavailable")
		return
	}

	httputil.WriteCreated(w, rec)
}
