package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Nareshthota-64/Sales-CRM/pkg/contextkeys"
	"github.com/Nareshthota-64/Sales-CRM/pkg/httputil"
	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// Authenticate wraps a handler with bearer token authentication.
//
// The raw token is verified through the verifier, which consults its cache
// before the identity provider. Rejected tokens all present the same 401
// message so callers cannot distinguish invalid from expired from revoked.
// Inactive accounts get a 403 after the token verifies. Provider or
// directory outages fail closed with the same generic 401 — identity
// cannot be established, and the response must not reveal why — while the
// log line and metrics keep the distinction.
func Authenticate(verifier *identity.Verifier, public *PublicPaths, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || public.Contains(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				recordAuthFailure(metrics, "missing_token")
				httputil.WriteUnauthorized(w, "missing or malformed authorization header")
				return
			}

			ident, err := verifier.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthError(w, err, observability.FromContext(r.Context()), metrics)
				return
			}

			ctx := contextkeys.WithIdentity(r.Context(), ident)
			ctx = contextkeys.WithUserID(ctx, ident.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeAuthError(w http.ResponseWriter, err error, logger *observability.Logger, metrics *observability.Metrics) {
	switch {
	case identity.IsTokenError(err):
		// One message for all token rejections; distinguishing them
		// would give attackers an oracle
		recordAuthFailure(metrics, "token_rejected")
		httputil.WriteUnauthorized(w, "invalid authentication token")

	case errors.Is(err, identity.ErrUserNotFound):
		recordAuthFailure(metrics, "user_not_found")
		httputil.WriteUnauthorized(w, "user not found")

	case errors.Is(err, identity.ErrAccountInactive):
		recordAuthFailure(metrics, "account_inactive")
		httputil.WriteForbidden(w, "account is inactive")

	default:
		recordAuthFailure(metrics, "upstream")
		logger.WithError(err).Error("authentication upstream failure")
		httputil.WriteUnauthorized(w, "invalid authentication token")
	}
}

func recordAuthFailure(metrics *observability.Metrics, kind string) {
	if metrics != nil {
		metrics.RecordAuthFailure(kind)
	}
}

// GetIdentity extracts the authenticated identity from a request, or nil
// when the request was admitted without authentication
func GetIdentity(r *http.Request) *identity.Identity {
	v := r.Context().Value(contextkeys.IdentityKey)
	if v == nil {
		return nil
	}
	ident, ok := v.(*identity.Identity)
	if !ok {
		return nil
	}
	return ident
}

// RequireRole creates middleware gating a route subtree behind a minimum
// role. It must run after Authenticate.
func RequireRole(required identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := GetIdentity(r)
			if ident == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			if !identity.HasPermission(ident.Role, required) {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
