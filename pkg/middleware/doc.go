// Package middleware provides HTTP middleware for the admission pipeline:
// CORS, rate limiting, authentication, and role-based authorization.
//
// # Pipeline Order
//
// Order is load-bearing and must not be rearranged:
//
//	CORS → authentication → rate limit → role gate → handler
//
// CORS runs first so preflight requests are answered without spending rate
// limit quota or requiring credentials. Authentication runs before rate
// limiting so the limiter keys authenticated traffic by subject; many
// users behind one proxy address must not share a quota. The role gate
// runs last because it needs the authenticated identity.
//
// Public paths (health, docs, registration, token verification) bypass
// rate limiting, authentication and authorization entirely.
//
// # Components
//
// CORS: origin allow-list with preflight short-circuit
//
//	router.Use(middleware.CORS(corsConfig))
//
// Authenticate: bearer token verification with identity caching
//
//	router.Use(middleware.Authenticate(verifier, public, metrics))
//
// RateLimit: Redis-backed fixed-window limiting shared across instances
//
//	limiter := middleware.NewLimiter(cacheClient, rlConfig, logger, metrics)
//	router.Use(middleware.RateLimit(limiter, public))
//
// RequireRole: minimum-role gate for a route subtree
//
//	router.Use(middleware.RequireRole(identity.RoleManager))
//
// # Related Packages
//
//   - pkg/identity: token verification and the role hierarchy
//   - pkg/cache: the shared Redis cache backing the limiter
package middleware
