package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Nareshthota-64/Sales-CRM/pkg/cache"
	"github.com/Nareshthota-64/Sales-CRM/pkg/config"
	"github.com/Nareshthota-64/Sales-CRM/pkg/httputil"
	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
	"github.com/Nareshthota-64/Sales-CRM/pkg/middleware"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// Server is the gateway's HTTP API server
type Server struct {
	router       *mux.Router
	authHandlers *AuthHandlers
	userHandlers *UserHandlers
}

// Deps carries everything the server needs wired in
type Deps struct {
	Config    *config.Config
	Verifier  *identity.Verifier
	Provider  identity.Provider
	Directory identity.Directory
	Cache     *cache.Client
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

// route declares one endpoint with its minimum role. The zero role means
// any authenticated caller; Public routes skip the pipeline entirely.
type route struct {
	method  string
	path    string
	handler http.HandlerFunc
	minRole identity.Role
}

// publicPaths is the allow-list admitted without rate limiting or
// credentials
func publicPaths() *middleware.PublicPaths {
	return middleware.NewPublicPaths(
		[]string{
			"/",
			"/health",
			"/api/v1/auth/verify-token",
			"/api/v1/auth/register",
		},
		[]string{"/docs"},
	)
}

// NewServer creates the API server and wires the admission pipeline
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router: mux.NewRouter(),
		authHandlers: NewAuthHandlers(
			deps.Verifier, deps.Provider, deps.Directory,
			deps.Cache, deps.Config.Identity.CacheTTL, deps.Logger,
		),
		userHandlers: NewUserHandlers(deps.Verifier, deps.Directory, deps.Logger),
	}

	public := publicPaths()
	limiter := middleware.NewLimiter(deps.Cache, deps.Config.RateLimit, deps.Logger, deps.Metrics)

	// Pipeline order is load-bearing; see pkg/middleware. Authentication
	// runs before rate limiting so the limiter keys authenticated traffic
	// by subject rather than by shared IP.
	s.router.Use(
		middleware.RequestID,
		middleware.Logging(deps.Logger),
		middleware.MetricsMiddleware(deps.Metrics),
		middleware.SecurityHeaders,
		middleware.CORS(deps.Config.CORS),
		middleware.Authenticate(deps.Verifier, public, deps.Metrics),
		middleware.RateLimit(limiter, public),
	)

	s.setupRoutes()
	return s
}

// setupRoutes wires the route table into the router
func (s *Server) setupRoutes() {
	routes := []route{
		{method: http.MethodGet, path: "/", handler: s.root},
		{method: http.MethodGet, path: "/health", handler: s.health},

		{method: http.MethodPost, path: "/api/v1/auth/verify-token", handler: s.authHandlers.VerifyToken},
		{method: http.MethodPost, path: "/api/v1/auth/register", handler: s.authHandlers.Register},

		{method: http.MethodGet, path: "/api/v1/users", handler: s.userHandlers.List, minRole: identity.RoleManager},
		{method: http.MethodGet, path: "/api/v1/users/me", handler: s.userHandlers.Me},
		{method: http.MethodGet, path: "/api/v1/users/{id}", handler: s.userHandlers.Get},
		{method: http.MethodPut, path: "/api/v1/users/{id}", handler: s.userHandlers.Update},
	}

	for _, rt := range routes {
		handler := http.Handler(rt.handler)
		if rt.minRole != "" {
			handler = middleware.RequireRole(rt.minRole)(handler)
		}
		s.router.Handle(rt.path, handler).Methods(rt.method)
	}

	// Preflights must match a route for the middleware chain (and so the
	// CORS short-circuit) to run. A MatcherFunc keeps non-OPTIONS requests
	// to unknown paths falling through to 404 instead of 405.
	s.router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.Method == http.MethodOptions
	}).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the fully wired HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccessMessage(w, "Sales CRM gateway", map[string]string{
		"service": "sales-crm-gateway",
		"docs":    "/docs",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccessMessage(w, "ok", nil)
}
