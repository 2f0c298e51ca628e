package api

import (
	"errors"
	"net/http"

	"github.com/Nareshthota-64/Sales-CRM/pkg/httputil"
	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
	"github.com/Nareshthota-64/Sales-CRM/pkg/middleware"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// UserHandlers serves the authenticated user profile routes
type UserHandlers struct {
	verifier  *identity.Verifier
	directory identity.Directory
	logger    *observability.Logger
}

// NewUserHandlers creates the user route handlers
func NewUserHandlers(verifier *identity.Verifier, directory identity.Directory, logger *observability.Logger) *UserHandlers {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &UserHandlers{
		verifier:  verifier,
		directory: directory,
		logger:    logger,
	}
}

// Me returns the caller's own directory record
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	h.writeUser(w, r, ident.Subject)
}

// List returns all directory records. The route table gates it at MANAGER.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.directory.ListUsers(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("user list directory failure")
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "user directory unavailable")
		return
	}

	httputil.WriteSuccess(w, recs)
}

// Get returns a user's directory record. Callers may always read their own
// record; reading others requires a role that can view all records.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	id, err := httputil.PathVar(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if id != ident.Subject && !identity.CanViewAllRecords(ident.Role) {
		httputil.WriteForbidden(w, "insufficient permissions")
		return
	}

	h.writeUser(w, r, id)
}

type updateUserRequest struct {
	Name      *string          `json:"name,omitempty"`
	Territory *string          `json:"territory,omitempty"`
	Role      *identity.Role   `json:"role,omitempty"`
	Status    *identity.Status `json:"status,omitempty"`
}

// Update applies a partial profile update. Users may edit their own name
// and territory; editing someone else, or touching role or status, is
// ADMIN-only. Every successful update invalidates the subject's cached
// identities so the change takes effect on the next request.
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	id, err := httputil.PathVar(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	isAdmin := identity.HasPermission(ident.Role, identity.RoleAdmin)
	if id != ident.Subject && !isAdmin {
		httputil.WriteForbidden(w, "insufficient permissions")
		return
	}
	if (req.Role != nil || req.Status != nil) && !isAdmin {
		httputil.WriteForbidden(w, "role and status changes require an administrator")
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		httputil.WriteBadRequest(w, "invalid status")
		return
	}

	rec, err := h.directory.UpdateUser(r.Context(), id, identity.UserUpdate{
		Name:      req.Name,
		Territory: req.Territory,
		Role:      req.Role,
		Status:    req.Status,
	})
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("user update directory failure")
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "user directory unavailable")
		return
	}

	// Stale cached identities must not outlive a role or status change.
	// Invalidation failure is logged, not surfaced: entries still expire
	// with their TTL.
	if err := h.verifier.InvalidateSubject(r.Context(), id); err != nil {
		observability.FromContext(r.Context()).WithError(err).WithField("subject", id).Warn("failed to invalidate cached identities")
	}

	httputil.WriteSuccess(w, rec)
}

func (h *UserHandlers) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("user lookup directory failure")
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "user directory unavailable")
		return
	}

	httputil.WriteSuccess(w, rec)
}
