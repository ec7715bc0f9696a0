// Package authz is the authorization policy engine. Every tenant-scoped
// mutation and read goes through one of its entry points, which evaluate a
// fixed short-circuit gate chain: global role gate, admin bypass, tenant
// membership gate, and for time entries the owner and staff gates.
//
// Decisions are values, never errors: a Deny carries a human-readable
// reason and the caller decides how to surface it.
package authz

import (
	"context"

	"github.com/google/uuid"

	"projecthub/internal/model"
)

// Actor is the authenticated identity a request acts as.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  model.UserRole
}

// IsAdmin reports whether the actor holds the global admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny is the negative decision carrying the reason shown to the caller.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// MembershipSource answers membership questions. It is the single source of
// truth for "who can see what"; the engine never caches its answers.
type MembershipSource interface {
	IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
	CompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Engine evaluates the gate chain against a membership source.
type Engine struct {
	memberships MembershipSource
}

// NewEngine creates a policy engine backed by the given membership source.
func NewEngine(memberships MembershipSource) *Engine {
	return &Engine{memberships: memberships}
}

// RequireAdmin is the global role gate for admin-only actions such as
// creating companies, deleting entities outright, or changing another
// user's role or password.
func (e *Engine) RequireAdmin(actor Actor) Decision {
	if actor.IsAdmin() {
		return Allow()
	}
	return Deny("admin role required")
}

// CanAccessCompany is the tenant membership gate. Admins bypass it
// unconditionally; everyone else needs a membership row for the company.
func (e *Engine) CanAccessCompany(ctx context.Context, actor Actor, companyID uuid.UUID) (Decision, error) {
	if actor.IsAdmin() {
		return Allow(), nil
	}
	member, err := e.memberships.IsMember(ctx, actor.ID, companyID)
	if err != nil {
		return Decision{}, err
	}
	if !member {
		return Deny("not a member of the owning company"), nil
	}
	return Allow(), nil
}

// CanManageTimeEntry extends the membership gate with the owner gate: the
// entry's own user may read, update and delete it even without company
// membership, so a freelancer can manage solo time.
func (e *Engine) CanManageTimeEntry(ctx context.Context, actor Actor, ownerID, companyID uuid.UUID) (Decision, error) {
	if actor.IsAdmin() {
		return Allow(), nil
	}
	if actor.ID == ownerID {
		return Allow(), nil
	}
	member, err := e.memberships.IsMember(ctx, actor.ID, companyID)
	if err != nil {
		return Decision{}, err
	}
	if !member {
		return Deny("not a member of the owning company"), nil
	}
	return Allow(), nil
}

// CanApproveTimeEntry is the staff gate: approving or unapproving a time
// entry requires an admin or employee role in addition to company access.
func (e *Engine) CanApproveTimeEntry(ctx context.Context, actor Actor, companyID uuid.UUID) (Decision, error) {
	if actor.IsAdmin() {
		return Allow(), nil
	}
	if actor.Role != model.RoleEmployee {
		return Deny("no permission to approve time entries"), nil
	}
	member, err := e.memberships.IsMember(ctx, actor.ID, companyID)
	if err != nil {
		return Decision{}, err
	}
	if !member {
		return Deny("not a member of the owning company"), nil
	}
	return Allow(), nil
}

// Scope is the listing counterpart of the membership gate: instead of a
// per-row deny, queries are narrowed to the companies the actor belongs to.
type Scope struct {
	// Unrestricted is true for admins, who see everything unfiltered.
	Unrestricted bool
	CompanyIDs   []uuid.UUID
}

// ScopeCompanies resolves the listing scope for the actor.
func (e *Engine) ScopeCompanies(ctx context.Context, actor Actor) (Scope, error) {
	if actor.IsAdmin() {
		return Scope{Unrestricted: true}, nil
	}
	ids, err := e.memberships.CompanyIDs(ctx, actor.ID)
	if err != nil {
		return Scope{}, err
	}
	return Scope{CompanyIDs: ids}, nil
}
