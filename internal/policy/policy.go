// Package policy is the application-side row-level authorization layer.
//
// Every owned table carries a Table value listing permissive policies, the
// same set the database declares with CREATE POLICY. Repositories resolve a
// Reach for the requester before each statement and apply it as a row
// filter; inserts are checked against the candidate row's owner.
package policy

import (
	"context"
	"errors"
	"fmt"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrPermissionDenied is the only error a policy failure produces. It never
// says whether the target row exists.
var ErrPermissionDenied = errors.New("permission denied")

type Action string

const (
	Select Action = "SELECT"
	Insert Action = "INSERT"
	Update Action = "UPDATE"
	Delete Action = "DELETE"
	All    Action = "ALL"
)

// Principal is the identity a request runs as.
type Principal struct {
	UserID uuid.UUID
}

func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil
}

// RoleChecker answers has_role(user, role).
type RoleChecker interface {
	HasRole(ctx context.Context, userID uuid.UUID, role model.AppRole) (bool, error)
}

// Reach is the set of rows a predicate admits.
type Reach int

const (
	ReachNone Reach = iota
	ReachOwned
	ReachAll
)

func (r Reach) String() string {
	switch r {
	case ReachOwned:
		return "owned"
	case ReachAll:
		return "all"
	default:
		return "none"
	}
}

type Predicate interface {
	reach(ctx context.Context, p Principal, roles RoleChecker) (Reach, error)
	owner() bool
}

type ownerMatch struct{}

// Owner admits rows whose owner column equals the requester.
func Owner() Predicate { return ownerMatch{} }

func (ownerMatch) reach(context.Context, Principal, RoleChecker) (Reach, error) {
	return ReachOwned, nil
}

func (ownerMatch) owner() bool { return true }

type roleMatch struct {
	role model.AppRole
}

// HasRole admits every row when the requester holds role.
func HasRole(role model.AppRole) Predicate { return roleMatch{role: role} }

func (m roleMatch) reach(ctx context.Context, p Principal, roles RoleChecker) (Reach, error) {
	ok, err := roles.HasRole(ctx, p.UserID, m.role)
	if err != nil {
		return ReachNone, err
	}
	if ok {
		return ReachAll, nil
	}
	return ReachNone, nil
}

func (roleMatch) owner() bool { return false }

// Policy is one permissive rule. Using filters existing rows; Check
// validates new rows and defaults to Using, as in Postgres.
type Policy struct {
	Name  string
	For   Action
	Using Predicate
	Check Predicate
}

func (pol Policy) appliesTo(a Action) bool {
	return pol.For == All || pol.For == a
}

func (pol Policy) check() Predicate {
	if pol.Check != nil {
		return pol.Check
	}
	return pol.Using
}

type Table struct {
	Name        string
	OwnerColumn string
	Policies    []Policy
}

// Guard evaluates table policies for a principal.
type Guard struct {
	roles RoleChecker
}

func NewGuard(roles RoleChecker) *Guard {
	return &Guard{roles: roles}
}

// Reach resolves which rows of t the principal may act on. Owner predicates
// are evaluated before role predicates so that a plain owner never costs a
// role lookup unless a wider grant exists for the action.
func (g *Guard) Reach(ctx context.Context, t *Table, p Principal, a Action) (Reach, error) {
	if !p.Authenticated() {
		return ReachNone, nil
	}

	best := ReachNone
	var roleBased []Predicate
	for _, pol := range t.Policies {
		if !pol.appliesTo(a) || pol.Using == nil {
			continue
		}
		if pol.Using.owner() {
			best = ReachOwned
			continue
		}
		roleBased = append(roleBased, pol.Using)
	}

	for _, pred := range roleBased {
		r, err := pred.reach(ctx, p, g.roles)
		if err != nil {
			return ReachNone, fmt.Errorf("%s policy: %w", t.Name, err)
		}
		if r > best {
			best = r
		}
		if best == ReachAll {
			break
		}
	}
	return best, nil
}

// Scope turns the principal's reach for a into a gorm row filter. A principal
// with no reach gets an always-false filter, so reads return nothing instead
// of failing.
func (g *Guard) Scope(ctx context.Context, t *Table, p Principal, a Action) (func(*gorm.DB) *gorm.DB, error) {
	r, err := g.Reach(ctx, t, p, a)
	if err != nil {
		return nil, err
	}
	return Filter(t, p, r), nil
}

// Filter is the gorm scope for an already resolved reach.
func Filter(t *Table, p Principal, r Reach) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch r {
		case ReachAll:
			return db
		case ReachOwned:
			return db.Where(t.Name+"."+t.OwnerColumn+" = ?", p.UserID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// CheckInsert reports ErrPermissionDenied unless some insert policy of t
// admits a new row owned by owner.
func (g *Guard) CheckInsert(ctx context.Context, t *Table, p Principal, owner uuid.UUID) error {
	if !p.Authenticated() {
		return ErrPermissionDenied
	}

	var roleBased []Predicate
	for _, pol := range t.Policies {
		pred := pol.check()
		if !pol.appliesTo(Insert) || pred == nil {
			continue
		}
		if pred.owner() {
			if owner == p.UserID {
				return nil
			}
			continue
		}
		roleBased = append(roleBased, pred)
	}

	for _, pred := range roleBased {
		r, err := pred.reach(ctx, p, g.roles)
		if err != nil {
			return fmt.Errorf("%s policy: %w", t.Name, err)
		}
		if r == ReachAll {
			return nil
		}
	}
	return ErrPermissionDenied
}
