// Package roles defines the membership role hierarchy inside a state and
// the predicate that gates every privileged operation of the engine.
package roles

import (
	"context"
	"strings"

	"statecraft/pkg/apperrors"
)

// Role is a membership role within one state.
type Role string

const (
	Applicant Role = "APPLICANT"
	Citizen   Role = "CITIZEN"
	Officer   Role = "OFFICER"
	Diplomat  Role = "DIPLOMAT"
	Minister  Role = "MINISTER"
	ViceRuler Role = "VICE_RULER"
	Ruler     Role = "RULER"
)

// rank is the static total order, ascending.
var rank = map[Role]int{
	Applicant: 0,
	Citizen:   1,
	Officer:   2,
	Diplomat:  3,
	Minister:  4,
	ViceRuler: 5,
	Ruler:     6,
}

// All returns every role in ascending order.
func All() []Role {
	return []Role{Applicant, Citizen, Officer, Diplomat, Minister, ViceRuler, Ruler}
}

// Rank returns the position of r in the hierarchy, or -1 for an unknown role.
func Rank(r Role) int {
	if n, ok := rank[r]; ok {
		return n
	}
	return -1
}

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Outranks reports whether r sits strictly above other.
func (r Role) Outranks(other Role) bool {
	return Rank(r) > Rank(other)
}

// AtLeast reports whether r sits at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && Rank(r) >= Rank(min)
}

func (r Role) String() string {
	return string(r)
}

// Parse converts a role name (case-insensitive) into a Role.
func Parse(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidRole, "unknown role %q", s)
	}
	return r, nil
}

// RoleSource looks up a player's current role in a state. Implementations
// return apperrors.ErrNotMember when no membership row exists.
type RoleSource interface {
	GetMemberRole(ctx context.Context, stateID, playerID string) (Role, error)
}

// Checker answers role predicates against a RoleSource.
type Checker struct {
	source RoleSource
}

// NewChecker creates a checker reading roles from source.
func NewChecker(source RoleSource) *Checker {
	return &Checker{source: source}
}

// HasAtLeastRole reports whether actor holds minRole or higher in state.
// A role listed in excluded denies unconditionally, regardless of rank.
func (c *Checker) HasAtLeastRole(ctx context.Context, stateID, actorID string, minRole Role, excluded ...Role) (bool, error) {
	role, err := c.source.GetMemberRole(ctx, stateID, actorID)
	if err != nil {
		return false, err
	}
	for _, ex := range excluded {
		if role == ex {
			return false, nil
		}
	}
	return role.AtLeast(minRole), nil
}

// Require is HasAtLeastRole turned into a guard: a false answer becomes
// apperrors.ErrInsufficientRole.
func (c *Checker) Require(ctx context.Context, stateID, actorID string, minRole Role, excluded ...Role) error {
	ok, err := c.HasAtLeastRole(ctx, stateID, actorID, minRole, excluded...)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.With(apperrors.ErrInsufficientRole, "role %s or higher is required in state %s", minRole, stateID)
	}
	return nil
}
