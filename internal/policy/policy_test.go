package policy

import (
	"context"
	"errors"
	"testing"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRoles struct {
	admins map[uuid.UUID]bool
	calls  int
	err    error
}

func (s *stubRoles) HasRole(_ context.Context, userID uuid.UUID, role model.AppRole) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return role == model.RoleAdmin && s.admins[userID], nil
}

func TestGuard_Reach(t *testing.T) {
	alice := uuid.New()
	admin := uuid.New()
	roles := &stubRoles{admins: map[uuid.UUID]bool{admin: true}}
	g := NewGuard(roles)
	ctx := context.Background()

	tests := []struct {
		name   string
		table  *Table
		user   uuid.UUID
		action Action
		want   Reach
	}{
		{"owner reads own tasks", Tasks, alice, Select, ReachOwned},
		{"admin reads all tasks", Tasks, admin, Select, ReachAll},
		{"admin updates only own tasks", Tasks, admin, Update, ReachOwned},
		{"admin deletes only own tasks", Tasks, admin, Delete, ReachOwned},
		{"admin reads only own subtasks", Subtasks, admin, Select, ReachOwned},
		{"admin reads only own reminders", Reminders, admin, Select, ReachOwned},
		{"admin reads only own notifications", Notifications, admin, Select, ReachOwned},
		{"admin reads all profiles", Profiles, admin, Select, ReachAll},
		{"nobody deletes profiles", Profiles, alice, Delete, ReachNone},
		{"user cannot delete roles", UserRoles, alice, Delete, ReachNone},
		{"admin deletes roles", UserRoles, admin, Delete, ReachAll},
		{"nobody updates roles", UserRoles, admin, Update, ReachNone},
		{"anonymous sees nothing", Tasks, uuid.Nil, Select, ReachNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Reach(ctx, tt.table, Principal{UserID: tt.user}, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuard_Reach_SkipsRoleLookupWithoutRoleGrant(t *testing.T) {
	roles := &stubRoles{}
	g := NewGuard(roles)

	_, err := g.Reach(context.Background(), Subtasks, Principal{UserID: uuid.New()}, Select)
	require.NoError(t, err)
	assert.Zero(t, roles.calls)
}

func TestGuard_Reach_RoleLookupError(t *testing.T) {
	g := NewGuard(&stubRoles{err: errors.New("db down")})

	_, err := g.Reach(context.Background(), Tasks, Principal{UserID: uuid.New()}, Select)
	assert.ErrorContains(t, err, "db down")
}

func TestGuard_CheckInsert(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	admin := uuid.New()
	roles := &stubRoles{admins: map[uuid.UUID]bool{admin: true}}
	g := NewGuard(roles)
	ctx := context.Background()

	assert.NoError(t, g.CheckInsert(ctx, Tasks, Principal{UserID: alice}, alice))
	assert.ErrorIs(t, g.CheckInsert(ctx, Tasks, Principal{UserID: alice}, bob), ErrPermissionDenied)
	assert.ErrorIs(t, g.CheckInsert(ctx, Tasks, Principal{UserID: admin}, bob), ErrPermissionDenied)
	assert.ErrorIs(t, g.CheckInsert(ctx, Notifications, Principal{UserID: alice}, bob), ErrPermissionDenied)
	assert.ErrorIs(t, g.CheckInsert(ctx, Tasks, Principal{}, uuid.Nil), ErrPermissionDenied)

	// Role grants go through the admin check, never the owner check.
	assert.ErrorIs(t, g.CheckInsert(ctx, UserRoles, Principal{UserID: alice}, alice), ErrPermissionDenied)
	assert.NoError(t, g.CheckInsert(ctx, UserRoles, Principal{UserID: admin}, bob))
}

func TestFilter(t *testing.T) {
	p := Principal{UserID: uuid.New()}
	for _, r := range []Reach{ReachNone, ReachOwned, ReachAll} {
		assert.NotNil(t, Filter(Tasks, p, r), r.String())
	}
	assert.Equal(t, "owned", ReachOwned.String())
}
