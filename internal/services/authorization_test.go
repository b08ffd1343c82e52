package services

import (
	"testing"

	"servercv/dashboard/internal/constants"

	"github.com/stretchr/testify/assert"
)

const (
	owner  = constants.RoleOwner
	admin  = constants.RoleAdministrator
	mod    = constants.RoleModerator
	member = constants.RoleMember
)

func TestCanReview(t *testing.T) {
	tests := []struct {
		actor, requester constants.GuildRole
		self             bool
		want             bool
	}{
		{owner, owner, true, true},
		{owner, owner, false, true},
		{owner, admin, false, true},
		{owner, mod, false, true},
		{owner, member, false, true},

		{admin, owner, false, false},
		{admin, admin, false, false},
		{admin, admin, true, false},
		{admin, mod, false, true},
		{admin, mod, true, false},
		{admin, member, false, true},
		{admin, member, true, false},

		{mod, mod, false, false},
		{mod, member, false, false},
		{member, member, false, false},
	}

	for _, tt := range tests {
		ownerID := "someone"
		if tt.self {
			ownerID = "actor"
		}
		got := CanReview(tt.actor, tt.requester, "actor", ownerID)
		assert.Equal(t, tt.want, got, "actor=%s requester=%s self=%v", tt.actor, tt.requester, tt.self)
	}
}

func TestAuthorize_Table(t *testing.T) {
	roles := []constants.GuildRole{owner, admin, mod, member}

	tests := []struct {
		transition Transition
		allowed    map[constants.GuildRole]bool
	}{
		{TransitionCreate, map[constants.GuildRole]bool{owner: true, admin: true, mod: true}},
		{TransitionReject, map[constants.GuildRole]bool{owner: true, admin: true}},
		{TransitionDeleteApproved, map[constants.GuildRole]bool{owner: true}},
		{TransitionManageServer, map[constants.GuildRole]bool{owner: true, admin: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.transition), func(t *testing.T) {
			for _, actorRole := range roles {
				for _, target := range roles {
					// Identity does not matter for these transitions.
					assert.Equal(t, tt.allowed[actorRole], Authorize(tt.transition, actorRole, target, "actor", "actor"),
						"actor=%s target=%s", actorRole, target)
				}
			}
		})
	}
}

func TestAuthorize_EditMatchesApprove(t *testing.T) {
	roles := []constants.GuildRole{owner, admin, mod, member}
	for _, a := range roles {
		for _, r := range roles {
			for _, ownerID := range []string{"actor", "other"} {
				assert.Equal(t,
					Authorize(TransitionApprove, a, r, "actor", ownerID),
					Authorize(TransitionEdit, a, r, "actor", ownerID),
					"actor=%s requester=%s owner=%s", a, r, ownerID)
			}
		}
	}
}

func TestAuthorize_UnknownTransitionDenies(t *testing.T) {
	assert.False(t, Authorize(TransitionPin, owner, owner, "a", "a"))
	assert.False(t, Authorize("nonsense", owner, owner, "a", "b"))
	assert.False(t, Authorize(TransitionApprove, "", member, "a", "b"))
}
