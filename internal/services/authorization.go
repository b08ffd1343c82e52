package services

import (
	"servercv/dashboard/internal/constants"
)

// Transition names an operation whose permission depends on guild roles.
// Owner-only operations (pin, end date, own pending edits and deletes) are
// decided by identity and do not appear here.
type Transition string

const (
	TransitionCreate         Transition = "create"
	TransitionApprove        Transition = "approve"
	TransitionReject         Transition = "reject"
	TransitionEdit           Transition = "edit"
	TransitionDeleteApproved Transition = "delete_approved"
	TransitionManageServer   Transition = "manage_server"

	// Owner-only transitions.
	TransitionDeletePending Transition = "delete_pending"
	TransitionSetEndDate    Transition = "set_end_date"
	TransitionPin           Transition = "pin"
	TransitionUnpin         Transition = "unpin"
)

type grant int

const (
	deny grant = iota
	allow
	// allowUnlessSelf permits the transition unless the actor owns the target record.
	allowUnlessSelf
)

type roleGrants map[constants.GuildRole]map[constants.GuildRole]grant

var allRoles = []constants.GuildRole{
	constants.RoleOwner,
	constants.RoleAdministrator,
	constants.RoleModerator,
	constants.RoleMember,
}

// anyTarget grants g to the actor role regardless of the target snapshot role.
func anyTarget(g grant) map[constants.GuildRole]grant {
	m := make(map[constants.GuildRole]grant, len(allRoles))
	for _, r := range allRoles {
		m[r] = g
	}
	return m
}

// Review authority: an Owner may act on anyone's record; an Administrator only on
// records submitted by Moderators or Members, and never on their own.
var reviewGrants = roleGrants{
	constants.RoleOwner: anyTarget(allow),
	constants.RoleAdministrator: {
		constants.RoleModerator: allowUnlessSelf,
		constants.RoleMember:    allowUnlessSelf,
	},
}

// authorizationTable is keyed by (transition, actor role, target snapshot role).
// For create and manage_server the target role is the actor's own role.
var authorizationTable = map[Transition]roleGrants{
	TransitionCreate: {
		constants.RoleOwner:         anyTarget(allow),
		constants.RoleAdministrator: anyTarget(allow),
		constants.RoleModerator:     anyTarget(allow),
	},
	TransitionApprove: reviewGrants,
	TransitionEdit:    reviewGrants,
	TransitionReject: {
		constants.RoleOwner:         anyTarget(allow),
		constants.RoleAdministrator: anyTarget(allow),
	},
	TransitionDeleteApproved: {
		constants.RoleOwner: anyTarget(allow),
	},
	TransitionManageServer: {
		constants.RoleOwner:         anyTarget(allow),
		constants.RoleAdministrator: anyTarget(allow),
	},
}

// Authorize looks up the table. actorID and ownerID are the acting user and the
// owner of the target record; they only matter for allowUnlessSelf grants.
func Authorize(t Transition, actorRole, targetRole constants.GuildRole, actorID, ownerID string) bool {
	switch authorizationTable[t][actorRole][targetRole] {
	case allow:
		return true
	case allowUnlessSelf:
		return actorID != ownerID
	default:
		return false
	}
}

// CanReview is the approve-own-tier rule: a pure function of the two roles and
// whether the actor is the record owner.
func CanReview(actorRole, requesterRole constants.GuildRole, actorID, ownerID string) bool {
	return Authorize(TransitionApprove, actorRole, requesterRole, actorID, ownerID)
}
