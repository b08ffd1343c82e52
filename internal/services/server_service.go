package services

import (
	"context"
	"errors"
	"regexp"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/dtos"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
)

var vanityPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ServerStore holds per-server dashboard metadata.
type ServerStore interface {
	Get(ctx context.Context, id string) (*gormModels.Server, error)
	FindByVanity(ctx context.Context, vanity string) (*gormModels.Server, error)
	SetVanity(ctx context.Context, id string, vanity *string) error
}

// NotificationConfigStore holds the channel the bot posts new requests to.
type NotificationConfigStore interface {
	Get(ctx context.Context, serverID string) (*entities.NotificationConfig, error)
}

// ServerService backs the server management page.
type ServerService struct {
	experiences *ExperienceService
	servers     ServerStore
	channels    NotificationConfigStore
	cache       common.CacheInterface
}

func NewServerService(experiences *ExperienceService, servers ServerStore, channels NotificationConfigStore, cache common.CacheInterface) *ServerService {
	return &ServerService{
		experiences: experiences,
		servers:     servers,
		channels:    channels,
		cache:       cache,
	}
}

// ServerView lists the server's pending and approved records with what the actor
// may do to each. Only Owners and Administrators can open it.
func (s *ServerService) ServerView(ctx context.Context, actor entities.Actor, serverID string) (*dtos.ServerView, error) {
	role, membership, err := s.experiences.roleIn(ctx, actor, serverID)
	if err != nil {
		return nil, err
	}
	if !Authorize(TransitionManageServer, role, role, actor.UserID, actor.UserID) {
		return nil, common.Unauthorized(constants.ErrCodeNotAuthorized, constants.MsgNotAuthorized)
	}

	pending, err := s.listByServer(ctx, serverID, constants.StatusPending)
	if err != nil {
		return nil, err
	}
	approved, err := s.listByServer(ctx, serverID, constants.StatusApproved)
	if err != nil {
		return nil, err
	}
	SortTimeline(approved)

	view := &dtos.ServerView{
		ServerID:       serverID,
		ServerName:     membership.Name,
		IconURL:        membership.IconURL(),
		ActorRole:      role,
		ActorRoleLabel: role.Label(),
		IsOwner:        role == constants.RoleOwner,
		Pending:        make([]dtos.ManagedExperienceView, 0, len(pending)),
		Approved:       make([]dtos.ManagedExperienceView, 0, len(approved)),
	}
	for i := range pending {
		view.Pending = append(view.Pending, managedView(&pending[i], role, actor.UserID))
	}
	for i := range approved {
		view.Approved = append(view.Approved, managedView(&approved[i], role, actor.UserID))
	}

	if view.IsOwner {
		actorUser, err := s.experiences.getUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if actorUser.IsPremium {
			server, err := s.getServer(ctx, serverID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			if server != nil {
				view.VanityURL = server.VanityURL
			}
		}
	}

	if s.channels != nil {
		cfg, err := storeGet(ctx, s.experiences.timeout, "get notification config",
			func(ctx context.Context) (*entities.NotificationConfig, error) { return s.channels.Get(ctx, serverID) })
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		if cfg != nil {
			view.NotificationChannelID = &cfg.ChannelID
		}
	}

	return view, nil
}

// SetServerVanity is reserved to premium server Owners. An empty vanity clears it.
func (s *ServerService) SetServerVanity(ctx context.Context, actor entities.Actor, serverID, vanity string) error {
	user, err := s.experiences.getUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !LimitsFor(user).VanityAllowed {
		return common.LimitExceeded(constants.ErrCodeVanityPremium, constants.MsgVanityPremium)
	}

	role, _, err := s.experiences.roleIn(ctx, actor, serverID)
	if err != nil {
		return err
	}
	if role != constants.RoleOwner {
		return common.Unauthorized(constants.ErrCodeNotAuthorized, "Only the server owner can change server settings.")
	}

	current, err := s.getServer(ctx, serverID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if current != nil && current.VanityURL != nil && s.cache != nil {
		s.cache.Delete(ctx, string(constants.CachePrefixServerSlug)+*current.VanityURL)
	}

	if vanity == "" {
		return s.setVanity(ctx, serverID, nil)
	}
	if !vanityPattern.MatchString(vanity) {
		return common.InvalidInput(constants.ErrCodeInvalidVanity, constants.MsgVanityFormat)
	}
	existing, err := storeGet(ctx, s.experiences.timeout, "find server by vanity",
		func(ctx context.Context) (*gormModels.Server, error) { return s.servers.FindByVanity(ctx, vanity) })
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != serverID {
		return common.InvalidInput(constants.ErrCodeVanityTaken, constants.MsgVanityTaken)
	}

	return s.setVanity(ctx, serverID, &vanity)
}

func (s *ServerService) getServer(ctx context.Context, serverID string) (*gormModels.Server, error) {
	return storeGet(ctx, s.experiences.timeout, "get server",
		func(ctx context.Context) (*gormModels.Server, error) { return s.servers.Get(ctx, serverID) })
}

func (s *ServerService) setVanity(ctx context.Context, serverID string, vanity *string) error {
	return storeDo(ctx, s.experiences.timeout, "set server vanity",
		func(ctx context.Context) error { return s.servers.SetVanity(ctx, serverID, vanity) })
}

func (s *ServerService) listByServer(ctx context.Context, serverID string, status constants.ExperienceStatus) ([]gormModels.Experience, error) {
	return storeGet(ctx, s.experiences.timeout, "list server experiences",
		func(ctx context.Context) ([]gormModels.Experience, error) {
			return s.experiences.store.ListByServer(ctx, serverID, status)
		})
}

// managedView computes the action flags from the same table the engine enforces.
func managedView(exp *gormModels.Experience, role constants.GuildRole, actorID string) dtos.ManagedExperienceView {
	owns := exp.UserID == actorID
	pending := exp.Status == constants.StatusPending

	v := dtos.ManagedExperienceView{ExperienceView: dtos.NewExperienceView(exp)}
	v.CanApprove = pending && CanReview(role, exp.RequesterRole, actorID, exp.UserID)
	v.CanReject = pending && Authorize(TransitionReject, role, exp.RequesterRole, actorID, exp.UserID)
	v.CanEdit = (owns && pending) || Authorize(TransitionEdit, role, exp.RequesterRole, actorID, exp.UserID)
	if pending {
		v.CanDelete = owns
	} else {
		v.CanDelete = owns || Authorize(TransitionDeleteApproved, role, exp.RequesterRole, actorID, exp.UserID)
	}
	return v
}
