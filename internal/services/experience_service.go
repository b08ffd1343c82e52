package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
	"servercv/dashboard/internal/providers"

	"github.com/google/uuid"
)

// ExperienceStore persists records. Every mutating call is atomic and conditional:
// it fails with NotFound or InvalidState instead of overwriting a concurrent change.
type ExperienceStore interface {
	Get(ctx context.Context, id string) (*gormModels.Experience, error)
	CountActiveByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string, status constants.ExperienceStatus) ([]gormModels.Experience, error)
	ListByServer(ctx context.Context, serverID string, status constants.ExperienceStatus) ([]gormModels.Experience, error)
	Create(ctx context.Context, exp *gormModels.Experience, entry *gormModels.ExperienceHistory, event *gormModels.ExperienceEvent) error
	Approve(ctx context.Context, id, approverID string, at time.Time, entry *gormModels.ExperienceHistory, event *gormModels.ExperienceEvent) error
	DeleteWithStatus(ctx context.Context, id string, status constants.ExperienceStatus, event *gormModels.ExperienceEvent) error
	Update(ctx context.Context, id string, version int, fields map[string]any, entry *gormModels.ExperienceHistory) error
	History(ctx context.Context, id string) ([]gormModels.ExperienceHistory, error)
}

// UserStore reads dashboard users.
type UserStore interface {
	Get(ctx context.Context, id string) (*gormModels.User, error)
}

// ExperienceService is the experience lifecycle engine. The actor's guild role
// is always recomputed from a fresh membership snapshot; the requester's role is
// frozen on the record at submission.
type ExperienceService struct {
	store       ExperienceStore
	users       UserStore
	memberships providers.MembershipProvider
	metrics     *metrics.MetricsRegistry
	timeout     time.Duration
	now         func() time.Time
}

func NewExperienceService(
	store ExperienceStore,
	users UserStore,
	memberships providers.MembershipProvider,
	metricsReg *metrics.MetricsRegistry,
	timeout time.Duration,
) *ExperienceService {
	return &ExperienceService{
		store:       store,
		users:       users,
		memberships: memberships,
		metrics:     metricsReg,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Create submits a new pending record for the requester in serverID.
func (s *ExperienceService) Create(ctx context.Context, actor entities.Actor, serverID string, payload entities.ExperiencePayload) (exp *gormModels.Experience, err error) {
	defer func() {
		recordID := ""
		if exp != nil {
			recordID = exp.ID
		}
		s.observe(TransitionCreate, recordID, actor.UserID, err, "server_id", serverID)
	}()

	role, membership, err := s.roleIn(ctx, actor, serverID)
	if err != nil {
		return nil, err
	}
	if !Authorize(TransitionCreate, role, role, actor.UserID, actor.UserID) {
		return nil, common.Unauthorized(constants.ErrCodeNotAuthorized, "Only moderators and above can submit experiences for this server.")
	}

	user, err := s.getUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	limits := LimitsFor(user)
	if !user.IsPremium {
		count, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeStoreUnavailable, "count experiences",
			func(ctx context.Context) (int64, error) { return s.store.CountActiveByUser(ctx, actor.UserID) })
		if err != nil {
			return nil, err
		}
		if !limits.AllowsExperiences(int(count)) {
			return nil, common.LimitExceeded(constants.ErrCodeExperienceLimit, constants.MsgExperienceLimit)
		}
	}

	if err := validatePayload(&payload, limits); err != nil {
		return nil, err
	}

	now := s.now()
	exp = &gormModels.Experience{
		ID:            uuid.NewString(),
		UserID:        actor.UserID,
		ServerID:      serverID,
		ServerName:    membership.Name,
		RoleTitle:     payload.RoleTitle,
		StartMonth:    payload.StartMonth,
		StartYear:     payload.StartYear,
		EndMonth:      payload.EndMonth,
		EndYear:       payload.EndYear,
		Description:   payload.Description,
		RequesterRole: role,
		Status:        constants.StatusPending,
		RequestedAt:   now,
		Version:       1,
	}
	if membership.Icon != "" {
		icon := membership.Icon
		exp.ServerIcon = &icon
	}

	entry := s.historyEntry(exp.ID, constants.HistoryRequestSubmitted, actor.UserID, map[string]any{"role": role.Label()})
	event := s.outboxEvent(constants.EventRequestCreated, exp.ID, serverID)
	if err := s.storeCall(ctx, "create experience", func(ctx context.Context) error {
		return s.store.Create(ctx, exp, entry, event)
	}); err != nil {
		return nil, err
	}

	return exp, nil
}

// Approve publishes a pending record.
func (s *ExperienceService) Approve(ctx context.Context, actor entities.Actor, id string) (exp *gormModels.Experience, err error) {
	defer func() { s.observe(TransitionApprove, id, actor.UserID, err) }()

	exp, err = s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.Status != constants.StatusPending {
		return nil, common.InvalidState(constants.ErrCodeNotPending, "Experience is not pending.")
	}

	role, _, err := s.roleIn(ctx, actor, exp.ServerID)
	if err != nil {
		return nil, err
	}
	if !CanReview(role, exp.RequesterRole, actor.UserID, exp.UserID) {
		return nil, common.Unauthorized(constants.ErrCodeNotAuthorized, constants.MsgCannotApprove)
	}

	now := s.now()
	entry := s.historyEntry(id, constants.HistoryApproved, actor.UserID, map[string]any{"approver_role": role.Label()})
	event := s.outboxEvent(constants.EventRequestApproved, id, exp.ServerID)
	if err := s.storeCall(ctx, "approve experience", func(ctx context.Context) error {
		return s.store.Approve(ctx, id, actor.UserID, now, entry, event)
	}); err != nil {
		return nil, err
	}

	approver := actor.UserID
	exp.Status = constants.StatusApproved
	exp.ApprovedBy = &approver
	exp.ApprovedAt = &now
	exp.Version++
	return exp, nil
}

// Reject deletes a pending record outright.
func (s *ExperienceService) Reject(ctx context.Context, actor entities.Actor, id string) (err error) {
	defer func() { s.observe(TransitionReject, id, actor.UserID, err) }()

	exp, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if exp.Status != constants.StatusPending {
		return common.InvalidState(constants.ErrCodeNotPending, "Experience is not pending.")
	}

	role, _, err := s.roleIn(ctx, actor, exp.ServerID)
	if err != nil {
		return err
	}
	if !Authorize(TransitionReject, role, exp.RequesterRole, actor.UserID, exp.UserID) {
		return common.Unauthorized(constants.ErrCodeNotAuthorized, constants.MsgNotAuthorized)
	}

	event := s.outboxEvent(constants.EventRequestRejected, id, exp.ServerID)
	return s.storeCall(ctx, "reject experience", func(ctx context.Context) error {
		return s.store.DeleteWithStatus(ctx, id, constants.StatusPending, event)
	})
}

// Edit replaces the payload of a pending or approved record. The owner may edit
// their own pending record; otherwise review authority over the record is needed.
// Limits are those of the owning user, not the editor.
func (s *ExperienceService) Edit(ctx context.Context, actor entities.Actor, id string, payload entities.ExperiencePayload) (exp *gormModels.Experience, err error) {
	defer func() { s.observe(TransitionEdit, id, actor.UserID, err) }()

	exp, err = s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	ownPending := exp.UserID == actor.UserID && exp.Status == constants.StatusPending
	if !ownPending {
		if err := s.requireGrant(ctx, actor, exp, TransitionEdit, constants.MsgCannotEdit); err != nil {
			return nil, err
		}
	}

	owner, err := s.getUser(ctx, exp.UserID)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(&payload, LimitsFor(owner)); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"role_title":  payload.RoleTitle,
		"start_month": payload.StartMonth,
		"start_year":  payload.StartYear,
		"end_month":   payload.EndMonth,
		"end_year":    payload.EndYear,
		"description": payload.Description,
	}
	entry := s.historyEntry(id, constants.HistoryEdited, actor.UserID, map[string]any{"changed": changedFields(exp, payload)})
	if err := s.storeCall(ctx, "edit experience", func(ctx context.Context) error {
		return s.store.Update(ctx, id, exp.Version, fields, entry)
	}); err != nil {
		return nil, err
	}

	exp.RoleTitle = payload.RoleTitle
	exp.StartMonth = payload.StartMonth
	exp.StartYear = payload.StartYear
	exp.EndMonth = payload.EndMonth
	exp.EndYear = payload.EndYear
	exp.Description = payload.Description
	exp.Version++
	return exp, nil
}

// DeleteApproved removes an approved record. The owner may always do so, other
// users need the server Owner role.
func (s *ExperienceService) DeleteApproved(ctx context.Context, actor entities.Actor, id string) (err error) {
	defer func() { s.observe(TransitionDeleteApproved, id, actor.UserID, err) }()

	exp, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if exp.Status != constants.StatusApproved {
		return common.InvalidState(constants.ErrCodeNotApproved, "Experience is not approved.")
	}
	if exp.UserID != actor.UserID {
		if err := s.requireGrant(ctx, actor, exp, TransitionDeleteApproved, constants.MsgNotAuthorized); err != nil {
			return err
		}
	}

	return s.storeCall(ctx, "delete experience", func(ctx context.Context) error {
		return s.store.DeleteWithStatus(ctx, id, constants.StatusApproved, nil)
	})
}

// DeletePending lets the owner withdraw their own pending request.
func (s *ExperienceService) DeletePending(ctx context.Context, actor entities.Actor, id string) (err error) {
	defer func() { s.observe(TransitionDeletePending, id, actor.UserID, err) }()

	exp, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if exp.Status != constants.StatusPending {
		return common.InvalidState(constants.ErrCodeNotPending, "Experience is not pending.")
	}
	if exp.UserID != actor.UserID {
		return common.Unauthorized(constants.ErrCodeNotRecordOwner, constants.MsgNotAuthorized)
	}

	return s.storeCall(ctx, "delete pending experience", func(ctx context.Context) error {
		return s.store.DeleteWithStatus(ctx, id, constants.StatusPending, nil)
	})
}

// SetEndDate sets or clears (both nil) the end of the owner's record.
func (s *ExperienceService) SetEndDate(ctx context.Context, actor entities.Actor, id string, endMonth, endYear *int) (exp *gormModels.Experience, err error) {
	defer func() { s.observe(TransitionSetEndDate, id, actor.UserID, err) }()

	exp, err = s.ownedRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateEndDate(exp.StartMonth, exp.StartYear, endMonth, endYear); err != nil {
		return nil, err
	}

	details := map[string]any{"ongoing": endMonth == nil}
	if endMonth != nil {
		details["end_month"] = *endMonth
		details["end_year"] = *endYear
	}
	entry := s.historyEntry(id, constants.HistoryEndDateUpdated, actor.UserID, details)
	if err := s.storeCall(ctx, "set end date", func(ctx context.Context) error {
		return s.store.Update(ctx, id, exp.Version, map[string]any{"end_month": endMonth, "end_year": endYear}, entry)
	}); err != nil {
		return nil, err
	}

	exp.EndMonth = endMonth
	exp.EndYear = endYear
	exp.Version++
	return exp, nil
}

// Pin needs the owner to be premium at pin time.
func (s *ExperienceService) Pin(ctx context.Context, actor entities.Actor, id string) (exp *gormModels.Experience, err error) {
	defer func() { s.observe(TransitionPin, id, actor.UserID, err) }()

	exp, err = s.ownedRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.getUser(ctx, exp.UserID)
	if err != nil {
		return nil, err
	}
	if !owner.IsPremium {
		return nil, common.Unauthorized(constants.ErrCodePremiumRequired, constants.MsgPremiumRequired)
	}

	return s.setPinned(ctx, actor, exp, true)
}

// Unpin has no entitlement gate.
func (s *ExperienceService) Unpin(ctx context.Context, actor entities.Actor, id string) (exp *gormModels.Experience, err error) {
	defer func() { s.observe(TransitionUnpin, id, actor.UserID, err) }()

	exp, err = s.ownedRecord(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.setPinned(ctx, actor, exp, false)
}

func (s *ExperienceService) setPinned(ctx context.Context, actor entities.Actor, exp *gormModels.Experience, pinned bool) (*gormModels.Experience, error) {
	action := constants.HistoryUnpinned
	if pinned {
		action = constants.HistoryPinned
	}
	entry := s.historyEntry(exp.ID, action, actor.UserID, nil)
	if err := s.storeCall(ctx, strings.ToLower(action)+" experience", func(ctx context.Context) error {
		return s.store.Update(ctx, exp.ID, exp.Version, map[string]any{"is_pinned": pinned}, entry)
	}); err != nil {
		return nil, err
	}

	exp.IsPinned = pinned
	exp.Version++
	return exp, nil
}

// ListTimeline returns the user's approved records in timeline order.
func (s *ExperienceService) ListTimeline(ctx context.Context, userID string) ([]gormModels.Experience, error) {
	exps, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeStoreUnavailable, "list timeline",
		func(ctx context.Context) ([]gormModels.Experience, error) {
			return s.store.ListByUser(ctx, userID, constants.StatusApproved)
		})
	if err != nil {
		return nil, err
	}
	SortTimeline(exps)
	return exps, nil
}

// ListPending returns the user's own pending requests, newest first.
func (s *ExperienceService) ListPending(ctx context.Context, userID string) ([]gormModels.Experience, error) {
	exps, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeStoreUnavailable, "list pending",
		func(ctx context.Context) ([]gormModels.Experience, error) {
			return s.store.ListByUser(ctx, userID, constants.StatusPending)
		})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(exps, func(i, j int) bool {
		return exps[i].RequestedAt.After(exps[j].RequestedAt)
	})
	return exps, nil
}

// History is visible to the record owner and to anyone with review authority over it.
func (s *ExperienceService) History(ctx context.Context, actor entities.Actor, id string) ([]gormModels.ExperienceHistory, error) {
	exp, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.UserID != actor.UserID {
		if err := s.requireGrant(ctx, actor, exp, TransitionEdit, constants.MsgNotAuthorized); err != nil {
			return nil, err
		}
	}

	return common.WithTimeout(ctx, s.timeout, constants.ErrCodeStoreUnavailable, "experience history",
		func(ctx context.Context) ([]gormModels.ExperienceHistory, error) { return s.store.History(ctx, id) })
}

// SortTimeline orders records pinned first, then by start date, newest first.
func SortTimeline(exps []gormModels.Experience) {
	sort.SliceStable(exps, func(i, j int) bool {
		a, b := exps[i], exps[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.StartYear != b.StartYear {
			return a.StartYear > b.StartYear
		}
		return a.StartMonth > b.StartMonth
	})
}

// roleIn classifies the actor in serverID from a fresh membership snapshot.
// Not being a member of the guild is an authorization failure.
func (s *ExperienceService) roleIn(ctx context.Context, actor entities.Actor, serverID string) (constants.GuildRole, entities.GuildMembership, error) {
	memberships, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeDiscordUnavailable, "list guilds",
		func(ctx context.Context) ([]entities.GuildMembership, error) {
			return s.memberships.GetMemberships(ctx, actor)
		})
	if err != nil {
		return "", entities.GuildMembership{}, err
	}

	role, membership, err := ClassifyRole(actor.UserID, serverID, memberships)
	if errors.Is(err, common.ErrNotFound) {
		return "", entities.GuildMembership{}, common.Unauthorized(constants.ErrCodeNotGuildMember, constants.MsgNotAuthorized)
	}
	return role, membership, err
}

// requireGrant checks the authorization table for the actor's current role
// against the record's frozen requester role.
func (s *ExperienceService) requireGrant(ctx context.Context, actor entities.Actor, exp *gormModels.Experience, t Transition, message string) error {
	role, _, err := s.roleIn(ctx, actor, exp.ServerID)
	if err != nil {
		return err
	}
	if !Authorize(t, role, exp.RequesterRole, actor.UserID, exp.UserID) {
		return common.Unauthorized(constants.ErrCodeNotAuthorized, message)
	}
	return nil
}

func (s *ExperienceService) ownedRecord(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error) {
	exp, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.UserID != actor.UserID {
		return nil, common.Unauthorized(constants.ErrCodeNotRecordOwner, constants.MsgNotAuthorized)
	}
	return exp, nil
}

func (s *ExperienceService) getRecord(ctx context.Context, id string) (*gormModels.Experience, error) {
	return storeGet(ctx, s.timeout, "get experience",
		func(ctx context.Context) (*gormModels.Experience, error) { return s.store.Get(ctx, id) })
}

func (s *ExperienceService) getUser(ctx context.Context, id string) (*gormModels.User, error) {
	return storeGet(ctx, s.timeout, "get user",
		func(ctx context.Context) (*gormModels.User, error) { return s.users.Get(ctx, id) })
}

func (s *ExperienceService) storeCall(ctx context.Context, op string, call func(context.Context) error) error {
	return storeDo(ctx, s.timeout, op, call)
}

// storeGet bounds a store read; running out of time is a retryable Unavailable.
func storeGet[T any](ctx context.Context, timeout time.Duration, op string, call func(context.Context) (T, error)) (T, error) {
	return common.WithTimeout(ctx, timeout, constants.ErrCodeStoreUnavailable, op, call)
}

func storeDo(ctx context.Context, timeout time.Duration, op string, call func(context.Context) error) error {
	_, err := common.WithTimeout(ctx, timeout, constants.ErrCodeStoreUnavailable, op,
		func(ctx context.Context) (struct{}, error) { return struct{}{}, call(ctx) })
	return err
}

func (s *ExperienceService) historyEntry(recordID, action, actorID string, details map[string]any) *gormModels.ExperienceHistory {
	return &gormModels.ExperienceHistory{
		ID:           uuid.NewString(),
		ExperienceID: recordID,
		Action:       action,
		UserID:       actorID,
		Details:      details,
		CreatedAt:    s.now(),
	}
}

func (s *ExperienceService) outboxEvent(kind constants.EventKind, recordID, serverID string) *gormModels.ExperienceEvent {
	return &gormModels.ExperienceEvent{
		Kind:       kind,
		RecordID:   recordID,
		ServerID:   serverID,
		OccurredAt: s.now(),
	}
}

func (s *ExperienceService) observe(t Transition, recordID, actorID string, err error, fields ...interface{}) {
	outcome := outcomeLabel(err)
	s.metrics.ObserveTransition(string(t), outcome)
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	logging.Transition(string(t), recordID, actorID, outcome, fields...)
}

// outcomeLabel turns an error kind into a metric label such as "invalid_state".
func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := common.AsAppError(err); ok {
		return strings.ReplaceAll(appErr.Kind.Error(), " ", "_")
	}
	return "error"
}

func changedFields(exp *gormModels.Experience, p entities.ExperiencePayload) []string {
	var changed []string
	if exp.RoleTitle != p.RoleTitle {
		changed = append(changed, "role_title")
	}
	if exp.StartMonth != p.StartMonth || exp.StartYear != p.StartYear {
		changed = append(changed, "start_date")
	}
	if !sameOptional(exp.EndMonth, p.EndMonth) || !sameOptional(exp.EndYear, p.EndYear) {
		changed = append(changed, "end_date")
	}
	if exp.Description != p.Description {
		changed = append(changed, "description")
	}
	return changed
}

func sameOptional(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
