package repositories

import (
	"context"
	"fmt"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	gormModels "servercv/dashboard/internal/models/gorm"

	"gorm.io/gorm"
)

// ExperienceRepositoryGORM stores experience records together with their
// history and the outbox events of every mutation.
type ExperienceRepositoryGORM struct {
	db *gorm.DB
}

// NewExperienceRepositoryGORM creates a new GORM-based experience repository
func NewExperienceRepositoryGORM(db *gorm.DB) *ExperienceRepositoryGORM {
	return &ExperienceRepositoryGORM{db: db}
}

// Get retrieves a record by id
func (r *ExperienceRepositoryGORM) Get(ctx context.Context, id string) (*gormModels.Experience, error) {
	var exp gormModels.Experience

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&exp).Error
	if err != nil {
		return nil, storeError("get experience "+id, constants.ErrCodeRecordNotFound, err)
	}

	return &exp, nil
}

// CountActiveByUser counts the user's pending and approved records
func (r *ExperienceRepositoryGORM) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gormModels.Experience{}).
		Where("user_id = ? AND status IN ?", userID, []string{constants.StatusPending.String(), constants.StatusApproved.String()}).
		Count(&count).Error
	if err != nil {
		return 0, storeError("count experiences", constants.ErrCodeRecordNotFound, err)
	}

	return count, nil
}

// ListByUser returns the user's records with the given status, unordered
func (r *ExperienceRepositoryGORM) ListByUser(ctx context.Context, userID string, status constants.ExperienceStatus) ([]gormModels.Experience, error) {
	var exps []gormModels.Experience

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Find(&exps).Error
	if err != nil {
		return nil, storeError("list user experiences", constants.ErrCodeRecordNotFound, err)
	}

	return exps, nil
}

// ListByServer returns the server's records with the given status, oldest request first
func (r *ExperienceRepositoryGORM) ListByServer(ctx context.Context, serverID string, status constants.ExperienceStatus) ([]gormModels.Experience, error) {
	var exps []gormModels.Experience

	err := r.db.WithContext(ctx).
		Where("server_id = ? AND status = ?", serverID, status).
		Order("requested_at ASC").
		Find(&exps).Error
	if err != nil {
		return nil, storeError("list server experiences", constants.ErrCodeRecordNotFound, err)
	}

	return exps, nil
}

// Create inserts a new record with its first history entry and outbox event in one transaction
func (r *ExperienceRepositoryGORM) Create(
	ctx context.Context,
	exp *gormModels.Experience,
	entry *gormModels.ExperienceHistory,
	event *gormModels.ExperienceEvent,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(exp).Error; err != nil {
			return fmt.Errorf("insert experience: %w", err)
		}
		return appendSideEffects(tx, entry, event)
	})
	return storeError("create experience", constants.ErrCodeRecordNotFound, err)
}

// Approve moves a pending record to approved. Exactly one of several racing
// transitions on the same record can succeed; the others get NotFound or InvalidState.
func (r *ExperienceRepositoryGORM) Approve(
	ctx context.Context,
	id, approverID string,
	at time.Time,
	entry *gormModels.ExperienceHistory,
	event *gormModels.ExperienceEvent,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&gormModels.Experience{}).
			Where("id = ? AND status = ?", id, constants.StatusPending).
			Updates(map[string]any{
				"status":      constants.StatusApproved,
				"approved_by": approverID,
				"approved_at": at,
				"version":     gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("approve experience: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return missingOrMoved(tx, id, constants.ErrCodeNotPending, "experience is no longer pending")
		}
		return appendSideEffects(tx, entry, event)
	})
	return storeError("approve experience "+id, constants.ErrCodeRecordNotFound, err)
}

// DeleteWithStatus removes the record and its history, but only while it still has
// the expected status. event may be nil when the deletion is not announced.
func (r *ExperienceRepositoryGORM) DeleteWithStatus(
	ctx context.Context,
	id string,
	status constants.ExperienceStatus,
	event *gormModels.ExperienceEvent,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND status = ?", id, status).Delete(&gormModels.Experience{})
		if result.Error != nil {
			return fmt.Errorf("delete experience: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			code := constants.ErrCodeNotPending
			if status == constants.StatusApproved {
				code = constants.ErrCodeNotApproved
			}
			return missingOrMoved(tx, id, code, fmt.Sprintf("experience is no longer %s", status))
		}
		if err := tx.Where("experience_id = ?", id).Delete(&gormModels.ExperienceHistory{}).Error; err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		return appendSideEffects(tx, nil, event)
	})
	return storeError("delete experience "+id, constants.ErrCodeRecordNotFound, err)
}

// Update applies fields when the stored version still matches the version the
// caller read, and bumps the version.
func (r *ExperienceRepositoryGORM) Update(
	ctx context.Context,
	id string,
	version int,
	fields map[string]any,
	entry *gormModels.ExperienceHistory,
) error {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&gormModels.Experience{}).
			Where("id = ? AND version = ?", id, version).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("update experience: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return missingOrMoved(tx, id, constants.ErrCodeConcurrentUpdate, "experience was modified concurrently")
		}
		return appendSideEffects(tx, entry, nil)
	})
	return storeError("update experience "+id, constants.ErrCodeRecordNotFound, err)
}

// History returns the record's audit trail, oldest first
func (r *ExperienceRepositoryGORM) History(ctx context.Context, id string) ([]gormModels.ExperienceHistory, error) {
	var entries []gormModels.ExperienceHistory

	err := r.db.WithContext(ctx).
		Where("experience_id = ?", id).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, storeError("experience history", constants.ErrCodeRecordNotFound, err)
	}

	return entries, nil
}

// missingOrMoved explains a conditional write that touched no rows.
func missingOrMoved(tx *gorm.DB, id, code, message string) error {
	var count int64
	if err := tx.Model(&gormModels.Experience{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("recheck experience: %w", err)
	}
	if count == 0 {
		return common.NotFound(constants.ErrCodeRecordNotFound, "experience "+id+" not found")
	}
	return common.InvalidState(code, message)
}

func appendSideEffects(tx *gorm.DB, entry *gormModels.ExperienceHistory, event *gormModels.ExperienceEvent) error {
	if entry != nil {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	if event != nil {
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}
