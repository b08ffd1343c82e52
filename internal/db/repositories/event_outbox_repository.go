package repositories

import (
	"context"
	"time"

	"servercv/dashboard/internal/constants"
	gormModels "servercv/dashboard/internal/models/gorm"

	"gorm.io/gorm"
)

// EventOutboxRepository reads the lifecycle events written alongside record mutations.
type EventOutboxRepository struct {
	db *gorm.DB
}

func NewEventOutboxRepository(db *gorm.DB) *EventOutboxRepository {
	return &EventOutboxRepository{db: db}
}

// FetchUnpublished returns up to limit events not yet handed to the stream, in commit order.
func (r *EventOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]gormModels.ExperienceEvent, error) {
	var events []gormModels.ExperienceEvent

	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, storeError("fetch outbox", constants.ErrCodeRecordNotFound, err)
	}

	return events, nil
}

func (r *EventOutboxRepository) MarkPublished(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&gormModels.ExperienceEvent{}).
		Where("id IN ?", ids).
		Update("published_at", at).Error

	return storeError("mark outbox published", constants.ErrCodeRecordNotFound, err)
}

func (r *EventOutboxRepository) CountUnpublished(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gormModels.ExperienceEvent{}).
		Where("published_at IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, storeError("count outbox", constants.ErrCodeRecordNotFound, err)
	}

	return count, nil
}
