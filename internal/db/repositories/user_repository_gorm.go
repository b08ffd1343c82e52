package repositories

import (
	"context"
	"errors"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	gormModels "servercv/dashboard/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepositoryGORM struct {
	db *gorm.DB
}

// NewUserRepositoryGORM creates a new GORM-based user repository
func NewUserRepositoryGORM(db *gorm.DB) *UserRepositoryGORM {
	return &UserRepositoryGORM{db: db}
}

// Get retrieves a user by Discord ID
func (r *UserRepositoryGORM) Get(ctx context.Context, id string) (*gormModels.User, error) {
	var user gormModels.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, storeError("get user "+id, constants.ErrCodeUserNotFound, err)
	}

	return &user, nil
}

// FindByVanity retrieves a user by vanity slug
func (r *UserRepositoryGORM) FindByVanity(ctx context.Context, vanity string) (*gormModels.User, error) {
	var user gormModels.User

	err := r.db.WithContext(ctx).
		Where("vanity_url = ?", vanity).
		First(&user).Error
	if err != nil {
		return nil, storeError("find user by vanity", constants.ErrCodeUserNotFound, err)
	}

	return &user, nil
}

// UpsertOnLogin creates the user on first login and refreshes the Discord profile afterwards.
// Premium and settings columns are never touched here.
func (r *UserRepositoryGORM) UpsertOnLogin(ctx context.Context, id, username, avatar string) (*gormModels.User, error) {
	user := gormModels.User{ID: id, Username: username, Avatar: avatar}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "avatar", "updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return nil, storeError("upsert user", constants.ErrCodeUserNotFound, err)
	}

	return r.Get(ctx, id)
}

// UpdateSettings replaces the vanity slug and social links. A nil vanity clears it.
func (r *UserRepositoryGORM) UpdateSettings(ctx context.Context, id string, vanity *string, socials []string) error {
	result := r.db.WithContext(ctx).
		Model(&gormModels.User{}).
		Where("id = ?", id).
		Select("vanity_url", "socials").
		Updates(&gormModels.User{VanityURL: vanity, Socials: socials})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return common.InvalidInput(constants.ErrCodeVanityTaken, constants.MsgVanityTaken)
		}
		return storeError("update user settings", constants.ErrCodeUserNotFound, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.NotFound(constants.ErrCodeUserNotFound, "user "+id+" not found")
	}

	return nil
}

// ActivatePremium marks the user premium. premium_since keeps its first value, so
// repeated activations never move it.
func (r *UserRepositoryGORM) ActivatePremium(ctx context.Context, id, orderID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&gormModels.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"premium":          true,
			"payment_order_id": orderID,
			"premium_since":    gorm.Expr("COALESCE(premium_since, ?)", at),
		})
	if result.Error != nil {
		return storeError("activate premium", constants.ErrCodeUserNotFound, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.NotFound(constants.ErrCodeUserNotFound, "user "+id+" not found")
	}

	return nil
}
