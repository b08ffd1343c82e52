package repositories

import (
	"context"
	"errors"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	gormModels "servercv/dashboard/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerRepositoryGORM manages dashboard metadata of Discord servers
type ServerRepositoryGORM struct {
	db *gorm.DB
}

func NewServerRepositoryGORM(db *gorm.DB) *ServerRepositoryGORM {
	return &ServerRepositoryGORM{db: db}
}

// Get returns the server row; servers that never had metadata saved are NotFound.
func (r *ServerRepositoryGORM) Get(ctx context.Context, id string) (*gormModels.Server, error) {
	var server gormModels.Server

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&server).Error
	if err != nil {
		return nil, storeError("get server "+id, constants.ErrCodeServerNotFound, err)
	}

	return &server, nil
}

func (r *ServerRepositoryGORM) FindByVanity(ctx context.Context, vanity string) (*gormModels.Server, error) {
	var server gormModels.Server

	err := r.db.WithContext(ctx).
		Where("vanity_url = ?", vanity).
		First(&server).Error
	if err != nil {
		return nil, storeError("find server by vanity", constants.ErrCodeServerNotFound, err)
	}

	return &server, nil
}

// SetVanity creates or updates the server row. A nil vanity clears it.
func (r *ServerRepositoryGORM) SetVanity(ctx context.Context, id string, vanity *string) error {
	server := gormModels.Server{ID: id, VanityURL: vanity}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vanity_url", "updated_at"}),
		}).
		Create(&server).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.InvalidInput(constants.ErrCodeVanityTaken, constants.MsgVanityTaken)
		}
		return storeError("set server vanity", constants.ErrCodeServerNotFound, err)
	}

	return nil
}
