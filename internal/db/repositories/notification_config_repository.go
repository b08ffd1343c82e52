package repositories

import (
	"context"
	"database/sql"
	"errors"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type NotificationConfigRepo struct {
	db *sqlx.DB
}

func NewNotificationConfigRepo(db *sqlx.DB) *NotificationConfigRepo {
	return &NotificationConfigRepo{db}
}

// EnsureSchema creates the table when missing.
func (r *NotificationConfigRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, constants.CreateNotificationConfigTable); err != nil {
		return common.Unavailable(constants.ErrCodeStoreUnavailable, "create notification config table", err)
	}
	return nil
}

func (r *NotificationConfigRepo) Get(ctx context.Context, serverID string) (*entities.NotificationConfig, error) {
	var cfg entities.NotificationConfig

	err := r.db.QueryRowxContext(ctx, constants.GetNotificationConfig, serverID).StructScan(&cfg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(constants.ErrCodeServerNotFound, "no notification channel configured for "+serverID)
		}
		return nil, common.Unavailable(constants.ErrCodeStoreUnavailable, "get notification config", err)
	}

	return &cfg, nil
}

func (r *NotificationConfigRepo) Upsert(ctx context.Context, serverID, channelID string, roleID *string) error {
	if _, err := r.db.ExecContext(ctx, constants.UpsertNotificationConfig, serverID, channelID, roleID); err != nil {
		return common.Unavailable(constants.ErrCodeStoreUnavailable, "save notification config", err)
	}
	return nil
}
