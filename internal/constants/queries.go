package constants

const (
	GetNotificationConfig = `
	SELECT server_id, channel_id, role_id, updated_at
	FROM request_notification_configs
	WHERE server_id = $1
	`

	UpsertNotificationConfig = `
	INSERT INTO request_notification_configs (server_id, channel_id, role_id, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (server_id) DO UPDATE
	SET channel_id = EXCLUDED.channel_id,
	    role_id = EXCLUDED.role_id,
	    updated_at = NOW()
	`

	CreateNotificationConfigTable = `
	CREATE TABLE IF NOT EXISTS request_notification_configs (
		server_id  TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		role_id    TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
	`
)
