package bot

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"

	"github.com/bwmarrin/discordgo"
)

// notifiedTTL bounds how long a delivered event id is remembered for
// suppressing stream redeliveries.
const notifiedTTL = time.Hour

type NotificationConfigReader interface {
	Get(ctx context.Context, serverID string) (*entities.NotificationConfig, error)
}

type ExperienceReader interface {
	Get(ctx context.Context, id string) (*gormModels.Experience, error)
}

type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts lifecycle events to each server's configured channel.
type Notifier struct {
	configs     NotificationConfigReader
	experiences ExperienceReader
	sender      MessageSender
	delivered   common.CacheInterface
	metrics     *metrics.MetricsRegistry
	baseURL     string
	timeout     time.Duration
	now         func() time.Time
}

func NewNotifier(
	configs NotificationConfigReader,
	experiences ExperienceReader,
	sender MessageSender,
	delivered common.CacheInterface,
	metricsReg *metrics.MetricsRegistry,
	baseURL string,
	timeout time.Duration,
) *Notifier {
	return &Notifier{
		configs:     configs,
		experiences: experiences,
		sender:      sender,
		delivered:   delivered,
		metrics:     metricsReg,
		baseURL:     baseURL,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Handle delivers one event. Missing configuration or a vanished record is
// not an error; store and Discord outages are returned as retryable.
func (n *Notifier) Handle(ctx context.Context, ev entities.LifecycleEvent) error {
	dedupeKey := "notified:" + strconv.FormatUint(ev.OutboxID, 10)
	if _, seen := n.delivered.Get(ctx, dedupeKey); seen {
		n.observe(ev, "duplicate")
		return nil
	}

	cfg, err := n.configs.Get(ctx, ev.ServerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			n.observe(ev, "unconfigured")
			return nil
		}
		return err
	}

	msg, err := n.buildMessage(ctx, ev, cfg)
	if err != nil {
		return err
	}
	if msg == nil {
		n.observe(ev, "skipped")
		return nil
	}

	_, err = common.WithTimeout(ctx, n.timeout, constants.ErrCodeDiscordUnavailable, "send notification",
		func(callCtx context.Context) (*discordgo.Message, error) {
			return n.sender.ChannelMessageSendComplex(cfg.ChannelID, msg, discordgo.WithContext(callCtx))
		})
	if err != nil {
		if isPermanentSendError(err) {
			n.observe(ev, "undeliverable")
			logging.Warn("Notification channel unusable",
				"server_id", ev.ServerID,
				"channel_id", cfg.ChannelID,
				"error", err,
			)
			return nil
		}
		n.observe(ev, "error")
		return err
	}

	n.delivered.Set(ctx, dedupeKey, true, notifiedTTL)
	n.observe(ev, "sent")
	if n.metrics != nil && !ev.OccurredAt.IsZero() {
		n.metrics.NotificationDeliveryLag.Observe(n.now().Sub(ev.OccurredAt).Seconds())
	}
	logging.Info("Notification sent", "kind", ev.Kind, "record_id", ev.RecordID, "server_id", ev.ServerID)
	return nil
}

func (n *Notifier) buildMessage(ctx context.Context, ev entities.LifecycleEvent, cfg *entities.NotificationConfig) (*discordgo.MessageSend, error) {
	switch ev.Kind {
	case constants.EventRequestCreated:
		exp, err := n.experiences.Get(ctx, ev.RecordID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// decided or withdrawn before the bot caught up
				return nil, nil
			}
			return nil, err
		}
		if exp.Status != constants.StatusPending {
			return nil, nil
		}
		return NewRequestMessage(exp, cfg.RoleID, n.baseURL, ev.OccurredAt), nil

	case constants.EventRequestApproved:
		exp, err := n.experiences.Get(ctx, ev.RecordID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return NewDecisionMessage(ev.Kind, exp, ev.RecordID, ev.OccurredAt), nil

	case constants.EventRequestRejected:
		return NewDecisionMessage(ev.Kind, nil, ev.RecordID, ev.OccurredAt), nil
	}

	logging.Warn("Unknown event kind", "kind", ev.Kind, "outbox_id", ev.OutboxID)
	return nil, nil
}

// isPermanentSendError reports failures that retrying cannot fix, such as a
// deleted channel or missing permissions.
func isPermanentSendError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return false
	}
	switch restErr.Response.StatusCode {
	case http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
		return true
	}
	return false
}

func (n *Notifier) observe(ev entities.LifecycleEvent, outcome string) {
	if n.metrics == nil {
		return
	}
	n.metrics.NotificationsSentTotal.WithLabelValues(string(ev.Kind), outcome).Inc()
}
