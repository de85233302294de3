package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/logger"
)

// Kind classifies outbound notifications.
type Kind string

const (
	KindWelcome         Kind = "welcome"
	KindAccountVerified Kind = "account_verified"
	KindUpgradeApproved Kind = "upgrade_approved"
	KindUpgradeRejected Kind = "upgrade_rejected"
)

// Notification is a single outbound message addressed to a user.
type Notification struct {
	UserID  uuid.UUID
	Kind    Kind
	Message string
}

// Notifier delivers notifications. Delivery is best-effort: callers treat a
// returned error as advisory and never fail the triggering operation on it.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier returns a notifier that records deliveries to the structured
// log. It stands in for an email or push provider.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Send(ctx context.Context, msg Notification) error {
	if n.log == nil {
		return nil
	}
	ctx = n.log.WithFields(ctx, map[string]any{
		"notification_kind": string(msg.Kind),
		"recipient_id":      msg.UserID.String(),
	})
	n.log.Info(ctx, msg.Message)
	return nil
}

// Dispatch sends a notification and logs failures instead of propagating
// them. Shared by every caller that must not fail on notifier errors.
func Dispatch(ctx context.Context, notifier Notifier, log *logger.Logger, n Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Send(ctx, n); err != nil && log != nil {
		ctx = log.WithFields(ctx, map[string]any{
			"notification_kind": string(n.Kind),
			"error":             err.Error(),
		})
		log.Warn(ctx, "notification delivery failed")
	}
}
