// notifier/notifier.go
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/bathywatch/backend/models"
)

// ErrDeliveryFailed means the notification could not be handed to the
// transport. The poll cycle must not advance a box's last_checked_at marker
// when it sees this, so the same window is retried next cycle.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notifier delivers a digest of new records for one bounding box to its
// owner over one channel.
type Notifier interface {
	Notify(ctx context.Context, owner models.User, bbox models.BoundingBox, records []models.DatasetRecord) error
}

// ChannelNotifier dispatches to the concrete channel configured on each box.
type ChannelNotifier struct {
	Email   Notifier
	Webhook Notifier
}

// NewChannelNotifier wires the production email and webhook channels.
func NewChannelNotifier() *ChannelNotifier {
	return &ChannelNotifier{
		Email:   NewEmailNotifier(),
		Webhook: NewWebhookNotifier(),
	}
}

// Notify routes to the box's configured channel.
func (n *ChannelNotifier) Notify(ctx context.Context, owner models.User, bbox models.BoundingBox, records []models.DatasetRecord) error {
	switch bbox.Channel {
	case models.ChannelWebhook:
		return n.Webhook.Notify(ctx, owner, bbox, records)
	case models.ChannelEmail, "":
		return n.Email.Notify(ctx, owner, bbox, records)
	default:
		return fmt.Errorf("unknown notification channel %q for bbox %d", bbox.Channel, bbox.ID)
	}
}
