// notifier/webhook.go
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/bathywatch/backend/models"
)

// WebhookNotifier POSTs a structured payload to the URL configured on the
// bounding box.
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier creates the production webhook channel.
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{client: &http.Client{}}
}

// webhookPayload is the wire shape receivers get.
type webhookPayload struct {
	BBoxID  int64                  `json:"bbox_id"`
	Records []models.DatasetRecord `json:"records"`
}

// Notify delivers the records as JSON. Any transport error or non-2xx
// response is reported as ErrDeliveryFailed.
func (n *WebhookNotifier) Notify(ctx context.Context, owner models.User, bbox models.BoundingBox, records []models.DatasetRecord) error {
	if bbox.WebhookURL == "" {
		return fmt.Errorf("bbox %d has webhook channel but no webhook URL", bbox.ID)
	}

	body, err := json.Marshal(webhookPayload{BBoxID: bbox.ID, Records: records})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload for bbox %d: %w", bbox.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bbox.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request for bbox %d: %w", bbox.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: webhook POST for bbox %d: %v", ErrDeliveryFailed, bbox.ID, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: webhook for bbox %d returned status %d",
			ErrDeliveryFailed, bbox.ID, res.StatusCode)
	}

	log.Printf("Notifier: Delivered webhook for bbox %d (%d records).\n", bbox.ID, len(records))
	return nil
}
