package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bathywatch/backend/models"
)

func TestWebhookNotifyPostsPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	bbox := digestBBox()
	bbox.Channel = models.ChannelWebhook
	bbox.WebhookURL = server.URL
	records := makeRecords(models.SourceMBES, 2)

	n := NewWebhookNotifier()
	err := n.Notify(context.Background(), models.User{ID: 1}, bbox, records)
	require.NoError(t, err)

	assert.Equal(t, bbox.ID, got.BBoxID)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "mbes-0", got.Records[0].ID)
}

func TestWebhookNotifyNon2xxIsDeliveryFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	bbox := digestBBox()
	bbox.Channel = models.ChannelWebhook
	bbox.WebhookURL = server.URL

	n := NewWebhookNotifier()
	err := n.Notify(context.Background(), models.User{ID: 1}, bbox, makeRecords(models.SourceCSB, 1))
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestWebhookNotifyMissingURL(t *testing.T) {
	bbox := digestBBox()
	bbox.Channel = models.ChannelWebhook

	n := NewWebhookNotifier()
	err := n.Notify(context.Background(), models.User{ID: 1}, bbox, makeRecords(models.SourceCSB, 1))
	require.Error(t, err)
	// misconfiguration, not a transport failure
	assert.NotErrorIs(t, err, ErrDeliveryFailed)
}

func TestChannelNotifierDispatch(t *testing.T) {
	email := &recordingNotifier{}
	webhook := &recordingNotifier{}
	n := &ChannelNotifier{Email: email, Webhook: webhook}

	bbox := digestBBox()
	bbox.Channel = models.ChannelEmail
	require.NoError(t, n.Notify(context.Background(), models.User{}, bbox, nil))
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 0, webhook.calls)

	bbox.Channel = models.ChannelWebhook
	require.NoError(t, n.Notify(context.Background(), models.User{}, bbox, nil))
	assert.Equal(t, 1, webhook.calls)

	bbox.Channel = "carrier-pigeon"
	assert.Error(t, n.Notify(context.Background(), models.User{}, bbox, nil))
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, owner models.User, bbox models.BoundingBox, records []models.DatasetRecord) error {
	r.calls++
	return r.err
}
