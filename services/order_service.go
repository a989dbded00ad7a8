// services/order_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/database"
	"github.com/bathywatch/backend/fetchers"
	"github.com/bathywatch/backend/models"
)

var orderClient = &http.Client{}

// The point store order API labels multibeam differently than our source
// names, and only exports these two datasets.
var orderLabels = map[models.SourceType]string{
	models.SourceMBES: "multibeam",
	models.SourceCSB:  "csb",
}

// orderRequest is the point store order payload.
type orderRequest struct {
	BBox     string         `json:"bbox"`
	Email    string         `json:"email"`
	Datasets []orderDataset `json:"datasets"`
	Grid     *orderGrid     `json:"grid,omitempty"`
}

type orderDataset struct {
	Label string `json:"label"`
}

type orderGrid struct {
	Resolution int `json:"resolution"`
}

// orderResponse is the subset of the point store's reply we use.
type orderResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// statusResponse is the point store's order status document.
type statusResponse struct {
	Status         string `json:"status"`
	OutputLocation string `json:"output_location"`
}

// PlaceOrder sends a data export request to the point store for a box the
// user owns and records it as an initialized order.
func PlaceOrder(ctx context.Context, bboxID int64, dataType models.SourceType, user models.User) (models.DataOrder, error) {
	label, ok := orderLabels[dataType]
	if !ok {
		return models.DataOrder{}, fmt.Errorf("%w: data type %q cannot be ordered", ErrValidation, dataType)
	}

	bbox, err := database.GetBBoxByID(bboxID)
	if err != nil {
		return models.DataOrder{}, err
	}
	if bbox.OwnerID != user.ID {
		return models.DataOrder{}, ErrForbidden
	}

	payload := orderRequest{
		BBox:     bbox.Envelope(),
		Email:    user.Email,
		Datasets: []orderDataset{{Label: label}},
	}
	if dataType == models.SourceMBES {
		payload.Grid = &orderGrid{Resolution: config.AppConfig.PointStore.GridResolution}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.AppConfig.PointStore.OrderURL, bytes.NewReader(body))
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := orderClient.Do(req)
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("%w: order request failed: %v", fetchers.ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return models.DataOrder{}, fmt.Errorf("%w: order endpoint returned status %d",
			fetchers.ErrSourceUnavailable, res.StatusCode)
	}

	var decoded orderResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return models.DataOrder{}, fmt.Errorf("%w: failed to decode order response: %v",
			fetchers.ErrSchemaMismatch, err)
	}

	refID := lastPathSegment(decoded.URL)
	if refID == "" {
		// the status URL should carry the reference; fall back to our own
		refID = uuid.NewString()
	}

	order, err := database.CreateDataOrder(models.DataOrder{
		UserID:         user.ID,
		BBoxID:         bbox.ID,
		DataType:       dataType,
		NOAARefID:      refID,
		CheckStatusURL: decoded.URL,
		Status:         models.OrderInitialized,
		OrderedAt:      time.Now().UTC(),
	})
	if err != nil {
		return models.DataOrder{}, err
	}

	log.Printf("Service: Placed %s order %d (ref %s) for bbox %d.\n", dataType, order.ID, refID, bbox.ID)
	return order, nil
}

// ListOrders returns all orders placed by the user.
func ListOrders(userID int64) ([]models.DataOrder, error) {
	return database.GetDataOrdersForUser(userID)
}

// RefreshOrderStatus re-checks a pending order against the point store and
// persists the new state. Terminal orders are returned as-is; orders stuck in
// initialized past the configured TTL are marked failed without another
// upstream call.
func RefreshOrderStatus(ctx context.Context, orderID, userID int64) (models.DataOrder, error) {
	order, err := database.GetDataOrderByID(orderID)
	if err != nil {
		return models.DataOrder{}, err
	}
	if order.UserID != userID {
		return models.DataOrder{}, ErrForbidden
	}

	if order.Status == models.OrderComplete || order.Status == models.OrderFailed {
		// be nice and don't hammer the NOAA api once we know the outcome
		return order, nil
	}

	if OrderIsStale(order, time.Now().UTC(), config.AppConfig.PointStore.StaleOrderTTL) {
		log.Printf("Service: Order %d stuck in initialized past TTL, marking failed.\n", order.ID)
		order.Status = models.OrderFailed
		if err := database.UpdateDataOrderStatus(order.ID, order.Status, order.DownloadURL); err != nil {
			return models.DataOrder{}, err
		}
		return order, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, order.CheckStatusURL, nil)
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("failed to build status request: %w", err)
	}
	res, err := orderClient.Do(req)
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("%w: status request for order %d failed: %v",
			fetchers.ErrSourceUnavailable, order.ID, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return models.DataOrder{}, fmt.Errorf("%w: status endpoint for order %d returned %d",
			fetchers.ErrSourceUnavailable, order.ID, res.StatusCode)
	}

	var decoded statusResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return models.DataOrder{}, fmt.Errorf("%w: failed to decode status response for order %d: %v",
			fetchers.ErrSchemaMismatch, order.ID, err)
	}

	order.Status = MapPointStoreStatus(decoded.Status, order.Status)
	if decoded.OutputLocation != "" {
		order.DownloadURL = PickupURL(decoded.OutputLocation)
	}

	if err := database.UpdateDataOrderStatus(order.ID, order.Status, order.DownloadURL); err != nil {
		return models.DataOrder{}, err
	}
	return order, nil
}

// OrderIsStale reports whether an order has been sitting in initialized
// longer than the TTL allows.
func OrderIsStale(order models.DataOrder, now time.Time, ttl time.Duration) bool {
	return order.Status == models.OrderInitialized && now.Sub(order.OrderedAt) > ttl
}

// MapPointStoreStatus translates the point store's status vocabulary into
// ours. Unknown statuses keep the previous state so a vocabulary change
// upstream never flips a pending order to a terminal state by accident.
func MapPointStoreStatus(raw string, previous models.OrderStatus) models.OrderStatus {
	switch strings.ToLower(raw) {
	case "complete":
		return models.OrderComplete
	case "processing":
		return models.OrderProcessing
	case "initialized", "created":
		return models.OrderInitialized
	case "failed", "error":
		return models.OrderFailed
	default:
		log.Printf("Service: Didn't recognize point store order status %q.\n", raw)
		return previous
	}
}

// PickupURL converts an internal bucket location into the public pickup URL.
func PickupURL(bucketLocation string) string {
	return config.AppConfig.PointStore.PickupURL + "/" + lastPathSegment(bucketLocation)
}

func lastPathSegment(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(s, "/"), "/")
	return parts[len(parts)-1]
}

// IsNotFound reports whether err is the stores' not-found error, so handlers
// can map it to a 404 without importing the database package everywhere.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
