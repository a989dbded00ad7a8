// services/bbox_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/database"
	"github.com/bathywatch/backend/fetchers"
	"github.com/bathywatch/backend/models"
)

var (
	// ErrValidation covers malformed user input rejected synchronously.
	ErrValidation = errors.New("validation error")

	// ErrForbidden means the caller does not own the resource.
	ErrForbidden = errors.New("permission denied")
)

// CreateBBox normalizes, validates, and persists a new bounding box for the
// user. Corners may arrive in any drag direction.
func CreateBBox(ownerID int64, req models.CreateBBoxRequest) (models.BoundingBox, error) {
	bbox := models.NewBoundingBox(
		req.TopLeftLat, req.TopLeftLon,
		req.BottomRightLat, req.BottomRightLon,
		ownerID,
	)
	bbox.DataTypes = req.DataTypes
	if len(bbox.DataTypes) == 0 {
		bbox.DataTypes = []models.SourceType{models.SourceMBES}
	}
	if req.Channel != "" {
		bbox.Channel = req.Channel
	}
	bbox.WebhookURL = req.WebhookURL

	if err := bbox.Validate(); err != nil {
		return models.BoundingBox{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	count, err := database.CountBBoxesForOwner(ownerID)
	if err != nil {
		return models.BoundingBox{}, err
	}
	if count >= models.MaxBoxesPerUser {
		return models.BoundingBox{}, fmt.Errorf("%w: max %d boxes per user, delete one to add more",
			ErrValidation, models.MaxBoxesPerUser)
	}

	saved, err := database.SaveBBox(bbox)
	if err != nil {
		return models.BoundingBox{}, err
	}
	log.Printf("Service: Created bbox %d for user %d.\n", saved.ID, ownerID)
	return saved, nil
}

// ListBBoxes returns the user's boxes.
func ListBBoxes(ownerID int64) ([]models.BoundingBox, error) {
	return database.GetBBoxesForOwner(ownerID)
}

// DeleteBBox removes a box the user owns, cascading to its orders and
// notification events. Returns how many orders were removed with it.
func DeleteBBox(bboxID, ownerID int64) (int, error) {
	orders, err := database.GetDataOrdersForBBox(bboxID)
	if err != nil {
		return 0, err
	}
	if err := database.DeleteBBox(bboxID, ownerID); err != nil {
		return 0, err
	}
	return len(orders), nil
}

// ListBBoxEvents returns the notification audit trail for a box the user
// owns, newest first.
func ListBBoxEvents(bboxID, ownerID int64, limit int) ([]models.NotificationEvent, error) {
	bbox, err := database.GetBBoxByID(bboxID)
	if err != nil {
		return nil, err
	}
	if bbox.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return database.GetNotificationEventsForBBox(bboxID, limit)
}

// FetchRecordsForBBox queries one source for the current records in a box
// the user owns. Used by the CSV export endpoint; no notification state is
// touched.
func FetchRecordsForBBox(ctx context.Context, bboxID, ownerID int64, source models.SourceType) ([]models.DatasetRecord, error) {
	if !models.IsValidSource(source) {
		return nil, fmt.Errorf("%w: unknown data type %q", ErrValidation, source)
	}

	bbox, err := database.GetBBoxByID(bboxID)
	if err != nil {
		return nil, err
	}
	if bbox.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	fetchCtx, cancel := context.WithTimeout(ctx, config.AppConfig.Worker.FetchTimeout)
	defer cancel()
	return fetchers.Fetch(fetchCtx, source, bbox, nil)
}
