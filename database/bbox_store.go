// database/bbox_store.go
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bathywatch/backend/models"
)

// SaveBBox inserts a bounding box and returns it with its assigned id.
// The box must already be normalized (models.NewBoundingBox does this).
func SaveBBox(bbox models.BoundingBox) (models.BoundingBox, error) {
	if DB == nil {
		return models.BoundingBox{}, fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.Exec(`
		INSERT INTO bboxes (
			owner_id, top_left_lat, top_left_lon, bottom_right_lat,
			bottom_right_lon, data_types, channel, webhook_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		bbox.OwnerID, bbox.TopLeftLat, bbox.TopLeftLon, bbox.BottomRightLat,
		bbox.BottomRightLon, models.JoinDataTypes(bbox.DataTypes),
		bbox.Channel, bbox.WebhookURL,
	)
	if err != nil {
		return models.BoundingBox{}, fmt.Errorf("failed to insert bbox for owner %d: %w", bbox.OwnerID, err)
	}

	bbox.ID, err = res.LastInsertId()
	if err != nil {
		return models.BoundingBox{}, fmt.Errorf("failed to get inserted bbox id: %w", err)
	}
	return bbox, nil
}

const bboxSelect = `
	SELECT id, owner_id, top_left_lat, top_left_lon, bottom_right_lat,
	       bottom_right_lon, data_types, channel, webhook_url,
	       last_checked_at, created_at
	FROM bboxes
`

func scanBBoxRows(rows *sql.Rows) ([]models.BoundingBox, error) {
	var bboxes []models.BoundingBox
	for rows.Next() {
		var b models.BoundingBox
		var dataTypes string
		var lastChecked sql.NullTime
		err := rows.Scan(
			&b.ID, &b.OwnerID, &b.TopLeftLat, &b.TopLeftLon,
			&b.BottomRightLat, &b.BottomRightLon, &dataTypes,
			&b.Channel, &b.WebhookURL, &lastChecked, &b.CreatedAt,
		)
		if err != nil {
			log.Printf("ERROR Database: Failed to scan bbox row: %v", err)
			continue
		}
		b.DataTypes = models.SplitDataTypes(dataTypes)
		if lastChecked.Valid {
			b.LastCheckedAt = &lastChecked.Time
		}
		bboxes = append(bboxes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bbox rows: %w", err)
	}
	return bboxes, nil
}

// GetBBoxByID fetches one bounding box.
func GetBBoxByID(id int64) (models.BoundingBox, error) {
	if DB == nil {
		return models.BoundingBox{}, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(bboxSelect+"WHERE id = ?", id)
	if err != nil {
		return models.BoundingBox{}, fmt.Errorf("failed to query bbox %d: %w", id, err)
	}
	defer rows.Close()

	bboxes, err := scanBBoxRows(rows)
	if err != nil {
		return models.BoundingBox{}, err
	}
	if len(bboxes) == 0 {
		return models.BoundingBox{}, ErrNotFound
	}
	return bboxes[0], nil
}

// GetBBoxesForOwner returns all boxes belonging to one user.
func GetBBoxesForOwner(ownerID int64) ([]models.BoundingBox, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(bboxSelect+"WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bboxes for owner %d: %w", ownerID, err)
	}
	defer rows.Close()
	return scanBBoxRows(rows)
}

// GetAllBBoxes returns every box whose owner is active. The poll cycle walks
// this list once per invocation.
func GetAllBBoxes() ([]models.BoundingBox, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(bboxSelect + `
		WHERE owner_id IN (SELECT id FROM users WHERE active = TRUE)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all bboxes: %w", err)
	}
	defer rows.Close()
	return scanBBoxRows(rows)
}

// UpdateBBoxLastChecked advances the last_checked_at marker for one box.
// Only the poll cycle calls this, and only after a successful check.
func UpdateBBoxLastChecked(id int64, checkedAt time.Time) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.Exec("UPDATE bboxes SET last_checked_at = ? WHERE id = ?", checkedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update last_checked_at for bbox %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Box was deleted mid-cycle; nothing to advance.
		return ErrNotFound
	}
	return nil
}

// DeleteBBox removes a box and its dependent orders and notification events
// in one transaction, so no order is ever left referencing a missing box.
// Returns ErrNotFound if the box does not exist or is not owned by ownerID.
func DeleteBBox(id, ownerID int64) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bbox delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM bboxes WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bbox %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check bbox delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec("DELETE FROM data_orders WHERE bbox_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete orders for bbox %d: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM notification_events WHERE bbox_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete notification events for bbox %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bbox delete: %w", err)
	}
	log.Printf("Database: Deleted bbox %d with dependent orders and events.\n", id)
	return nil
}

// CountBBoxesForOwner returns how many boxes a user currently has.
func CountBBoxesForOwner(ownerID int64) (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database connection is not initialized")
	}

	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM bboxes WHERE owner_id = ?", ownerID).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to count bboxes for owner %d: %w", ownerID, err)
	}
	return count, nil
}
