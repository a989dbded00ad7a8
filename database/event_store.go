// database/event_store.go
package database

import (
	"fmt"
	"log"

	"github.com/bathywatch/backend/models"
)

// LogNotificationEvent records the outcome of one notification attempt.
// The poll cycle writes one row per attempted delivery so there is an audit
// trail even though the dataset records themselves are never stored.
func LogNotificationEvent(event models.NotificationEvent) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	_, err := DB.Exec(`
		INSERT INTO notification_events (
			bbox_id, owner_id, channel, sources, record_count, outcome, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.BBoxID, event.OwnerID, event.Channel, event.Sources,
		event.RecordCount, event.Outcome, event.Detail,
	)
	if err != nil {
		log.Printf("ERROR Database: Failed to log notification event for bbox %d: %v", event.BBoxID, err)
		return fmt.Errorf("failed to log notification event for bbox %d: %w", event.BBoxID, err)
	}
	return nil
}

// GetNotificationEventsForBBox returns the audit trail for one box, newest
// first.
func GetNotificationEventsForBBox(bboxID int64, limit int) ([]models.NotificationEvent, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(`
		SELECT id, bbox_id, owner_id, channel, sources, record_count,
		       outcome, detail, created_at
		FROM notification_events
		WHERE bbox_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, bboxID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification events for bbox %d: %w", bboxID, err)
	}
	defer rows.Close()

	var events []models.NotificationEvent
	for rows.Next() {
		var e models.NotificationEvent
		err := rows.Scan(
			&e.ID, &e.BBoxID, &e.OwnerID, &e.Channel, &e.Sources,
			&e.RecordCount, &e.Outcome, &e.Detail, &e.CreatedAt,
		)
		if err != nil {
			log.Printf("ERROR Database: Failed to scan notification event row: %v", err)
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification event rows: %w", err)
	}
	return events, nil
}
