// models/event.go
package models

import "time"

// NotificationOutcome is the result of one notification attempt.
type NotificationOutcome string

const (
	NotificationSent   NotificationOutcome = "sent"
	NotificationFailed NotificationOutcome = "failed"
)

// NotificationEvent is an audit record of one notification attempt made by
// the poll cycle. The records themselves are not stored, only how many there
// were and where they came from.
type NotificationEvent struct {
	ID          int64               `db:"id" json:"id"`
	BBoxID      int64               `db:"bbox_id" json:"bbox_id"`
	OwnerID     int64               `db:"owner_id" json:"owner_id"`
	Channel     Channel             `db:"channel" json:"channel"`
	Sources     string              `db:"sources" json:"sources"` // comma joined source names
	RecordCount int                 `db:"record_count" json:"record_count"`
	Outcome     NotificationOutcome `db:"outcome" json:"outcome"`
	Detail      string              `db:"detail" json:"detail,omitempty"` // error text on failure
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}
