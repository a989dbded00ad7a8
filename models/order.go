// models/order.go
package models

import "time"

// OrderStatus tracks a point store data export through its lifecycle.
type OrderStatus string

const (
	OrderInitialized OrderStatus = "initialized"
	OrderProcessing  OrderStatus = "processing"
	OrderComplete    OrderStatus = "complete"
	OrderFailed      OrderStatus = "failed"
)

// DataOrder is a data export request placed against the NOAA point store.
// NOAA processes orders asynchronously; we poll CheckStatusURL and record the
// pickup URL once the order completes.
type DataOrder struct {
	ID             int64       `db:"id" json:"id"`
	UserID         int64       `db:"user_id" json:"user_id"`
	BBoxID         int64       `db:"bbox_id" json:"bbox_id"`
	DataType       SourceType  `db:"data_type" json:"data_type"`
	NOAARefID      string      `db:"noaa_ref_id" json:"noaa_ref_id"`
	CheckStatusURL string      `db:"check_status_url" json:"check_status_url"`
	Status         OrderStatus `db:"status" json:"status"`
	DownloadURL    string      `db:"download_url" json:"download_url,omitempty"`
	OrderedAt      time.Time   `db:"ordered_at" json:"ordered_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}
