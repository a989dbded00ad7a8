// models/bbox.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// Channel is the notification delivery channel configured on a bounding box.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
)

// Bounding box validation limits. The 10 degree span cap matches the NOAA
// point store's own limit.
const (
	MaxBBoxSpanDegrees = 10.0
	MaxBoxesPerUser    = 5
)

// BoundingBox is a user-owned rectangle watched for new NOAA data.
// Corners are always stored normalized: top-left is the north-west corner
// (top_left_lat >= bottom_right_lat, top_left_lon <= bottom_right_lon).
type BoundingBox struct {
	ID             int64        `db:"id" json:"id"`
	OwnerID        int64        `db:"owner_id" json:"owner_id"`
	TopLeftLat     float64      `db:"top_left_lat" json:"top_left_lat"`
	TopLeftLon     float64      `db:"top_left_lon" json:"top_left_lon"`
	BottomRightLat float64      `db:"bottom_right_lat" json:"bottom_right_lat"`
	BottomRightLon float64      `db:"bottom_right_lon" json:"bottom_right_lon"`
	DataTypes      []SourceType `db:"-" json:"data_types"`
	Channel        Channel      `db:"channel" json:"channel"`
	WebhookURL     string       `db:"webhook_url" json:"webhook_url,omitempty"`
	LastCheckedAt  *time.Time   `db:"last_checked_at" json:"last_checked_at,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// NewBoundingBox builds a normalized box from two arbitrary corner points.
// The user may have dragged in any direction; we sort the coordinates so the
// stored top-left is always north-west of the stored bottom-right.
func NewBoundingBox(lat1, lon1, lat2, lon2 float64, ownerID int64) BoundingBox {
	return BoundingBox{
		OwnerID:        ownerID,
		TopLeftLat:     max(lat1, lat2),
		BottomRightLat: min(lat1, lat2),
		TopLeftLon:     min(lon1, lon2),
		BottomRightLon: max(lon1, lon2),
		Channel:        ChannelEmail,
	}
}

// Validate checks physical coordinate limits and the span cap. It assumes the
// box is already normalized.
func (b BoundingBox) Validate() error {
	for _, lat := range []float64{b.TopLeftLat, b.BottomRightLat} {
		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude %g out of range [-90, 90]", lat)
		}
	}
	for _, lon := range []float64{b.TopLeftLon, b.BottomRightLon} {
		if lon < -180 || lon > 180 {
			return fmt.Errorf("longitude %g out of range [-180, 180]", lon)
		}
	}
	if b.TopLeftLat-b.BottomRightLat > MaxBBoxSpanDegrees {
		return fmt.Errorf("latitude span exceeds %g degrees", MaxBBoxSpanDegrees)
	}
	if b.BottomRightLon-b.TopLeftLon > MaxBBoxSpanDegrees {
		return fmt.Errorf("longitude span exceeds %g degrees", MaxBBoxSpanDegrees)
	}
	if b.Channel == ChannelWebhook && b.WebhookURL == "" {
		return fmt.Errorf("webhook channel selected but no webhook URL set")
	}
	for _, dt := range b.DataTypes {
		if !IsValidSource(dt) {
			return fmt.Errorf("unknown data type %q", dt)
		}
	}
	return nil
}

// Envelope renders the box in the esri "envelope" format used by the ArcGIS
// query endpoints: xmin,ymin,xmax,ymax. The point store order API happens to
// use the same shape (southwest corner to northeast corner, longitude first).
func (b BoundingBox) Envelope() string {
	return fmt.Sprintf("%g,%g,%g,%g",
		b.TopLeftLon, b.BottomRightLat, b.BottomRightLon, b.TopLeftLat)
}

// JoinDataTypes flattens the data type selection for storage in one column.
func JoinDataTypes(types []SourceType) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ",")
}

// SplitDataTypes is the inverse of JoinDataTypes. Unknown names are dropped.
func SplitDataTypes(s string) []SourceType {
	var types []SourceType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if st := SourceType(part); IsValidSource(st) {
			types = append(types, st)
		}
	}
	return types
}
