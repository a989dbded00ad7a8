// fetchers/fetcher.go
package fetchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/bathywatch/backend/models"
)

var (
	// ErrSourceUnavailable means we could not get a usable response from the
	// NOAA endpoint (network error, non-200, or an ArcGIS error object).
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrSchemaMismatch means the endpoint answered but the response did not
	// have the shape the source spec promises.
	ErrSchemaMismatch = errors.New("unexpected response schema")
)

var httpClient = &http.Client{}

// arcgisResponse is the subset of the ArcGIS query response we care about.
type arcgisResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Features []struct {
		Attributes map[string]any `json:"attributes"`
	} `json:"features"`
}

// BuildQuery assembles the ArcGIS envelope query for one source. The since
// bound goes into the where clause as a comparison against the source's time
// field; url.Values.Encode percent-encodes the comparison operator, which the
// endpoint requires (a raw '>' in the query string breaks the filter).
func BuildQuery(spec SourceSpec, bbox models.BoundingBox, since *time.Time) url.Values {
	where := spec.TimeField + " IS NOT NULL"
	if since != nil {
		where += fmt.Sprintf(" AND %s > TIMESTAMP '%s'",
			spec.TimeField, since.UTC().Format("2006-01-02 15:04:05"))
	}

	params := url.Values{}
	params.Set("f", "json")
	params.Set("where", where)
	params.Set("geometry", bbox.Envelope())
	params.Set("geometryType", "esriGeometryEnvelope")
	params.Set("inSR", "4326")
	params.Set("spatialRel", "esriSpatialRelIntersects")
	params.Set("outFields", spec.outFields())
	params.Set("returnGeometry", "false")
	params.Set("orderByFields", spec.TimeField+" DESC")
	return params
}

// Fetch queries one NOAA source for datasets intersecting the bounding box,
// optionally limited to records newer than since, and normalizes the
// source-specific response into DatasetRecords. Read-only, no side effects.
func Fetch(ctx context.Context, source models.SourceType, bbox models.BoundingBox, since *time.Time) ([]models.DatasetRecord, error) {
	spec, err := SpecFor(source)
	if err != nil {
		return nil, err
	}

	baseURL := spec.BaseURL()
	if baseURL == "" {
		return nil, fmt.Errorf("no endpoint URL configured for source %s", source)
	}

	queryURL := baseURL + "?" + BuildQuery(spec, bbox, since).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", source, err)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s query failed: %v", ErrSourceUnavailable, source, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bad response from %s endpoint: status %d",
			ErrSourceUnavailable, source, res.StatusCode)
	}

	var decoded arcgisResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s response: %v", ErrSchemaMismatch, source, err)
	}

	// ArcGIS reports query-level failures inside a 200 response.
	if decoded.Error != nil {
		return nil, fmt.Errorf("%w: %s endpoint error %d: %s",
			ErrSourceUnavailable, source, decoded.Error.Code, decoded.Error.Message)
	}

	records := make([]models.DatasetRecord, 0, len(decoded.Features))
	for _, feature := range decoded.Features {
		record, err := mapAttributes(spec, feature.Attributes)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	log.Printf("Fetcher: %s query for bbox %d returned %d records.\n", source, bbox.ID, len(records))
	return records, nil
}

// mapAttributes normalizes one feature into the common record shape.
func mapAttributes(spec SourceSpec, attrs map[string]any) (models.DatasetRecord, error) {
	millis, ok := attrs[spec.TimeField].(float64)
	if !ok {
		return models.DatasetRecord{}, fmt.Errorf("%w: %s attribute %s missing or not a number",
			ErrSchemaMismatch, spec.Type, spec.TimeField)
	}

	record := models.DatasetRecord{
		Source:    spec.Type,
		Timestamp: time.UnixMilli(int64(millis)).UTC(),
	}

	switch id := attrs[spec.IDField].(type) {
	case string:
		record.ID = id
	case float64:
		record.ID = fmt.Sprintf("%.0f", id)
	default:
		return models.DatasetRecord{}, fmt.Errorf("%w: %s attribute %s missing",
			ErrSchemaMismatch, spec.Type, spec.IDField)
	}

	if platform, ok := attrs[spec.PlatformField].(string); ok {
		record.Platform = platform
	}
	if spec.URLField != "" {
		if downloadURL, ok := attrs[spec.URLField].(string); ok {
			record.DownloadURL = downloadURL
		}
	}
	return record, nil
}
