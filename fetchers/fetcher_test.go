package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/models"
)

func testBBox() models.BoundingBox {
	bbox := models.NewBoundingBox(40.0, -74.0, 35.0, -70.0, 1)
	bbox.ID = 7
	return bbox
}

func TestBuildQueryEncodesComparisonOperator(t *testing.T) {
	spec, err := SpecFor(models.SourceMBES)
	require.NoError(t, err)

	since := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	encoded := BuildQuery(spec, testBBox(), &since).Encode()

	// An unescaped '>' in the since filter breaks the query upstream; the
	// operator must arrive percent-encoded.
	assert.NotContains(t, encoded, ">")
	assert.Contains(t, encoded, "%3E")
	assert.Contains(t, encoded, "ENTERED_DATE")
	assert.Contains(t, encoded, "2024-03-01+12%3A00%3A00")
}

func TestBuildQueryWithoutSince(t *testing.T) {
	spec, err := SpecFor(models.SourceCSB)
	require.NoError(t, err)

	params := BuildQuery(spec, testBBox(), nil)
	assert.Equal(t, "ARRIVAL_DATE IS NOT NULL", params.Get("where"))
	assert.Equal(t, "json", params.Get("f"))
	assert.Equal(t, "esriGeometryEnvelope", params.Get("geometryType"))
	assert.Equal(t, "4326", params.Get("inSR"))
	assert.Equal(t, "-74,35,-70,40", params.Get("geometry"))
	assert.Equal(t, "ARRIVAL_DATE DESC", params.Get("orderByFields"))
	assert.Equal(t, "false", params.Get("returnGeometry"))
}

func TestFetchNormalizesRecords(t *testing.T) {
	entered := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "esriSpatialRelIntersects", r.URL.Query().Get("spatialRel"))
		fmt.Fprintf(w, `{"features": [
			{"attributes": {"SURVEY_ID": "H12345", "PLATFORM": "Okeanos Explorer",
			 "DOWNLOAD_URL": "https://data.example.com/H12345", "ENTERED_DATE": %d}},
			{"attributes": {"SURVEY_ID": 99887, "PLATFORM": "Rainier",
			 "DOWNLOAD_URL": "https://data.example.com/99887", "ENTERED_DATE": %d}}
		]}`, entered.UnixMilli(), entered.Add(time.Hour).UnixMilli())
	}))
	defer server.Close()
	config.AppConfig.SourceURLs.MBES = server.URL

	records, err := Fetch(context.Background(), models.SourceMBES, testBBox(), nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "H12345", records[0].ID)
	assert.Equal(t, models.SourceMBES, records[0].Source)
	assert.Equal(t, "Okeanos Explorer", records[0].Platform)
	assert.Equal(t, "https://data.example.com/H12345", records[0].DownloadURL)
	assert.True(t, records[0].Timestamp.Equal(entered))

	// numeric ids get stringified
	assert.Equal(t, "99887", records[1].ID)
}

func TestFetchSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	defer server.Close()
	config.AppConfig.SourceURLs.CSB = server.URL

	_, err := Fetch(context.Background(), models.SourceCSB, testBBox(), nil)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFetchArcgisErrorObject(t *testing.T) {
	// ArcGIS reports failures inside a 200 response.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": {"code": 400, "message": "Unable to complete operation."}}`)
	}))
	defer server.Close()
	config.AppConfig.SourceURLs.MBES = server.URL

	_, err := Fetch(context.Background(), models.SourceMBES, testBBox(), nil)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "Unable to complete operation")
}

func TestFetchSchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>surprise</html>"},
		{"missing time field", `{"features": [{"attributes": {"SURVEY_ID": "H1"}}]}`},
		{"missing id field", `{"features": [{"attributes": {"ENTERED_DATE": 1715329800000}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()
			config.AppConfig.SourceURLs.MBES = server.URL

			_, err := Fetch(context.Background(), models.SourceMBES, testBBox(), nil)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestFetchHonorsContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"features": []}`)
	}))
	defer server.Close()
	config.AppConfig.SourceURLs.NOS = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Fetch(ctx, models.SourceNOS, testBBox(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.True(t, strings.Contains(err.Error(), "context deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout"))
}

func TestSpecForUnknownSource(t *testing.T) {
	_, err := SpecFor(models.SourceType("sidescan"))
	assert.Error(t, err)
}

func TestDataTypeInfos(t *testing.T) {
	infos := DataTypeInfos()
	require.Len(t, infos, 3)
	assert.Equal(t, models.SourceMBES, infos[0].Name)
	assert.NotEmpty(t, infos[0].Description)
}
