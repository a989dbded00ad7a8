package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundingBoxNormalizesAllDragDirections(t *testing.T) {
	// The same rectangle dragged four different ways must always store
	// top-left as the north-west corner.
	corners := [][4]float64{
		{40.0, -74.0, 35.0, -70.0}, // NW to SE
		{35.0, -70.0, 40.0, -74.0}, // SE to NW
		{40.0, -70.0, 35.0, -74.0}, // NE to SW
		{35.0, -74.0, 40.0, -70.0}, // SW to NE
	}

	for _, c := range corners {
		bbox := NewBoundingBox(c[0], c[1], c[2], c[3], 1)
		assert.GreaterOrEqual(t, bbox.TopLeftLat, bbox.BottomRightLat,
			"top-left lat must be >= bottom-right lat for corners %v", c)
		assert.LessOrEqual(t, bbox.TopLeftLon, bbox.BottomRightLon,
			"top-left lon must be <= bottom-right lon for corners %v", c)
		assert.Equal(t, 40.0, bbox.TopLeftLat)
		assert.Equal(t, -74.0, bbox.TopLeftLon)
		assert.Equal(t, 35.0, bbox.BottomRightLat)
		assert.Equal(t, -70.0, bbox.BottomRightLon)
	}
}

func TestBoundingBoxValidate(t *testing.T) {
	valid := NewBoundingBox(40.0, -74.0, 35.0, -70.0, 1)
	require.NoError(t, valid.Validate())

	outOfRange := NewBoundingBox(95.0, -74.0, 35.0, -70.0, 1)
	assert.Error(t, outOfRange.Validate())

	badLon := NewBoundingBox(40.0, -190.0, 35.0, -185.0, 1)
	assert.Error(t, badLon.Validate())

	// span cap is 10 degrees, same as the NOAA point store
	tooTall := NewBoundingBox(40.0, -74.0, 25.0, -70.0, 1)
	assert.Error(t, tooTall.Validate())

	tooWide := NewBoundingBox(40.0, -74.0, 35.0, -60.0, 1)
	assert.Error(t, tooWide.Validate())

	webhookNoURL := NewBoundingBox(40.0, -74.0, 35.0, -70.0, 1)
	webhookNoURL.Channel = ChannelWebhook
	assert.Error(t, webhookNoURL.Validate())

	webhookNoURL.WebhookURL = "https://example.com/hook"
	assert.NoError(t, webhookNoURL.Validate())

	badType := NewBoundingBox(40.0, -74.0, 35.0, -70.0, 1)
	badType.DataTypes = []SourceType{"sonar"}
	assert.Error(t, badType.Validate())
}

func TestEnvelopeFormat(t *testing.T) {
	bbox := NewBoundingBox(40.0, -74.0, 35.0, -70.0, 1)
	// esri envelope is xmin,ymin,xmax,ymax
	assert.Equal(t, "-74,35,-70,40", bbox.Envelope())
}

func TestJoinSplitDataTypes(t *testing.T) {
	types := []SourceType{SourceMBES, SourceCSB}
	joined := JoinDataTypes(types)
	assert.Equal(t, "mbes,csb", joined)
	assert.Equal(t, types, SplitDataTypes(joined))

	// unknown names are dropped, whitespace tolerated
	assert.Equal(t, []SourceType{SourceNOS}, SplitDataTypes(" nos , sidescan ,"))
	assert.Nil(t, SplitDataTypes(""))
}
