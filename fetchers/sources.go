// fetchers/sources.go
package fetchers

import (
	"fmt"
	"strings"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/models"
)

// SourceSpec describes how to query one NOAA source and how to read its
// response. The three sources share the ArcGIS query protocol but differ in
// endpoint, time field name, and attribute names, so each gets one entry
// here and a single parameterized fetch routine consumes them.
type SourceSpec struct {
	Type          models.SourceType
	Description   string
	TimeField     string // attribute used for the since filter and ordering
	IDField       string
	PlatformField string
	URLField      string // empty when the source exposes no download URL
}

var sourceSpecs = map[models.SourceType]SourceSpec{
	models.SourceMBES: {
		Type:          models.SourceMBES,
		Description:   "NOAA Multibeam Echosounder Surveys",
		TimeField:     "ENTERED_DATE",
		IDField:       "SURVEY_ID",
		PlatformField: "PLATFORM",
		URLField:      "DOWNLOAD_URL",
	},
	models.SourceCSB: {
		Type:          models.SourceCSB,
		Description:   "NOAA Crowd-Sourced Bathymetry",
		TimeField:     "ARRIVAL_DATE",
		IDField:       "NAME",
		PlatformField: "PLATFORM",
		URLField:      "", // csb records carry no per-record download URL
	},
	models.SourceNOS: {
		Type:          models.SourceNOS,
		Description:   "NOS Hydrographic Surveys",
		TimeField:     "SURVEY_DATE_END",
		IDField:       "SURVEY_ID",
		PlatformField: "PLATFORM",
		URLField:      "DOWNLOAD_URL",
	},
}

// SpecFor returns the spec for a source type.
func SpecFor(source models.SourceType) (SourceSpec, error) {
	spec, ok := sourceSpecs[source]
	if !ok {
		return SourceSpec{}, fmt.Errorf("no source spec for data type %q", source)
	}
	return spec, nil
}

// BaseURL resolves the configured query endpoint for this source.
func (s SourceSpec) BaseURL() string {
	switch s.Type {
	case models.SourceMBES:
		return config.AppConfig.SourceURLs.MBES
	case models.SourceCSB:
		return config.AppConfig.SourceURLs.CSB
	case models.SourceNOS:
		return config.AppConfig.SourceURLs.NOS
	}
	return ""
}

// outFields lists the attributes we ask the endpoint to return.
func (s SourceSpec) outFields() string {
	fields := []string{s.IDField, s.PlatformField, s.TimeField}
	if s.URLField != "" {
		fields = append(fields, s.URLField)
	}
	return strings.Join(fields, ",")
}

// DataTypeInfos describes every available source for the API.
func DataTypeInfos() []models.DataTypeInfo {
	infos := make([]models.DataTypeInfo, 0, len(models.AllSources))
	for _, st := range models.AllSources {
		infos = append(infos, models.DataTypeInfo{
			Name:        st,
			Description: sourceSpecs[st].Description,
		})
	}
	return infos
}
