// models/record.go
package models

import "time"

// SourceType identifies one of the NOAA data sources we can watch.
type SourceType string

const (
	SourceMBES SourceType = "mbes" // multibeam echosounder surveys
	SourceCSB  SourceType = "csb"  // crowd-sourced bathymetry
	SourceNOS  SourceType = "nos"  // NOS digital surveys
)

// AllSources lists every supported source type, in display order.
var AllSources = []SourceType{SourceMBES, SourceCSB, SourceNOS}

// IsValidSource reports whether s names a supported source type.
func IsValidSource(s SourceType) bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// DatasetRecord is one survey/dataset returned by a NOAA endpoint, normalized
// across the per-source response schemas. Records are transient: they drive
// notifications and the CSV export but are never persisted.
type DatasetRecord struct {
	ID          string     `json:"id" csv:"id"`
	Source      SourceType `json:"source" csv:"source"`
	Timestamp   time.Time  `json:"timestamp" csv:"timestamp"`
	Platform    string     `json:"platform" csv:"platform"`
	DownloadURL string     `json:"download_url" csv:"download_url"`
}
