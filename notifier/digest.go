// notifier/digest.go
package notifier

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bathywatch/backend/models"
)

// Per-source cap on listed records; the rest collapse into "and N more".
const maxRecordsPerSection = 5

var digestTemplate = template.Must(template.New("digest").Parse(`<html><body>
<h1>New data found for your bounding box!</h1>
<h2>BBOX #{{.BBox.ID}}: ({{printf "%.2f" .BBox.TopLeftLat}}, {{printf "%.2f" .BBox.TopLeftLon}}), ({{printf "%.2f" .BBox.BottomRightLat}}, {{printf "%.2f" .BBox.BottomRightLon}})</h2>
{{range .Sections}}<h3>{{.Count}} new '{{.Source}}' dataset(s)</h3>
<ul>
{{range .Shown}}<li>ID: {{.ID}}, platform: {{.Platform}}{{if .DownloadURL}}, <a href="{{.DownloadURL}}">Link</a>{{end}}</li>
{{end}}</ul>
{{if gt .More 0}}<p>And {{.More}} more...</p>
{{end}}{{end}}</body></html>`))

type digestSection struct {
	Source models.SourceType
	Count  int
	Shown  []models.DatasetRecord
	More   int
}

type digestData struct {
	BBox     models.BoundingBox
	Sections []digestSection
}

// groupBySource splits records into per-source sections, keeping the
// original (newest-first) order within each.
func groupBySource(records []models.DatasetRecord) []digestSection {
	bySource := make(map[models.SourceType][]models.DatasetRecord)
	for _, r := range records {
		bySource[r.Source] = append(bySource[r.Source], r)
	}

	var sections []digestSection
	for _, source := range models.AllSources {
		group, ok := bySource[source]
		if !ok {
			continue
		}
		section := digestSection{Source: source, Count: len(group), Shown: group}
		if len(group) > maxRecordsPerSection {
			section.Shown = group[:maxRecordsPerSection]
			section.More = len(group) - maxRecordsPerSection
		}
		sections = append(sections, section)
	}
	return sections
}

// RenderDigestHTML renders the notification digest for one box.
func RenderDigestHTML(bbox models.BoundingBox, records []models.DatasetRecord) (string, error) {
	var buf strings.Builder
	data := digestData{BBox: bbox, Sections: groupBySource(records)}
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render digest for bbox %d: %w", bbox.ID, err)
	}
	return buf.String(), nil
}

// DigestToText derives the text/plain alternative from the rendered HTML, one
// line per heading or list item, with bare download URLs appended.
func DigestToText(digestHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(digestHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse digest HTML: %w", err)
	}

	var lines []string
	doc.Find("h1, h2, h3, p, li").Each(func(i int, sel *goquery.Selection) {
		line := strings.TrimSpace(sel.Text())
		if href, ok := sel.Find("a").Attr("href"); ok {
			line = strings.TrimSuffix(line, "Link") + href
		}
		if line != "" {
			lines = append(lines, line)
		}
	})
	return strings.Join(lines, "\n"), nil
}
