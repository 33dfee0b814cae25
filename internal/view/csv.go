package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/shahriarsany/portfolio/backend/internal/models"
)

// The exports below join fields with bare commas and never quote or
// escape values. A message containing a comma therefore shifts the
// columns of its row. This matches the files admins have been
// downloading since launch; switching to RFC 4180 quoting would change
// every existing spreadsheet import, so the behavior is kept as is.

const (
	leadCSVHeader    = "Name,Email,Phone,Topic,Created At"
	visitorCSVHeader = "IP Address,Location,Device,Browser,Page,Duration,Timestamp"
	blogCSVHeader    = "Title,Status,Type,Tags,Views,Created At"
)

// LeadsCSV serializes a derived lead view in the legacy export format.
// Rows appear in the order given, so callers pass the sorted view.
func LeadsCSV(list []*models.Lead) string {
	var b strings.Builder
	b.WriteString(leadCSVHeader)
	b.WriteByte('\n')
	for _, lead := range list {
		created := time.Unix(lead.CreatedAt, 0).Format("1/2/2006")
		b.WriteString(strings.Join([]string{lead.Name, lead.Email, lead.Phone, lead.Topic, created}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// VisitorsCSV serializes a derived visitor view in the legacy export
// format.
func VisitorsCSV(list []*models.Visitor) string {
	var b strings.Builder
	b.WriteString(visitorCSVHeader)
	b.WriteByte('\n')
	for _, v := range list {
		ts := time.Unix(v.CreatedAt, 0).Format("1/2/2006, 3:04:05 PM")
		duration := v.Duration
		if duration == "" {
			duration = "0"
		}
		b.WriteString(strings.Join([]string{
			v.IPAddress,
			v.Location,
			v.Device,
			v.Browser,
			v.Page,
			duration,
			ts,
		}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// BlogsCSV serializes a derived blog post view in the legacy export
// format. Tags are already comma-separated, so a tagged post shifts its
// row just like a comma in any other field.
func BlogsCSV(list []*models.BlogPost) string {
	var b strings.Builder
	b.WriteString(blogCSVHeader)
	b.WriteByte('\n')
	for _, post := range list {
		created := time.Unix(post.CreatedAt, 0).Format("1/2/2006")
		b.WriteString(strings.Join([]string{
			post.Title,
			post.Status,
			post.Type,
			post.Tags,
			strconv.FormatInt(post.Views, 10),
			created,
		}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
