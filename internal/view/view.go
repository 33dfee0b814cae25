// Package view computes derived list views for the admin tables.
//
// Every function here is a pure function of its inputs: the full
// in-memory list plus the user-chosen search text, category filter and
// sort key. The input list is never mutated; callers recompute the view
// whenever any input changes.
package view

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shahriarsany/portfolio/backend/internal/models"
)

// Options hold the three user-chosen view inputs.
type Options struct {
	Search string
	Filter string
	Sort   string
}

// Category filter values.
const (
	FilterAll       = "all"
	FilterRecent    = "recent" // created within the last 7 days
	FilterToday     = "today"
	FilterMobile    = "mobile"
	FilterDesktop   = "desktop"
	FilterDraft     = "draft"
	FilterPublished = "published"
)

// Sort keys.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortName     = "name"
	SortTitle    = "title"
	SortDuration = "duration"
)

// durationSeconds parses a stored visit duration, treating blank or
// malformed values as zero.
func durationSeconds(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

// matchesAny reports a case-insensitive substring match across fields.
func matchesAny(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Leads computes the derived lead view.
func Leads(list []*models.Lead, opts Options) []*models.Lead {
	return leadsAt(list, opts, time.Now())
}

func leadsAt(list []*models.Lead, opts Options, now time.Time) []*models.Lead {
	weekAgo := now.AddDate(0, 0, -7).Unix()

	out := make([]*models.Lead, 0, len(list))
	for _, lead := range list {
		if !matchesAny(opts.Search, lead.Name, lead.Email, lead.Phone, lead.Topic) {
			continue
		}
		if opts.Filter == FilterRecent && lead.CreatedAt <= weekAgo {
			continue
		}
		out = append(out, lead)
	}

	switch opts.Sort {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	default: // newest
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	}
	return out
}

// Visitors computes the derived visitor view.
func Visitors(list []*models.Visitor, opts Options) []*models.Visitor {
	return visitorsAt(list, opts, time.Now())
}

func visitorsAt(list []*models.Visitor, opts Options, now time.Time) []*models.Visitor {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Unix()

	out := make([]*models.Visitor, 0, len(list))
	for _, v := range list {
		if !matchesAny(opts.Search, v.IPAddress, v.Location, v.Browser) {
			continue
		}
		switch opts.Filter {
		case FilterToday:
			if v.CreatedAt < midnight {
				continue
			}
		case FilterMobile:
			if v.Device != models.DeviceMobile {
				continue
			}
		case FilterDesktop:
			if v.Device != models.DeviceDesktop {
				continue
			}
		}
		out = append(out, v)
	}

	switch opts.Sort {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	case SortDuration:
		sort.SliceStable(out, func(i, j int) bool {
			return durationSeconds(out[i].Duration) > durationSeconds(out[j].Duration)
		})
	default: // newest
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	}
	return out
}

// Blogs computes the derived blog view for the admin table.
func Blogs(list []*models.BlogPost, opts Options) []*models.BlogPost {
	out := make([]*models.BlogPost, 0, len(list))
	for _, b := range list {
		if !matchesAny(opts.Search, b.Title, b.Description, b.Tags) {
			continue
		}
		switch opts.Filter {
		case FilterDraft:
			if b.Status != models.BlogStatusDraft {
				continue
			}
		case FilterPublished:
			if b.Status != models.BlogStatusPublished {
				continue
			}
		}
		out = append(out, b)
	}

	switch opts.Sort {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	default: // newest
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	}
	return out
}
