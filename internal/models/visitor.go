// Package models provides data model definitions for the portfolio backend.
package models

import (
	"strings"
	"time"
)

// Visitor represents one tracked page visit.
// Location is populated only when a geo lookup is configured; it is
// otherwise stored empty and exported as-is.
type Visitor struct {
	ID        UUID   `db:"id" json:"id"`
	IPAddress string `db:"ip_address" json:"ip_address"`
	UserAgent string `db:"user_agent" json:"user_agent"`
	Page      string `db:"page" json:"page"`
	Device    string `db:"device" json:"device"`
	Browser   string `db:"browser" json:"browser"`
	Location  string `db:"location" json:"location,omitempty"`
	Duration  string `db:"duration" json:"duration,omitempty"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// TableName returns the table name for Visitor.
func (Visitor) TableName() string {
	return "visitors"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (v *Visitor) CreatedAtTime() time.Time {
	return time.Unix(v.CreatedAt, 0)
}

// Device classification values.
const (
	DeviceMobile  = "Mobile"
	DeviceDesktop = "Desktop"
)

// ClassifyUserAgent derives the device class and browser name from a raw
// user-agent string. Unrecognized agents classify as Desktop/"Unknown".
func ClassifyUserAgent(ua string) (device, browser string) {
	lower := strings.ToLower(ua)

	device = DeviceDesktop
	for _, hint := range []string{"mobile", "android", "iphone", "ipad", "ipod"} {
		if strings.Contains(lower, hint) {
			device = DeviceMobile
			break
		}
	}

	// Order matters: Edge and Opera embed "chrome", Chrome embeds "safari".
	switch {
	case strings.Contains(lower, "edg/"), strings.Contains(lower, "edge"):
		browser = "Edge"
	case strings.Contains(lower, "opr/"), strings.Contains(lower, "opera"):
		browser = "Opera"
	case strings.Contains(lower, "firefox"):
		browser = "Firefox"
	case strings.Contains(lower, "chrome"):
		browser = "Chrome"
	case strings.Contains(lower, "safari"):
		browser = "Safari"
	default:
		browser = "Unknown"
	}
	return device, browser
}
