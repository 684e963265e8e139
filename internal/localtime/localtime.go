// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package localtime renders wall-clock strings such as
// "2026-01-17 17:30:00 IST" for a named IANA zone.
package localtime

import (
	"strings"
	"time"
)

// Layout is the date and time part of a rendered string.
const Layout = "2006-01-02 15:04:05"

// DefaultZone is used when no zone is supplied.
const DefaultZone = "Asia/Kolkata"

var abbreviations = map[string]string{
	"Asia/Kolkata":        "IST",
	"Asia/Calcutta":       "IST",
	"America/New_York":    "EST",
	"America/Los_Angeles": "PST",
	"America/Chicago":     "CST",
	"America/Denver":      "MST",
	"Europe/London":       "GMT",
	"Europe/Paris":        "CET",
	"Europe/Berlin":       "CET",
	"Asia/Tokyo":          "JST",
	"Asia/Shanghai":       "CST",
	"Asia/Dubai":          "GST",
	"Australia/Sydney":    "AEST",
	"Pacific/Auckland":    "NZST",
}

// Abbreviation returns the fixed short label for a zone. Unknown zones use
// the last path element of the name, and an empty name yields LOCAL.
func Abbreviation(zone string) string {
	if abbr, ok := abbreviations[zone]; ok {
		return abbr
	}
	if zone == "" {
		return "LOCAL"
	}
	if i := strings.LastIndex(zone, "/"); i >= 0 && i < len(zone)-1 {
		return zone[i+1:]
	}
	return zone
}

// Location loads a zone, falling back to UTC.
func Location(zone string) *time.Location {
	if zone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Format renders t in zone as "YYYY-MM-DD HH:MM:SS ABBR".
func Format(t time.Time, zone string) string {
	return t.In(Location(zone)).Format(Layout) + " " + Abbreviation(zone)
}
