package types

import (
	"strings"
)

// AlertSeverity is derived from the marker an alert string starts with.
type AlertSeverity string

const (
	AlertCritical    AlertSeverity = "critical"
	AlertMajor       AlertSeverity = "major"
	AlertMaintenance AlertSeverity = "maintenance"
	AlertMinor       AlertSeverity = "minor"
	AlertWarning     AlertSeverity = "warning"
	AlertCaution     AlertSeverity = "caution"
	AlertOK          AlertSeverity = "ok"
	AlertInfo        AlertSeverity = "info"
)

var alertMarkers = []struct {
	marker   string
	severity AlertSeverity
}{
	{"🔴", AlertCritical},
	{"🟠", AlertMajor},
	{"⏳", AlertMaintenance},
	{"🟡", AlertMinor},
	{"⚪", AlertWarning},
	{"⚠️", AlertCaution},
	// bare warning sign without the emoji variation selector
	{"⚠", AlertCaution},
	{"✅", AlertOK},
}

// Alert is an alert string split into its severity marker and message.
type Alert struct {
	Text     string        `json:"text"`
	Marker   string        `json:"marker,omitempty"`
	Message  string        `json:"message"`
	Severity AlertSeverity `json:"severity"`
}

// ParseAlert classifies s by its leading marker. Strings without a known marker
// are AlertInfo.
func ParseAlert(s string) Alert {
	trimmed := strings.TrimSpace(s)
	// the backend prefixes summary lines with "- "
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
	for _, m := range alertMarkers {
		if rest, ok := strings.CutPrefix(trimmed, m.marker); ok {
			return Alert{
				Text:     s,
				Marker:   m.marker,
				Message:  strings.TrimSpace(rest),
				Severity: m.severity,
			}
		}
	}
	return Alert{Text: s, Message: trimmed, Severity: AlertInfo}
}
