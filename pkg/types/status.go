package types

import (
	"encoding/json"
	"fmt"
)

// StatusIcon is the per-plant status marker set by the backend.
type StatusIcon string

const (
	StatusIconOK          StatusIcon = "🟢"
	StatusIconWarning     StatusIcon = "🟡"
	StatusIconCritical    StatusIcon = "🔴"
	StatusIconMaintenance StatusIcon = "⏳"
	StatusIconUnknown     StatusIcon = ""
)

// ParseStatusIcon maps the backend marker onto a known icon.
func ParseStatusIcon(s string) StatusIcon {
	switch StatusIcon(s) {
	case StatusIconOK, StatusIconWarning, StatusIconCritical, StatusIconMaintenance:
		return StatusIcon(s)
	default:
		return StatusIconUnknown
	}
}

// PlantKind tags which variant a PlantStatus holds.
type PlantKind int

const (
	// PlantNormal carries trustworthy readings.
	PlantNormal PlantKind = iota
	// PlantCritical only carries the name, the last data time and alarms.
	PlantCritical
)

// String implements fmt.Stringer.
func (k PlantKind) String() string {
	switch k {
	case PlantNormal:
		return "normal"
	case PlantCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k PlantKind) MarshalText() ([]byte, error) {
	switch k {
	case PlantNormal, PlantCritical:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown plant kind: %d", int(k))
	}
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *PlantKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*k = PlantNormal
	case "critical":
		*k = PlantCritical
	default:
		return fmt.Errorf("unknown plant kind: %q", b)
	}
	return nil
}

// PlantReadings are the numeric fields of a non-critical plant, in kW.
type PlantReadings struct {
	// InstalledPower is the installed capacity in kWp, nil when unknown.
	InstalledPower *float64 `json:"installedPower,omitempty"`
	Production     float64  `json:"production"`
	Consumption    float64  `json:"consumption"`
	// Grid is positive when drawing from the grid and negative when injecting.
	Grid    float64 `json:"grid"`
	Surplus float64 `json:"surplus"`
}

// Alarm is an active inverter alarm attached to a plant.
type Alarm struct {
	Device string `json:"device"`
	Name   string `json:"name"`
	Level  string `json:"level"`
	Time   string `json:"time"`
	Emoji  string `json:"emoji"`
}

// PlantStatus is one row of the status table. Readings is only set when Kind
// is PlantNormal.
type PlantStatus struct {
	Kind         PlantKind      `json:"kind"`
	Name         string         `json:"name"`
	Icon         StatusIcon     `json:"statusIcon"`
	LastDataTime string         `json:"lastDataTime,omitempty"`
	Alarms       []Alarm        `json:"alarms,omitempty"`
	Readings     *PlantReadings `json:"readings,omitempty"`
}

// NormalStatus builds a PlantNormal status.
func NormalStatus(name string, icon StatusIcon, r PlantReadings) PlantStatus {
	return PlantStatus{
		Kind:     PlantNormal,
		Name:     name,
		Icon:     icon,
		Readings: &r,
	}
}

// CriticalStatus builds a PlantCritical status.
func CriticalStatus(name, lastDataTime string) PlantStatus {
	return PlantStatus{
		Kind:         PlantCritical,
		Name:         name,
		Icon:         StatusIconCritical,
		LastDataTime: lastDataTime,
	}
}

func decodePlantStatus(raw json.RawMessage) (PlantStatus, bool) {
	if rawKind(raw) != '{' {
		return PlantStatus{}, false
	}
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return PlantStatus{}, false
	}

	name := text(f["name"])
	icon := ParseStatusIcon(text(f["status_icon"]))

	var st PlantStatus
	if icon == StatusIconCritical {
		st = CriticalStatus(name, text(f["last_data_time"]))
	} else {
		r := PlantReadings{
			Production:  number(f["production"]),
			Consumption: number(f["consumption"]),
			Grid:        number(f["grid"]),
			Surplus:     number(f["surplus"]),
		}
		if v, ok := optionalNumber(f["pinstalled"]); ok {
			r.InstalledPower = &v
		}
		st = NormalStatus(name, icon, r)
		st.LastDataTime = text(f["last_data_time"])
	}

	if items, ok := array(f["active_alarms"]); ok {
		for _, item := range items {
			var af fields
			if rawKind(item) != '{' || json.Unmarshal(item, &af) != nil {
				continue
			}
			st.Alarms = append(st.Alarms, Alarm{
				Device: text(af["device"]),
				Name:   text(af["name"]),
				Level:  text(af["level"]),
				Time:   text(af["time"]),
				Emoji:  text(af["emoji"]),
			})
		}
	}
	return st, true
}
