package types

import (
	"encoding/json"
	"time"
)

// Snapshot is one parsed /api/live-data response. It is never mutated after
// decoding; every poll produces a new one.
type Snapshot struct {
	// Production and Consumption are the instantaneous fleet totals in kW.
	Production  float64 `json:"production"`
	Consumption float64 `json:"consumption"`
	// Grid is the backend-summed exchange with the grid in kW.
	Grid        float64 `json:"grid"`
	TotalPlants int     `json:"totalPlants"`

	LastUpdated          string    `json:"lastUpdated"`
	LastUpdatedTimestamp time.Time `json:"lastUpdatedTimestamp,omitzero"`

	// Alert is the backend's one-line summary of Alerts.
	Alert    string        `json:"alert,omitempty"`
	Alerts   []string      `json:"alerts"`
	Statuses []PlantStatus `json:"statuses"`

	// Chart is nil when the response carried no chart object.
	Chart *ChartSeries `json:"chart,omitempty"`
}

// DecodeLiveData parses a live-data body. Field-level problems never fail the
// decode: numbers coerce to 0 and lists that are not arrays become empty.
// reported holds the message of a truthy "error" field, in which case the rest
// of the snapshot should be ignored. err is only ever ErrNotObject.
func DecodeLiveData(data []byte) (snap Snapshot, reported string, err error) {
	f, err := decodeFields(data)
	if err != nil {
		return Snapshot{}, "", err
	}

	if raw, ok := f["error"]; ok && truthy(raw) {
		reported = text(raw)
		if reported == "" {
			reported = string(raw)
		}
		return Snapshot{}, reported, nil
	}

	snap = Snapshot{
		Production:  number(f["production"]),
		Consumption: number(f["consumption"]),
		Grid:        number(f["grid"]),
		TotalPlants: int(number(f["total_plants"])),
		LastUpdated: text(f["last_updated"]),
		Alert:       text(f["alert"]),
		Alerts:      []string{},
		Statuses:    []PlantStatus{},
	}
	if ts, ok := optionalNumber(f["last_updated_timestamp"]); ok && ts > 0 {
		sec := int64(ts)
		snap.LastUpdatedTimestamp = time.Unix(sec, int64((ts-float64(sec))*1e9))
	}

	if items, ok := array(f["alerts"]); ok {
		for _, item := range items {
			if s := text(item); s != "" {
				snap.Alerts = append(snap.Alerts, s)
			}
		}
	}

	if items, ok := array(f["statuses"]); ok {
		for _, item := range items {
			if st, ok := decodePlantStatus(item); ok {
				snap.Statuses = append(snap.Statuses, st)
			}
		}
	}

	if rawKind(f["chart"]) == '{' {
		var cf fields
		if err := json.Unmarshal(f["chart"], &cf); err == nil {
			snap.Chart = decodeChartSeries(cf)
		}
	}

	return snap, "", nil
}
