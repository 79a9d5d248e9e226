// Package view turns snapshots into the display models the surface renders.
// It does not know how they are drawn.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/raterudder/solarkiosk/pkg/connection"
	"github.com/raterudder/solarkiosk/pkg/daygrid"
	"github.com/raterudder/solarkiosk/pkg/types"
)

const (
	GridInjecting = "A Injetar na Rede"
	GridConsuming = "A Consumir da Rede"

	// Placeholder stands in for readings that cannot be trusted.
	Placeholder = "--"

	AllClear = "Todas as instalações estão a funcionar normalmente."

	SelfConsumptionRatio = "Autoconsumo"
	SelfSufficiencyRatio = "Autossuficiência"
)

// Tone is the color class of a display element.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneWarning  Tone = "warning"
	ToneNegative Tone = "negative"
)

// Card is a single KPI card.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
	Tone  Tone   `json:"tone"`
}

// KPIs are the cards at the top of the dashboard.
type KPIs struct {
	Production  Card   `json:"production"`
	Consumption Card   `json:"consumption"`
	Grid        Card   `json:"grid"`
	TotalPlants int    `json:"totalPlants"`
	LastUpdated string `json:"lastUpdated"`
}

// BuildKPIs formats the fleet totals. The grid card is derived from
// production and consumption, not the backend's grid sum.
func BuildKPIs(s types.Snapshot) KPIs {
	grid := Card{
		Label: GridConsuming,
		Value: kw(math.Abs(s.Production - s.Consumption)),
		Unit:  "kW",
		Tone:  ToneWarning,
	}
	if s.Production > s.Consumption {
		grid.Label = GridInjecting
		grid.Tone = TonePositive
	}

	lastUpdated := s.LastUpdated
	if lastUpdated == "" && !s.LastUpdatedTimestamp.IsZero() {
		lastUpdated = s.LastUpdatedTimestamp.Local().Format(time.DateTime)
	}

	return KPIs{
		Production:  Card{Label: "Produção", Value: kw(s.Production), Unit: "kW", Tone: TonePositive},
		Consumption: Card{Label: "Consumo", Value: kw(s.Consumption), Unit: "kW", Tone: ToneNeutral},
		Grid:        grid,
		TotalPlants: s.TotalPlants,
		LastUpdated: lastUpdated,
	}
}

// Alerts is the alert list in snapshot order.
type Alerts struct {
	Summary  string        `json:"summary,omitempty"`
	Items    []types.Alert `json:"items"`
	AllClear bool          `json:"allClear"`
}

// BuildAlerts classifies every alert string. An empty list becomes a single
// all-clear item.
func BuildAlerts(s types.Snapshot) Alerts {
	if len(s.Alerts) == 0 {
		return Alerts{
			Items: []types.Alert{{
				Text:     AllClear,
				Marker:   "✅",
				Message:  AllClear,
				Severity: types.AlertOK,
			}},
			AllClear: true,
		}
	}
	items := make([]types.Alert, len(s.Alerts))
	for i, a := range s.Alerts {
		items[i] = types.ParseAlert(a)
	}
	return Alerts{Summary: s.Alert, Items: items}
}

// Row is one formatted line of the status table.
type Row struct {
	Kind           types.PlantKind  `json:"kind"`
	Name           string           `json:"name"`
	Icon           types.StatusIcon `json:"icon"`
	InstalledPower string           `json:"installedPower"`
	Production     string           `json:"production"`
	Consumption    string           `json:"consumption"`
	Grid           string           `json:"grid"`
	Surplus        string           `json:"surplus"`
	LastDataTime   string           `json:"lastDataTime,omitempty"`
	Alarms         []types.Alarm    `json:"alarms,omitempty"`
}

// BuildRows formats the status table in snapshot order.
func BuildRows(s types.Snapshot) []Row {
	rows := make([]Row, 0, len(s.Statuses))
	for _, st := range s.Statuses {
		rows = append(rows, buildRow(st))
	}
	return rows
}

func buildRow(st types.PlantStatus) Row {
	row := Row{
		Kind:           st.Kind,
		Name:           st.Name,
		Icon:           st.Icon,
		InstalledPower: Placeholder,
		Production:     Placeholder,
		Consumption:    Placeholder,
		Grid:           Placeholder,
		Surplus:        Placeholder,
		LastDataTime:   st.LastDataTime,
		Alarms:         st.Alarms,
	}
	if st.Kind == types.PlantCritical || st.Readings == nil {
		return row
	}
	r := st.Readings
	if r.InstalledPower != nil {
		row.InstalledPower = fmt.Sprintf("%.1f kWp", *r.InstalledPower)
	}
	row.Production = kw(r.Production)
	row.Consumption = kw(r.Consumption)
	row.Grid = kw(r.Grid)
	row.Surplus = kw(r.Surplus)
	return row
}

// Ratio is a percentage derived from the day's energy.
type Ratio struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Value   string  `json:"value"`
}

// Chart is the aligned chart plus what it adds up to.
type Chart struct {
	daygrid.Aligned
	Energy daygrid.Totals `json:"energy"`
	Ratios []Ratio        `json:"ratios"`
}

// BuildChart computes the energy totals and ratios for an aligned series.
func BuildChart(a daygrid.Aligned) Chart {
	totals := a.Totals()
	c := Chart{Aligned: a, Energy: totals, Ratios: []Ratio{}}
	if r, ok := ratio(SelfConsumptionRatio, totals.SelfConsumptionKWh, totals.ProductionKWh); ok {
		c.Ratios = append(c.Ratios, r)
	}
	if r, ok := ratio(SelfSufficiencyRatio, totals.ProductionKWh, totals.ConsumptionKWh); ok {
		c.Ratios = append(c.Ratios, r)
	}
	return c
}

func ratio(label string, num, den float64) (Ratio, bool) {
	if den <= 0 {
		return Ratio{}, false
	}
	pct := min(max(num/den*100, 0), 100)
	return Ratio{Label: label, Percent: pct, Value: fmt.Sprintf("%.0f%%", pct)}, true
}

// Badge is the connection indicator.
type Badge struct {
	Status      connection.Status `json:"status"`
	Label       string            `json:"label"`
	Tone        Tone              `json:"tone"`
	Failures    int               `json:"failures"`
	LastSuccess string            `json:"lastSuccess,omitempty"`
}

// BuildBadge maps the connection state onto the badge.
func BuildBadge(st connection.State) Badge {
	b := Badge{Status: st.Status, Failures: st.ConsecutiveFailures}
	switch st.Status {
	case connection.StatusConnected:
		b.Label = "Ligado"
		b.Tone = TonePositive
	case connection.StatusDisconnected:
		b.Label = "Sem ligação"
		b.Tone = ToneNegative
	default:
		b.Label = "A ligar…"
		b.Tone = ToneNeutral
	}
	if !st.LastSuccessAt.IsZero() {
		b.LastSuccess = st.LastSuccessAt.Local().Format(time.TimeOnly)
	}
	return b
}

func kw(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
