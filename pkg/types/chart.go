package types

import (
	"encoding/json"
)

// ChartSeries is the chart payload as reported so far today. A nil slice means
// the field was missing or not an array; an empty slice is a valid report of
// zero buckets. Elements are nil where the backend has no data.
type ChartSeries struct {
	XAxis           []string   `json:"xAxis"`
	Production      []*float64 `json:"production"`
	Consumption     []*float64 `json:"consumption"`
	SelfConsumption []*float64 `json:"selfConsumption"`
	Surplus         []*float64 `json:"surplus"`
}

// Complete reports whether the axis and all four data series arrived as
// arrays.
func (c *ChartSeries) Complete() bool {
	return c != nil &&
		c.XAxis != nil &&
		c.Production != nil &&
		c.Consumption != nil &&
		c.SelfConsumption != nil &&
		c.Surplus != nil
}

func decodeChartSeries(f fields) *ChartSeries {
	c := &ChartSeries{
		Production:      decodeReadings(f["production"]),
		Consumption:     decodeReadings(f["consumption"]),
		SelfConsumption: decodeReadings(f["self_consumption"]),
		Surplus:         decodeReadings(f["surplus"]),
	}
	if items, ok := array(f["x_axis"]); ok {
		c.XAxis = make([]string, len(items))
		for i, item := range items {
			c.XAxis[i] = text(item)
		}
	}
	return c
}

func decodeReadings(raw json.RawMessage) []*float64 {
	items, ok := array(raw)
	if !ok {
		return nil
	}
	out := make([]*float64, len(items))
	for i, item := range items {
		if v, ok := optionalNumber(item); ok {
			out[i] = &v
		}
	}
	return out
}
