// Package daygrid aligns the backend's partial-day chart series onto a fixed
// 24 hour axis of 5 minute buckets so the chart's x-scale never moves.
package daygrid

import (
	"fmt"
	"slices"

	"github.com/raterudder/solarkiosk/pkg/types"
)

const (
	// BucketMinutes is the resolution of the grid.
	BucketMinutes = 5
	// Buckets counts the labels from 00:00 to 24:00 inclusive.
	Buckets = 24*60/BucketMinutes + 1
)

var labels = func() []string {
	l := make([]string, Buckets)
	for i := range l {
		m := i * BucketMinutes
		l[i] = fmt.Sprintf("%02d:%02d", m/60, m%60)
	}
	return l
}()

// Labels returns a copy of the fixed axis labels.
func Labels() []string {
	return slices.Clone(labels)
}

// Aligned is a chart series spread over the full day. Every series has exactly
// Buckets entries and nil marks a bucket with no data.
type Aligned struct {
	Labels          []string   `json:"labels"`
	Production      []*float64 `json:"production"`
	Consumption     []*float64 `json:"consumption"`
	SelfConsumption []*float64 `json:"selfConsumption"`
	Surplus         []*float64 `json:"surplus"`
	// Reported is how many leading buckets the backend has reported today.
	Reported int `json:"reported"`
}

// Align maps c onto the day grid. ok is false when c is nil or any of its
// arrays is missing, in which case the previous chart should be kept.
func Align(c *types.ChartSeries) (Aligned, bool) {
	if !c.Complete() {
		return Aligned{}, false
	}
	k := min(len(c.XAxis), Buckets)
	return Aligned{
		Labels:          Labels(),
		Production:      fill(c.Production, k),
		Consumption:     fill(c.Consumption, k),
		SelfConsumption: fill(c.SelfConsumption, k),
		Surplus:         fill(c.Surplus, k),
		Reported:        k,
	}, true
}

// fill copies the first k values of in and leaves the rest of the day empty.
func fill(in []*float64, k int) []*float64 {
	out := make([]*float64, Buckets)
	for i := 0; i < k && i < len(in); i++ {
		if in[i] != nil {
			v := *in[i]
			out[i] = &v
		}
	}
	return out
}

// Series returns the aligned series in legend order.
func (a Aligned) Series() [4][]*float64 {
	return [4][]*float64{a.Production, a.Consumption, a.SelfConsumption, a.Surplus}
}

// Totals is the energy each series accumulated so far today.
type Totals struct {
	ProductionKWh      float64 `json:"productionKWh"`
	ConsumptionKWh     float64 `json:"consumptionKWh"`
	SelfConsumptionKWh float64 `json:"selfConsumptionKWh"`
	SurplusKWh         float64 `json:"surplusKWh"`
}

// Totals integrates the kW readings over their 5 minute buckets.
func (a Aligned) Totals() Totals {
	return Totals{
		ProductionKWh:      energy(a.Production),
		ConsumptionKWh:     energy(a.Consumption),
		SelfConsumptionKWh: energy(a.SelfConsumption),
		SurplusKWh:         energy(a.Surplus),
	}
}

func energy(series []*float64) float64 {
	var kw float64
	for _, v := range series {
		if v != nil {
			kw += *v
		}
	}
	return kw * BucketMinutes / 60
}
