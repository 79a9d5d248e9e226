package daygrid

import (
	"testing"

	"github.com/raterudder/solarkiosk/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func series(n int, f func(i int) float64) []*float64 {
	out := make([]*float64, n)
	for i := range out {
		out[i] = ptr(f(i))
	}
	return out
}

func chartOfLength(k, dataLen int) *types.ChartSeries {
	axis := Labels()
	if k <= len(axis) {
		axis = axis[:k]
	} else {
		for len(axis) < k {
			axis = append(axis, "extra")
		}
	}
	return &types.ChartSeries{
		XAxis:           axis,
		Production:      series(dataLen, func(i int) float64 { return float64(i) }),
		Consumption:     series(dataLen, func(i int) float64 { return float64(i) * 2 }),
		SelfConsumption: series(dataLen, func(i int) float64 { return 0 }),
		Surplus:         series(dataLen, func(i int) float64 { return -float64(i) }),
	}
}

func TestLabels(t *testing.T) {
	l := Labels()
	require.Len(t, l, 289)
	assert.Equal(t, "00:00", l[0])
	assert.Equal(t, "00:05", l[1])
	assert.Equal(t, "12:00", l[144])
	assert.Equal(t, "23:55", l[287])
	assert.Equal(t, "24:00", l[288])

	l[0] = "mutated"
	assert.Equal(t, "00:00", Labels()[0], "Labels must return a copy")
}

func TestAlign(t *testing.T) {
	t.Run("Output is always a full day", func(t *testing.T) {
		for _, k := range []int{0, 1, 10, 144, 288, 289, 300} {
			a, ok := Align(chartOfLength(k, k))
			require.True(t, ok, "k=%d", k)
			assert.Len(t, a.Labels, Buckets, "k=%d", k)
			for _, s := range a.Series() {
				assert.Len(t, s, Buckets, "k=%d", k)
			}
			assert.Equal(t, min(k, Buckets), a.Reported)
		}
	})

	t.Run("Ten reported buckets", func(t *testing.T) {
		a, ok := Align(chartOfLength(10, 10))
		require.True(t, ok)
		for i := 0; i < 10; i++ {
			require.NotNil(t, a.Production[i])
			assert.Equal(t, float64(i), *a.Production[i])
			require.NotNil(t, a.Consumption[i])
			assert.Equal(t, float64(i)*2, *a.Consumption[i])
			require.NotNil(t, a.SelfConsumption[i], "zero is a reading, not a gap")
			assert.Zero(t, *a.SelfConsumption[i])
		}
		for i := 10; i < Buckets; i++ {
			for _, s := range a.Series() {
				assert.Nil(t, s[i], "index %d must be no data", i)
			}
		}
	})

	t.Run("Longer data is truncated to the axis", func(t *testing.T) {
		a, ok := Align(chartOfLength(5, 50))
		require.True(t, ok)
		assert.NotNil(t, a.Production[4])
		assert.Nil(t, a.Production[5])
	})

	t.Run("Shorter data leaves gaps", func(t *testing.T) {
		a, ok := Align(chartOfLength(10, 3))
		require.True(t, ok)
		assert.NotNil(t, a.Production[2])
		assert.Nil(t, a.Production[3])
		assert.Equal(t, 10, a.Reported)
	})

	t.Run("Null readings stay no data", func(t *testing.T) {
		c := chartOfLength(3, 3)
		c.Production[1] = nil
		a, ok := Align(c)
		require.True(t, ok)
		assert.NotNil(t, a.Production[0])
		assert.Nil(t, a.Production[1])
		assert.NotNil(t, a.Production[2])
	})

	t.Run("Missing series is rejected", func(t *testing.T) {
		c := chartOfLength(10, 10)
		c.Production = nil
		_, ok := Align(c)
		assert.False(t, ok)

		_, ok = Align(nil)
		assert.False(t, ok)
	})

	t.Run("Aligning is idempotent", func(t *testing.T) {
		first, ok := Align(chartOfLength(42, 42))
		require.True(t, ok)
		second, ok := Align(&types.ChartSeries{
			XAxis:           first.Labels,
			Production:      first.Production,
			Consumption:     first.Consumption,
			SelfConsumption: first.SelfConsumption,
			Surplus:         first.Surplus,
		})
		require.True(t, ok)
		assert.Equal(t, first.Series(), second.Series())
		assert.Equal(t, first.Labels, second.Labels)
	})

	t.Run("Input is not aliased", func(t *testing.T) {
		c := chartOfLength(2, 2)
		a, ok := Align(c)
		require.True(t, ok)
		*c.Production[0] = 99
		assert.Equal(t, 0.0, *a.Production[0])
	})
}

func TestTotals(t *testing.T) {
	// 12 buckets of 6 kW is one hour of 6 kW
	c := &types.ChartSeries{
		XAxis:           Labels()[:12],
		Production:      series(12, func(int) float64 { return 6 }),
		Consumption:     series(12, func(int) float64 { return 3 }),
		SelfConsumption: series(12, func(int) float64 { return 2 }),
		Surplus:         series(12, func(int) float64 { return 4 }),
	}
	c.Production[0] = nil
	a, ok := Align(c)
	require.True(t, ok)

	totals := a.Totals()
	assert.InDelta(t, 5.5, totals.ProductionKWh, 1e-9)
	assert.InDelta(t, 3.0, totals.ConsumptionKWh, 1e-9)
	assert.InDelta(t, 2.0, totals.SelfConsumptionKWh, 1e-9)
	assert.InDelta(t, 4.0, totals.SurplusKWh, 1e-9)
}
