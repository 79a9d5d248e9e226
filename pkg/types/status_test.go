package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlantKindJSON(t *testing.T) {
	t.Run("Encodes By Name", func(t *testing.T) {
		b, err := json.Marshal([]PlantKind{PlantNormal, PlantCritical})
		require.NoError(t, err)
		assert.JSONEq(t, `["normal","critical"]`, string(b))
	})

	t.Run("Round Trips A Status", func(t *testing.T) {
		installed := 12.5
		in := []PlantStatus{
			NormalStatus("Escola", StatusIconOK, PlantReadings{InstalledPower: &installed, Production: 3.2, Consumption: 1.1, Grid: -2.1, Surplus: 2.1}),
			CriticalStatus("Piscina", "2024-05-01 10:15"),
		}
		b, err := json.Marshal(in)
		require.NoError(t, err)

		var out []PlantStatus
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, in, out)
	})

	t.Run("Rejects Unknown Names", func(t *testing.T) {
		var k PlantKind
		assert.Error(t, json.Unmarshal([]byte(`"offline"`), &k))
	})

	t.Run("Rejects Unknown Values", func(t *testing.T) {
		_, err := json.Marshal(PlantKind(7))
		assert.Error(t, err)
	})
}
