package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAlert(t *testing.T) {
	cases := []struct {
		in       string
		severity AlertSeverity
		message  string
	}{
		{"🔴 Quinta - Sem comunicação", AlertCritical, "Quinta - Sem comunicação"},
		{"🟠 Sede - Alarme major", AlertMajor, "Sede - Alarme major"},
		{"⏳ Escola - Em manutenção", AlertMaintenance, "Escola - Em manutenção"},
		{"🟡 Escola - Produção baixa", AlertMinor, "Escola - Produção baixa"},
		{"⚪ Armazém - Aviso", AlertWarning, "Armazém - Aviso"},
		{"⚠️ Conta x - Nenhuma instalação", AlertCaution, "Conta x - Nenhuma instalação"},
		{"⚠ sem seletor", AlertCaution, "sem seletor"},
		{"✅ Todas as instalações estão a funcionar normalmente.", AlertOK, "Todas as instalações estão a funcionar normalmente."},
		{"- 🔴 Linha do resumo", AlertCritical, "Linha do resumo"},
		{"Sem marcador", AlertInfo, "Sem marcador"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			a := ParseAlert(tc.in)
			assert.Equal(t, tc.severity, a.Severity)
			assert.Equal(t, tc.message, a.Message)
			assert.Equal(t, tc.in, a.Text, "original text is preserved")
		})
	}
}

func TestParseStatusIcon(t *testing.T) {
	assert.Equal(t, StatusIconOK, ParseStatusIcon("🟢"))
	assert.Equal(t, StatusIconCritical, ParseStatusIcon("🔴"))
	assert.Equal(t, StatusIconMaintenance, ParseStatusIcon("⏳"))
	assert.Equal(t, StatusIconUnknown, ParseStatusIcon("🟣"))
	assert.Equal(t, StatusIconUnknown, ParseStatusIcon(""))
}
