package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nemcli/internal/errors"
	"nemcli/internal/timezone"
)

const sampleTariff = `
state: NSW
periods:
  - name: Peak
    price_per_kwh: 0.35
    weekday:
      - "07:00-21:00"
  - name: Off-peak
    price_per_kwh: 0.12
    weekday:
      - "21:00-07:00"
    weekend:
      - "00:00-00:00"
    holiday:
      - "00:00-00:00"
`

func TestParseTOU(t *testing.T) {
	cfg, state, err := ParseTOU([]byte(sampleTariff))
	require.NoError(t, err)

	assert.Equal(t, timezone.NSW, state)
	require.Len(t, cfg.Periods, 2)

	peak := cfg.Periods[0]
	assert.Equal(t, "Peak", peak.Name)
	require.Len(t, peak.WeekdayRanges, 1)
	assert.Equal(t, "07:00-21:00", peak.WeekdayRanges[0].String())
	require.NotNil(t, peak.PricePerKWh)
	assert.Equal(t, "0.35", peak.PricePerKWh.String())
	assert.Empty(t, peak.WeekendRanges)

	off := cfg.Periods[1]
	assert.True(t, off.WeekendRanges[0].IsFullDay())
	assert.True(t, off.HolidayRanges[0].IsFullDay())
}

func TestParseTOUStateNormalized(t *testing.T) {
	_, state, err := ParseTOU([]byte("state: \" nsw \"\nperiods:\n  - name: Flat\n    weekday: [\"00:00-00:00\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, timezone.NSW, state)
}

func TestParseTOUErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown state", "state: XYZ\nperiods:\n  - name: Flat\n    weekday: [\"00:00-00:00\"]\n"},
		{"missing state", "periods:\n  - name: Flat\n    weekday: [\"00:00-00:00\"]\n"},
		{"no periods", "state: QLD\n"},
		{"bad range", "state: QLD\nperiods:\n  - name: Flat\n    weekday: [\"07:00-25:00\"]\n"},
		{"period without ranges", "state: QLD\nperiods:\n  - name: Flat\n"},
		{"duplicate names", "state: QLD\nperiods:\n  - name: Flat\n    weekday: [\"00:00-00:00\"]\n  - name: Flat\n    weekday: [\"00:00-00:00\"]\n"},
		{"negative price", "state: QLD\nperiods:\n  - name: Flat\n    price_per_kwh: -0.10\n    weekday: [\"00:00-00:00\"]\n"},
		{"not yaml", ": [unparseable\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTOU([]byte(tt.doc))
			var cfgErr *apperrors.ConfigError
			require.ErrorAs(t, err, &cfgErr, "expected a ConfigError")
		})
	}
}

func TestLoadTOUMissingFile(t *testing.T) {
	_, _, err := LoadTOU("/nonexistent/tariff.yaml")
	var cfgErr *apperrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
