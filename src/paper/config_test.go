package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero backfill", mutate: func(c *Config) { c.BackfillDays = 0 }},
		{name: "zero hold days", mutate: func(c *Config) { c.HoldDays = 0 }, wantErr: true},
		{name: "positive stop loss", mutate: func(c *Config) { c.StopLossPct = 5 }, wantErr: true},
		{name: "zero take profit", mutate: func(c *Config) { c.TakeProfitPct = 0 }, wantErr: true},
		{name: "zero position size", mutate: func(c *Config) { c.PositionSize = 0 }, wantErr: true},
		{name: "no open positions", mutate: func(c *Config) { c.MaxOpenPositions = 0 }, wantErr: true},
		{name: "conviction above range", mutate: func(c *Config) { c.MinConviction = 101 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid paper config")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGetConfig_PanicsOnInvalidValues(t *testing.T) {
	t.Setenv("PAPER_HOLD_DAYS", "0")
	assert.Panics(t, func() { GetConfig() })
}

func TestGetConfig_Defaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), GetConfig())
}
