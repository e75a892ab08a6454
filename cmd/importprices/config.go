package importprices

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	StartDt  time.Time `envconfig:"IMPORT_START_DATE" default:"2024-01-01T00:00:00Z"`
	EndDt    time.Time `envconfig:"IMPORT_END_DATE"` // zero means now
	Symbols  string    `envconfig:"IMPORT_SYMBOLS" default:"BTC,ETH"`
	Quote    string    `envconfig:"IMPORT_QUOTE" default:"USDT"`
	Limit    int       `envconfig:"IMPORT_LIMIT" default:"1000"`
	AutoMode bool      `envconfig:"IMPORT_AUTO_MODE" default:"false"`
	Endpoint string    `envconfig:"IMPORT_BINANCE_ENDPOINT"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}

// SymbolList splits Symbols into upper-case, non-empty symbols.
func (c *Config) SymbolList() []string {
	var out []string
	for _, s := range strings.Split(c.Symbols, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
