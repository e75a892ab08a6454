package collectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Enabled          bool          `envconfig:"COLLECT_ENABLED" default:"false"`
	ApeWisdomBaseURL string        `envconfig:"APEWISDOM_BASE_URL" default:"https://apewisdom.io/api/v1.0"`
	ApeWisdomTopN    int           `envconfig:"APEWISDOM_TOP_N" default:"100"`
	FinnhubBaseURL   string        `envconfig:"FINNHUB_BASE_URL" default:"https://finnhub.io/api/v1"`
	FinnhubAPIKey    string        `envconfig:"FINNHUB_API_KEY"`
	FinnhubPerMinute int           `envconfig:"FINNHUB_RATE_LIMIT" default:"55"`
	Timeout          time.Duration `envconfig:"COLLECT_TIMEOUT" default:"15s"`
	RetryCount       int           `envconfig:"COLLECT_RETRY_COUNT" default:"4"`
	Workers          int           `envconfig:"COLLECT_WORKERS" default:"4"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
