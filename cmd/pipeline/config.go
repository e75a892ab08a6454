package pipeline

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MetricsPort exposes /metrics and /healthcheck while the loop runs; empty disables it.
	MetricsPort string `envconfig:"PIPELINE_METRICS_PORT"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
