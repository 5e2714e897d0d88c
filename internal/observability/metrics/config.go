package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every collector.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) constLabels() prometheus.Labels {
	serviceName := strings.TrimSpace(c.ServiceName)
	if serviceName == "" {
		serviceName = "salesdesk"
	}
	environment := strings.TrimSpace(c.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}
