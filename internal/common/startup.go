package common

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"
)

// ConfigureLogging sets up logrus for long-running use: full timestamps on stdout.
func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

// ConfigureCommandLineLogging sets up logrus for interactive CLI use,
// where timestamps are noise.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, DisableTimestamp: true})
	log.SetOutput(os.Stdout)
}

// RegisterLogMetrics installs a logrus hook that counts log lines per level
// and exposes them as Prometheus metrics. Must be called at most once, before
// ServeMetrics.
func RegisterLogMetrics() {
	log.AddHook(promrus.MustNewPrometheusHook())
}
