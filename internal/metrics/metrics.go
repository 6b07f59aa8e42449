// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolutionWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_resolution_warnings_total",
			Help: "Cumulative number of non-fatal configuration warnings.",
		})

	ConfigReloadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_reload_total",
			Help: "Cumulative number of successful configuration reloads.",
		})

	ConfigReloadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_reload_errors_total",
			Help: "Cumulative number of failed configuration reloads.",
		})

	DatabasePoolsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_pools_open",
			Help: "Number of database connection pools currently open.",
		})
)

func init() {
	prometheus.MustRegister(
		ResolutionWarningsTotal,
		ConfigReloadTotal,
		ConfigReloadErrorsTotal,
		DatabasePoolsOpen,
	)
}
