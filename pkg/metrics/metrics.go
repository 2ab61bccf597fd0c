// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	AuthnTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vmservice_authn_total", Help: "Authentication attempts by outcome"}, []string{"outcome"})

	RegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vmservice_credential_registrations_total", Help: "Credential registrations by outcome"}, []string{"outcome"})

	AggregationCellsTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vmservice_aggregation_cells_total", Help: "Aggregation fan-out cells by provider and outcome"}, []string{"provider", "outcome"})
	AggregationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vmservice_aggregation_failures_total", Help: "Aggregation cell failures by provider and reason"}, []string{"provider", "reason"})
	InstancesDiscovered      = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vmservice_instances_per_aggregation", Help: "Instances returned per aggregation call", Buckets: prometheus.ExponentialBuckets(1, 2, 12)})

	ProviderCallSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "vmservice_provider_call_seconds", Help: "Provider API call latency", Buckets: prometheus.DefBuckets}, []string{"provider", "operation"})

	ProvisionedUsersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vmservice_provisioned_users_total", Help: "Users created from provisioning events by outcome"}, []string{"outcome"})
)

// Init registers every collector on a fresh registry alongside the
// standard Go and process collectors.
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		AuthnTotal, RegistrationsTotal,
		AggregationCellsTotal, AggregationFailuresTotal, InstancesDiscovered,
		ProviderCallSeconds, ProvisionedUsersTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

// Handler exposes reg for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
