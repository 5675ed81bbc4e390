// Package metrics exposes the runtime's prometheus instrumentation. It is
// ambient observability, not a spec.md component — grounded on arkeep's use
// of github.com/prometheus/client_golang for agent/job counters, retargeted
// here at the request pipeline, credential cache, and job registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// InFlightRequests mirrors InactivityTimer's in-flight counter so it is
	// observable without reading logs.
	InFlightRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridbox",
		Subsystem: "provider",
		Name:      "inflight_requests",
		Help:      "Number of RPCs currently being handled, across all accounts.",
	})

	ActiveJobs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gridbox",
		Subsystem: "provider",
		Name:      "active_jobs",
		Help:      "Number of live upload/download jobs.",
	}, []string{"direction"})

	CredentialCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridbox",
		Subsystem: "provider",
		Name:      "credential_cache_lookups_total",
		Help:      "Peer credential cache lookups, partitioned by outcome.",
	}, []string{"outcome"}) // "current_hit", "old_hit", "coalesced", "miss"

	RPCRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridbox",
		Subsystem: "provider",
		Name:      "rpc_requests_total",
		Help:      "RPC calls, partitioned by method and error kind (empty for success).",
	}, []string{"method", "error_kind"})
)

// Register adds every collector to reg. Call once at startup; tests that
// don't need metrics can skip this entirely since the vars above are usable
// unregistered.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{InFlightRequests, ActiveJobs, CredentialCacheLookups, RPCRequests} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
