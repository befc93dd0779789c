package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all openreferee metrics
const namespace = "openreferee"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HubRequestsTotal counts outbound hub API calls by method and status
var HubRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_requests_total",
		Help:      "Total number of outbound hub API requests",
	},
	[]string{"method", "status"},
)

// RevisionPollsTotal counts revision-detail poll attempts by outcome
var RevisionPollsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revision_polls_total",
		Help:      "Total number of revision visibility polls",
	},
	[]string{"result"}, // result: ready|pending|error|orphaned
)

// EventsRegistered counts successful event registrations
var EventsRegistered = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_registered_total",
		Help:      "Total number of events registered by the hub",
	},
)

// EventsRemoved counts successful event removals
var EventsRemoved = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_removed_total",
		Help:      "Total number of events unregistered by the hub",
	},
)

// Init registers runtime collectors and sets version information.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
