package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brokerpacks"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	PacksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "packs_created_total", Help: "Number of broker packs persisted."},
	)
	PackCreateFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pack_create_failures_total", Help: "Rejected or failed pack creations by reason."},
		[]string{"reason"},
	)
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "auth_failures_total", Help: "Admin credential failures by reason."},
		[]string{"reason"},
	)
	PointerUpsertFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "pointer_upsert_failures_total", Help: "Latest-pointer writes that failed after the pack was persisted."},
	)
	LatestResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "latest_resolutions_total", Help: "Latest-version lookups by resolution source."},
		[]string{"source"},
	)
	MirrorFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "mirror_failures_total", Help: "Failed static mirror publications."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PacksCreated)
	reg.MustRegister(PackCreateFailures)
	reg.MustRegister(AuthFailures)
	reg.MustRegister(PointerUpsertFailures)
	reg.MustRegister(LatestResolutions)
	reg.MustRegister(MirrorFailures)
}
