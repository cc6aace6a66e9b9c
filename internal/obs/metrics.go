// Package obs holds the service metrics.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	challengesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "walletgate_challenges_issued_total",
		Help: "Challenges generated for wallet sign-in.",
	})

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletgate_logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	identitiesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "walletgate_identities_created_total",
		Help: "Identities created on first login.",
	})

	roleChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "walletgate_role_changes_total",
		Help: "Administrative role updates.",
	})
)

// Init registers the metrics in the default registry.
func Init() {
	prometheus.MustRegister(challengesIssued, loginsTotal, identitiesCreated, roleChanges)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveChallengeIssued() {
	challengesIssued.Inc()
}

// ObserveLogin records one login attempt; outcome is "success" or the
// failure class.
func ObserveLogin(outcome string) {
	loginsTotal.WithLabelValues(outcome).Inc()
}

func ObserveIdentityCreated() {
	identitiesCreated.Inc()
}

func ObserveRoleChanged() {
	roleChanges.Inc()
}
