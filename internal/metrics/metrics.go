package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegistrationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "esport_registration_transitions_total", Help: "Registration status changes by resulting status"},
		[]string{"status"},
	)
	BracketsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "esport_brackets_generated_total", Help: "Total generated brackets"},
	)
	MatchResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "esport_match_results_total", Help: "Reported match results by match status"},
		[]string{"status"},
	)
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "esport_notifications_created_total", Help: "Notifications written by type"},
		[]string{"type"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RegistrationTransitions, BracketsGenerated, MatchResults, NotificationsCreated)
	})
}
