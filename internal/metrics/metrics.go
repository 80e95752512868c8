// Package metrics counts gamification outcomes for Prometheus. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "daystreak"

type Metrics struct {
	registry *prometheus.Registry

	Completions          *prometheus.CounterVec
	XPAwarded            prometheus.Counter
	LevelUps             prometheus.Counter
	StreakChecks         *prometheus.CounterVec
	AchievementsUnlocked *prometheus.CounterVec
	PartnershipChecks    *prometheus.CounterVec
	StepFailures         *prometheus.CounterVec
	Reminders            *prometheus.CounterVec
	Requests             *prometheus.CounterVec
}

// New creates a new Metrics on its own registry, including the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Habit completion toggles by result.",
		}, []string{"result"}),
		XPAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "XP points awarded.",
		}),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Levels gained.",
		}),
		StreakChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_checks_total",
			Help:      "Streak checks by outcome.",
		}, []string{"outcome"}),
		AchievementsUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievements unlocked by type.",
		}, []string{"type"}),
		PartnershipChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partnership_checks_total",
			Help:      "Partnership progress checks by outcome.",
		}, []string{"outcome"}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Failed steps of an orchestrated completion.",
		}, []string{"step"}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Reminder deliveries by type and result.",
		}, []string{"type", "result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.Completions,
		m.XPAwarded,
		m.LevelUps,
		m.StreakChecks,
		m.AchievementsUnlocked,
		m.PartnershipChecks,
		m.StepFailures,
		m.Reminders,
		m.Requests,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Completion(result string) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(result).Inc()
}

// XP records an award and the levels it produced.
func (m *Metrics) XP(points, levelsGained int) {
	if m == nil {
		return
	}
	if points > 0 {
		m.XPAwarded.Add(float64(points))
	}
	if levelsGained > 0 {
		m.LevelUps.Add(float64(levelsGained))
	}
}

func (m *Metrics) StreakCheck(outcome string) {
	if m == nil {
		return
	}
	m.StreakChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Unlocked(achievementType string) {
	if m == nil {
		return
	}
	m.AchievementsUnlocked.WithLabelValues(achievementType).Inc()
}

func (m *Metrics) PartnershipCheck(outcome string) {
	if m == nil {
		return
	}
	m.PartnershipChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StepFailed(step string) {
	if m == nil {
		return
	}
	m.StepFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) Reminder(reminderType, result string) {
	if m == nil {
		return
	}
	m.Reminders.WithLabelValues(reminderType, result).Inc()
}

func (m *Metrics) Request(route, code string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, code).Inc()
}
