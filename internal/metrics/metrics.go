// Package metrics регистрирует счётчики Prometheus для планировщика напоминаний.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcilePasses — количество полных проходов согласования настроек.
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_reconcile_passes_total",
		Help: "Number of full reminder reconciliation passes.",
	})

	// TriggersRegistered — количество зарегистрированных триггеров по категориям.
	TriggersRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_triggers_registered_total",
		Help: "Number of triggers registered with the scheduler.",
	}, []string{"category"})

	// RegisterFailures — количество отказов планировщика при регистрации.
	RegisterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_register_failures_total",
		Help: "Number of failed trigger registrations.",
	}, []string{"category"})

	// RemindersFired — количество сработавших напоминаний по категориям.
	RemindersFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_fired_total",
		Help: "Number of reminders fired by the scheduler.",
	}, []string{"category"})
)
