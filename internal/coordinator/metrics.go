package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chimed_items_scheduled_total",
		Help: "Items created, by kind.",
	}, []string{"kind"})

	itemsArmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimed_timers_armed_total",
		Help: "Timer arms, including re-arms after rings and edits.",
	})

	ringsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chimed_rings_started_total",
		Help: "Ring sessions started, by kind.",
	}, []string{"kind"})

	ringsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chimed_rings_ended_total",
		Help: "Ring sessions ended, by outcome.",
	}, []string{"outcome"})

	activeRings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chimed_active_rings",
		Help: "Ring sessions currently in progress.",
	})

	snoozes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimed_snoozes_total",
		Help: "Snooze operations applied.",
	})
)
