// Package metrics exposes Prometheus counters for the calibration engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrovista_validations_recorded_total",
			Help: "Total ETo validation records appended to the ledger",
		},
		[]string{"provider", "source"},
	)

	CalibrationRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrovista_calibration_recomputes_total",
			Help: "Total regional calibration recompute runs",
		},
		[]string{"provider"},
	)

	CalibrationSeasonsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrovista_calibration_seasons_skipped_total",
			Help: "Season groups skipped during recompute for insufficient samples",
		},
	)

	CalibrationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrovista_calibration_lookups_total",
			Help: "Calibration lookups by result",
		},
		[]string{"result"},
	)

	SensorReadingsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrovista_sensor_readings_upserted_total",
			Help: "Sensor readings written via upsert",
		},
	)
)
