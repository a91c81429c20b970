package pkglog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // process-wide collectors
var (
	recordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goscaff_log_records_written_total",
			Help: "Total number of log records written, by sink kind",
		},
		[]string{"sink"},
	)

	recordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goscaff_log_records_dropped_total",
			Help: "Total number of log records dropped because a sink queue was full or closed",
		},
		[]string{"sink"},
	)

	rotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goscaff_log_rotations_total",
			Help: "Total number of log file rotations",
		},
	)

	recordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goscaff_log_records_ingested_total",
			Help: "Total number of records received from worker processes",
		},
	)

	recordsMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goscaff_log_records_malformed_total",
			Help: "Total number of forwarded lines that could not be decoded",
		},
	)
)
