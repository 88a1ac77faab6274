package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry 汇集本项目的全部指标，CLI 可用 prometheus.WriteToTextfile 导出。
var Registry = prometheus.NewRegistry()

var (
	// stepDuration 记录每个步骤 fit/transform 的耗时
	stepDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attrition_pipeline_step_duration_seconds",
		Help:    "Preprocessing step duration in seconds by step and phase",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	}, []string{"step", "phase"})

	// stepErrors 记录失败的步骤
	stepErrors = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "attrition_pipeline_step_errors_total",
		Help: "Total preprocessing step failures by step, phase and error code",
	}, []string{"step", "phase", "code"})

	// rowsProcessed 记录处理的记录数
	rowsProcessed = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "attrition_pipeline_rows_total",
		Help: "Total records processed by phase",
	}, []string{"phase"})
)

const (
	phaseFit       = "fit"
	phaseTransform = "transform"
)
