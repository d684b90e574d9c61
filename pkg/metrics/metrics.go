// Package metrics exports audit results in the Prometheus text format so a
// node_exporter textfile collector can pick them up between runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/younsl/idlemon/internal/models"
)

const namespace = "idlemon"

// Recorder holds the gauges for one audit run
type Recorder struct {
	registry *prometheus.Registry

	idleInstances      *prometheus.GaugeVec
	idleInstanceCost   *prometheus.GaugeVec
	staleDirectories   *prometheus.GaugeVec
	staleBytes         *prometheus.GaugeVec
	staleDirectoryCost *prometheus.GaugeVec
	auditDuration      *prometheus.GaugeVec
	lastRun            prometheus.Gauge
}

// NewRecorder creates a Recorder backed by its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		idleInstances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "idle_instances",
			Help:      "Running EC2 instances whose CPU stayed below the threshold.",
		}, []string{"region"}),
		idleInstanceCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "idle_instances_monthly_cost_dollars",
			Help:      "Estimated on-demand monthly cost of the idle instances.",
		}, []string{"region"}),
		staleDirectories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_directories",
			Help:      "S3 directories not modified within the retention window.",
		}, []string{"bucket", "prefix"}),
		staleBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_bytes",
			Help:      "Bytes stored in stale S3 directories.",
		}, []string{"bucket", "prefix"}),
		staleDirectoryCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_directories_monthly_cost_dollars",
			Help:      "Estimated monthly storage cost of the stale directories.",
		}, []string{"bucket", "prefix"}),
		auditDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Wall time taken by each audit.",
		}, []string{"audit"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the report was generated.",
		}),
	}

	r.registry.MustRegister(
		r.idleInstances,
		r.idleInstanceCost,
		r.staleDirectories,
		r.staleBytes,
		r.staleDirectoryCost,
		r.auditDuration,
		r.lastRun,
	)
	return r
}

// ObserveInstances records the compute audit result for region
func (r *Recorder) ObserveInstances(region string, instances []models.InstanceInfo, took time.Duration) {
	var cost float64
	for _, instance := range instances {
		cost += instance.EstimatedMonthlyCost
	}
	r.idleInstances.WithLabelValues(region).Set(float64(len(instances)))
	r.idleInstanceCost.WithLabelValues(region).Set(cost)
	r.auditDuration.WithLabelValues("compute").Set(took.Seconds())
}

// ObserveDirectories records the storage audit result for bucket/prefix
func (r *Recorder) ObserveDirectories(bucket, prefix string, directories []models.DirectoryInfo, took time.Duration) {
	var size int64
	var cost float64
	for _, dir := range directories {
		size += dir.Size
		cost += dir.EstimatedMonthlyCost
	}
	r.staleDirectories.WithLabelValues(bucket, prefix).Set(float64(len(directories)))
	r.staleBytes.WithLabelValues(bucket, prefix).Set(float64(size))
	r.staleDirectoryCost.WithLabelValues(bucket, prefix).Set(cost)
	r.auditDuration.WithLabelValues("storage").Set(took.Seconds())
}

// WriteTextfile stamps the run time and atomically writes every gauge to path
func (r *Recorder) WriteTextfile(path string, generatedAt time.Time) error {
	r.lastRun.Set(float64(generatedAt.Unix()))
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics to %s: %w", path, err)
	}
	return nil
}
