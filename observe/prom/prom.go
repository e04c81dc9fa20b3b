// Package prom exports task group activity as Prometheus metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-taskgroup/taskgroup"
)

// Metrics is a taskgroup.Observer that is also a prometheus.Collector.
// Register it once and share it between groups.
type Metrics struct {
	// tasks
	activeTasks   prometheus.Gauge
	tasksStarted  prometheus.Counter
	tasksFinished prometheus.Counter
	tasksErrored  prometheus.Counter
	tasksPanicked prometheus.Counter
	taskDuration  prometheus.Histogram

	// groups
	groupsCreated   *prometheus.CounterVec
	groupsCancelled prometheus.Counter
	joins           prometheus.Counter
	joinWait        prometheus.Histogram
}

var _ taskgroup.Observer = (*Metrics)(nil)
var _ prometheus.Collector = (*Metrics)(nil)

// New returns metrics named under namespace (e.g. "myapp_taskgroup_tasks_started_total").
func New(namespace string) *Metrics {
	const subsystem = "taskgroup"
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}
	return &Metrics{
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "active_tasks", Help: "Tasks currently running.",
		}),
		tasksStarted:  counter("tasks_started_total", "Tasks that started running."),
		tasksFinished: counter("tasks_finished_total", "Tasks that finished running."),
		tasksErrored:  counter("tasks_errored_total", "Tasks that returned an error."),
		tasksPanicked: counter("tasks_panicked_total", "Tasks that panicked."),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "task_duration_seconds", Help: "Task run time.",
			Buckets: prometheus.DefBuckets,
		}),
		groupsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "groups_created_total", Help: "Task groups created, by mode.",
		}, []string{"mode"}),
		groupsCancelled: counter("groups_cancelled_total", "Task groups that were cancelled."),
		joins:           counter("joins_total", "Task groups that joined all children."),
		joinWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "join_wait_seconds", Help: "Time spent waiting for children at scope exit.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.activeTasks, m.tasksStarted, m.tasksFinished, m.tasksErrored, m.tasksPanicked,
		m.taskDuration, m.groupsCreated, m.groupsCancelled, m.joins, m.joinWait,
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *Metrics) GroupCreated(_ context.Context, mode taskgroup.Mode) {
	m.groupsCreated.WithLabelValues(mode.String()).Inc()
}

func (m *Metrics) GroupCancelled(_ context.Context, _ error) {
	m.groupsCancelled.Inc()
}

func (m *Metrics) GroupJoined(_ context.Context, wait time.Duration) {
	m.joins.Inc()
	m.joinWait.Observe(wait.Seconds())
}

func (m *Metrics) TaskStarted(_ context.Context) {
	m.activeTasks.Inc()
	m.tasksStarted.Inc()
}

// TaskFinished decrements active, increments finished, and tracks error/panic and duration.
func (m *Metrics) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	m.activeTasks.Dec()
	m.tasksFinished.Inc()
	if err != nil {
		m.tasksErrored.Inc()
	}
	if panicked {
		m.tasksPanicked.Inc()
	}
	m.taskDuration.Observe(dur.Seconds())
}
