package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_SnapshotRefreshed    = "snapshotRefreshed"
	Metric_Incr_SnapshotRowsRejected = "snapshotRowsRejected"
	Metric_Incr_JoinRecorded         = "joinRecorded"
	Metric_Incr_HttpRequest          = "rpc.http.request"

	Metric_Gauge_ActiveParticipants = "activeParticipants"
	Metric_Gauge_TotalParticipants  = "totalParticipants"

	Metric_Timing_SnapshotRefreshDuration = "snapshot.refresh.duration"
	Metric_Timing_AllocationDuration      = "allocation.duration"
	Metric_Timing_HttpDuration            = "rpc.http.duration"
	Metric_Timing_CreateSnapshot          = "dbSnapshot.create.duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_SnapshotRefreshed,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_SnapshotRowsRejected,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_JoinRecorded,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_HttpRequest,
			Labels: []string{"path"},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_ActiveParticipants,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_TotalParticipants,
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_SnapshotRefreshDuration,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_AllocationDuration,
			Labels: []string{"phase"},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_HttpDuration,
			Labels: []string{"path"},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_CreateSnapshot,
			Labels: []string{},
		},
	},
}
