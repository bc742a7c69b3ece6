// Package metrics keeps operational gauges and counters in an embedded
// time-series store under the application workdir. It is deliberately tiny:
// one metric name per series, second precision, no labels.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

var (
	storage  tstorage.Storage
	initOnce sync.Once
	initErr  error

	countersMux sync.Mutex
	counters    = map[string]int64{}
)

// InitMetrics opens the embedded store below workdir/metrics.
func InitMetrics(workdir string) error {
	initOnce.Do(func() {
		storage, initErr = tstorage.NewStorage(
			tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
			tstorage.WithTimestampPrecision(tstorage.Seconds),
			tstorage.WithPartitionDuration(6*time.Hour),
		)
	})
	return initErr
}

// SetGauge records an instantaneous value for the metric.
func SetGauge(name string, value int64) {
	if storage == nil {
		return
	}
	err := storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: float64(value)},
		},
	})
	if err != nil {
		zap.L().Debug("metrics: insert failed", zap.String("metric", name), zap.Error(err))
	}
}

// IncrCounter bumps a process-lifetime counter and records the running total.
func IncrCounter(name string, delta int64) {
	countersMux.Lock()
	counters[name] += delta
	total := counters[name]
	countersMux.Unlock()
	SetGauge(name, total)
}

// CounterValue returns the current process-lifetime counter value.
func CounterValue(name string) int64 {
	countersMux.Lock()
	defer countersMux.Unlock()
	return counters[name]
}

// Point is one sample returned by Range.
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Range returns the samples of a metric between start and end (unix seconds).
func Range(name string, start, end int64) []Point {
	if storage == nil {
		return nil
	}
	points, err := storage.Select(name, nil, start, end)
	if err != nil {
		return nil
	}
	out := make([]Point, 0, len(points))
	for _, p := range points {
		out = append(out, Point{Timestamp: p.Timestamp, Value: p.Value})
	}
	return out
}

// Last returns the most recent sample of a metric within the past day.
func Last(name string) (Point, bool) {
	now := time.Now().Unix()
	points := Range(name, now-86400, now)
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}

func Close() error {
	if storage == nil {
		return nil
	}
	return storage.Close()
}
