package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
)

// Metric names recorded into the local time-series store.
const (
	PaymentsFailed   = "payments_failed_total"
	PaymentsRefunded = "payments_refunded_total"
	PaymentsByMethod = "payments_by_method_total"
	SystemCpuUsage   = "system_cpu_usage"
	SystemMemUsage   = "system_mem_usage"
	ProcessCpuUsage  = "process_cpu_usage"
	ProcessMemUsage  = "process_mem_usage"
)

var (
	storage tstorage.Storage
	once    sync.Once
	initErr error
)

// InitMetrics opens the embedded time-series store under workdir/metrics.
func InitMetrics(workdir string) error {
	once.Do(func() {
		storage, initErr = tstorage.NewStorage(
			tstorage.WithDataPath(path.Join(workdir, "metrics")),
			tstorage.WithTimestampPrecision(tstorage.Seconds),
			tstorage.WithRetention(30*24*time.Hour),
			tstorage.WithPartitionDuration(6*time.Hour),
		)
	})
	return initErr
}

// InsertPoint records one sample for the named metric at the current time.
func InsertPoint(name string, value float64, labels ...tstorage.Label) error {
	if storage == nil {
		return errors.New("metrics storage not initialized")
	}
	return storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			Labels:    labels,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// SelectPoints returns samples of the named metric within [start, end].
func SelectPoints(name string, start, end int64, labels ...tstorage.Label) ([]*tstorage.DataPoint, error) {
	if storage == nil {
		return nil, errors.New("metrics storage not initialized")
	}
	points, err := storage.Select(name, labels, start, end)
	if err != nil {
		return nil, errors.Wrapf(err, "select %s", name)
	}
	return points, nil
}

func Close() error {
	if storage == nil {
		return nil
	}
	return storage.Close()
}
