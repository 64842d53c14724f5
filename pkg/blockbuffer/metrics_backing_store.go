package blockbuffer

import (
	"sync"

	"github.com/buildbarn/bb-blockbuffer/pkg/clock"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	backingStorePrometheusMetrics sync.Once

	backingStoreOperationsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "blockbuffer",
			Name:      "backing_store_operations_duration_seconds",
			Help:      "Amount of time spent per operation on backing stores, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"name", "operation", "outcome"})
	backingStoreBlocksRequestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "blockbuffer",
			Name:      "backing_store_blocks_requested_total",
			Help:      "Number of blocks that were requested to be transferred by backing stores.",
		},
		[]string{"name", "operation"})
	backingStoreBlocksTransferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "blockbuffer",
			Name:      "backing_store_blocks_transferred_total",
			Help:      "Number of blocks that were actually transferred by backing stores.",
		},
		[]string{"name", "operation"})
)

type operationMetrics struct {
	durationSecondsSuccess prometheus.Observer
	durationSecondsFailure prometheus.Observer
	blocksRequested        prometheus.Counter
	blocksTransferred      prometheus.Counter
}

func newOperationMetrics(name, operation string) operationMetrics {
	return operationMetrics{
		durationSecondsSuccess: backingStoreOperationsDurationSeconds.WithLabelValues(name, operation, "Success"),
		durationSecondsFailure: backingStoreOperationsDurationSeconds.WithLabelValues(name, operation, "Failure"),
		blocksRequested:        backingStoreBlocksRequestedTotal.WithLabelValues(name, operation),
		blocksTransferred:      backingStoreBlocksTransferredTotal.WithLabelValues(name, operation),
	}
}

func (om *operationMetrics) observe(seconds float64, err error) {
	if err == nil {
		om.durationSecondsSuccess.Observe(seconds)
	} else {
		om.durationSecondsFailure.Observe(seconds)
	}
}

type metricsBackingStore struct {
	base           BackingStore
	clock          clock.Clock
	blockSizeBytes int

	read  operationMetrics
	write operationMetrics
	seek  operationMetrics
}

// NewMetricsBackingStore creates a decorator for BackingStore that
// exposes the duration of operations and the number of blocks
// transferred as Prometheus metrics.
func NewMetricsBackingStore(base BackingStore, clock clock.Clock, blockSizeBytes int, name string) BackingStore {
	backingStorePrometheusMetrics.Do(func() {
		prometheus.MustRegister(backingStoreOperationsDurationSeconds)
		prometheus.MustRegister(backingStoreBlocksRequestedTotal)
		prometheus.MustRegister(backingStoreBlocksTransferredTotal)
	})

	return &metricsBackingStore{
		base:           base,
		clock:          clock,
		blockSizeBytes: blockSizeBytes,

		read:  newOperationMetrics(name, "ReadBlocks"),
		write: newOperationMetrics(name, "WriteBlocks"),
		seek:  newOperationMetrics(name, "SeekBlock"),
	}
}

func (bs *metricsBackingStore) ReadBlocks(p []byte) (int, error) {
	timeStart := bs.clock.Now()
	n, err := bs.base.ReadBlocks(p)
	bs.read.observe(bs.clock.Now().Sub(timeStart).Seconds(), err)
	bs.read.blocksRequested.Add(float64(len(p) / bs.blockSizeBytes))
	if n > 0 {
		bs.read.blocksTransferred.Add(float64(n))
	}
	return n, err
}

func (bs *metricsBackingStore) WriteBlocks(p []byte) (int, error) {
	timeStart := bs.clock.Now()
	n, err := bs.base.WriteBlocks(p)
	bs.write.observe(bs.clock.Now().Sub(timeStart).Seconds(), err)
	bs.write.blocksRequested.Add(float64(len(p) / bs.blockSizeBytes))
	if n > 0 {
		bs.write.blocksTransferred.Add(float64(n))
	}
	return n, err
}

func (bs *metricsBackingStore) SeekBlock(location int64) (int64, error) {
	timeStart := bs.clock.Now()
	newLocation, err := bs.base.SeekBlock(location)
	bs.seek.observe(bs.clock.Now().Sub(timeStart).Seconds(), err)
	return newLocation, err
}
