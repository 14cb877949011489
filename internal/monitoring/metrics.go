// Package monitoring provides performance monitoring and metrics collection for dataset operations.
package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// OperationMetrics represents performance metrics for a single dataset operation.
type OperationMetrics struct {
	Operation  string        `json:"operation"`
	Column     string        `json:"column,omitempty"`
	Duration   time.Duration `json:"duration"`
	RowsIn     int64         `json:"rows_in"`
	RowsOut    int64         `json:"rows_out"`
	MemoryUsed int64         `json:"memory_used"`
	Failed     bool          `json:"failed"`
}

// Shape describes the size of a dataset after an operation.
type Shape struct {
	Rows    int
	Columns int
}

// MetricsCollector collects and stores performance metrics for dataset operations.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation executes fn and records its duration, heap delta and row counts.
// rowsIn is the row count before the operation; fn reports the resulting shape.
// Failed operations are recorded with RowsOut equal to rowsIn.
func (mc *MetricsCollector) RecordOperation(operation, column string, rowsIn int, fn func() (Shape, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	start := time.Now()
	shape, err := fn()
	duration := time.Since(start)

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	// Alloc can shrink across a GC cycle
	memoryUsed := int64(memAfter.Alloc) - int64(memBefore.Alloc) //nolint:gosec // Memory values are expected to be safe

	rowsOut := shape.Rows
	if err != nil {
		rowsOut = rowsIn
	}

	metrics := OperationMetrics{
		Operation:  operation,
		Column:     column,
		Duration:   duration,
		RowsIn:     int64(rowsIn),
		RowsOut:    int64(rowsOut),
		MemoryUsed: memoryUsed,
		Failed:     err != nil,
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, metrics)
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalMemory int64
	var rowsDropped int64
	failures := 0
	operationCounts := make(map[string]int)

	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		totalMemory += metric.MemoryUsed
		rowsDropped += metric.RowsIn - metric.RowsOut
		if metric.Failed {
			failures++
		}
		operationCounts[metric.Operation]++
	}

	return MetricsSummary{
		TotalOperations: len(mc.metrics),
		Failures:        failures,
		TotalDuration:   totalDuration,
		TotalMemory:     totalMemory,
		RowsDropped:     rowsDropped,
		OperationCounts: operationCounts,
		AverageDuration: totalDuration / time.Duration(len(mc.metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	Failures        int            `json:"failures"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalMemory     int64          `json:"total_memory"`
	RowsDropped     int64          `json:"rows_dropped"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}
