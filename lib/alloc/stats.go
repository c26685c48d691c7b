package alloc

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	AllocatorStatsName = "xstl/alloc"
)

type allocatorStats struct {
	allocated   metric.Int64Counter
	deallocated metric.Int64Counter
	failures    metric.Int64Counter
	live        metric.Int64UpDownCounter
}

func (stats *allocatorStats) IncreaseAllocated() {
	if stats == nil {
		return
	}
	stats.allocated.Add(context.Background(), 1)
	stats.live.Add(context.Background(), 1)
}

func (stats *allocatorStats) IncreaseDeallocated() {
	if stats == nil {
		return
	}
	stats.deallocated.Add(context.Background(), 1)
	stats.live.Add(context.Background(), -1)
}

func (stats *allocatorStats) IncreaseFailures() {
	if stats == nil {
		return
	}
	stats.failures.Add(context.Background(), 1)
}

func newAllocatorStats(name string) *allocatorStats {
	meter := otel.Meter(fmt.Sprintf("%s/%s", AllocatorStatsName, name))
	return &allocatorStats{
		allocated: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"alloc.objects.allocated",
			metric.WithDescription("The number of objects handed out by the allocator."),
		)),
		deallocated: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"alloc.objects.deallocated",
			metric.WithDescription("The number of objects given back to the allocator."),
		)),
		failures: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"alloc.failures",
			metric.WithDescription("The number of failed allocations."),
		)),
		live: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"alloc.objects.live",
			metric.WithDescription("The number of objects currently allocated."),
		)),
	}
}

var _ Allocator[int] = (*meteredAllocator[int])(nil)

type meteredAllocator[T any] struct {
	Allocator[T]
	stats *allocatorStats
}

func (a *meteredAllocator[T]) Allocate() (*T, error) {
	ptr, err := a.Allocator.Allocate()
	if err != nil {
		a.stats.IncreaseFailures()
		return nil, err
	}
	a.stats.IncreaseAllocated()
	return ptr, nil
}

func (a *meteredAllocator[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	a.Allocator.Deallocate(ptr)
	a.stats.IncreaseDeallocated()
}
