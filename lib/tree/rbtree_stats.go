package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBTreeStatsName = "xstl/rbtree"
)

var (
	leftRotationAttrs    = metric.WithAttributes(attribute.String("direction", "left"))
	rightRotationAttrs   = metric.WithAttributes(attribute.String("direction", "right"))
	insertRebalanceAttrs = metric.WithAttributes(attribute.String("op", "insert"))
	eraseRebalanceAttrs  = metric.WithAttributes(attribute.String("op", "erase"))
)

type rbtreeStats struct {
	nodes     metric.Int64UpDownCounter
	rotations metric.Int64Counter
	rebalance metric.Int64Counter
}

func (stats *rbtreeStats) AddNodes(n int64) {
	if stats == nil || n == 0 {
		return
	}
	stats.nodes.Add(context.Background(), n)
}

func (stats *rbtreeStats) IncreaseRotations(dir RBDirection) {
	if stats == nil {
		return
	}
	if dir == Left {
		stats.rotations.Add(context.Background(), 1, leftRotationAttrs)
		return
	}
	stats.rotations.Add(context.Background(), 1, rightRotationAttrs)
}

func (stats *rbtreeStats) IncreaseInsertRebalance() {
	if stats == nil {
		return
	}
	stats.rebalance.Add(context.Background(), 1, insertRebalanceAttrs)
}

func (stats *rbtreeStats) IncreaseEraseRebalance() {
	if stats == nil {
		return
	}
	stats.rebalance.Add(context.Background(), 1, eraseRebalanceAttrs)
}

func newRBTreeStats(name string) *rbtreeStats {
	meter := otel.Meter(fmt.Sprintf("%s/%s", RBTreeStatsName, name))
	return &rbtreeStats{
		nodes: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"rbtree.node.count",
			metric.WithDescription("The number of elements held by the tree."),
		)),
		rotations: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.rotations",
			metric.WithDescription("The number of rotations."),
		)),
		rebalance: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.rebalance",
			metric.WithDescription("The number of insert and erase fixups that changed colors or shape."),
		)),
	}
}
