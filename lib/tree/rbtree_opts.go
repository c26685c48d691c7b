package tree

import (
	"strings"

	"go.uber.org/multierr"

	"github.com/benz9527/xstl/lib/alloc"
	"github.com/benz9527/xstl/lib/infra"
	"github.com/benz9527/xstl/xlog"
)

type rbTreeCfg struct {
	allocOpts []alloc.Option
	ctor      any // alloc.Constructor[V], checked by NewRBTree
	logger    xlog.XLogger
	statsName string
	isDesc    bool
}

type RBTreeOpt func(*rbTreeCfg) error

// WithRBTreeAllocator sets how the node storage is allocated, the
// heap strategy is used by default. The header is not allocated from it.
func WithRBTreeAllocator(opts ...alloc.Option) RBTreeOpt {
	return func(cfg *rbTreeCfg) error {
		cfg.allocOpts = append(cfg.allocOpts, opts...)
		return nil
	}
}

// WithRBTreeConstructor sets how the element values are built into and
// torn down from the nodes. V must be the value type of the tree.
func WithRBTreeConstructor[V any](ctor alloc.Constructor[V]) RBTreeOpt {
	return func(cfg *rbTreeCfg) error {
		if ctor == nil {
			return infra.WrapErrorStackWithMessage(ErrRBTreeInvalidOption, "nil constructor")
		}
		cfg.ctor = ctor
		return nil
	}
}

func WithRBTreeLogger(logger xlog.XLogger) RBTreeOpt {
	return func(cfg *rbTreeCfg) error {
		if logger == nil {
			return infra.WrapErrorStackWithMessage(ErrRBTreeInvalidOption, "nil logger")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRBTreeStats records the tree stats under the otel meter
// "xstl/rbtree/<name>".
func WithRBTreeStats(name string) RBTreeOpt {
	return func(cfg *rbTreeCfg) error {
		if len(strings.TrimSpace(name)) == 0 {
			return infra.WrapErrorStackWithMessage(ErrRBTreeInvalidOption, "empty stats name")
		}
		cfg.statsName = name
		return nil
	}
}

// WithRBTreeDesc reverses the order of the comparator.
func WithRBTreeDesc() RBTreeOpt {
	return func(cfg *rbTreeCfg) error {
		cfg.isDesc = true
		return nil
	}
}

func loadRBTreeCfg(opts ...RBTreeOpt) (*rbTreeCfg, error) {
	cfg := &rbTreeCfg{}
	var merr error
	for _, o := range opts {
		if o == nil {
			continue
		}
		merr = multierr.Append(merr, o(cfg))
	}
	if merr != nil {
		return nil, merr
	}
	if cfg.logger == nil {
		cfg.logger = xlog.NewNopXLogger()
	}
	return cfg, nil
}

// cfg rebuilds the options a clone of the tree is built with.
func (tree *rbTree[K, V, X]) cfg() *rbTreeCfg {
	return &rbTreeCfg{
		allocOpts: tree.allocOpts,
		ctor:      tree.ctor,
		logger:    tree.logger,
		statsName: tree.statsName,
	}
}
