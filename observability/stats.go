package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xstl/xlog"
)

const (
	ProcessStatsName = "xstl/process"
)

var (
	once sync.Once
)

type processStats struct {
	ctx              context.Context
	logger           xlog.XLogger
	shutdownCallback func(ctx context.Context) error
	undoMaxProcs     func()
	proc             *process.Process
	goroutines       metric.Int64ObservableUpDownCounter
	maxProcs         metric.Int64ObservableUpDownCounter
	rss              metric.Int64ObservableUpDownCounter
}

func (stats *processStats) waitForShutdown() {
	if stats == nil {
		return
	}
	go func() {
		<-stats.ctx.Done()
		if stats.shutdownCallback != nil {
			if err := stats.shutdownCallback(context.Background()); err != nil {
				stats.logger.Error(err, "process stats shutdown")
			}
		}
		if stats.undoMaxProcs != nil {
			stats.undoMaxProcs()
		}
	}()
}

func (stats *processStats) observeRSS(ctx context.Context, ob metric.Int64Observer) error {
	if stats.proc == nil {
		return nil
	}
	mem, err := stats.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return err
	}
	ob.Observe(int64(mem.RSS))
	return nil
}

type statsCfg struct {
	logger       xlog.XLogger
	shutdown     func(ctx context.Context) error
	autoMaxProcs bool
}

type StatsOption func(*statsCfg)

func WithStatsLogger(logger xlog.XLogger) StatsOption {
	return func(cfg *statsCfg) {
		cfg.logger = logger
	}
}

// WithStatsShutdown runs fn (an exporter shutdown) once ctx is done.
func WithStatsShutdown(fn func(ctx context.Context) error) StatsOption {
	return func(cfg *statsCfg) {
		cfg.shutdown = fn
	}
}

// WithAutoMaxProcs sets GOMAXPROCS to the container CPU quota.
func WithAutoMaxProcs() StatsOption {
	return func(cfg *statsCfg) {
		cfg.autoMaxProcs = true
	}
}

// InitProcessStats records the goroutines, GOMAXPROCS, resident memory
// and the go runtime stats of the process under the meter
// "xstl/process/<name>". Only the first call takes effect.
func InitProcessStats(ctx context.Context, name string, opts ...StatsOption) {
	once.Do(func() {
		cfg := &statsCfg{}
		for _, o := range opts {
			if o != nil {
				o(cfg)
			}
		}
		if cfg.logger == nil {
			cfg.logger = xlog.NewNopXLogger()
		}

		builder := &strings.Builder{}
		builder.WriteString(ProcessStatsName)
		builder.WriteString("/")
		if len(strings.TrimSpace(name)) > 0 {
			builder.WriteString(name)
		} else {
			builder.WriteString("default")
		}
		name = builder.String()

		stats := &processStats{
			ctx:              ctx,
			logger:           cfg.logger.Named("stats"),
			shutdownCallback: cfg.shutdown,
		}
		if cfg.autoMaxProcs {
			undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
				stats.logger.Logf(zapcore.InfoLevel, format, args...)
			}))
			if err != nil {
				stats.logger.Warn("automaxprocs", zap.Error(err))
			}
			stats.undoMaxProcs = undo
		}
		proc, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			stats.logger.Warn("process stats without resident memory", zap.Error(err))
		}
		stats.proc = proc

		meter := otel.Meter(name, metric.WithInstrumentationVersion(otelruntime.Version()))
		stats.goroutines = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"process.goroutines",
			metric.WithDescription(`The number of goroutines.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()))
				return nil
			}),
		))
		stats.maxProcs = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"process.gomaxprocs",
			metric.WithDescription(`The GOMAXPROCS of the process.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)))
				return nil
			}),
		))
		stats.rss = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"process.memory.rss",
			metric.WithDescription(`The resident memory of the process.`),
			metric.WithUnit("By"),
			metric.WithInt64Callback(stats.observeRSS),
		))
		if err = otelruntime.Start(otelruntime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
			stats.logger.Warn("go runtime stats", zap.Error(err))
		}
		stats.waitForShutdown()
	})
}
