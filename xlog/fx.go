package xlog

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger prints the fx application events by XLogger.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "HOOK OnStart failed",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
				zap.Int64("in", int64(e.Runtime)),
			)
			return
		}
		l.logger.Debug("HOOK OnStart successfully",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
			zap.Int64("in", int64(e.Runtime)),
		)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "HOOK OnStop failed",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
				zap.Int64("in", int64(e.Runtime)),
			)
			return
		}
		l.logger.Debug("HOOK OnStop successfully",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
			zap.Int64("in", int64(e.Runtime)),
		)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "SUPPLY ERROR", zap.String("type", e.TypeName))
			return
		}
		l.logger.Debug("SUPPLY", zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "PROVIDE ERROR", zap.String("constructor", e.ConstructorName))
			return
		}
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("PROVIDE",
				zap.String("rtype", rtype),
				zap.String("constructor", e.ConstructorName),
				zap.String("module", e.ModuleName),
			)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "INVOKE FAILED", zap.String("function", e.FunctionName))
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "START FAILED")
			return
		}
		l.logger.Info("STARTED")
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "STOP FAILED")
			return
		}
		l.logger.Info("STOPPED")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "custom logger initialization failed")
		}
	default:
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{
		logger: logger.Named("fx"),
	}
}

// Module provides an XLogger built from the supplied options and routes
// the fx events through it.
func Module(opts ...XLoggerOption) fx.Option {
	return fx.Options(
		fx.Provide(func() XLogger {
			return NewXLogger(opts...)
		}),
		fx.WithLogger(func(logger XLogger) fxevent.Logger {
			return NewFxXLogger(logger)
		}),
	)
}
