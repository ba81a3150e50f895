package trace

import (
	"go.uber.org/zap"
)

// ZapTracer forwards events to a zap logger at debug level.
type ZapTracer struct {
	log   *zap.Logger
	level Level
}

// NewZapTracer wraps l. A nil logger yields Nop.
func NewZapTracer(l *zap.Logger, level Level) Tracer {
	if l == nil || level == LevelOff {
		return Nop
	}
	return &ZapTracer{log: l.Named("trace"), level: level}
}

func (t *ZapTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	fields := make([]zap.Field, 0, 6+len(ev.Extra))
	fields = append(fields,
		zap.String("kind", ev.Kind.String()),
		zap.String("scope", ev.Scope.String()),
		zap.Uint64("span", ev.SpanID),
		zap.Uint64("parent", ev.ParentID),
	)
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	for k, v := range ev.Extra {
		fields = append(fields, zap.String(k, v))
	}
	t.log.Debug(ev.Name, fields...)
}

func (t *ZapTracer) Flush() error {
	return t.log.Sync()
}

func (t *ZapTracer) Close() error {
	return t.Flush()
}

func (t *ZapTracer) Level() Level { return t.level }

func (t *ZapTracer) Enabled() bool { return t.level > LevelOff }
