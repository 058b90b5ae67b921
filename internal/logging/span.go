package logging

import (
	"context"
	"log/slog"
	"time"
)

// Span times one external call (an upload, a probe) within a request.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	now    func() time.Time
}

// StartSpan returns a context whose logger carries the span name and attrs.
func StartSpan(ctx context.Context, name string, attrs ...any) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := FromContext(ctx).With(slog.String("span", name)).With(attrs...)
	span := &Span{name: name, logger: logger, start: time.Now(), now: time.Now}
	return WithLogger(ctx, logger), span
}

// End logs the span duration. A non-nil err is logged at warn level.
func (s *Span) End(err error) time.Duration {
	if s == nil {
		return 0
	}
	elapsed := s.now().Sub(s.start)
	if err != nil {
		s.logger.Warn("span failed", slog.Duration("duration", elapsed), slog.Any("error", err))
		return elapsed
	}
	s.logger.Debug("span completed", slog.Duration("duration", elapsed))
	return elapsed
}
