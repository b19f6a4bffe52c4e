package export

import (
	"context"

	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/logging"
)

// Sink receives completed exports, e.g. to upload or index them.
type Sink interface {
	Consume(ctx context.Context, a Artifacts) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a Artifacts) error

func (f SinkFunc) Consume(ctx context.Context, a Artifacts) error {
	return f(ctx, a)
}

// CompositeSink fans an export out to several sinks. A failing sink is
// logged and does not stop the others.
type CompositeSink struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewCompositeSink(logger *zap.Logger, sinks ...Sink) *CompositeSink {
	var active []Sink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &CompositeSink{sinks: active, logger: logging.OrNop(logger)}
}

func (cs *CompositeSink) Consume(ctx context.Context, a Artifacts) error {
	for _, sink := range cs.sinks {
		if err := sink.Consume(ctx, a); err != nil {
			cs.logger.Error("sink failed to consume export",
				zap.String("experiment", a.ExperimentID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Len returns the number of attached sinks.
func (cs *CompositeSink) Len() int {
	return len(cs.sinks)
}
