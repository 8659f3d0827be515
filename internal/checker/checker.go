package checker

import (
	"context"
	"io"
	"log/slog"

	"github.com/elevio/tracecheck/internal/constants"
	"github.com/elevio/tracecheck/internal/domain"
	"github.com/elevio/tracecheck/internal/infra/logging"
	"github.com/elevio/tracecheck/internal/script"
	"github.com/elevio/tracecheck/internal/trace"
)

// Tracer is the minimal span-starting surface the checker needs from
// observability, satisfied by internal/infra/observability's tracer and
// trivially stubbed out in tests.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, func())
}

// noopTracer discards spans; used when no Tracer is supplied.
type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}

// Options configures a Run invocation.
type Options struct {
	Logger    *slog.Logger
	Tracer    Tracer
	Snapshots chan<- domain.CarSnapshot

	// StrictTolerances collapses every motion/door/deadline/transform
	// slack to zero, turning the checker into a zero-forgiveness timing
	// reference instead of the normally tolerant validator.
	StrictTolerances bool

	// MinFloor and MaxFloor clamp every car's starting floor range in
	// place of domain.DefaultBase/DefaultTop. Ignored unless
	// FloorBoundsSet is true, since 0 is itself a valid floor (F1) and so
	// can't double as an "unset" sentinel.
	MinFloor       int
	MaxFloor       int
	FloorBoundsSet bool
}

// Run executes the full pipeline against a request script and an
// execution log: parse, replay, audit, report. It is the entry point
// cmd/checker wires to the CLI's two input files.
func Run(ctx context.Context, scriptReader, logReader io.Reader, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noopTracer{}
	}

	_, endParse := tracer.Start(ctx, "checker.parse")
	sc, err := script.Parse(scriptReader, logging.ComponentLogger(logger, constants.ComponentParser))
	endParse()
	if err != nil {
		return Report{}, err
	}

	events, err := trace.Parse(logReader)
	if err != nil {
		return Report{}, domain.NewParseError("failed reading execution log", err)
	}

	checkerLogger := logging.ComponentLogger(logger, constants.ComponentChecker)
	var world *World
	if opts.FloorBoundsSet {
		world = NewWorldWithFloorBounds(sc, checkerLogger, domain.Floor(opts.MinFloor), domain.Floor(opts.MaxFloor))
	} else {
		world = NewWorld(sc, checkerLogger)
	}
	world.auditLog = logging.ComponentLogger(logger, constants.ComponentAudit)
	world.Snapshots = opts.Snapshots
	if opts.StrictTolerances {
		world.Tolerances = Tolerances{}
	}

	_, endReplay := tracer.Start(ctx, "checker.replay")
	for _, ev := range events {
		world.Dispatch(ev)
	}
	endReplay()

	_, endAudit := tracer.Start(ctx, "checker.audit")
	world.TerminalAudit()
	endAudit()

	return world.BuildReport(), nil
}
