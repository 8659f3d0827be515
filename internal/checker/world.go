// Package checker is the core validator: it owns the World of six cars and
// all passengers, replays a tokenized execution log against it one event
// at a time, and produces a Report of violations or acceptance statistics.
package checker

import (
	"log/slog"

	"github.com/elevio/tracecheck/internal/constants"
	"github.com/elevio/tracecheck/internal/domain"
	"github.com/elevio/tracecheck/internal/script"
)

// World is the single owner of all mutable state threaded through the
// dispatcher, replacing the module-level globals of the source checker
// (receive_assign, watt, last_output_tick, error_count) with one struct so
// the checker can be run repeatedly, in-process, over independent logs.
type World struct {
	Cars       [constants.CarCount]*domain.Car
	Passengers map[int]*domain.Passenger

	// ReceiveAssign mirrors the union of every car's Receives set; a
	// passenger id appears here at most once at any point in the replay.
	ReceiveAssign map[int]int

	Watt           float64
	LastOutputTick float64

	Errors                []*domain.CheckError
	PerCategoryErrorCount map[domain.ErrCategory]int

	log      *slog.Logger
	auditLog *slog.Logger

	// Snapshots, when non-nil, receives a CarSnapshot after each ARRIVE,
	// OPEN, CLOSE, IN, or OUT event the handler commits (RECEIVE and the
	// SCHE/UPDATE verbs publish none); feeds the optional live monitor and
	// is never consulted by any invariant.
	Snapshots chan<- domain.CarSnapshot

	// Tolerances holds the slack applied to motion/door/deadline/transform
	// comparisons. Defaults to constants.*Slack; StrictTolerances collapses
	// all four to zero.
	Tolerances Tolerances
}

// Tolerances is the floating-point slack the command handlers allow when
// comparing observed ticks against the timing a command implies. Every
// field defaults to the corresponding constants.*Slack value; running with
// zeroed tolerances turns the checker into a bit-for-bit reference timing
// check, useful for regression-hunting a controller against a
// zero-forgiveness baseline.
type Tolerances struct {
	Motion    float64
	Door      float64
	Deadline  float64
	Transform float64
}

// DefaultTolerances returns the slack values spec.md's numeric-tolerances
// table specifies.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Motion:    constants.MotionToleranceSlack,
		Door:      constants.DoorToleranceSlack,
		Deadline:  constants.DeadlineSlack,
		Transform: constants.TransformSlack,
	}
}

// NewWorld builds a World with six cars at rest, clamped to the default
// floor range, and the given parsed script.
func NewWorld(sc *script.Script, log *slog.Logger) *World {
	return NewWorldWithFloorBounds(sc, log, domain.DefaultBase, domain.DefaultTop)
}

// NewWorldWithFloorBounds builds a World whose six cars start clamped to
// [base, top] instead of the default floor range, for a checker run
// configured with a narrower MinFloor/MaxFloor than the building's full
// extent.
func NewWorldWithFloorBounds(sc *script.Script, log *slog.Logger, base, top domain.Floor) *World {
	if log == nil {
		log = slog.Default()
	}

	w := &World{
		Passengers:            sc.Passengers,
		ReceiveAssign:         make(map[int]int),
		PerCategoryErrorCount: make(map[domain.ErrCategory]int),
		log:                   log,
		auditLog:              log,
		Tolerances:            DefaultTolerances(),
	}
	for i := 0; i < constants.CarCount; i++ {
		w.Cars[i] = domain.NewCarWithBounds(i, base, top)
	}
	return w
}

// recordError appends a non-fatal violation to the ordered error list and
// bumps its category counter. The checker never aborts on these; only a
// request-script parse failure is fatal (spec.md §7, §9).
func (w *World) recordError(category domain.ErrCategory, message string, tick float64, line string) {
	ce := domain.NewCheckError(category, message, nil).WithTick(tick, line)
	w.Errors = append(w.Errors, ce)
	w.PerCategoryErrorCount[category]++
	w.log.Debug("recorded violation",
		slog.String("category", string(category)),
		slog.String("message", message),
		slog.Float64("tick", tick))
}

// ErrorCount returns the total number of recorded violations.
func (w *World) ErrorCount() int {
	return len(w.Errors)
}

// checkMonotonic enforces that tick never decreases across the replay,
// then advances LastOutputTick. Equal ticks are permitted.
func (w *World) checkMonotonic(tick float64, line string) {
	if tick < w.LastOutputTick {
		w.recordError(domain.ErrMonotonic, "timestamp decreased", tick, line)
		return
	}
	w.LastOutputTick = tick
}

// car returns the car at the given 0-based index, or nil with a recorded
// parse error if the index is out of the fleet's range.
func (w *World) car(idx int, tick float64, line string) *domain.Car {
	if idx < 0 || idx >= constants.CarCount {
		w.recordError(domain.ErrParse, "car index out of range", tick, line)
		return nil
	}
	return w.Cars[idx]
}

// clearGlobalReceive drops every ReceiveAssign entry pointing at car idx,
// keeping it in sync with the car's own Receives set, mirroring the
// source's clear_global_receive helper.
func (w *World) clearGlobalReceive(idx int) {
	for pid, assigned := range w.ReceiveAssign {
		if assigned == idx {
			delete(w.ReceiveAssign, pid)
		}
	}
	w.Cars[idx].ClearReceives()
}

// publishSnapshot pushes a non-blocking CarSnapshot for the live monitor.
// A full or absent channel never stalls the replay.
func (w *World) publishSnapshot(car *domain.Car, tick float64) {
	if w.Snapshots == nil {
		return
	}
	snap := domain.CarSnapshot{
		Tick:       tick,
		Car:        car.Index,
		Floor:      car.Floor.Format(),
		Mode:       car.Mode.String(),
		DoorClosed: car.DoorClosed,
		Occupants:  car.OccupantCount(),
		LastAction: car.LastAction,
	}
	select {
	case w.Snapshots <- snap:
	default:
	}
}
