package checker

import (
	"sort"

	"github.com/elevio/tracecheck/internal/domain"
)

// TerminalAudit sweeps all cars and passengers once the log is fully
// consumed, enforcing the completion invariants of spec.md §4.12. It
// records violations the same way the command handlers do; it never
// aborts, matching the non-fatal collection policy for log-derived errors.
func (w *World) TerminalAudit() {
	w.auditLog.Debug("beginning terminal audit", "car_count", len(w.Cars), "passenger_count", len(w.Passengers))

	for _, car := range w.Cars {
		if car.Mode == domain.ModeAfterUpdate && car.Partner != domain.NoPartner {
			partner := w.Cars[car.Partner]
			if partner.Mode == domain.ModeAfterUpdate && car.Floor == partner.Floor {
				w.recordError(domain.ErrPartner, "partner cars share a floor at end of run", w.LastOutputTick, "")
			}
		}
	}

	for _, car := range w.Cars {
		if !car.DoorClosed {
			w.recordError(domain.ErrTerminal, "car door open at end of run", w.LastOutputTick, "")
		}
		if !car.Empty() {
			w.recordError(domain.ErrTerminal, "car carries passengers at end of run", w.LastOutputTick, "")
		}
		if len(car.Receives) != 0 {
			w.recordError(domain.ErrTerminal, "car has unresolved RECEIVE assignments at end of run", w.LastOutputTick, "")
		}
		if car.Mode == domain.ModeInSche {
			w.recordError(domain.ErrTerminal, "car left in an unfinished SCHE workflow", w.LastOutputTick, "")
		}
		if car.Mode == domain.ModeInUpdate {
			w.recordError(domain.ErrTerminal, "car left in an unfinished UPDATE workflow", w.LastOutputTick, "")
		}
	}

	for _, pid := range sortedPassengerIDs(w.Passengers) {
		p := w.Passengers[pid]
		if p.CurrentFloor != p.Destination {
			w.recordError(domain.ErrTerminal, "passenger did not reach destination", w.LastOutputTick, "")
		}
	}
}

func sortedPassengerIDs(passengers map[int]*domain.Passenger) []int {
	ids := make([]int, 0, len(passengers))
	for id := range passengers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
