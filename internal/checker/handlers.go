package checker

import (
	"strconv"

	"github.com/elevio/tracecheck/internal/constants"
	"github.com/elevio/tracecheck/internal/domain"
	"github.com/elevio/tracecheck/internal/trace"
)

// Dispatch replays a single tokenized log event against the World,
// enforcing monotonicity and then routing by verb to the matching command
// handler. It never aborts: every violation is recorded and the replay
// continues, per spec.md §7/§9's fatal/non-fatal split.
func (w *World) Dispatch(ev trace.Event) {
	if ev.Malformed {
		w.recordError(domain.ErrParse, "unable to parse log line: "+ev.ParseErr.Error(), ev.Time, ev.Raw)
		return
	}

	w.checkMonotonic(ev.Time, ev.Raw)

	switch ev.Verb {
	case "ARRIVE":
		w.handleArrive(ev)
	case "OPEN":
		w.handleOpen(ev)
	case "CLOSE":
		w.handleClose(ev)
	case "RECEIVE":
		w.handleReceive(ev)
	case "IN":
		w.handleIn(ev)
	case "OUT":
		w.handleOut(ev)
	case "SCHE-ACCEPT":
		w.handleScheAccept(ev)
	case "SCHE-BEGIN":
		w.handleScheBegin(ev)
	case "SCHE-END":
		w.handleScheEnd(ev)
	case "UPDATE-ACCEPT":
		w.handleUpdateAccept(ev)
	case "UPDATE-BEGIN":
		w.handleUpdateBegin(ev)
	case "UPDATE-END":
		w.handleUpdateEnd(ev)
	default:
		w.recordError(domain.ErrParse, "unknown command verb: "+ev.Verb, ev.Time, ev.Raw)
	}
}

// trailingFloorAndCar parses the shared "...-<floor>-<car>" suffix used by
// ARRIVE, OPEN, and CLOSE: floor is the second-to-last token, car id the
// last, converted from 1-based to 0-based.
func trailingFloorAndCar(args []string) (floor domain.Floor, floorOK bool, carIdx int, carOK bool) {
	if len(args) < 2 {
		return 0, false, 0, false
	}
	floor, floorOK = domain.ParseFloor(args[len(args)-2])
	n, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return floor, floorOK, 0, false
	}
	return floor, floorOK, n - 1, true
}

func (w *World) handleArrive(ev trace.Event) {
	floor, floorOK, carIdx, carOK := trailingFloorAndCar(ev.Args)
	if !carOK {
		w.recordError(domain.ErrParse, "ARRIVE: malformed car id", ev.Time, ev.Raw)
		return
	}
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}
	if !floorOK {
		w.recordError(domain.ErrParse, "ARRIVE: malformed floor", ev.Time, ev.Raw)
		return
	}

	if floor.Distance(car.Floor) != 1 {
		w.recordError(domain.ErrMotion, "car moved more than one floor", ev.Time, ev.Raw)
	}
	if !car.DoorClosed {
		w.recordError(domain.ErrMotion, "car moved with door open", ev.Time, ev.Raw)
	}
	if car.Mode == domain.ModeNormal && car.Empty() && len(car.Receives) == 0 {
		w.recordError(domain.ErrMotion, "idle car moved with no occupants or receives", ev.Time, ev.Raw)
	}

	if car.Mode == domain.ModePreSche {
		car.SCHEArriveBudget++
		if car.SCHEArriveBudget > constants.MaxArriveBudget {
			w.recordError(domain.ErrModeTrans, "SCHE pre-state ARRIVE budget exceeded", ev.Time, ev.Raw)
		}
	}
	if car.Mode == domain.ModePreUpdate {
		car.UpdateArriveBudget++
		if car.UpdateArriveBudget > constants.MaxArriveBudget {
			w.recordError(domain.ErrModeTrans, "UPDATE pre-state ARRIVE budget exceeded", ev.Time, ev.Raw)
		}
	}

	if car.LastAction == "CLOSE" || car.LastAction == "ARRIVE" {
		dt := ev.Time - car.LastActionTick
		expected := car.ExpectedFloorInterval()
		if dt < expected-w.Tolerances.Motion {
			w.recordError(domain.ErrMotion, "motion interval below minimum", ev.Time, ev.Raw)
		}
	}

	car.LastAction = "ARRIVE"
	car.LastActionTick = ev.Time
	car.Floor = floor

	if car.Mode == domain.ModeAfterUpdate && car.Partner != domain.NoPartner {
		partner := w.Cars[car.Partner]
		if partner.Mode == domain.ModeAfterUpdate && car.Floor == partner.Floor {
			w.recordError(domain.ErrPartner, "partner cars share a floor", ev.Time, ev.Raw)
		}
	}

	if car.Floor > car.Top || car.Floor < car.Base {
		w.recordError(domain.ErrMotion, "car moved out of range", ev.Time, ev.Raw)
	}

	w.Watt += car.MotionEnergy()
	w.publishSnapshot(car, ev.Time)
}

func (w *World) handleOpen(ev trace.Event) {
	floor, floorOK, carIdx, carOK := trailingFloorAndCar(ev.Args)
	if !carOK {
		w.recordError(domain.ErrParse, "OPEN: malformed car id", ev.Time, ev.Raw)
		return
	}
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}
	if !floorOK {
		w.recordError(domain.ErrParse, "OPEN: malformed floor", ev.Time, ev.Raw)
		return
	}

	if car.Floor != floor {
		w.recordError(domain.ErrDoor, "OPEN at wrong floor", ev.Time, ev.Raw)
		return
	}

	if (car.Mode == domain.ModeInSche || car.Mode == domain.ModeInUpdate) {
		target := car.SCHETarget
		if car.Mode == domain.ModeInUpdate {
			target = car.UpdateTarget
		}
		if floor != target {
			w.recordError(domain.ErrDoor, "OPEN at non-target floor during override", ev.Time, ev.Raw)
		}
	}

	car.LastAction = "OPEN"
	car.LastActionTick = ev.Time
	car.LastOpenTick = ev.Time
	car.DoorClosed = false
	w.Watt += 0.1
	w.publishSnapshot(car, ev.Time)
}

func (w *World) handleClose(ev trace.Event) {
	floor, floorOK, carIdx, carOK := trailingFloorAndCar(ev.Args)
	if !carOK {
		w.recordError(domain.ErrParse, "CLOSE: malformed car id", ev.Time, ev.Raw)
		return
	}
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}
	if !floorOK {
		w.recordError(domain.ErrParse, "CLOSE: malformed floor", ev.Time, ev.Raw)
		return
	}

	if car.Floor != floor {
		w.recordError(domain.ErrDoor, "CLOSE at wrong floor", ev.Time, ev.Raw)
	}
	if car.DoorClosed {
		w.recordError(domain.ErrDoor, "double close", ev.Time, ev.Raw)
	}

	if car.LastOpenTick > 0 {
		duration := ev.Time - car.LastOpenTick
		required := constants.DefaultDoorHold
		if car.Mode == domain.ModeInSche || car.Mode == domain.ModeInUpdate {
			required = constants.OverrideDoorHold
		}
		if duration < required-w.Tolerances.Door {
			w.recordError(domain.ErrDoor, "door hold shorter than required", ev.Time, ev.Raw)
		}
	}

	car.LastAction = "CLOSE"
	car.LastActionTick = ev.Time
	car.LastCloseTick = ev.Time
	car.DoorClosed = true
	w.Watt += 0.1
	w.publishSnapshot(car, ev.Time)
}

func (w *World) handleReceive(ev trace.Event) {
	if len(ev.Args) < 2 {
		w.recordError(domain.ErrParse, "RECEIVE: malformed arguments", ev.Time, ev.Raw)
		return
	}
	pid, err1 := strconv.Atoi(ev.Args[0])
	carID, err2 := strconv.Atoi(ev.Args[1])
	if err1 != nil || err2 != nil {
		w.recordError(domain.ErrParse, "RECEIVE: non-numeric fields", ev.Time, ev.Raw)
		return
	}
	carIdx := carID - 1
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}

	if car.Mode.ReceiveForbidden() {
		w.recordError(domain.ErrAssignment, "RECEIVE forbidden in current mode", ev.Time, ev.Raw)
	} else if _, ok := w.ReceiveAssign[pid]; ok {
		w.recordError(domain.ErrAssignment, "duplicate RECEIVE assignment", ev.Time, ev.Raw)
	} else {
		w.ReceiveAssign[pid] = carIdx
		car.Receives[pid] = struct{}{}
	}

	car.LastAction = "RECEIVE"
	car.LastActionTick = ev.Time
}

func (w *World) handleIn(ev trace.Event) {
	if len(ev.Args) < 3 {
		w.recordError(domain.ErrParse, "IN: malformed arguments", ev.Time, ev.Raw)
		return
	}
	pid, err1 := strconv.Atoi(ev.Args[0])
	floor, floorOK := domain.ParseFloor(ev.Args[1])
	carID, err2 := strconv.Atoi(ev.Args[2])
	if err1 != nil || err2 != nil || !floorOK {
		w.recordError(domain.ErrParse, "IN: malformed fields", ev.Time, ev.Raw)
		return
	}
	carIdx := carID - 1
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}

	passenger, known := w.Passengers[pid]
	if !known {
		w.recordError(domain.ErrRide, "IN references unknown passenger", ev.Time, ev.Raw)
		return
	}

	if car.DoorClosed {
		w.recordError(domain.ErrRide, "IN while door closed", ev.Time, ev.Raw)
	}
	if car.Floor != floor {
		w.recordError(domain.ErrRide, "IN at wrong floor", ev.Time, ev.Raw)
	}
	if assigned, ok := w.ReceiveAssign[pid]; !ok || assigned != carIdx {
		w.recordError(domain.ErrAssignment, "IN without matching RECEIVE assignment", ev.Time, ev.Raw)
	}

	delete(car.Receives, pid)
	delete(w.ReceiveAssign, pid)
	car.Occupants[pid] = struct{}{}
	passenger.AssignedCar = carIdx

	if car.OccupantCount() > constants.MaxOccupants {
		w.recordError(domain.ErrCapacity, "car overloaded", ev.Time, ev.Raw)
	}

	car.LastAction = "IN"
	car.LastActionTick = ev.Time
	w.publishSnapshot(car, ev.Time)
}

func (w *World) handleOut(ev trace.Event) {
	if len(ev.Args) < 4 {
		w.recordError(domain.ErrParse, "OUT: malformed arguments", ev.Time, ev.Raw)
		return
	}
	outcome := ev.Args[0]
	pid, err1 := strconv.Atoi(ev.Args[1])
	floor, floorOK := domain.ParseFloor(ev.Args[2])
	carID, err2 := strconv.Atoi(ev.Args[3])
	if outcome != "S" && outcome != "F" {
		w.recordError(domain.ErrParse, "OUT: outcome must be S or F", ev.Time, ev.Raw)
		return
	}
	if err1 != nil || err2 != nil || !floorOK {
		w.recordError(domain.ErrParse, "OUT: malformed fields", ev.Time, ev.Raw)
		return
	}
	carIdx := carID - 1
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}

	passenger, known := w.Passengers[pid]
	if !known {
		w.recordError(domain.ErrRide, "OUT references unknown passenger", ev.Time, ev.Raw)
		return
	}

	if car.DoorClosed {
		w.recordError(domain.ErrRide, "OUT while door closed", ev.Time, ev.Raw)
	}
	if car.Floor != floor {
		w.recordError(domain.ErrRide, "OUT at wrong floor", ev.Time, ev.Raw)
	}
	if !car.HasOccupant(pid) {
		w.recordError(domain.ErrRide, "OUT for non-occupant", ev.Time, ev.Raw)
	}

	if outcome == "S" {
		if floor != passenger.Destination {
			w.recordError(domain.ErrRide, "OUT-S at non-destination floor", ev.Time, ev.Raw)
		}
		passenger.MarkArrived(ev.Time)
	} else {
		if floor == passenger.Destination {
			w.recordError(domain.ErrRide, "OUT-F at destination floor", ev.Time, ev.Raw)
		}
	}

	car.RemoveOccupant(pid)
	// Defensive: clear any residual assignment even if IN already cleared
	// it, matching the source's behavior for a controller that re-queues a
	// passenger between IN and OUT (spec.md §9).
	delete(w.ReceiveAssign, pid)
	passenger.CurrentFloor = car.Floor
	passenger.AssignedCar = domain.UnassignedCar

	car.LastAction = "OUT"
	car.LastActionTick = ev.Time
	w.publishSnapshot(car, ev.Time)
}

func (w *World) handleScheAccept(ev trace.Event) {
	if len(ev.Args) < 3 {
		w.recordError(domain.ErrParse, "SCHE-ACCEPT: malformed arguments", ev.Time, ev.Raw)
		return
	}
	carID, err1 := strconv.Atoi(ev.Args[0])
	speed, err2 := strconv.ParseFloat(ev.Args[1], 64)
	target, floorOK := domain.ParseFloor(ev.Args[2])
	if err1 != nil || err2 != nil || !floorOK {
		w.recordError(domain.ErrParse, "SCHE-ACCEPT: malformed fields", ev.Time, ev.Raw)
		return
	}
	car := w.car(carID-1, ev.Time, ev.Raw)
	if car == nil {
		return
	}

	car.Mode = domain.ModePreSche
	car.SCHESpeed = speed
	car.SCHETarget = target
	car.SCHEAcceptTick = ev.Time
	car.SCHEArriveBudget = 0
	car.LastAction = "SCHE-ACCEPT"
	car.LastActionTick = ev.Time
}

func (w *World) handleScheBegin(ev trace.Event) {
	if len(ev.Args) < 1 {
		w.recordError(domain.ErrParse, "SCHE-BEGIN: malformed arguments", ev.Time, ev.Raw)
		return
	}
	carID, err := strconv.Atoi(ev.Args[0])
	if err != nil {
		w.recordError(domain.ErrParse, "SCHE-BEGIN: malformed car id", ev.Time, ev.Raw)
		return
	}
	carIdx := carID - 1
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}

	if car.Mode != domain.ModePreSche {
		w.recordError(domain.ErrModeTrans, "SCHE-BEGIN without prior SCHE-ACCEPT", ev.Time, ev.Raw)
	}
	if !car.DoorClosed {
		w.recordError(domain.ErrModeTrans, "SCHE-BEGIN with door open", ev.Time, ev.Raw)
	}

	car.Mode = domain.ModeInSche
	car.LastAction = "SCHE-BEGIN"
	car.LastActionTick = ev.Time
	w.clearGlobalReceive(carIdx)
}

func (w *World) handleScheEnd(ev trace.Event) {
	if len(ev.Args) < 1 {
		w.recordError(domain.ErrParse, "SCHE-END: malformed arguments", ev.Time, ev.Raw)
		return
	}
	carID, err := strconv.Atoi(ev.Args[0])
	if err != nil {
		w.recordError(domain.ErrParse, "SCHE-END: malformed car id", ev.Time, ev.Raw)
		return
	}
	carIdx := carID - 1
	car := w.car(carIdx, ev.Time, ev.Raw)
	if car == nil {
		return
	}

	if car.Mode != domain.ModeInSche {
		w.recordError(domain.ErrModeTrans, "SCHE-END without entering SCHE", ev.Time, ev.Raw)
	}
	if ev.Time-car.SCHEAcceptTick > constants.OverrideDeadline+w.Tolerances.Deadline {
		w.recordError(domain.ErrModeTrans, "SCHE deadline exceeded", ev.Time, ev.Raw)
	}
	if !car.Empty() {
		w.recordError(domain.ErrModeTrans, "SCHE-END with non-empty car", ev.Time, ev.Raw)
	}
	if !car.DoorClosed {
		w.recordError(domain.ErrModeTrans, "SCHE-END with door open", ev.Time, ev.Raw)
	}

	car.Mode = domain.ModeNormal
	car.ResetSCHE()
	w.clearGlobalReceive(carIdx)
	car.LastAction = "SCHE-END"
	car.LastActionTick = ev.Time
}

func (w *World) handleUpdateAccept(ev trace.Event) {
	if len(ev.Args) < 3 {
		w.recordError(domain.ErrParse, "UPDATE-ACCEPT: malformed arguments", ev.Time, ev.Raw)
		return
	}
	aID, err1 := strconv.Atoi(ev.Args[0])
	bID, err2 := strconv.Atoi(ev.Args[1])
	target, floorOK := domain.ParseFloor(ev.Args[2])
	if err1 != nil || err2 != nil || !floorOK {
		w.recordError(domain.ErrParse, "UPDATE-ACCEPT: malformed fields", ev.Time, ev.Raw)
		return
	}
	a := w.car(aID-1, ev.Time, ev.Raw)
	b := w.car(bID-1, ev.Time, ev.Raw)
	if a == nil || b == nil {
		return
	}

	a.Mode = domain.ModePreUpdate
	b.Mode = domain.ModePreUpdate
	a.Partner = bID - 1
	b.Partner = aID - 1
	a.UpdateTarget = target
	b.UpdateTarget = target
	a.UpdateAcceptTick = ev.Time
	b.UpdateAcceptTick = ev.Time
	a.UpdateArriveBudget = 0
	b.UpdateArriveBudget = 0
	a.LastAction = "UPDATE-ACCEPT"
	a.LastActionTick = ev.Time
	b.LastAction = "UPDATE-ACCEPT"
	b.LastActionTick = ev.Time
}

func (w *World) handleUpdateBegin(ev trace.Event) {
	if len(ev.Args) < 2 {
		w.recordError(domain.ErrParse, "UPDATE-BEGIN: malformed arguments", ev.Time, ev.Raw)
		return
	}
	aID, err1 := strconv.Atoi(ev.Args[0])
	bID, err2 := strconv.Atoi(ev.Args[1])
	if err1 != nil || err2 != nil {
		w.recordError(domain.ErrParse, "UPDATE-BEGIN: malformed car ids", ev.Time, ev.Raw)
		return
	}
	aIdx, bIdx := aID-1, bID-1
	a := w.car(aIdx, ev.Time, ev.Raw)
	b := w.car(bIdx, ev.Time, ev.Raw)
	if a == nil || b == nil {
		return
	}

	if !(a.DoorClosed && b.DoorClosed) {
		w.recordError(domain.ErrModeTrans, "UPDATE-BEGIN with a door open", ev.Time, ev.Raw)
	}
	if !a.Empty() || !b.Empty() {
		w.recordError(domain.ErrModeTrans, "UPDATE-BEGIN with a non-empty car", ev.Time, ev.Raw)
	}
	if a.UpdateArriveBudget > constants.MaxArriveBudget || b.UpdateArriveBudget > constants.MaxArriveBudget {
		w.recordError(domain.ErrModeTrans, "UPDATE-BEGIN after arrive budget exceeded", ev.Time, ev.Raw)
	}

	a.Mode = domain.ModeInUpdate
	b.Mode = domain.ModeInUpdate
	a.Base = a.UpdateTarget
	b.Top = b.UpdateTarget
	a.UpdateBeginTick = ev.Time
	b.UpdateBeginTick = ev.Time
	a.LastAction = "UPDATE-BEGIN"
	a.LastActionTick = ev.Time
	b.LastAction = "UPDATE-BEGIN"
	b.LastActionTick = ev.Time
	w.clearGlobalReceive(aIdx)
	w.clearGlobalReceive(bIdx)
}

func (w *World) handleUpdateEnd(ev trace.Event) {
	if len(ev.Args) < 2 {
		w.recordError(domain.ErrParse, "UPDATE-END: malformed arguments", ev.Time, ev.Raw)
		return
	}
	aID, err1 := strconv.Atoi(ev.Args[0])
	bID, err2 := strconv.Atoi(ev.Args[1])
	if err1 != nil || err2 != nil {
		w.recordError(domain.ErrParse, "UPDATE-END: malformed car ids", ev.Time, ev.Raw)
		return
	}
	aIdx, bIdx := aID-1, bID-1
	a := w.car(aIdx, ev.Time, ev.Raw)
	b := w.car(bIdx, ev.Time, ev.Raw)
	if a == nil || b == nil {
		return
	}

	if ev.Time-a.UpdateAcceptTick > constants.OverrideDeadline+w.Tolerances.Deadline ||
		ev.Time-b.UpdateAcceptTick > constants.OverrideDeadline+w.Tolerances.Deadline {
		w.recordError(domain.ErrModeTrans, "UPDATE deadline exceeded", ev.Time, ev.Raw)
	}
	if !(a.DoorClosed && b.DoorClosed) {
		w.recordError(domain.ErrModeTrans, "UPDATE-END with a door open", ev.Time, ev.Raw)
	}
	if !a.Empty() || !b.Empty() {
		w.recordError(domain.ErrModeTrans, "UPDATE-END with a non-empty car", ev.Time, ev.Raw)
	}

	if a.Mode == domain.ModeInUpdate {
		if ev.Time-a.UpdateBeginTick < constants.UpdateTransformFloor-w.Tolerances.Transform {
			w.recordError(domain.ErrModeTrans, "UPDATE transform time too short", ev.Time, ev.Raw)
		}
	} else {
		w.recordError(domain.ErrModeTrans, "UPDATE-END without prior UPDATE-BEGIN", ev.Time, ev.Raw)
	}
	if b.Mode == domain.ModeInUpdate {
		if ev.Time-b.UpdateBeginTick < constants.UpdateTransformFloor-w.Tolerances.Transform {
			w.recordError(domain.ErrModeTrans, "UPDATE transform time too short", ev.Time, ev.Raw)
		}
	} else {
		w.recordError(domain.ErrModeTrans, "UPDATE-END without prior UPDATE-BEGIN", ev.Time, ev.Raw)
	}

	a.Floor = a.UpdateTarget + 1
	b.Floor = b.UpdateTarget - 1
	a.Mode = domain.ModeAfterUpdate
	b.Mode = domain.ModeAfterUpdate
	a.ResetUpdate()
	b.ResetUpdate()
	w.clearGlobalReceive(aIdx)
	w.clearGlobalReceive(bIdx)
	a.LastAction = "UPDATE-END"
	a.LastActionTick = ev.Time
	b.LastAction = "UPDATE-END"
	b.LastActionTick = ev.Time
}
