package domain

import "github.com/elevio/tracecheck/internal/constants"

// NoPartner marks a car as not currently linked to another car by UPDATE.
const NoPartner = -1

// DefaultTop and DefaultBase are the floor range every car starts with,
// before any UPDATE workflow clips it.
const (
	DefaultTop  Floor = constants.MaxAllowedFloor
	DefaultBase Floor = constants.MinAllowedFloor
)

// Car is one of the six elevator cabins. It is mutated exclusively by the
// command handler currently processing a log event; there is no
// concurrent access (see the sequential replay model), so no locking.
type Car struct {
	Index int

	Floor Floor
	Top   Floor
	Base  Floor

	DoorClosed bool

	Occupants map[int]struct{}
	Receives  map[int]struct{}

	LastAction     string
	LastActionTick float64
	LastOpenTick   float64
	LastCloseTick  float64

	Mode Mode

	SCHESpeed        float64
	SCHETarget       Floor
	SCHEAcceptTick   float64
	SCHEArriveBudget int

	UpdateTarget       Floor
	UpdateAcceptTick   float64
	UpdateBeginTick    float64
	UpdateArriveBudget int
	Partner            int
}

// NewCar builds a car at rest in Normal mode, occupying the full default
// floor range, with no assignments or partner.
func NewCar(index int) *Car {
	return NewCarWithBounds(index, DefaultBase, DefaultTop)
}

// NewCarWithBounds builds a car at rest in Normal mode clamped to
// [base, top] instead of the default floor range, for a checker run
// configured with a narrower MinFloor/MaxFloor than the building's full
// extent.
func NewCarWithBounds(index int, base, top Floor) *Car {
	return &Car{
		Index:      index,
		Floor:      0,
		Top:        top,
		Base:       base,
		DoorClosed: true,
		Occupants:  make(map[int]struct{}),
		Receives:   make(map[int]struct{}),
		Mode:       ModeNormal,
		SCHESpeed:  constants.DefaultSCHESpeed,
		Partner:    NoPartner,
	}
}

// OccupantCount reports how many passengers currently ride this car.
func (c *Car) OccupantCount() int {
	return len(c.Occupants)
}

// AddOccupant boards a passenger, removing them from the pending-receive set.
func (c *Car) AddOccupant(pid int) {
	delete(c.Receives, pid)
	c.Occupants[pid] = struct{}{}
}

// RemoveOccupant disembarks a passenger.
func (c *Car) RemoveOccupant(pid int) {
	delete(c.Occupants, pid)
}

// HasOccupant reports whether pid currently rides this car.
func (c *Car) HasOccupant(pid int) bool {
	_, ok := c.Occupants[pid]
	return ok
}

// ClearReceives empties the car's pending-assignment set, used when
// entering InSche, InUpdate, or completing a SCHE/UPDATE workflow.
func (c *Car) ClearReceives() {
	c.Receives = make(map[int]struct{})
}

// Empty reports whether the car has no occupants, used by the SCHE/UPDATE
// transition guards and the terminal audit.
func (c *Car) Empty() bool {
	return len(c.Occupants) == 0
}

// ExpectedFloorInterval returns the minimum per-floor travel time for the
// car's current mode, per spec.md §4.4's ARRIVE timing rule.
func (c *Car) ExpectedFloorInterval() float64 {
	switch c.Mode {
	case ModeInSche:
		return c.SCHESpeed
	case ModeInUpdate, ModeAfterUpdate:
		return constants.UpdateFloorTravel
	default:
		return constants.DefaultFloorTravel
	}
}

// MotionEnergy returns the watt cost of one ARRIVE in the car's current mode.
func (c *Car) MotionEnergy() float64 {
	if c.Mode == ModeInUpdate || c.Mode == ModeAfterUpdate {
		return 0.2
	}
	return 0.4
}

// ResetSCHE clears SCHE-specific bookkeeping, used on SCHE-END.
func (c *Car) ResetSCHE() {
	c.SCHETarget = 0
	c.SCHEAcceptTick = 0
	c.SCHEArriveBudget = 0
	c.SCHESpeed = constants.DefaultSCHESpeed
}

// ResetUpdate clears UPDATE-specific bookkeeping. It does not clear
// Partner, which persists into AfterUpdate for the terminal partner-floor
// check.
func (c *Car) ResetUpdate() {
	c.UpdateTarget = 0
	c.UpdateAcceptTick = 0
	c.UpdateBeginTick = 0
	c.UpdateArriveBudget = 0
}
