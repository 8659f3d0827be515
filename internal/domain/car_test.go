package domain

import "testing"

func TestNewCar(t *testing.T) {
	c := NewCar(2)

	if c.Top != DefaultTop || c.Base != DefaultBase {
		t.Errorf("expected default range [%v,%v], got [%v,%v]", DefaultBase, DefaultTop, c.Base, c.Top)
	}
	if !c.DoorClosed {
		t.Error("expected new car to start with doors closed")
	}
	if c.Mode != ModeNormal {
		t.Errorf("expected ModeNormal, got %v", c.Mode)
	}
	if c.Partner != NoPartner {
		t.Errorf("expected NoPartner, got %v", c.Partner)
	}
}

func TestCar_AddRemoveOccupant(t *testing.T) {
	c := NewCar(0)
	c.Receives[7] = struct{}{}

	c.AddOccupant(7)
	if !c.HasOccupant(7) {
		t.Error("expected passenger 7 to be an occupant")
	}
	if _, stillPending := c.Receives[7]; stillPending {
		t.Error("expected passenger 7 to be removed from receives on boarding")
	}

	c.RemoveOccupant(7)
	if c.HasOccupant(7) {
		t.Error("expected passenger 7 to be removed after disembarking")
	}
}

func TestCar_ExpectedFloorInterval(t *testing.T) {
	tests := []struct {
		mode     Mode
		speed    float64
		expected float64
	}{
		{ModeNormal, 0, 0.4},
		{ModeInSche, 0.3, 0.3},
		{ModeInUpdate, 0, 0.2},
		{ModeAfterUpdate, 0, 0.2},
	}

	for _, tt := range tests {
		c := NewCar(0)
		c.Mode = tt.mode
		c.SCHESpeed = tt.speed
		if got := c.ExpectedFloorInterval(); tt.mode != ModeInSche && got != tt.expected {
			t.Errorf("mode %v: expected %v, got %v", tt.mode, tt.expected, got)
		}
		if tt.mode == ModeInSche && c.ExpectedFloorInterval() != tt.speed {
			t.Errorf("expected sche speed %v, got %v", tt.speed, c.ExpectedFloorInterval())
		}
	}
}

func TestCar_MotionEnergy(t *testing.T) {
	c := NewCar(0)
	if c.MotionEnergy() != 0.4 {
		t.Errorf("expected 0.4 in normal mode, got %v", c.MotionEnergy())
	}
	c.Mode = ModeAfterUpdate
	if c.MotionEnergy() != 0.2 {
		t.Errorf("expected 0.2 after update, got %v", c.MotionEnergy())
	}
}

func TestCar_ResetSCHEAndUpdate(t *testing.T) {
	c := NewCar(0)
	c.SCHETarget = 3
	c.SCHEAcceptTick = 1.5
	c.SCHEArriveBudget = 2
	c.SCHESpeed = 0.1
	c.ResetSCHE()

	if c.SCHETarget != 0 || c.SCHEAcceptTick != 0 || c.SCHEArriveBudget != 0 {
		t.Error("expected SCHE bookkeeping cleared")
	}
	if c.SCHESpeed != 0.4 {
		t.Errorf("expected SCHE speed reset to default, got %v", c.SCHESpeed)
	}

	c.Partner = 3
	c.UpdateTarget = 2
	c.UpdateAcceptTick = 1
	c.UpdateBeginTick = 2
	c.UpdateArriveBudget = 1
	c.ResetUpdate()

	if c.UpdateTarget != 0 || c.UpdateAcceptTick != 0 || c.UpdateBeginTick != 0 || c.UpdateArriveBudget != 0 {
		t.Error("expected UPDATE bookkeeping cleared")
	}
	if c.Partner != 3 {
		t.Error("expected partner to persist through ResetUpdate")
	}
}
