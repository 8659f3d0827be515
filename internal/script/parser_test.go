package script

import (
	"strings"
	"testing"

	"github.com/elevio/tracecheck/internal/domain"
)

func TestParse_SinglePassenger(t *testing.T) {
	input := "[1.0]1-PRI-50-FROM-F1-TO-F3\n"

	sc, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sc.Passengers) != 1 {
		t.Fatalf("expected 1 passenger, got %d", len(sc.Passengers))
	}

	p := sc.Passengers[1]
	if p.SendTick != 1.0 || p.Priority != 50 {
		t.Errorf("unexpected passenger fields: %+v", p)
	}
	if p.Origin != domain.NewFloor(0) || p.Destination != domain.NewFloor(2) {
		t.Errorf("expected F1(0)->F3(2), got %v->%v", p.Origin, p.Destination)
	}
}

func TestParse_SkipsSCHEAndUPDATE(t *testing.T) {
	input := strings.Join([]string{
		"[1.0]1-PRI-50-FROM-F1-TO-F3",
		"[2.0]SCHE-1-0.4-F3",
		"[3.0]UPDATE-1-2-F3",
	}, "\n")

	sc, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sc.Passengers) != 1 {
		t.Fatalf("expected SCHE/UPDATE lines skipped, got %d passengers", len(sc.Passengers))
	}
}

func TestParse_DuplicateIDIsFatal(t *testing.T) {
	input := strings.Join([]string{
		"[1.0]1-PRI-50-FROM-F1-TO-F3",
		"[2.0]1-PRI-10-FROM-B1-TO-F2",
	}, "\n")

	_, err := Parse(strings.NewReader(input), nil)
	if err == nil {
		t.Fatal("expected fatal parse error on duplicate id")
	}
	var parseErr *domain.ParseError
	if !asParseError(err, &parseErr) {
		t.Fatalf("expected *domain.ParseError, got %T: %v", err, err)
	}
}

func TestParse_MalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("[1.0]garbage"), nil)
	if err == nil {
		t.Fatal("expected parse error on malformed line")
	}
}

func TestParse_OriginEqualsDestinationRejected(t *testing.T) {
	_, err := Parse(strings.NewReader("[1.0]1-PRI-50-FROM-F1-TO-F1"), nil)
	if err == nil {
		t.Fatal("expected parse error when origin equals destination")
	}
}

func asParseError(err error, target **domain.ParseError) bool {
	pe, ok := err.(*domain.ParseError)
	if ok {
		*target = pe
	}
	return ok
}
