// Package script parses the request script (stdin.txt): one passenger
// record per non-empty line, keyed by id, with SCHE and UPDATE lines
// silently skipped since the checker only observes the controller's
// responses to them, never their schedule.
package script

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/elevio/tracecheck/internal/domain"
)

// Script is the parsed request script: every passenger keyed by id, in
// the order they were submitted.
type Script struct {
	Passengers map[int]*domain.Passenger
	Order      []int
}

// Parse reads a request script from r, skipping SCHE/UPDATE lines and
// building one Passenger per remaining non-empty line. A duplicate
// passenger id is a fatal *domain.ParseError, matching spec.md §4.2.
func Parse(r io.Reader, log *slog.Logger) (*Script, error) {
	if log == nil {
		log = slog.Default()
	}

	sc := &Script{Passengers: make(map[int]*domain.Passenger)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, "SCHE") || strings.Contains(line, "UPDATE") {
			continue
		}

		p, err := parsePassengerLine(line)
		if err != nil {
			return nil, domain.NewParseError(
				fmt.Sprintf("malformed passenger record at line %d: %q", lineNo, line), err)
		}

		if _, exists := sc.Passengers[p.ID]; exists {
			return nil, domain.NewParseError(
				fmt.Sprintf("duplicate passenger id %d at line %d", p.ID, lineNo), nil)
		}

		sc.Passengers[p.ID] = p
		sc.Order = append(sc.Order, p.ID)
	}

	if err := scanner.Err(); err != nil {
		return nil, domain.NewParseError("failed reading request script", err)
	}

	log.Debug("parsed request script", slog.Int("passengers", len(sc.Passengers)))
	return sc, nil
}

// parsePassengerLine decodes a single "[<tick>]<id>-PRI-<pri>-FROM-<f1>-TO-<f2>" record.
func parsePassengerLine(line string) (*domain.Passenger, error) {
	open := strings.Index(line, "[")
	close := strings.Index(line, "]")
	if open != 0 || close < 0 || close <= open {
		return nil, fmt.Errorf("missing bracketed timestamp")
	}

	sendTick, err := strconv.ParseFloat(strings.TrimSpace(line[open+1:close]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	args := strings.Split(line[close+1:], "-")
	if len(args) != 7 {
		return nil, fmt.Errorf("expected 7 hyphen-delimited fields, got %d", len(args))
	}
	if args[1] != "PRI" || args[3] != "FROM" || args[5] != "TO" {
		return nil, fmt.Errorf("expected PRI/FROM/TO keywords, got %q/%q/%q", args[1], args[3], args[5])
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid passenger id: %w", err)
	}
	priority, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("invalid priority: %w", err)
	}
	origin, ok := domain.ParseFloor(args[4])
	if !ok {
		return nil, fmt.Errorf("invalid origin floor %q", args[4])
	}
	destination, ok := domain.ParseFloor(args[6])
	if !ok {
		return nil, fmt.Errorf("invalid destination floor %q", args[6])
	}
	if origin == destination {
		return nil, fmt.Errorf("origin and destination floor must differ")
	}

	return domain.NewPassenger(id, sendTick, priority, origin, destination), nil
}
