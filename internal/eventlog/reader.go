package eventlog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseLine parses one record, with or without its trailing newline.
func ParseLine(line string) (Event, error) {
	line = strings.TrimRight(line, "\n")
	fields := strings.SplitN(line, Separator, 4)
	if len(fields) < 3 {
		return Event{}, fmt.Errorf("malformed record %q", line)
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("bad timestamp in %q: %w", line, err)
	}
	pid, err := strconv.Atoi(fields[1])
	if err != nil {
		return Event{}, fmt.Errorf("bad pid in %q: %w", line, err)
	}
	kind := Kind(fields[2])
	if !kind.Valid() {
		return Event{}, fmt.Errorf("unknown event kind %q", fields[2])
	}

	e := Event{Timestamp: ts, PID: pid, Kind: kind}
	if len(fields) == 4 {
		e.Detail = fields[3]
	}
	return e, nil
}

// ReadFile loads every record of a log file in file order.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, MaxRecordSize), MaxRecordSize+1)
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		e, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, scanner.Err()
}

// Filter returns the events for which keep returns true.
func Filter(events []Event, keep func(Event) bool) []Event {
	var out []Event
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// OfKind selects events of the given kind.
func OfKind(kind Kind) func(Event) bool {
	return func(e Event) bool { return e.Kind == kind }
}

// OfPID selects events written by pid.
func OfPID(pid int) func(Event) bool {
	return func(e Event) bool { return e.PID == pid }
}

// CountByKind tallies events per kind.
func CountByKind(events []Event) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds()))
	for _, e := range events {
		counts[e.Kind]++
	}
	return counts
}
