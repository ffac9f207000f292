package floor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"elevsim/src/types"
)

var ErrTrace = errors.New("bad trace")

// Trace columns, matched case-insensitively against the header row.
const (
	colTime        = "time"
	colFloor       = "floor"
	colFloorButton = "floor button"
	colCarButton   = "car button"
	colError       = "error"
)

// Row is one passenger arrival from a trace.
type Row struct {
	Stamp  string        // as written, e.g. 14:05:15.0
	At     time.Duration // since midnight
	Floor  int
	Button types.Direction
	Dest   int
	Fault  types.FaultKind
}

func LoadTrace(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer file.Close()
	return ReadTrace(file)
}

// ReadTrace parses a header row followed by one request per line, columns
// separated by ", ".
func ReadTrace(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty", ErrTrace)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrace, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{colTime, colFloor, colFloorButton, colCarButton, colError} {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrTrace, name)
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTrace, err)
		}
		line, _ := reader.FieldPos(0)
		row, err := parseRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrTrace, line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(record []string, columns map[string]int) (Row, error) {
	field := func(name string) (string, error) {
		i := columns[name]
		if i >= len(record) {
			return "", fmt.Errorf("missing %s", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	var row Row
	var err error
	var value string

	if value, err = field(colTime); err != nil {
		return row, err
	}
	if row.At, err = parseClock(value); err != nil {
		return row, err
	}
	row.Stamp = value

	if value, err = field(colFloor); err != nil {
		return row, err
	}
	if row.Floor, err = strconv.Atoi(value); err != nil {
		return row, fmt.Errorf("floor: %w", err)
	}

	if value, err = field(colFloorButton); err != nil {
		return row, err
	}
	if row.Button, err = types.ParseDirection(strings.ToUpper(value)); err != nil {
		return row, err
	}

	if value, err = field(colCarButton); err != nil {
		return row, err
	}
	if row.Dest, err = strconv.Atoi(value); err != nil {
		return row, fmt.Errorf("car button: %w", err)
	}

	if value, err = field(colError); err != nil {
		return row, err
	}
	if row.Fault, err = types.ParseFaultKind(strings.ToUpper(value)); err != nil {
		return row, err
	}
	return row, nil
}

// parseClock reads HH:MM:SS with optional fractional seconds.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("time: %w", err)
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.Sub(midnight), nil
}
