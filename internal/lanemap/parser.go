// Package lanemap derives the virtual switch interface lookup tables from a
// hardware SKU's port configuration.
//
// A port configuration is a whitespace-delimited table, one interface per
// data row, in declaration order:
//
//	# name        lanes    alias  index  speed  fec  role  core  core_port
//	Ethernet0     0,1,2,3  Eth0   0      100000 rs   Ext   0     1
//
// Every data row is assigned the next interface number from a counter that
// callers thread through consecutive tables of the same SKU. Two tables are
// derived: the lane map (interface → lanes, column 1) and the core/port
// index map (interface → core and port index, columns 7 and 8), the latter
// only for tables with at least 9 columns.
package lanemap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

const (
	// PortConfigFile is the name of the port configuration table inside a
	// SKU directory.
	PortConfigFile = "port_config.ini"

	laneColumn      = 1
	coreColumn      = 7
	corePortColumn  = 8
	coreMapColumns  = 9
	laneMapColumns  = 2
	interfacePrefix = "eth"
	commentPrefix   = "#"
)

// Record is a single "name:value" entry of a derived table.
type Record struct {
	// Name is the synthesized interface name, e.g. "eth3".
	Name string
	// Value is the mapped value: lanes for the lane map, "core,port" for the
	// core/port index map.
	Value string
}

// String renders the record as it appears in the output file.
func (m Record) String() string {
	return m.Name + ":" + m.Value
}

// Table is the result of parsing one port configuration table.
type Table struct {
	// LaneMap contains lane map records in row order.
	LaneMap []Record
	// CoreMap contains core/port index map records in row order.
	CoreMap []Record
}

// IsEmpty reports whether neither table has records.
func (m *Table) IsEmpty() bool {
	return len(m.LaneMap) == 0 && len(m.CoreMap) == 0
}

// InterfaceName returns the synthesized interface name for the given
// interface number.
func InterfaceName(idx int) string {
	return interfacePrefix + strconv.Itoa(idx)
}

// Parse parses the port configuration table at path, numbering interfaces
// starting after counter.
//
// Returns the derived records and the counter value after the last data row.
// A missing file is not an error: an empty table and the unchanged counter
// are returned.
func Parse(path string, counter int) (*Table, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Table{}, counter, nil
		}
		return nil, counter, fmt.Errorf("failed to open port config: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, counter, fmt.Errorf("failed to stat port config: %w", err)
	}
	if info.IsDir() {
		return &Table{}, counter, nil
	}

	table, next, err := ParseReader(f, counter)
	if err != nil {
		return nil, counter, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	return table, next, nil
}

// ParseReader parses a port configuration table from r, numbering
// interfaces starting after counter.
func ParseReader(r io.Reader, counter int) (*Table, int, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, counter, err
	}

	columns := columnCount(lines)

	table := &Table{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		counter++
		name := InterfaceName(counter)
		fields := strings.Fields(line)

		if len(fields) >= laneMapColumns {
			table.LaneMap = append(table.LaneMap, Record{
				Name:  name,
				Value: fields[laneColumn],
			})
		}
		if columns >= coreMapColumns && len(fields) >= coreMapColumns {
			table.CoreMap = append(table.CoreMap, Record{
				Name:  name,
				Value: fields[coreColumn] + "," + fields[corePortColumn],
			})
		}
	}

	return table, counter, nil
}

// readLines reads r and splits it into lines. Any of "\n", "\r\n" and a
// bare "\r" ends a line, and lines have no length limit.
func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}

	lines := []string{}
	for len(data) > 0 {
		idx := bytes.IndexAny(data, "\r\n")
		if idx < 0 {
			lines = append(lines, string(data))
			break
		}

		lines = append(lines, string(data[:idx]))
		if data[idx] == '\r' && idx+1 < len(data) && data[idx+1] == '\n' {
			idx++
		}
		data = data[idx+1:]
	}

	return lines, nil
}

// columnCount returns the number of fields of the last non-blank line.
//
// The table is assumed to be rectangular, so the last row decides whether
// the core/port index columns are present. Note that a trailing comment row
// counts as well.
func columnCount(lines []string) int {
	for idx := len(lines) - 1; idx >= 0; idx-- {
		if fields := strings.Fields(lines[idx]); len(fields) > 0 {
			return len(fields)
		}
	}

	return 0
}
