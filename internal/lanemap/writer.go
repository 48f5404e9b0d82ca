package lanemap

import (
	"fmt"
	"path/filepath"

	"github.com/blorente/sonic-buildimage/internal/fsutil"
)

const (
	// LaneMapFile is the name of the derived lane map.
	LaneMapFile = "lanemap.ini"
	// CoreMapFile is the name of the derived core/port index map.
	CoreMapFile = "coreportindexmap.ini"

	// LaneMapSentinel is the management interface entry terminating the lane
	// map of a chassis line card.
	LaneMapSentinel = "Cpu0:999"
	// CoreMapSentinel is the management interface entry terminating the
	// core/port index map of a chassis line card.
	CoreMapSentinel = "Cpu0:0,0"
)

// Write renders the table into dir.
//
// Each file is written only when it has at least one record, replacing any
// previous content. An empty record set never creates a file.
func Write(dir string, table *Table) error {
	if err := writeRecords(filepath.Join(dir, LaneMapFile), table.LaneMap); err != nil {
		return err
	}
	if err := writeRecords(filepath.Join(dir, CoreMapFile), table.CoreMap); err != nil {
		return err
	}

	return nil
}

func writeRecords(path string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, record.String())
	}

	if err := fsutil.WriteLines(path, lines); err != nil {
		return fmt.Errorf("failed to write derived table: %w", err)
	}

	return nil
}

// Sentinels describes which derived files received the management interface
// sentinel.
type Sentinels struct {
	LaneMap bool
	CoreMap bool
}

// AppendSentinel appends the management interface sentinel to the lane map
// and core/port index map in dir.
//
// Only files that already exist are touched, a sentinel alone never creates
// a file.
func AppendSentinel(dir string) (Sentinels, error) {
	result := Sentinels{}

	laneMap := filepath.Join(dir, LaneMapFile)
	if fsutil.IsFile(laneMap) {
		if err := fsutil.AppendLine(laneMap, LaneMapSentinel); err != nil {
			return result, fmt.Errorf("failed to append sentinel: %w", err)
		}
		result.LaneMap = true
	}

	coreMap := filepath.Join(dir, CoreMapFile)
	if fsutil.IsFile(coreMap) {
		if err := fsutil.AppendLine(coreMap, CoreMapSentinel); err != nil {
			return result, fmt.Errorf("failed to append sentinel: %w", err)
		}
		result.CoreMap = true
	}

	return result, nil
}
