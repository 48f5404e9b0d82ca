// Package hwsku synthesizes virtual switch hardware SKUs from real ones.
//
// Every hardware SKU found in the device tree gets a one-to-one counterpart
// in the virtual switch platform: its files are copied, the virtual switch
// profiles are materialized on top and the lane map and core/port index map
// are derived from its port configuration.
//
// Interface numbering is continuous across the ASIC-scoped subdirectories
// ("0", "1", "2") of a multi-ASIC SKU. Line cards of a chassis (platforms
// with "chassisdb.conf") start numbering at 1 and reserve one more number
// per ASIC for the management interface sentinel.
package hwsku

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blorente/sonic-buildimage/internal/fsutil"
	"github.com/blorente/sonic-buildimage/internal/lanemap"
	"github.com/blorente/sonic-buildimage/internal/profile"
	"github.com/blorente/sonic-buildimage/internal/walker"
)

const (
	// AsicConfFile is the platform-level ASIC descriptor.
	AsicConfFile = "asic.conf"
	// ChassisDBFile is the platform-level chassis database marker.
	ChassisDBFile = "chassisdb.conf"
	// ContextConfigFile is a generated runtime context, not valid for the
	// virtual switch.
	ContextConfigFile = "context_config.json"
)

// AsicDirs are the ASIC-scoped subdirectories, in numbering order.
var AsicDirs = []string{"0", "1", "2"}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// SynthesizerOption is a function that configures the synthesizer.
type SynthesizerOption func(*options)

// WithLog sets the logger for the synthesizer.
func WithLog(log *zap.SugaredLogger) SynthesizerOption {
	return func(o *options) {
		o.Log = log
	}
}

// Result describes the outcome of synthesizing one hardware SKU.
type Result struct {
	// Refreshed is true if the SKU already existed and only its profiles
	// were materialized.
	Refreshed bool
	// BytesCopied is the number of bytes copied into the output.
	BytesCopied int64
	// Interfaces is the number of interface numbers consumed by the SKU root
	// and its ASIC-scoped subdirectories, management sentinels included.
	Interfaces int
	// Asics lists the ASIC-scoped subdirectories that were processed.
	Asics []string
}

// Synthesizer synthesizes virtual switch hardware SKUs into a platform
// directory.
//
// Hardware SKUs must be fed sequentially: the first SKU of a given name wins
// and every later SKU of the same name only refreshes its profiles.
type Synthesizer struct {
	dir          string
	profiles     *profile.Materializer
	materialized map[string]struct{}
	log          *zap.SugaredLogger
}

// NewSynthesizer creates a synthesizer writing into the virtual switch
// platform directory dir.
//
// SKU directories already present in dir are considered materialized.
func NewSynthesizer(dir string, profiles *profile.Materializer, options ...SynthesizerOption) (*Synthesizer, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	materialized, err := listMaterialized(dir)
	if err != nil {
		return nil, err
	}

	opts.Log.Debugw("found materialized hwskus",
		zap.String("dir", dir),
		zap.Int("count", len(materialized)),
	)

	return &Synthesizer{
		dir:          dir,
		profiles:     profiles,
		materialized: materialized,
		log:          opts.Log,
	}, nil
}

func listMaterialized(dir string) (map[string]struct{}, error) {
	materialized := map[string]struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return materialized, nil
		}
		return nil, fmt.Errorf("failed to list virtual switch platform: %w", err)
	}

	for _, entry := range entries {
		if fsutil.IsDir(filepath.Join(dir, entry.Name())) {
			materialized[entry.Name()] = struct{}{}
		}
	}

	return materialized, nil
}

// IsMaterialized reports whether a SKU of the given name is present in the
// output.
func (m *Synthesizer) IsMaterialized(name string) bool {
	_, ok := m.materialized[name]
	return ok
}

// Synthesize synthesizes the given hardware SKU.
func (m *Synthesizer) Synthesize(hwsku walker.HwSku) (*Result, error) {
	dst := filepath.Join(m.dir, hwsku.Name)
	log := m.log.With(zap.Stringer("hwsku", hwsku))

	if m.IsMaterialized(hwsku.Name) {
		n, err := m.profiles.Materialize(dst, profile.ModeFull)
		if err != nil {
			return nil, newSynthesisError(hwsku, StepProfiles, err)
		}

		log.Debugw("hwsku is already materialized, refreshed profiles")
		return &Result{Refreshed: true, BytesCopied: n}, nil
	}

	result := &Result{}

	n, err := fsutil.CopyTree(hwsku.Path, dst)
	result.BytesCopied += n
	if err != nil {
		return nil, newSynthesisError(hwsku, StepCopy, err)
	}
	m.materialized[hwsku.Name] = struct{}{}

	asicConf := filepath.Join(hwsku.PlatformPath(), AsicConfFile)
	if fsutil.IsFile(asicConf) {
		n, err := fsutil.CopyFile(asicConf, filepath.Join(dst, AsicConfFile))
		result.BytesCopied += n
		if err != nil {
			return nil, newSynthesisError(hwsku, StepAsicConf, err)
		}
	}

	n, err = m.profiles.Materialize(dst, profile.ModeFull)
	result.BytesCopied += n
	if err != nil {
		return nil, newSynthesisError(hwsku, StepProfiles, err)
	}

	chassis := fsutil.IsFile(filepath.Join(hwsku.PlatformPath(), ChassisDBFile))
	initial := 0
	if chassis {
		initial = 1
	}

	rootCounter, err := deriveRoot(dst, initial, chassis)
	if err != nil {
		return nil, newSynthesisError(hwsku, StepDeriveRoot, err)
	}
	result.Interfaces += rootCounter - initial

	// ASIC numbering restarts from the initial value, it is not chained
	// after the root.
	counter := initial
	for _, asic := range AsicDirs {
		asicDir := filepath.Join(dst, asic)
		if !fsutil.IsDir(asicDir) {
			continue
		}

		next, n, err := m.deriveAsic(asicDir, counter, chassis)
		result.BytesCopied += n
		if err != nil {
			return nil, newSynthesisError(hwsku, StepDeriveAsics, fmt.Errorf("asic %s: %w", asic, err))
		}

		result.Interfaces += next - counter
		result.Asics = append(result.Asics, asic)
		counter = next
	}

	log.Debugw("synthesized hwsku",
		zap.Bool("chassis", chassis),
		zap.Int("interfaces", result.Interfaces),
		zap.Strings("asics", result.Asics),
	)

	return result, nil
}

// deriveRoot derives the tables of the SKU root.
//
// Returns the counter after the root port configuration.
func deriveRoot(dir string, counter int, chassis bool) (int, error) {
	next, err := derive(dir, counter)
	if err != nil {
		return counter, err
	}

	if _, err := fsutil.RemoveFile(filepath.Join(dir, ContextConfigFile)); err != nil {
		return counter, err
	}

	if chassis {
		if _, err := lanemap.AppendSentinel(dir); err != nil {
			return counter, err
		}
	}

	return next, nil
}

// deriveAsic derives the tables of one ASIC-scoped subdirectory, numbering
// interfaces after counter.
//
// Returns the counter to continue with in the next subdirectory.
func (m *Synthesizer) deriveAsic(dir string, counter int, chassis bool) (int, int64, error) {
	n, err := m.profiles.Materialize(dir, profile.ModeReduced)
	if err != nil {
		return counter, n, err
	}

	if _, err := fsutil.RemoveFile(filepath.Join(dir, ContextConfigFile)); err != nil {
		return counter, n, err
	}

	next, err := derive(dir, counter)
	if err != nil {
		return counter, n, err
	}

	if chassis {
		sentinels, err := lanemap.AppendSentinel(dir)
		if err != nil {
			return counter, n, err
		}
		// The management interface takes a number only when it is listed.
		if sentinels.LaneMap {
			next++
		}
	}

	return next, n, nil
}

func derive(dir string, counter int) (int, error) {
	table, next, err := lanemap.Parse(filepath.Join(dir, lanemap.PortConfigFile), counter)
	if err != nil {
		return counter, err
	}

	if err := lanemap.Write(dir, table); err != nil {
		return counter, err
	}

	return next, nil
}
