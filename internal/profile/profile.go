// Package profile materializes the virtual switch profile templates into
// synthesized SKU directories.
package profile

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blorente/sonic-buildimage/internal/fsutil"
)

// Mode selects which templates are materialized.
type Mode int

const (
	// ModeFull materializes every known template. Used for SKU roots.
	ModeFull Mode = iota
	// ModeReduced materializes only the SAI profile and the fabric lane map.
	// Used for ASIC-scoped subdirectories.
	ModeReduced
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeReduced:
		return "reduced"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Template maps a template file to its materialized name.
type Template struct {
	// Source is the template file name inside the templates directory.
	Source string
	// Target is the file name inside the SKU directory.
	Target string
	// Reduced is true if the template is part of the reduced set.
	Reduced bool
}

// Templates is the fixed set of profile templates, in copy order.
var Templates = []Template{
	{Source: "sai.vs_profile", Target: "sai.profile", Reduced: true},
	{Source: "fabriclanemap_vs.ini", Target: "fabriclanemap.ini", Reduced: true},
	{Source: "sai_mlnx.vs_profile", Target: "sai_mlnx.profile"},
	{Source: "sai_vpp.vs_profile", Target: "sai_vpp.profile"},
	{Source: "pai.vs_profile", Target: "pai.profile"},
}

// Materializer copies profile templates from a templates directory.
type Materializer struct {
	dir string
	log *zap.SugaredLogger
}

// NewMaterializer creates a materializer reading templates from dir.
func NewMaterializer(dir string, log *zap.SugaredLogger) *Materializer {
	return &Materializer{
		dir: dir,
		log: log,
	}
}

// Materialize copies the templates selected by mode into dst.
//
// Templates missing from the templates directory are skipped. Returns the
// number of bytes copied.
func (m *Materializer) Materialize(dst string, mode Mode) (int64, error) {
	total := int64(0)

	for _, template := range Templates {
		if mode == ModeReduced && !template.Reduced {
			continue
		}

		src := filepath.Join(m.dir, template.Source)
		if !fsutil.IsFile(src) {
			m.log.Debugw("profile template is missing, skipping",
				zap.String("template", template.Source),
			)
			continue
		}

		n, err := fsutil.CopyFile(src, filepath.Join(dst, template.Target))
		total += n
		if err != nil {
			return total, fmt.Errorf("failed to materialize %q: %w", template.Target, err)
		}
	}

	return total, nil
}
