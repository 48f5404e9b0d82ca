// Package walker enumerates the device tree.
//
// The device tree is organized as "<vendor>/<platform>/<hwsku>". Every level
// is visited in lexicographic order, so the enumeration is deterministic for
// a given tree.
package walker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/blorente/sonic-buildimage/internal/fsutil"
)

// DefaultExclude lists the name markers of platform-level directories that
// hold code rather than hardware SKUs.
var DefaultExclude = []string{"plugins", "led-code", "sonic_platform"}

// Platform is a platform directory of a vendor.
type Platform struct {
	// Vendor is the vendor directory name.
	Vendor string
	// Name is the platform directory name.
	Name string
	// Path is the platform directory path.
	Path string
}

// HwSku is a hardware SKU source directory.
type HwSku struct {
	// Vendor is the vendor directory name.
	Vendor string
	// Platform is the platform directory name.
	Platform string
	// Name is the hardware SKU directory name.
	Name string
	// Path is the hardware SKU directory path.
	Path string
}

// PlatformPath returns the path of the platform directory holding the SKU.
func (m HwSku) PlatformPath() string {
	return filepath.Dir(m.Path)
}

func (m HwSku) String() string {
	return m.Vendor + "/" + m.Platform + "/" + m.Name
}

// Walker enumerates platforms and hardware SKUs of a device tree.
type Walker struct {
	root    string
	exclude []glob.Glob
}

// NewWalker creates a walker over the device tree rooted at root.
//
// An entry at the hardware SKU level is excluded if its name contains any of
// the given markers.
func NewWalker(root string, exclude []string) (*Walker, error) {
	globs := make([]glob.Glob, 0, len(exclude))
	for _, marker := range exclude {
		if marker == "" {
			return nil, errors.New("empty exclude marker")
		}

		g, err := glob.Compile("*" + glob.QuoteMeta(marker) + "*")
		if err != nil {
			return nil, fmt.Errorf("failed to compile exclude marker %q: %w", marker, err)
		}
		globs = append(globs, g)
	}

	return &Walker{
		root:    root,
		exclude: globs,
	}, nil
}

// IsExcluded reports whether the entry name matches any exclude marker.
func (m *Walker) IsExcluded(name string) bool {
	for _, g := range m.exclude {
		if g.Match(name) {
			return true
		}
	}

	return false
}

// Platforms returns every platform directory in vendor order.
//
// No exclusion is applied at this level.
func (m *Walker) Platforms() ([]Platform, error) {
	vendors, err := subdirs(m.root)
	if err != nil {
		return nil, err
	}

	platforms := []Platform{}
	for _, vendor := range vendors {
		names, err := subdirs(filepath.Join(m.root, vendor))
		if err != nil {
			return nil, err
		}

		for _, name := range names {
			platforms = append(platforms, Platform{
				Vendor: vendor,
				Name:   name,
				Path:   filepath.Join(m.root, vendor, name),
			})
		}
	}

	return platforms, nil
}

// HwSkus returns every hardware SKU directory in vendor, platform and SKU
// order, skipping excluded entries.
func (m *Walker) HwSkus() ([]HwSku, error) {
	platforms, err := m.Platforms()
	if err != nil {
		return nil, err
	}

	hwskus := []HwSku{}
	for _, platform := range platforms {
		entries, err := os.ReadDir(platform.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read platform directory: %w", err)
		}

		for _, entry := range entries {
			if m.IsExcluded(entry.Name()) {
				continue
			}

			path := filepath.Join(platform.Path, entry.Name())
			if !fsutil.IsDir(path) {
				continue
			}

			hwskus = append(hwskus, HwSku{
				Vendor:   platform.Vendor,
				Platform: platform.Name,
				Name:     entry.Name(),
				Path:     path,
			})
		}
	}

	return hwskus, nil
}

// subdirs returns sorted names of directories inside dir, following
// symbolic links.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if fsutil.IsDir(filepath.Join(dir, entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}
