// Package simx marks SAI profiles of simulated Mellanox hardware.
package simx

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"github.com/blorente/sonic-buildimage/internal/fsutil"
)

const (
	// Platform is the target platform that runs on simulated hardware.
	Platform = "mellanox"

	// Key is the SAI profile key enabling the simulator.
	Key = "SAI_KEY_IS_SIMX"

	enabled        = "1"
	dirMarker      = "simx"
	profilePattern = "**/sai.profile"
)

// Mark appends "SAI_KEY_IS_SIMX=1" to every SAI profile under root whose
// directory path, root included, contains "simx".
//
// Profiles whose effective value of the key is already "1" are left
// untouched. Returns the paths of the marked profiles, relative to root.
func Mark(root string, log *zap.SugaredLogger) ([]string, error) {
	if !fsutil.IsDir(root) {
		return nil, fmt.Errorf("output directory %q does not exist", root)
	}

	marked := []string{}

	err := doublestar.GlobWalk(os.DirFS(root), profilePattern, func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}

		dir := filepath.Join(root, filepath.FromSlash(path.Dir(rel)))
		if !strings.Contains(dir, dirMarker) {
			return nil
		}

		profile := filepath.Join(root, filepath.FromSlash(rel))
		ok, err := isMarked(profile)
		if err != nil {
			return err
		}
		if ok {
			log.Debugw("SAI profile is already marked", zap.String("profile", rel))
			return nil
		}

		if err := fsutil.AppendLine(profile, Key+"="+enabled); err != nil {
			return err
		}
		marked = append(marked, rel)

		return nil
	}, doublestar.WithFailOnIOErrors())
	if err != nil {
		return marked, fmt.Errorf("failed to mark simx profiles: %w", err)
	}

	return marked, nil
}

// isMarked reports whether the profile enables the simulator. The last
// assignment of the key wins.
func isMarked(profile string) (bool, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      "=",
	}, profile)
	if err != nil {
		return false, fmt.Errorf("failed to load SAI profile %q: %w", profile, err)
	}

	section := cfg.Section(ini.DefaultSection)
	if !section.HasKey(Key) {
		return false, nil
	}

	return section.Key(Key).String() == enabled, nil
}
