// Package fsutil provides the filesystem primitives the generator is built
// from.
//
// All copies dereference symbolic links: the generated tree must be
// self-contained, so a link in the source tree is materialized as a regular
// file (or directory) in the destination.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// IsFile reports whether path names an existing regular file, following
// symbolic links.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path names an existing directory, following symbolic
// links.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyFile copies a regular file from src to dst, preserving its permission
// bits and modification time.
//
// An existing dst is truncated. Returns the number of bytes copied.
func CopyFile(src string, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %q: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %q: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create %q: %w", dst, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("failed to copy %q to %q: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to close %q: %w", dst, err)
	}

	// The file may have existed with other permissions.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return n, fmt.Errorf("failed to chmod %q: %w", dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return n, fmt.Errorf("failed to set times on %q: %w", dst, err)
	}

	return n, nil
}

// CopyTree recursively copies the directory src into dst.
//
// The destination is merged into: missing directories are created, existing
// files are overwritten and files present only in dst are kept. Returns the
// total number of bytes copied.
func CopyTree(src string, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %q: %w", src, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%q is not a directory", src)
	}

	if err := os.MkdirAll(dst, dirPerm); err != nil {
		return 0, fmt.Errorf("failed to create directory %q: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %q: %w", src, err)
	}

	total := int64(0)
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		// Stat instead of entry.Type() to see through symlinks.
		entryInfo, err := os.Stat(srcPath)
		if err != nil {
			return total, fmt.Errorf("failed to stat %q: %w", srcPath, err)
		}

		var n int64
		switch {
		case entryInfo.IsDir():
			n, err = CopyTree(srcPath, dstPath)
		case entryInfo.Mode().IsRegular():
			n, err = CopyFile(srcPath, dstPath)
		default:
			continue
		}
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// AppendLine appends line followed by a newline to the existing file at path.
//
// The file is never created.
func AppendLine(path string, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open %q for append: %w", path, err)
	}

	if _, err := io.WriteString(f, line+"\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %q: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}

	return nil
}

// WriteLines replaces the content of the file at path with the given lines,
// each terminated by a newline.
func WriteLines(path string, lines []string) error {
	size := 0
	for _, line := range lines {
		size += len(line) + 1
	}

	buf := make([]byte, 0, size)
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	if err := os.WriteFile(path, buf, filePerm); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}

	return nil
}

// RemoveFile removes the regular file at path if it exists.
//
// Reports whether a file was removed.
func RemoveFile(path string) (bool, error) {
	if !IsFile(path) {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove %q: %w", path, err)
	}

	return true, nil
}
