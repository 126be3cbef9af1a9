// Package atomicfile writes whole-file contents so that a concurrent
// reader never observes a truncated or half-written file.
//
// It writes to a uuid-suffixed temp file in the target's own directory,
// then renames it into place. The rename is atomic on POSIX filesystems
// when src and dst share a filesystem, which is guaranteed here since
// the temp file is created alongside the target. The uuid suffix (rather
// than a fixed ".tmp" suffix) lets two writers racing to update the same
// path each get their own temp file instead of clobbering one another
// mid-write.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Write creates dir if needed and atomically replaces path's contents.
func Write(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// WriteString is the string convenience form of Write.
func WriteString(path, content string) error {
	return Write(path, []byte(content))
}
