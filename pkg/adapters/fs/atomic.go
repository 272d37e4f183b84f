package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// TempFilePrefix is the prefix used for temporary atomic write files.
	TempFilePrefix = ".piewpiew-tmp-"

	// StaleTempAge is how old a temp file must be before sweepTempFiles removes it.
	StaleTempAge = time.Minute
)

// isTempFile reports whether path is an in-flight (or abandoned) atomic write.
func isTempFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), TempFilePrefix)
}

// writeFileAtomic replaces filename with data through a temp file in the same
// directory. Readers see either the old content or the new one.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}

// sweepTempFiles removes temp files older than maxAge left in dir and its direct
// subdirectories by writes that never completed. It returns how many were removed.
func sweepTempFiles(dir string, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, TempFilePrefix+"*"))
	if err != nil {
		return 0, err
	}
	nested, err := filepath.Glob(filepath.Join(dir, "*", TempFilePrefix+"*"))
	if err != nil {
		return 0, err
	}
	matches = append(matches, nested...)

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}
