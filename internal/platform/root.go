package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/piewpiew/pkg/adapters/fs"
)

// SchemaFile is the conventional name of the schema at a store root.
const SchemaFile = "piewpiew.yaml"

// ErrRootNotFound is returned by FindRoot when no ancestor looks like a store root.
var ErrRootNotFound = errors.New("store root not found")

// FindRoot walks up from startDir looking for a store root. A directory holding
// the system directory or a schema file wins; failing that, the nearest
// directory with a .git entry is used.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	if dir, ok := walkUp(abs, fs.DefaultSystemDir, SchemaFile); ok {
		return dir, nil
	}
	if dir, ok := walkUp(abs, ".git"); ok {
		return dir, nil
	}
	return "", ErrRootNotFound
}

func walkUp(dir string, markers ...string) (string, bool) {
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
