package util

import (
	"os"
	"path/filepath"
)

// TreeDirName is the directory a knowledge tree lives in, relative to the
// working directory.
const TreeDirName = "knowledge-tree"

// FindTreeRoot walks up from the current directory looking for an existing
// knowledge-tree directory. Returns the current directory if none is found.
func FindTreeRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	start := dir
	for {
		if info, err := os.Stat(filepath.Join(dir, TreeDirName)); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return start, nil
		}
		dir = parent
	}
}
