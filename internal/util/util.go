package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && info.IsDir()
}

// EnsureDir creates path and its parents. created reports whether it was missing.
func EnsureDir(path string) (created bool, err error) {
	if DirExists(path) {
		return false, nil
	}
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		return false, fmt.Errorf("%s exists and is not a directory", path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, err
	}
	return true, nil
}
