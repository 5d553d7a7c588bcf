package util

import (
	"os"
	"path/filepath"
	"time"
)

func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	return false, err
}

// WritePrivateFile writes data to name readable and writable by the owner only.
func WritePrivateFile(name string, data []byte) error {
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return err
	}
	// WriteFile only applies the mode on creation
	return os.Chmod(name, 0o600)
}

// RemoveDirsOlderThan removes directories in root matching pattern whose
// modification time is before cutoff. It returns the removed paths.
func RemoveDirsOlderThan(root, pattern string, cutoff time.Time) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(m); err != nil {
				return removed, err
			}
			removed = append(removed, m)
		}
	}
	return removed, nil
}
