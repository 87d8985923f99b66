package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFile is the archive file name inside the virusnet home directory.
const DBFile = "runs.db"

// DefaultDBPath returns ~/.virusnet/runs.db.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".virusnet", DBFile), nil
}

// ResolveDBPath returns path, or DefaultDBPath when path is empty.
func ResolveDBPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultDBPath()
}
