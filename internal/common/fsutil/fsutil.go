package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPaths are searched in order when no config file is named.
var DefaultConfigPaths = []string{
	"arinfer.yaml",
	"arinfer.toml",
	"arinfer.json",
	"~/.config/arinfer/config.yaml",
	"/etc/arinfer/config.yaml",
}

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// ResolveConfigPath returns explicit with '~' expanded, failing if it does not
// exist. With no explicit path it returns the first existing candidate, or ""
// when none exists.
func ResolveConfigPath(explicit string, candidates ...string) (string, error) {
	if explicit != "" {
		p, err := ExpandHome(explicit)
		if err != nil {
			return "", err
		}
		if !PathExists(p) {
			return "", fmt.Errorf("config file %s: %w", p, os.ErrNotExist)
		}
		return p, nil
	}
	for _, c := range candidates {
		p, err := ExpandHome(c)
		if err != nil {
			continue
		}
		if PathExists(p) {
			return p, nil
		}
	}
	return "", nil
}
