// Package registry discovers model weight files on disk so they can be
// partitioned without being listed one by one in the config.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"arinfer/internal/common/fsutil"
)

const weightExt = ".gguf"

// Model is one weight file found by a Scanner.
type Model struct {
	// Name is the filename without its extension, e.g. llama-3.1-8b-q4_k_m.
	Name string
	// Path is the absolute file path.
	Path string
	// SizeMB is the file size rounded up to whole MiB, at least 1.
	SizeMB int64
}

// Scanner lists the models available under a directory.
type Scanner interface {
	Scan(dir string) ([]Model, error)
}

// GGUFScanner finds *.gguf files (case-insensitive) directly under a directory.
type GGUFScanner struct{}

func NewGGUFScanner() *GGUFScanner { return &GGUFScanner{} }

// Scan returns the weight files in dir sorted by name. Subdirectories are not
// descended into.
func (GGUFScanner) Scan(dir string) ([]Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), weightExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		models = append(models, Model{
			Name:   strings.TrimSuffix(name, filepath.Ext(name)),
			Path:   filepath.Join(abs, name),
			SizeMB: sizeMB(info.Size()),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// LoadDir scans dir with a GGUFScanner.
func LoadDir(dir string) ([]Model, error) {
	return NewGGUFScanner().Scan(dir)
}

func sizeMB(bytes int64) int64 {
	const mib = 1 << 20
	mb := (bytes + mib - 1) / mib
	if mb < 1 {
		return 1
	}
	return mb
}
