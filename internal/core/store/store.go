// Package store is the durable persistence gateway: one JSON document per
// project in a flat directory.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/romgenie/scope-agent/internal/core/models"
)

// Info is a directory listing entry for one saved project.
type Info struct {
	Name         string
	Path         string
	CreatedAt    string
	LastModified string
}

// Store reads and writes project files under a single directory.
type Store struct {
	dir string
}

// New creates the projects directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create projects directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store persists into.
func (s *Store) Dir() string {
	return s.dir
}

// SafeName maps a project name to a filesystem-safe file stem.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Path returns the file path a project of the given name saves to.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, SafeName(name)+".json")
}

// Save writes the project to its file, refreshing last_modified. It returns
// the path written.
func (s *Store) Save(p *models.Project) (string, error) {
	if p == nil {
		return "", fmt.Errorf("no project to save")
	}
	p.Touch()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode project %q: %w", p.Name, err)
	}
	path := s.Path(p.Name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write project %q: %w", p.Name, err)
	}
	return path, nil
}

// Load reads a project file and restores its aggregates.
func (s *Store) Load(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode project file %s: %w", path, err)
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project file %s: %w", path, err)
	}
	return &p, nil
}

// LoadByName loads the project saved under the given name.
func (s *Store) LoadByName(name string) (*models.Project, error) {
	return s.Load(s.Path(name))
}

// List returns saved projects, most recently modified first. Unreadable
// files are skipped.
func (s *Store) List() ([]Info, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var infos []Info
	for _, path := range paths {
		p, err := s.Load(path)
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:         p.Name,
			Path:         path,
			CreatedAt:    p.CreatedAt,
			LastModified: p.LastModified,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastModified > infos[j].LastModified
	})
	return infos, nil
}

// Remove deletes the file saved under the given project name. Removing a
// name that was never saved is not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove project %q: %w", name, err)
	}
	return nil
}
