package generate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jellydator/ttlcache/v3"
)

// Project describes the project a source file belongs to.
type Project struct {
	Root     string // directory holding the manifest
	Manifest string // manifest file name
	Name     string
}

// Summary returns the one-line form used in prompts.
func (p *Project) Summary() string {
	if p == nil || p.Name == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Manifest)
}

const (
	projectCacheTTL = 1 * time.Hour
	fieldMaxBytes   = 256
)

// ProjectCache is a TTL cache of Project lookups keyed by absolute directory.
// A directory with no project above it is cached as a nil entry.
type ProjectCache struct {
	cache *ttlcache.Cache[string, *Project]
}

// NewProjectCache creates a new ProjectCache with TTL-based expiration.
func NewProjectCache() *ProjectCache {
	c := ttlcache.New[string, *Project](
		ttlcache.WithTTL[string, *Project](projectCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, *Project](),
	)
	go c.Start()
	return &ProjectCache{cache: c}
}

// Close stops the cache expiration loop.
func (pc *ProjectCache) Close() {
	pc.cache.Stop()
}

// Lookup returns the project that contains file, or nil.
func (pc *ProjectCache) Lookup(file string) *Project {
	if file == "" {
		return nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil
	}
	dir := filepath.Dir(abs)

	if item := pc.cache.Get(dir); item != nil {
		return item.Value()
	}

	p := findProject(dir)
	pc.cache.Set(dir, p, ttlcache.DefaultTTL)
	if p != nil {
		slog.Debug("found project", "dir", dir, "root", p.Root, "name", p.Name)
	}
	return p
}

// manifestFiles lists the manifest filenames to look for, in priority order.
var manifestFiles = []string{
	"pyproject.toml",
	"Cargo.toml",
	"go.mod",
	"package.json",
}

// findProject walks up from dir to the first directory with a named manifest.
// The walk stops at a repository root (a directory containing .git).
func findProject(dir string) *Project {
	for {
		for _, name := range manifestFiles {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			if projectName := extractProjectName(name, string(data)); projectName != "" {
				return &Project{Root: dir, Manifest: name, Name: truncate(projectName, fieldMaxBytes)}
			}
		}

		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

func extractProjectName(manifest, content string) string {
	switch manifest {
	case "pyproject.toml":
		return extractPyprojectName(content)
	case "Cargo.toml":
		return extractCargoName(content)
	case "go.mod":
		return extractGoModule(content)
	case "package.json":
		return extractPackageJSONName(content)
	}
	return ""
}

type pyprojectToml struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// extractPyprojectName reads [project].name, falling back to [tool.poetry].name.
func extractPyprojectName(content string) string {
	var pyproject pyprojectToml
	if _, err := toml.Decode(content, &pyproject); err != nil {
		return ""
	}
	if pyproject.Project.Name != "" {
		return pyproject.Project.Name
	}
	return pyproject.Tool.Poetry.Name
}

type cargoToml struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

func extractCargoName(content string) string {
	var cargo cargoToml
	if _, err := toml.Decode(content, &cargo); err != nil {
		return ""
	}
	return cargo.Package.Name
}

func extractGoModule(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return ""
}

func extractPackageJSONName(content string) string {
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return ""
	}
	return pkg.Name
}

// truncate truncates s to maxBytes, appending "..." if truncated.
func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	return s[:maxBytes] + "..."
}
