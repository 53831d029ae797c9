package generate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

func TestProjectCacheLookupMiss(t *testing.T) {
	pc := NewProjectCache()
	defer pc.Close()

	if got := pc.Lookup(""); got != nil {
		t.Errorf("expected nil for empty path, got %+v", got)
	}

	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, ".git"), 0755)
	if got := pc.Lookup(filepath.Join(dir, "main.py")); got != nil {
		t.Errorf("expected nil without manifest, got %+v", got)
	}
}

func TestProjectCacheLookupWalksUp(t *testing.T) {
	pc := NewProjectCache()
	defer pc.Close()

	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"crate-x\"\nversion = \"0.1.0\"\n"), 0644)
	sub := filepath.Join(root, "src", "bin")
	os.MkdirAll(sub, 0755)

	got := pc.Lookup(filepath.Join(sub, "tool.sh"))
	if got == nil {
		t.Fatal("expected project")
	}
	if got.Root != root || got.Name != "crate-x" || got.Manifest != "Cargo.toml" {
		t.Errorf("unexpected project %+v", got)
	}
}

func TestProjectCacheStopsAtRepositoryRoot(t *testing.T) {
	pc := NewProjectCache()
	defer pc.Close()

	outer := t.TempDir()
	os.WriteFile(filepath.Join(outer, "go.mod"), []byte("module example.com/outer\n"), 0644)
	repo := filepath.Join(outer, "repo")
	os.MkdirAll(filepath.Join(repo, ".git"), 0755)

	if got := pc.Lookup(filepath.Join(repo, "x.py")); got != nil {
		t.Errorf("expected lookup to stop at .git, got %+v", got)
	}
}

func TestProjectCachePriority(t *testing.T) {
	pc := NewProjectCache()
	defer pc.Close()

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"web"}`), 0644)
	os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("[tool.poetry]\nname = \"poetic\"\n"), 0644)

	got := pc.Lookup(filepath.Join(dir, "a.py"))
	if got == nil || got.Name != "poetic" {
		t.Errorf("expected pyproject to win, got %+v", got)
	}
}

func TestProjectCacheServesCachedEntry(t *testing.T) {
	pc := NewProjectCache()
	defer pc.Close()

	dir := t.TempDir()
	pc.cache.Set(dir, &Project{Root: dir, Manifest: "go.mod", Name: "cached"}, ttlcache.DefaultTTL)

	got := pc.Lookup(filepath.Join(dir, "x.py"))
	if got == nil || got.Name != "cached" {
		t.Errorf("expected cached project, got %+v", got)
	}
}

func TestProjectCacheExpired(t *testing.T) {
	c := ttlcache.New[string, *Project](
		ttlcache.WithTTL[string, *Project](time.Millisecond),
		ttlcache.WithDisableTouchOnHit[string, *Project](),
	)
	go c.Start()
	pc := &ProjectCache{cache: c}
	defer pc.Close()

	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, ".git"), 0755)
	pc.cache.Set(dir, &Project{Name: "stale"}, ttlcache.DefaultTTL)
	time.Sleep(10 * time.Millisecond)

	if got := pc.Lookup(filepath.Join(dir, "x.py")); got != nil {
		t.Errorf("expected expired entry to be re-resolved, got %+v", got)
	}
}

func TestExtractProjectName(t *testing.T) {
	tests := []struct {
		manifest string
		content  string
		want     string
	}{
		{"pyproject.toml", "[project]\nname = \"myapp\"\nversion = \"0.1.0\"\n", "myapp"},
		{"pyproject.toml", "[tool.poetry]\nname = \"poetry-app\"\n", "poetry-app"},
		{"pyproject.toml", "not = [toml", ""},
		{"Cargo.toml", "[package]\nname = \"myapp\"\n\n[[bin]]\nname = \"mycli\"\n", "myapp"},
		{"go.mod", "module github.com/Paranoid-AF/remark\n\ngo 1.25.7\n", "github.com/Paranoid-AF/remark"},
		{"go.mod", "go 1.22\n", ""},
		{"package.json", `{"name": "web", "scripts": {"build": "tsc"}}`, "web"},
		{"package.json", `{`, ""},
		{"setup.cfg", "[metadata]\nname = x\n", ""},
	}
	for _, tt := range tests {
		if got := extractProjectName(tt.manifest, tt.content); got != tt.want {
			t.Errorf("extractProjectName(%s, %q) = %q, want %q", tt.manifest, tt.content, got, tt.want)
		}
	}
}

func TestProjectSummary(t *testing.T) {
	var p *Project
	if p.Summary() != "" {
		t.Error("expected empty summary for nil project")
	}
	p = &Project{Manifest: "go.mod", Name: "example.com/x"}
	if got := p.Summary(); got != "example.com/x (go.mod)" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestTruncate(t *testing.T) {
	short := "hello"
	if got := truncate(short, 100); got != short {
		t.Errorf("expected %q unchanged, got %q", short, got)
	}

	long := strings.Repeat("x", 300)
	got := truncate(long, fieldMaxBytes)
	if len(got) != fieldMaxBytes+3 {
		t.Errorf("expected length %d, got %d", fieldMaxBytes+3, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected truncated string to end with ...")
	}
}
