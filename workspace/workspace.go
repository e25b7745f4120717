// Package workspace discovers the services of a project: monorepo
// workspace expansion (pnpm, npm/yarn, lerna), project-type inference
// from marker files, and git origin lookup. Its output is the service
// manifest the DISCOVERY phase hands to every later phase.
package workspace

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Service is one analyzable unit of a project. Path is a directory;
// service nodes in the graph carry it as their File attribute.
type Service struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Path     string          `json:"path" yaml:"path"`
	Type     string          `json:"type" yaml:"type"`
	Metadata ServiceMetadata `json:"metadata" yaml:"metadata"`
}

// ServiceMetadata carries the optional discovery details.
type ServiceMetadata struct {
	Entrypoint    string `json:"entrypoint,omitempty" yaml:"entrypoint,omitempty"`
	PackageJSON   string `json:"packageJson,omitempty" yaml:"packageJson,omitempty"`
	RelativePath  string `json:"relativePath,omitempty" yaml:"relativePath,omitempty"`
	WorkspaceType string `json:"workspaceType,omitempty" yaml:"workspaceType,omitempty"`
	Origin        string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Detector identifies project roots, workspace layouts, and the services
// they contain.
type Detector struct {
	fs afs.Service
}

// New creates a Detector.
func New() *Detector {
	return &Detector{fs: afs.New()}
}

// read loads one file, returning nil content when it does not exist.
func (d *Detector) read(p string) []byte {
	content, _ := d.fs.DownloadWithURL(context.Background(), p)
	return content
}

// packageJSON is the subset of package.json discovery reads.
type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Module     string          `json:"module"`
	Workspaces json.RawMessage `json:"workspaces"`
}

func (d *Detector) readPackageJSON(dir string) (*packageJSON, bool) {
	data := d.read(filepath.Join(dir, "package.json"))
	if len(data) == 0 {
		return nil, false
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false
	}
	return &pkg, true
}

// Discover builds the service manifest for root. A workspace root expands
// into one Service per member package; a plain project yields a single
// Service for the root itself.
func (d *Detector) Discover(root string) ([]Service, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	origin := gitOrigin(abs)

	if ws, ok := d.detectWorkspace(abs); ok {
		if packages := ws.expand(abs); len(packages) > 0 {
			services := make([]Service, 0, len(packages))
			for _, dir := range packages {
				services = append(services, d.serviceFor(abs, dir, ws.kind, origin))
			}
			return services, nil
		}
	}
	return []Service{d.serviceFor(abs, abs, "", origin)}, nil
}

// serviceFor builds one Service record for the package rooted at dir.
func (d *Detector) serviceFor(root, dir, workspaceType, origin string) Service {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		rel = ""
	}
	rel = filepath.ToSlash(rel)

	name := filepath.Base(dir)
	typ := d.projectType(dir)
	meta := ServiceMetadata{
		RelativePath:  rel,
		WorkspaceType: workspaceType,
		Origin:        origin,
	}
	if pkg, ok := d.readPackageJSON(dir); ok {
		if pkg.Name != "" {
			name = pkg.Name
		}
		meta.PackageJSON = filepath.ToSlash(filepath.Join(rel, "package.json"))
		switch {
		case pkg.Main != "":
			meta.Entrypoint = pkg.Main
		case pkg.Module != "":
			meta.Entrypoint = pkg.Module
		}
	} else if typ == "go" {
		if mod := modfile.ModulePath(d.read(filepath.Join(dir, "go.mod"))); mod != "" {
			name = path.Base(mod)
		}
	}

	id := "SERVICE:" + name
	if rel != "" {
		id = "SERVICE:" + rel
	}
	return Service{ID: id, Name: name, Path: dir, Type: typ, Metadata: meta}
}

// projectType infers a project flavor from marker files, nearest first.
func (d *Detector) projectType(dir string) string {
	switch {
	case fileExists(filepath.Join(dir, "tsconfig.json")):
		return "typescript"
	case fileExists(filepath.Join(dir, "package.json")):
		return "javascript"
	case fileExists(filepath.Join(dir, "go.mod")):
		return "go"
	case fileExists(filepath.Join(dir, "Cargo.toml")):
		return "rust"
	default:
		return "unknown"
	}
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// isSourceFile reports whether path is a file worth indexing for the
// given service type. Rust services contribute .rs files to INDEXING
// only; the walker itself handles JS/TS.
func isSourceFile(p, serviceType string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts":
		return true
	case ".rs":
		return serviceType == "rust"
	}
	return false
}

// defaultExcludes are directory names never descended into.
var defaultExcludes = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".grafema":     true,
}

// SourceFiles lists the analyzable files under a service's path, applying
// the include/exclude globs (matched against the service-relative slash
// path). Empty include means "everything".
func (d *Detector) SourceFiles(svc Service, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(svc.Path, func(p string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if defaultExcludes[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSourceFile(p, svc.Type) {
			return nil
		}
		rel, relErr := filepath.Rel(svc.Path, p)
		if relErr != nil {
			rel = entry.Name()
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(include, rel, true) || matchesAny(exclude, rel, false) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// matchesAny reports whether rel matches one of the globs; emptyResult is
// the answer for an empty glob list.
func matchesAny(globs []string, rel string, emptyResult bool) bool {
	if len(globs) == 0 {
		return emptyResult
	}
	for _, g := range globs {
		if globMatch(g, rel) {
			return true
		}
	}
	return false
}
