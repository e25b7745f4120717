package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// workspaceSpec is one detected workspace layout: the glob patterns its
// config names, split into positive and negative ("!"-prefixed) sets.
type workspaceSpec struct {
	kind             string // "pnpm" | "npm" | "lerna"
	patterns         []string
	negativePatterns []string
}

// detectWorkspace probes root for the three workspace flavors, in the
// order pnpm, npm/yarn, lerna.
func (d *Detector) detectWorkspace(root string) (workspaceSpec, bool) {
	if data := d.read(filepath.Join(root, "pnpm-workspace.yaml")); len(data) > 0 {
		var doc struct {
			Packages []string `yaml:"packages"`
		}
		if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Packages) > 0 {
			return splitPatterns("pnpm", doc.Packages), true
		}
	}

	if pkg, ok := d.readPackageJSON(root); ok && len(pkg.Workspaces) > 0 {
		if patterns := parseNpmWorkspaces(pkg.Workspaces); len(patterns) > 0 {
			return splitPatterns("npm", patterns), true
		}
	}

	if data := d.read(filepath.Join(root, "lerna.json")); len(data) > 0 {
		var doc struct {
			Packages []string `json:"packages"`
		}
		if err := json.Unmarshal(data, &doc); err == nil && len(doc.Packages) > 0 {
			return splitPatterns("lerna", doc.Packages), true
		}
	}
	return workspaceSpec{}, false
}

// parseNpmWorkspaces accepts both package.json workspace shapes: a bare
// array of globs, or {"packages": [...]}.
func parseNpmWorkspaces(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

func splitPatterns(kind string, patterns []string) workspaceSpec {
	ws := workspaceSpec{kind: kind}
	for _, p := range patterns {
		if negated, ok := strings.CutPrefix(p, "!"); ok {
			ws.negativePatterns = append(ws.negativePatterns, negated)
			continue
		}
		ws.patterns = append(ws.patterns, p)
	}
	return ws
}

// expand resolves the workspace globs into concrete package directories:
// every directory under root matching a positive pattern, none of the
// negative ones, and containing a package.json.
func (ws workspaceSpec) expand(root string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range ws.patterns {
		for _, dir := range globDirs(root, pattern) {
			rel, err := filepath.Rel(root, dir)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if matchesAny(ws.negativePatterns, rel, false) {
				continue
			}
			if !fileExists(filepath.Join(dir, "package.json")) {
				continue
			}
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

// globDirs lists directories under root matching pattern. A trailing
// "/*" or "/**" segment is the common monorepo shape ("packages/*");
// filepath.Glob covers single-star segments, and a "**" suffix is
// flattened to one level plus its children.
func globDirs(root, pattern string) []string {
	pattern = strings.TrimSuffix(pattern, "/")
	expanded := []string{pattern}
	if strings.HasSuffix(pattern, "/**") {
		base := strings.TrimSuffix(pattern, "/**")
		expanded = []string{base, base + "/*", base + "/*/*"}
	}
	var out []string
	for _, p := range expanded {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				out = append(out, m)
			}
		}
	}
	return out
}

// globMatch matches a slash-separated path against a glob where "**"
// crosses directory separators and "*" does not.
func globMatch(pattern, rel string) bool {
	return segMatch(strings.Split(pattern, "/"), strings.Split(rel, "/"))
}

func segMatch(pat, parts []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			if len(pat) == 1 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if segMatch(pat[1:], parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		ok, err := filepath.Match(pat[0], parts[0])
		if err != nil || !ok {
			return false
		}
		pat, parts = pat[1:], parts[1:]
	}
	return len(parts) == 0
}
