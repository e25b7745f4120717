package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func serviceNames(services []Service) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.Name
	}
	return out
}

func TestDiscoverPlainProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name": "solo-app", "main": "index.js"}`)

	services, err := New().Discover(root)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "solo-app", services[0].Name)
	assert.Equal(t, "javascript", services[0].Type)
	assert.Equal(t, "index.js", services[0].Metadata.Entrypoint)
}

func TestDiscoverPnpmWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pnpm-workspace.yaml"), "packages:\n  - \"packages/*\"\n  - \"!packages/internal\"\n")
	writeFile(t, filepath.Join(root, "packages", "api", "package.json"), `{"name": "@acme/api"}`)
	writeFile(t, filepath.Join(root, "packages", "web", "package.json"), `{"name": "@acme/web"}`)
	writeFile(t, filepath.Join(root, "packages", "internal", "package.json"), `{"name": "@acme/internal"}`)

	services, err := New().Discover(root)
	require.NoError(t, err)
	names := serviceNames(services)
	assert.ElementsMatch(t, []string{"@acme/api", "@acme/web"}, names)
	for _, svc := range services {
		assert.Equal(t, "pnpm", svc.Metadata.WorkspaceType)
	}
}

func TestDiscoverNpmWorkspacesArrayShape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name": "mono", "workspaces": ["apps/*"]}`)
	writeFile(t, filepath.Join(root, "apps", "cli", "package.json"), `{"name": "cli"}`)

	services, err := New().Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"cli"}, serviceNames(services))
	assert.Equal(t, "npm", services[0].Metadata.WorkspaceType)
}

func TestDiscoverNpmWorkspacesObjectShape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name": "mono", "workspaces": {"packages": ["libs/*"]}}`)
	writeFile(t, filepath.Join(root, "libs", "core", "package.json"), `{"name": "core"}`)

	services, err := New().Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"core"}, serviceNames(services))
}

func TestDiscoverLernaWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lerna.json"), `{"packages": ["modules/*"]}`)
	writeFile(t, filepath.Join(root, "modules", "auth", "package.json"), `{"name": "auth"}`)

	services, err := New().Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth"}, serviceNames(services))
	assert.Equal(t, "lerna", services[0].Metadata.WorkspaceType)
}

func TestWorkspaceMemberWithoutPackageJSONSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lerna.json"), `{"packages": ["modules/*"]}`)
	writeFile(t, filepath.Join(root, "modules", "auth", "package.json"), `{"name": "auth"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "modules", "scratch"), 0o755))

	services, err := New().Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth"}, serviceNames(services))
}

func TestSourceFilesFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name": "app"}`)
	writeFile(t, filepath.Join(root, "src", "b.ts"), "export {}\n")
	writeFile(t, filepath.Join(root, "src", "a.ts"), "export {}\n")
	writeFile(t, filepath.Join(root, "src", "a.test.ts"), "export {}\n")
	writeFile(t, filepath.Join(root, "readme.md"), "docs\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "module.exports = {}\n")

	d := New()
	services, err := d.Discover(root)
	require.NoError(t, err)

	files, err := d.SourceFiles(services[0], []string{"src/**"}, []string{"**/*.test.ts"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "src", "a.ts"), files[0])
	assert.Equal(t, filepath.Join(root, "src", "b.ts"), files[1])
}

func TestGlobMatchDoubleStar(t *testing.T) {
	assert.True(t, globMatch("src/**", "src/deep/nested/file.ts"))
	assert.True(t, globMatch("**/*.test.ts", "a/b/c.test.ts"))
	assert.True(t, globMatch("**/*.test.ts", "c.test.ts"))
	assert.False(t, globMatch("src/*", "src/deep/file.ts"))
	assert.False(t, globMatch("src/**", "lib/file.ts"))
}
