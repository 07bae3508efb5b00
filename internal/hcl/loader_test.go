package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHCL(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func load(t *testing.T, files map[string]string) (*config.Model, error) {
	t.Helper()
	dir := writeHCL(t, files)
	return NewLoader().Load(context.Background(), dir)
}

func TestLoad_FullTaskFile(t *testing.T) {
	t.Parallel()

	model, err := load(t, map[string]string{
		"assetgrid.hcl": `
			locals {
				app  = "app"
				scss = "${local.app}/scss"
			}

			server {
				root   = local.app
				port   = 5555
				open   = "local"
				notify = true
			}

			watcher {
				debounce = "100ms"
				ignore   = ["**/vendor/**"]
			}

			task "css" {
				description = "Compile styles"
				src         = ["${local.scss}/style.scss"]

				step "sass" {
					output_style = "expanded"
				}
				step "dest" {
					dir = "${local.app}/css"
				}
			}

			task "js" {
				src = ["${local.app}/js/common.js"]
			}

			group "build" {
				description = "Full build"
				run         = series("css", parallel("js", "css"))
			}

			group "list-form" {
				run = ["css", "js"]
			}

			watch "app/scss/**/*.scss" {
				run = "css"
			}
		`,
	})
	require.NoError(t, err)

	require.Len(t, model.Tasks, 2)
	css := model.Tasks[0]
	assert.Equal(t, "css", css.Name)
	assert.Equal(t, "Compile styles", css.Description)
	assert.Equal(t, []string{"app/scss/style.scss"}, css.Sources)
	require.Len(t, css.Steps, 2)
	assert.Equal(t, "sass", css.Steps[0].Type)
	assert.Contains(t, css.Location, "assetgrid.hcl")

	var dest struct {
		Dir string `hcl:"dir"`
	}
	require.NoError(t, css.Steps[1].Config.Decode(&dest))
	assert.Equal(t, "app/css", dest.Dir)

	require.Len(t, model.Groups, 2)
	assert.Equal(t, "series(css, parallel(js, css))", model.Groups[0].Run.String())
	assert.Equal(t, "Full build", model.Groups[0].Description)
	assert.Equal(t, "series(css, js)", model.Groups[1].Run.String())

	require.Len(t, model.Watches, 1)
	assert.Equal(t, "app/scss/**/*.scss", model.Watches[0].Pattern)
	assert.Equal(t, "css", model.Watches[0].Run.String())

	expectedServer := &config.Server{Root: "app", Host: config.DefaultHost, Port: 5555, Open: "local", Notify: true}
	if diff := cmp.Diff(expectedServer, model.Server); diff != "" {
		t.Errorf("server mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 100*time.Millisecond, model.Watcher.Debounce)
	assert.Equal(t, []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"}, model.Watcher.Ignore)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	model, err := load(t, map[string]string{
		"assetgrid.hcl": `task "noop" {}`,
	})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultDebounce, model.Watcher.Debounce)
	assert.Equal(t, config.DefaultPort, model.Server.Port)
	assert.Equal(t, ".", model.Server.Root)
	assert.Empty(t, model.Server.Open)
}

func TestLoad_MultipleFilesShareLocals(t *testing.T) {
	t.Parallel()

	model, err := load(t, map[string]string{
		"a.hcl": `locals { dist = "dist" }`,
		"b.hcl": `
			task "fonts" {
				src = ["app/fonts/**/*"]
				step "dest" { dir = "${local.dist}/fonts" }
			}
		`,
	})
	require.NoError(t, err)
	require.Len(t, model.Tasks, 1)

	var dest struct {
		Dir string `hcl:"dir"`
	}
	require.NoError(t, model.Tasks[0].Steps[0].Config.Decode(&dest))
	assert.Equal(t, "dist/fonts", dest.Dir)
}

func TestLoad_Functions(t *testing.T) {
	t.Parallel()

	model, err := load(t, map[string]string{
		"assetgrid.hcl": `
			locals {
				name = "app"
			}
			task "t" {
				description = format("%s-%s", upper(local.name), lower("X"))
				src         = concat(["a/*.js"], [join("/", ["b", "*.js"])])
			}
		`,
	})
	require.NoError(t, err)
	assert.Equal(t, "APP-x", model.Tasks[0].Description)
	assert.Equal(t, []string{"a/*.js", "b/*.js"}, model.Tasks[0].Sources)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		hcl      string
		contains string
	}{
		{
			name:     "syntax error",
			hcl:      `task "x" {`,
			contains: "failed to parse HCL file",
		},
		{
			name:     "duplicate unit",
			hcl:      `task "x" {}` + "\n" + `group "x" { run = "y" }`,
			contains: `duplicate unit "x"`,
		},
		{
			name:     "circular locals",
			hcl:      "locals {\n  a = local.b\n  b = local.a\n}",
			contains: "failed to evaluate locals",
		},
		{
			name:     "unknown block",
			hcl:      `pipeline "x" {}`,
			contains: "failed to decode HCL file",
		},
		{
			name:     "invalid open mode",
			hcl:      `server { open = "tunnel" }`,
			contains: "open must be",
		},
		{
			name:     "invalid debounce",
			hcl:      `watcher { debounce = "soon" }`,
			contains: "invalid debounce",
		},
		{
			name:     "invalid run value",
			hcl:      `group "g" { run = 3 }`,
			contains: "invalid run value",
		},
		{
			name:     "invalid src glob",
			hcl:      `task "t" { src = ["app/[.js"] }`,
			contains: "invalid src pattern",
		},
		{
			name:     "duplicate server",
			hcl:      "server {}\nserver {}",
			contains: "duplicate server block",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := load(t, map[string]string{"assetgrid.hcl": tc.hcl})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	t.Parallel()
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl task file found")
}
