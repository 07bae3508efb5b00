package app

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/assetgrid/internal/flow"
	"github.com/specialistvlad/assetgrid/internal/hcl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleTaskFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{
		File:      "../../examples/gulp-port/assetgrid.hcl",
		Workers:   4,
		LogLevel:  "error",
		LogFormat: "text",
	})
	require.NoError(t, err)

	a, err := NewApp(io.Discard, cfg, hcl.NewLoader())
	require.NoError(t, err)

	tree, err := a.Catalog().Tree("build")
	require.NoError(t, err)
	expected := `build (group)
  series
    clean (task)
    common (task)
    js (task)
    parallel
      build-css (task)
      build-images (task)
      build-html (task)
      build-js (task)
      build-fonts (task)
`
	if diff := cmp.Diff(expected, tree); diff != "" {
		t.Errorf("build tree mismatch (-want +got):\n%s", diff)
	}

	tree, err = a.Catalog().Tree("default")
	require.NoError(t, err)
	assert.Contains(t, tree, "    watch (group)\n      parallel\n        watch-files (built-in)\n        serve (built-in)\n")

	var groups []string
	for _, e := range a.Catalog().Entries() {
		if e.Kind == flow.KindGroup {
			groups = append(groups, e.Name)
		}
	}
	assert.Equal(t, []string{"build", "watch", "default"}, groups)
	assert.Len(t, a.model.Watches, 4)
	assert.Equal(t, 5555, a.model.Server.Port)
}
