package sassglob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSassGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"base/_vars.scss",
		"base/_mixins.scss",
		"components/buttons/_primary.scss",
		"components/_cards.scss",
		"components/readme.md",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	source := "@import 'base/*';\n  @import \"components/**/*.scss\";\n@import \"plain\";\n"
	self := filepath.Join(dir, "style.scss")
	files := []*asset.File{{Base: dir, Path: self, Contents: []byte(source)}}

	out, err := SassGlob(context.Background(), nil, &Input{Ignore: []string{"components/buttons/**"}}, files)
	require.NoError(t, err)
	require.Len(t, out, 1)

	expected := "@import \"base/_mixins.scss\";\n" +
		"@import \"base/_vars.scss\";\n" +
		"  @import \"components/_cards.scss\";\n" +
		"@import \"plain\";\n"
	assert.Equal(t, expected, string(out[0].Contents))
	assert.Equal(t, source, string(files[0].Contents))
}

func TestExpand_NoMatches(t *testing.T) {
	dir := t.TempDir()
	out, err := Expand(dir, filepath.Join(dir, "style.scss"), []byte("@import \"missing/*\";\nbody{}"), nil)
	require.NoError(t, err)
	assert.Equal(t, "\nbody{}", string(out))
}
