package concat

import (
	"context"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcat(t *testing.T) {
	files := []*asset.File{
		{Cwd: "/w", Base: "/w/app/libs", Path: "/w/app/libs/jquery/jquery.min.js", Contents: []byte("var $;")},
		{Cwd: "/w", Base: "/w/app/js", Path: "/w/app/js/common.js", Contents: []byte("init();")},
	}

	out, err := Concat(context.Background(), nil, &Input{File: "scripts.min.js"}, files)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "var $;\ninit();", string(out[0].Contents))
	assert.Equal(t, "scripts.min.js", out[0].Relative())
	assert.Equal(t, "/w/app/libs", out[0].Base)
}

func TestConcat_Separator(t *testing.T) {
	sep := ";\n"
	files := []*asset.File{
		{Base: "/w", Path: "/w/a.js", Contents: []byte("a")},
		{Base: "/w", Path: "/w/b.js", Contents: []byte("b")},
	}

	out, err := Concat(context.Background(), nil, &Input{File: "all.js", Separator: &sep}, files)
	require.NoError(t, err)
	assert.Equal(t, "a;\nb", string(out[0].Contents))
}

func TestConcat_EmptyStream(t *testing.T) {
	out, err := Concat(context.Background(), nil, &Input{File: "all.js"}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = Concat(context.Background(), nil, &Input{}, nil)
	require.Error(t, err)
}
