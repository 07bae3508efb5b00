package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	files := []*asset.File{{Base: "/w/app", Path: "/w/app/js/common.js", Contents: []byte("abc")}}

	got, err := Print(context.Background(), &out, &registry.Env{Task: "js"}, &Input{}, files)
	require.NoError(t, err)
	assert.Equal(t, files, got)
	assert.Equal(t, "  js:\n      js/common.js (3 bytes)\n", out.String())

	out.Reset()
	_, err = Print(context.Background(), &out, &registry.Env{Task: "js"}, &Input{Title: "empty"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "  empty:\n      (empty)\n", out.String())
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	_, ok := r.Step("print")
	assert.True(t, ok)
	assert.Panics(t, func() { (&Module{}).Register(r) })
}
