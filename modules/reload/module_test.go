package reload

import (
	"context"
	"sync"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReloader struct {
	mu       sync.Mutex
	reloads  int
	streamed [][]string
}

func (r *recordingReloader) Reload(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloads++
}

func (r *recordingReloader) Stream(_ context.Context, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streamed = append(r.streamed, paths)
}

func TestReload(t *testing.T) {
	rec := &recordingReloader{}
	env := &registry.Env{Reloader: rec}
	files := []*asset.File{{Path: "/w/app/css/style.css"}}

	out, err := Reload(context.Background(), env, nil, files)
	require.NoError(t, err)
	assert.Equal(t, files, out)
	assert.Equal(t, [][]string{{"/w/app/css/style.css"}}, rec.streamed)

	_, err = Reload(context.Background(), env, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.reloads)
}

func TestReload_NoSession(t *testing.T) {
	files := []*asset.File{{Path: "/w/a.css"}}
	out, err := Reload(context.Background(), &registry.Env{}, nil, files)
	require.NoError(t, err)
	assert.Equal(t, files, out)
}
