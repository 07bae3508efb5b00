package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TreeDigest returns a map from every regular file below root (slash
// separated, relative to root) to the SHA-256 of its contents. A missing
// root yields an empty map.
func TreeDigest(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return out
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		out[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	require.NoError(t, err)
	return out
}
