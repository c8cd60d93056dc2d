package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"attendance.service/internal/config"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Memory(t *testing.T) {
	store, closeFn, err := OpenStore(context.Background(), config.Config{StoreDriver: StoreMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repository.MemoryRepository{}, store)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.Config{StoreDriver: "mongo"})
	assert.ErrorContains(t, err, "mongo")
}

func TestOpenDirectory(t *testing.T) {
	d, err := OpenDirectory(config.Config{DirectoryAPIURL: "http://hr.local", DirectoryCacheTTLS: 60})
	require.NoError(t, err)
	assert.IsType(t, &directory.HTTPDirectory{}, d)

	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("employees:\n  - id: emp-1\n    name: Ana\n"), 0o600))
	d, err = OpenDirectory(config.Config{DirectoryFile: path})
	require.NoError(t, err)
	e, err := d.Get(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", e.Name)

	_, err = OpenDirectory(config.Config{DirectoryFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
